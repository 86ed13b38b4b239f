package weighing

import (
	"math"
	"strings"

	"github.com/mamadbah2/herdbook/internal/domain/models"
)

// EvaluateTransfer returns the destination lot for an animal of the given weight.
// Criteria are tried in order and the first match wins. Incomplete criteria
// (no threshold, blank destination, unknown condition) never match.
// With no match the animal stays in originLotID.
func EvaluateTransfer(weight float64, criteria []models.TransferCriterion, originLotID string) string {
	for _, c := range criteria {
		if !complete(c) {
			continue
		}
		if matches(weight, c) {
			return c.DestinationLotID
		}
	}
	return originLotID
}

func complete(c models.TransferCriterion) bool {
	if c.WeightValue == nil || math.IsNaN(*c.WeightValue) {
		return false
	}
	return strings.TrimSpace(c.DestinationLotID) != ""
}

func matches(weight float64, c models.TransferCriterion) bool {
	threshold := *c.WeightValue
	switch c.Condition {
	case models.ConditionLessThanOrEqual:
		return weight <= threshold
	case models.ConditionGreaterThan:
		return weight > threshold
	default:
		return false
	}
}
