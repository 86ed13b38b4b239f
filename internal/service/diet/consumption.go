// Package diet assigns feeding plans to lots and deducts their daily
// consumption from inventory.
package diet

import (
	"fmt"
	"math"
	"time"

	"github.com/mamadbah2/herdbook/internal/domain/models"
	"github.com/mamadbah2/herdbook/internal/domain/units"
)

// Skip reasons reported by ApplyDailyConsumption.
const (
	SkipOutsideWindow   = "outside-window"
	SkipAlreadyConsumed = "already-consumed"
)

// Consumption describes what one diet did to its inventory item on one day.
type Consumption struct {
	DietID           string     `json:"dietId"`
	LotID            string     `json:"lotId"`
	InventoryItemID  string     `json:"inventoryItemId"`
	Applied          bool       `json:"applied"`
	SkipReason       string     `json:"skipReason,omitempty"`
	Consumed         float64    `json:"consumed"`
	Unit             units.Unit `json:"unit"`
	PreviousQuantity float64    `json:"previousQuantity"`
	NewQuantity      float64    `json:"newQuantity"`
	Depleted         bool       `json:"depleted"`

	InventoryPatch models.InventoryPatch `json:"-"`
	DietPatch      models.DietPatch      `json:"-"`
}

// Day truncates t to its calendar date, keeping the date as seen in t's location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ApplyDailyConsumption computes today's deduction for one diet. It never
// mutates its inputs: the returned patches must be written back by the caller.
// A diet is skipped outside its [start, end] window and when it already
// consumed today, which makes repeated calls on the same day harmless.
func ApplyDailyConsumption(diet models.DietRecord, item models.InventoryItem, today time.Time) (Consumption, error) {
	day := Day(today)
	result := Consumption{
		DietID:           diet.ID,
		LotID:            diet.LotID,
		InventoryItemID:  item.ID,
		Unit:             item.Unit,
		PreviousQuantity: item.Quantity,
		NewQuantity:      item.Quantity,
	}

	if day.Before(Day(diet.StartDate)) || day.After(Day(diet.EndDate)) {
		result.SkipReason = SkipOutsideWindow
		return result, nil
	}
	if diet.LastConsumptionDate != nil && Day(*diet.LastConsumptionDate).Equal(day) {
		result.SkipReason = SkipAlreadyConsumed
		return result, nil
	}

	from := diet.TotalQuantityUnit
	if from == "" {
		from = item.Unit
	}
	daily, err := units.Convert(diet.TotalQuantity, from, item.Unit)
	if err != nil {
		return Consumption{}, fmt.Errorf("diet %s: %w", diet.ID, err)
	}

	newQuantity := math.Max(0, item.Quantity-daily)
	result.Applied = true
	result.Consumed = item.Quantity - newQuantity
	result.NewQuantity = newQuantity
	result.Depleted = newQuantity == 0
	result.InventoryPatch = models.InventoryPatch{Quantity: &newQuantity}
	result.DietPatch = models.DietPatch{LastConsumptionDate: &day}
	return result, nil
}

// TotalForLot is the whole lot's daily ration of diet, expressed in itemUnit.
func TotalForLot(diet models.DietRecord, lot models.Lot, itemUnit units.Unit) (float64, error) {
	base := diet.BaseUnit
	if base == "" {
		family, err := units.FamilyOf(itemUnit)
		if err != nil {
			return 0, err
		}
		base = units.BaseUnit(family)
	}
	return units.Convert(diet.QuantityPerAnimal*float64(lot.NumberOfAnimals), base, itemUnit)
}

// NewDietRecord builds a diet plan for lot consuming item. quantityPerAnimal is
// given in displayUnit, which must belong to the item's unit family.
func NewDietRecord(lot models.Lot, item models.InventoryItem, quantityPerAnimal float64, displayUnit units.Unit, start, end time.Time) (models.DietRecord, error) {
	if quantityPerAnimal <= 0 || math.IsNaN(quantityPerAnimal) || math.IsInf(quantityPerAnimal, 0) {
		return models.DietRecord{}, fmt.Errorf("%w: quantityPerAnimal must be a positive number", models.ErrValidation)
	}
	if start.IsZero() || end.IsZero() {
		return models.DietRecord{}, fmt.Errorf("%w: startDate and endDate are required", models.ErrValidation)
	}
	if Day(end).Before(Day(start)) {
		return models.DietRecord{}, fmt.Errorf("%w: endDate is before startDate", models.ErrValidation)
	}

	unit, err := units.Parse(string(displayUnit))
	if err != nil {
		return models.DietRecord{}, err
	}
	if !units.SameFamily(unit, item.Unit) {
		return models.DietRecord{}, fmt.Errorf("%w: %s cannot measure item %s stocked in %s", units.ErrInvalidUnitFamily, unit, item.Name, item.Unit)
	}

	perAnimal, base, err := units.ToBase(quantityPerAnimal, unit)
	if err != nil {
		return models.DietRecord{}, err
	}

	record := models.DietRecord{
		LotID:                    lot.ID,
		InventoryItemID:          item.ID,
		StartDate:                Day(start),
		EndDate:                  Day(end),
		QuantityPerAnimal:        perAnimal,
		BaseUnit:                 base,
		DisplayQuantityPerAnimal: quantityPerAnimal,
		DisplayUnit:              unit,
		TotalQuantityUnit:        item.Unit,
	}
	record.TotalQuantity, err = TotalForLot(record, lot, item.Unit)
	if err != nil {
		return models.DietRecord{}, err
	}
	return record, nil
}
