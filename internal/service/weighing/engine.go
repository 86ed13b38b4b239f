// Package weighing turns animal weight observations into a weighing record and
// the lot mutations that reflect it. Nothing here touches a store: callers hand
// in a snapshot of the origin lot and commit the returned Outcome themselves.
package weighing

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/mamadbah2/herdbook/internal/domain/models"
)

// ErrEmptySession is returned when a session with no observations is finished
// against a lot that holds no animals.
var ErrEmptySession = errors.New("weighing session is empty")

// ErrInvalidObservation indicates an observation that cannot enter a session.
var ErrInvalidObservation = errors.New("invalid observation")

// ClampedTransferWarning reports that more animals were routed out of a lot
// than it held. The lot count was clamped to zero.
type ClampedTransferWarning struct {
	LotID     string `json:"lotId"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// String describes the clamp for logs and API responses.
func (w ClampedTransferWarning) String() string {
	return fmt.Sprintf("transfer of %d animals out of lot %s exceeds the %d it holds; count clamped to 0", w.Requested, w.LotID, w.Available)
}

// Transfer tallies the animals routed to one destination lot.
type Transfer struct {
	DestinationLotID string `json:"destinationLotId"`
	Animals          int    `json:"animals"`
}

// Outcome is everything a finished session produces. It is either committed
// whole or not at all.
type Outcome struct {
	Record        models.WeighingRecord      `json:"record"`
	LotUpdates    []models.LotUpdate         `json:"lotUpdates"`
	Transfers     []Transfer                 `json:"transfers,omitempty"`
	Observations  []models.AnimalObservation `json:"observations"`
	SampleAverage float64                    `json:"sampleAverage"`
	Warnings      []ClampedTransferWarning   `json:"warnings,omitempty"`
}

// RecordObservation validates a single animal reading. A weight of zero or less
// yields a skipped observation; NaN and infinities are rejected.
func RecordObservation(originLotID string, weight float64, breed models.Breed, notes string) (models.AnimalObservation, error) {
	if math.IsNaN(weight) || math.IsInf(weight, 0) {
		return models.AnimalObservation{}, fmt.Errorf("%w: weight must be a finite number", ErrInvalidObservation)
	}
	if breed != "" && !breed.Valid() {
		return models.AnimalObservation{}, fmt.Errorf("%w: unknown breed %q", ErrInvalidObservation, breed)
	}
	if weight < 0 {
		weight = 0
	}
	return models.AnimalObservation{
		Weight:      weight,
		Breed:       breed,
		Notes:       notes,
		OriginLotID: originLotID,
	}, nil
}

// FinishSession reconciles the observations of one session against the origin lot.
//
// Unweighed animals, including those never observed when the lot declares more
// animals than were seen, are estimated at the sample average. A lot holding no
// animals is treated as new: it grows by the number of observations instead.
// A lot observed with more animals than it declares grows to the observed count.
// The origin lot's stored average is replaced by the sample average whenever at
// least one animal was weighed.
func FinishSession(origin models.Lot, observations []models.AnimalObservation, criteria []models.TransferCriterion) (Outcome, error) {
	if len(observations) == 0 && origin.NumberOfAnimals <= 0 {
		return Outcome{}, fmt.Errorf("%w: lot %s has no animals", ErrEmptySession, origin.ID)
	}

	resolved := make([]models.AnimalObservation, len(observations))
	var (
		weighedCount int
		weighedSum   float64
	)
	for i, obs := range observations {
		if math.IsNaN(obs.Weight) || math.IsInf(obs.Weight, 0) {
			return Outcome{}, fmt.Errorf("%w: observation %d has a non-finite weight", ErrInvalidObservation, i)
		}
		if obs.Breed == "" {
			obs.Breed = origin.Breed
		} else if !obs.Breed.Valid() {
			return Outcome{}, fmt.Errorf("%w: observation %d has unknown breed %q", ErrInvalidObservation, i, obs.Breed)
		}
		obs.OriginLotID = origin.ID
		obs.DestinationLotID = origin.ID
		if obs.Weighed() {
			weighedCount++
			weighedSum += obs.Weight
			obs.DestinationLotID = EvaluateTransfer(obs.Weight, criteria, origin.ID)
		}
		resolved[i] = obs
	}

	newLot := origin.NumberOfAnimals <= 0
	totalAnimals := origin.NumberOfAnimals
	if newLot || len(observations) > totalAnimals {
		totalAnimals = len(observations)
	}

	var sampleAverage float64
	if weighedCount > 0 {
		sampleAverage = weighedSum / float64(weighedCount)
	}
	estimatedTotal := weighedSum + float64(totalAnimals-weighedCount)*sampleAverage

	record := models.WeighingRecord{
		LotID:           origin.ID,
		NumberOfAnimals: totalAnimals,
		WeighedAnimals:  weighedCount,
		SkippedAnimals:  totalAnimals - weighedCount,
		TotalWeight:     estimatedTotal,
		Breeds:          breedBreakdown(resolved),
	}
	if totalAnimals > 0 {
		record.AverageWeight = estimatedTotal / float64(totalAnimals)
	}

	transfers, moved := tallyTransfers(resolved, origin.ID)
	if len(transfers) == 1 {
		record.DestinationLotID = transfers[0].DestinationLotID
	}

	outcome := Outcome{
		Record:        record,
		Transfers:     transfers,
		Observations:  resolved,
		SampleAverage: sampleAverage,
	}

	// The origin first holds every animal counted in the record, then loses
	// the ones routed elsewhere.
	remaining, warning := remainingAfterTransfers(origin.ID, totalAnimals, moved)
	if warning != nil {
		outcome.Warnings = append(outcome.Warnings, *warning)
	}

	originUpdate := models.LotUpdate{
		LotID:            origin.ID,
		AnimalCountDelta: remaining - origin.NumberOfAnimals,
	}
	if weighedCount > 0 {
		avg := sampleAverage
		originUpdate.AverageWeight = &avg
	}
	if originUpdate.AnimalCountDelta != 0 || originUpdate.AverageWeight != nil {
		outcome.LotUpdates = append(outcome.LotUpdates, originUpdate)
	}
	for _, t := range transfers {
		outcome.LotUpdates = append(outcome.LotUpdates, models.LotUpdate{
			LotID:            t.DestinationLotID,
			AnimalCountDelta: t.Animals,
		})
	}

	return outcome, nil
}

// tallyTransfers counts animals per destination in order of first appearance.
// remainingAfterTransfers returns how many animals stay in a lot holding held
// once moved have left it. The result never goes below zero.
func remainingAfterTransfers(lotID string, held, moved int) (int, *ClampedTransferWarning) {
	remaining := held - moved
	if remaining >= 0 {
		return remaining, nil
	}
	return 0, &ClampedTransferWarning{LotID: lotID, Requested: moved, Available: held}
}

func tallyTransfers(observations []models.AnimalObservation, originLotID string) ([]Transfer, int) {
	var (
		transfers []Transfer
		moved     int
	)
	index := make(map[string]int)
	for _, obs := range observations {
		if obs.DestinationLotID == "" || obs.DestinationLotID == originLotID {
			continue
		}
		moved++
		i, ok := index[obs.DestinationLotID]
		if !ok {
			i = len(transfers)
			index[obs.DestinationLotID] = i
			transfers = append(transfers, Transfer{DestinationLotID: obs.DestinationLotID})
		}
		transfers[i].Animals++
	}
	return transfers, moved
}

func breedBreakdown(observations []models.AnimalObservation) []models.BreedWeights {
	byBreed := make(map[models.Breed]*models.BreedWeights)
	for _, obs := range observations {
		if !obs.Weighed() {
			continue
		}
		bw, ok := byBreed[obs.Breed]
		if !ok {
			bw = &models.BreedWeights{Breed: obs.Breed}
			byBreed[obs.Breed] = bw
		}
		bw.Animals++
		bw.TotalWeight += obs.Weight
	}

	out := make([]models.BreedWeights, 0, len(byBreed))
	for _, bw := range byBreed {
		bw.AverageWeight = bw.TotalWeight / float64(bw.Animals)
		out = append(out, *bw)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Breed < out[j].Breed })
	return out
}
