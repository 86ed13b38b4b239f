package models

import (
	"math"
	"time"
)

// WeighingRecord is the append-only result of one weighing session.
type WeighingRecord struct {
	ID               string         `bson:"_id" json:"id"`
	Date             time.Time      `bson:"date" json:"date"`
	LotID            string         `bson:"lot_id" json:"lotId"`
	NumberOfAnimals  int            `bson:"number_of_animals" json:"numberOfAnimals"`
	WeighedAnimals   int            `bson:"weighed_animals" json:"weighedAnimals"`
	SkippedAnimals   int            `bson:"skipped_animals" json:"skippedAnimals"`
	TotalWeight      float64        `bson:"total_weight" json:"totalWeight"`
	AverageWeight    float64        `bson:"average_weight" json:"averageWeight"`
	DestinationLotID string         `bson:"destination_lot_id,omitempty" json:"destinationLotId,omitempty"`
	Breeds           []BreedWeights `bson:"breeds,omitempty" json:"breeds,omitempty"`
	Notes            string         `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt        time.Time      `bson:"created_at" json:"createdAt"`
}

// BreedWeights aggregates the weighed animals of one breed.
type BreedWeights struct {
	Breed         Breed   `bson:"breed" json:"breed"`
	Animals       int     `bson:"animals" json:"animals"`
	TotalWeight   float64 `bson:"total_weight" json:"totalWeight"`
	AverageWeight float64 `bson:"average_weight" json:"averageWeight"`
}

// AnimalObservation is one animal seen during a weighing session.
// A weight of zero or less marks the animal as skipped.
type AnimalObservation struct {
	Weight           float64 `json:"weight"`
	Breed            Breed   `json:"breed,omitempty"`
	Notes            string  `json:"notes,omitempty"`
	OriginLotID      string  `json:"originLotId"`
	DestinationLotID string  `json:"destinationLotId,omitempty"`
}

// Weighed reports whether the observation counts toward the weighed sample.
func (o AnimalObservation) Weighed() bool {
	return o.Weight > 0 && !math.IsNaN(o.Weight) && !math.IsInf(o.Weight, 0)
}

// TransferCondition is the comparison a TransferCriterion applies.
type TransferCondition string

const (
	ConditionLessThanOrEqual TransferCondition = "less-than-or-equal"
	ConditionGreaterThan     TransferCondition = "greater-than"
)

// TransferCriterion routes animals to a destination lot by weight.
// Criteria are evaluated in stored order, so order is significant.
type TransferCriterion struct {
	WeightValue      *float64          `bson:"weight_value,omitempty" json:"weightValue,omitempty"`
	Condition        TransferCondition `bson:"condition" json:"condition"`
	DestinationLotID string            `bson:"destination_lot_id" json:"destinationLotId"`
}
