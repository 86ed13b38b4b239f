package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Breed enumerates the cattle breeds a lot can hold.
type Breed string

const (
	BreedNelore               Breed = "nelore"
	BreedAnelorada            Breed = "anelorada"
	BreedCruzamentoIndustrial Breed = "cruzamento-industrial"
)

// Valid reports whether b is one of the known breeds.
func (b Breed) Valid() bool {
	switch b {
	case BreedNelore, BreedAnelorada, BreedCruzamentoIndustrial:
		return true
	}
	return false
}

// LotStatus enumerates the lifecycle states of a lot.
type LotStatus string

const (
	LotStatusActive    LotStatus = "active"
	LotStatusSold      LotStatus = "sold"
	LotStatusTreatment LotStatus = "treatment"
)

// Valid reports whether s is one of the known statuses.
func (s LotStatus) Valid() bool {
	switch s {
	case LotStatusActive, LotStatusSold, LotStatusTreatment:
		return true
	}
	return false
}

// Lot is a group of animals managed together.
type Lot struct {
	ID               string     `bson:"_id" json:"id"`
	Name             string     `bson:"name" json:"name"`
	NumberOfAnimals  int        `bson:"number_of_animals" json:"numberOfAnimals"`
	Breed            Breed      `bson:"breed" json:"breed"`
	Status           LotStatus  `bson:"status" json:"status"`
	CurrentPastureID string     `bson:"current_pasture_id,omitempty" json:"currentPastureId,omitempty"`
	AverageWeight    *float64   `bson:"average_weight,omitempty" json:"averageWeight,omitempty"`
	Source           string     `bson:"source,omitempty" json:"source,omitempty"`
	PurchaseDate     *time.Time `bson:"purchase_date,omitempty" json:"purchaseDate,omitempty"`
	Notes            string     `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt        time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt        time.Time  `bson:"updated_at" json:"updatedAt"`
}

// Validate checks the invariants of a lot before it is stored.
// An empty status is normalised to active.
func (l *Lot) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return validationError("name", "must not be blank")
	}
	if l.NumberOfAnimals < 0 {
		return validationError("numberOfAnimals", "must not be negative")
	}
	if !l.Breed.Valid() {
		return validationError("breed", fmt.Sprintf("unknown breed %q", l.Breed))
	}
	if l.Status == "" {
		l.Status = LotStatusActive
	}
	if !l.Status.Valid() {
		return validationError("status", fmt.Sprintf("unknown status %q", l.Status))
	}
	if l.AverageWeight != nil {
		if w := *l.AverageWeight; w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return validationError("averageWeight", "must be a finite non-negative number")
		}
	}
	return nil
}

// LotPatch carries the fields of a partial lot update. Nil fields are left untouched.
type LotPatch struct {
	Name             *string    `json:"name,omitempty"`
	NumberOfAnimals  *int       `json:"numberOfAnimals,omitempty"`
	Breed            *Breed     `json:"breed,omitempty"`
	Status           *LotStatus `json:"status,omitempty"`
	CurrentPastureID *string    `json:"currentPastureId,omitempty"`
	AverageWeight    *float64   `json:"averageWeight,omitempty"`
	Notes            *string    `json:"notes,omitempty"`
}

// Apply returns a copy of l with the patch applied and validated.
func (p LotPatch) Apply(l Lot) (Lot, error) {
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.NumberOfAnimals != nil {
		l.NumberOfAnimals = *p.NumberOfAnimals
	}
	if p.Breed != nil {
		l.Breed = *p.Breed
	}
	if p.Status != nil {
		l.Status = *p.Status
	}
	if p.CurrentPastureID != nil {
		l.CurrentPastureID = *p.CurrentPastureID
	}
	if p.AverageWeight != nil {
		w := *p.AverageWeight
		l.AverageWeight = &w
	}
	if p.Notes != nil {
		l.Notes = *p.Notes
	}
	if err := l.Validate(); err != nil {
		return Lot{}, err
	}
	return l, nil
}

// LotUpdate is a mutation intent produced by the weighing engine.
// The animal count is a signed delta; the resulting count is floored at zero.
type LotUpdate struct {
	LotID            string   `json:"lotId"`
	AnimalCountDelta int      `json:"animalCountDelta"`
	AverageWeight    *float64 `json:"averageWeight,omitempty"`
}

// Apply returns a copy of l with the update applied.
func (u LotUpdate) Apply(l Lot) Lot {
	l.NumberOfAnimals += u.AnimalCountDelta
	if l.NumberOfAnimals < 0 {
		l.NumberOfAnimals = 0
	}
	if u.AverageWeight != nil {
		w := *u.AverageWeight
		l.AverageWeight = &w
	}
	return l
}
