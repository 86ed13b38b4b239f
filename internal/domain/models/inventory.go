package models

import (
	"math"
	"strings"
	"time"

	"github.com/mamadbah2/herdbook/internal/domain/units"
)

// InventoryItem is a stocked input such as feed, salt or a liquid supplement.
type InventoryItem struct {
	ID        string     `bson:"_id" json:"id"`
	Name      string     `bson:"name" json:"name"`
	Quantity  float64    `bson:"quantity" json:"quantity"`
	Unit      units.Unit `bson:"unit" json:"unit"`
	CreatedAt time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updatedAt"`
}

// Validate checks the item invariants and normalises its unit spelling.
func (i *InventoryItem) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return validationError("name", "must not be blank")
	}
	if i.Quantity < 0 || math.IsNaN(i.Quantity) || math.IsInf(i.Quantity, 0) {
		return validationError("quantity", "must be a finite non-negative number")
	}
	unit, err := units.Parse(string(i.Unit))
	if err != nil {
		return validationError("unit", err.Error())
	}
	i.Unit = unit
	return nil
}

// InventoryPatch carries the fields of a partial inventory update.
type InventoryPatch struct {
	Name     *string  `json:"name,omitempty"`
	Quantity *float64 `json:"quantity,omitempty"`
}

// Apply returns a copy of i with the patch applied. Quantity is floored at zero.
func (p InventoryPatch) Apply(i InventoryItem) InventoryItem {
	if p.Name != nil {
		i.Name = *p.Name
	}
	if p.Quantity != nil {
		i.Quantity = math.Max(0, *p.Quantity)
	}
	return i
}
