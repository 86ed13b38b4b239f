package models

import (
	"time"

	"github.com/mamadbah2/herdbook/internal/domain/units"
)

// DietRecord assigns a daily ration of an inventory item to every animal of a lot.
type DietRecord struct {
	ID              string    `bson:"_id" json:"id"`
	LotID           string    `bson:"lot_id" json:"lotId"`
	InventoryItemID string    `bson:"inventory_item_id" json:"inventoryItemId"`
	StartDate       time.Time `bson:"start_date" json:"startDate"`
	EndDate         time.Time `bson:"end_date" json:"endDate"`

	// QuantityPerAnimal is kept in the family base unit (g or ml).
	QuantityPerAnimal float64    `bson:"quantity_per_animal" json:"quantityPerAnimal"`
	BaseUnit          units.Unit `bson:"base_unit" json:"baseUnit"`

	DisplayQuantityPerAnimal float64    `bson:"display_quantity_per_animal" json:"displayQuantityPerAnimal"`
	DisplayUnit              units.Unit `bson:"display_unit" json:"displayUnit"`

	// TotalQuantity is the whole lot's daily ration in TotalQuantityUnit.
	TotalQuantity     float64    `bson:"total_quantity" json:"totalQuantity"`
	TotalQuantityUnit units.Unit `bson:"total_quantity_unit" json:"totalQuantityUnit"`

	LastConsumptionDate *time.Time `bson:"last_consumption_date,omitempty" json:"lastConsumptionDate,omitempty"`
	CreatedAt           time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt           time.Time  `bson:"updated_at" json:"updatedAt"`
}

// DietPatch carries the fields of a partial diet update.
type DietPatch struct {
	EndDate             *time.Time `json:"endDate,omitempty"`
	TotalQuantity       *float64   `json:"totalQuantity,omitempty"`
	LastConsumptionDate *time.Time `json:"lastConsumptionDate,omitempty"`
}

// Apply returns a copy of d with the patch applied.
func (p DietPatch) Apply(d DietRecord) DietRecord {
	if p.EndDate != nil {
		d.EndDate = *p.EndDate
	}
	if p.TotalQuantity != nil {
		d.TotalQuantity = *p.TotalQuantity
	}
	if p.LastConsumptionDate != nil {
		t := *p.LastConsumptionDate
		d.LastConsumptionDate = &t
	}
	return d
}
