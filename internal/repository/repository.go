// Package repository declares the data store the herd services read from and write to.
package repository

import (
	"context"

	"github.com/mamadbah2/herdbook/internal/domain/models"
)

// LotStore covers lot persistence.
type LotStore interface {
	CreateLot(ctx context.Context, lot models.Lot) (models.Lot, error)
	GetLot(ctx context.Context, id string) (models.Lot, error)
	ListLots(ctx context.Context) ([]models.Lot, error)
	UpdateLot(ctx context.Context, id string, patch models.LotPatch) (models.Lot, error)
	DeleteLot(ctx context.Context, id string) error
}

// WeighingStore covers the append-only weighing history.
type WeighingStore interface {
	AddWeighingRecord(ctx context.Context, record models.WeighingRecord) (models.WeighingRecord, error)
	ListWeighingRecords(ctx context.Context, lotID string) ([]models.WeighingRecord, error)
	// ApplyWeighing stores the record and applies every lot update, or nothing.
	ApplyWeighing(ctx context.Context, record models.WeighingRecord, updates []models.LotUpdate) (models.WeighingRecord, error)
}

// DietStore covers diet plans.
type DietStore interface {
	AddDietRecord(ctx context.Context, record models.DietRecord) (models.DietRecord, error)
	GetDietRecord(ctx context.Context, id string) (models.DietRecord, error)
	ListDietRecords(ctx context.Context) ([]models.DietRecord, error)
	UpdateDietRecord(ctx context.Context, id string, patch models.DietPatch) (models.DietRecord, error)
	DeleteDietRecord(ctx context.Context, id string) error
}

// InventoryStore covers stocked items.
type InventoryStore interface {
	CreateInventoryItem(ctx context.Context, item models.InventoryItem) (models.InventoryItem, error)
	GetInventoryItem(ctx context.Context, id string) (models.InventoryItem, error)
	ListInventoryItems(ctx context.Context) ([]models.InventoryItem, error)
	UpdateInventoryItem(ctx context.Context, id string, patch models.InventoryPatch) (models.InventoryItem, error)
}

// Store is the whole data store. Missing entities are reported with
// models.NotFoundError.
type Store interface {
	LotStore
	WeighingStore
	DietStore
	InventoryStore
}
