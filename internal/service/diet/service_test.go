package diet

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/mamadbah2/herdbook/internal/domain/models"
	"github.com/mamadbah2/herdbook/internal/domain/units"
	"github.com/mamadbah2/herdbook/internal/repository/memory"
)

type fixture struct {
	store *memory.Store
	svc   *Service
	lot   models.Lot
	item  models.InventoryItem
}

func newFixture(t *testing.T, animals int, stockKg float64) fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	lot, err := store.CreateLot(ctx, models.Lot{Name: "Confinamento", Breed: models.BreedNelore, NumberOfAnimals: animals})
	require.NoError(t, err)
	item, err := store.CreateInventoryItem(ctx, models.InventoryItem{Name: "Racao", Quantity: stockKg, Unit: units.Kilogram})
	require.NoError(t, err)

	return fixture{store: store, svc: NewService(store, nil), lot: lot, item: item}
}

func (f fixture) stock(t *testing.T) float64 {
	t.Helper()
	item, err := f.store.GetInventoryItem(context.Background(), f.item.ID)
	require.NoError(t, err)
	return item.Quantity
}

func TestAdvanceDayDeductsOncePerDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10, 100)

	_, err := f.svc.AssignDiet(ctx, AssignRequest{
		LotID:             f.lot.ID,
		InventoryItemID:   f.item.ID,
		QuantityPerAnimal: 3,
		Unit:              units.Kilogram,
		StartDate:         march(1),
		EndDate:           march(31),
	})
	require.NoError(t, err)

	summary, err := f.svc.AdvanceDay(ctx, march(10))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Applied)
	assert.InDelta(t, 70, f.stock(t), 1e-9)

	summary, err = f.svc.AdvanceDay(ctx, march(10).Add(6*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Applied)
	assert.Equal(t, 1, summary.Skipped)
	assert.InDelta(t, 70, f.stock(t), 1e-9)

	_, err = f.svc.AdvanceDay(ctx, march(11))
	require.NoError(t, err)
	assert.InDelta(t, 40, f.stock(t), 1e-9)

	_, err = f.svc.AdvanceDay(ctx, march(12))
	require.NoError(t, err)
	assert.InDelta(t, 10, f.stock(t), 1e-9)

	summary, err = f.svc.AdvanceDay(ctx, march(13))
	require.NoError(t, err)
	assert.Equal(t, 0.0, f.stock(t))
	require.Len(t, summary.Depleted, 1)
	assert.Equal(t, f.item.ID, summary.Depleted[0].ID)
}

func TestAdvanceDaySharedItemDrawsDownSequentially(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10, 50)

	other, err := f.store.CreateLot(ctx, models.Lot{Name: "Recria", Breed: models.BreedAnelorada, NumberOfAnimals: 5})
	require.NoError(t, err)

	for _, req := range []AssignRequest{
		{LotID: f.lot.ID, InventoryItemID: f.item.ID, QuantityPerAnimal: 2, Unit: units.Kilogram, StartDate: march(1), EndDate: march(31)},
		{LotID: other.ID, InventoryItemID: f.item.ID, QuantityPerAnimal: 2000, Unit: units.Gram, StartDate: march(1), EndDate: march(31)},
	} {
		_, err := f.svc.AssignDiet(ctx, req)
		require.NoError(t, err)
	}

	summary, err := f.svc.AdvanceDay(ctx, march(2))
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Applied)
	assert.InDelta(t, 20, f.stock(t), 1e-9)
}

func TestAdvanceDayFollowsCurrentLotSize(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10, 100)

	record, err := f.svc.AssignDiet(ctx, AssignRequest{
		LotID: f.lot.ID, InventoryItemID: f.item.ID, QuantityPerAnimal: 1, Unit: units.Kilogram,
		StartDate: march(1), EndDate: march(31),
	})
	require.NoError(t, err)
	assert.InDelta(t, 10, record.TotalQuantity, 1e-9)

	count := 4
	_, err = f.store.UpdateLot(ctx, f.lot.ID, models.LotPatch{NumberOfAnimals: &count})
	require.NoError(t, err)

	_, err = f.svc.AdvanceDay(ctx, march(2))
	require.NoError(t, err)
	assert.InDelta(t, 96, f.stock(t), 1e-9)

	stored, err := f.store.GetDietRecord(ctx, record.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4, stored.TotalQuantity, 1e-9)
}

func TestAdvanceDayCollectsFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 10, 100)

	_, err := f.store.AddDietRecord(ctx, models.DietRecord{
		LotID: f.lot.ID, InventoryItemID: "missing-item", StartDate: march(1), EndDate: march(31),
	})
	require.NoError(t, err)
	_, err = f.svc.AssignDiet(ctx, AssignRequest{
		LotID: f.lot.ID, InventoryItemID: f.item.ID, QuantityPerAnimal: 1, Unit: units.Kilogram,
		StartDate: march(1), EndDate: march(31),
	})
	require.NoError(t, err)

	summary, err := f.svc.AdvanceDay(ctx, march(2))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.Len(t, multierr.Errors(err), 1)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Applied)
	assert.InDelta(t, 90, f.stock(t), 1e-9)
}

func TestAssignDietUnknownLot(t *testing.T) {
	f := newFixture(t, 1, 1)
	_, err := f.svc.AssignDiet(context.Background(), AssignRequest{
		LotID: "ghost", InventoryItemID: f.item.ID, QuantityPerAnimal: 1, Unit: units.Kilogram,
		StartDate: march(1), EndDate: march(2),
	})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCancelDiet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 2, 10)

	record, err := f.svc.AssignDiet(ctx, AssignRequest{
		LotID: f.lot.ID, InventoryItemID: f.item.ID, QuantityPerAnimal: 1, Unit: units.Kilogram,
		StartDate: march(1), EndDate: march(2),
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.CancelDiet(ctx, record.ID))
	diets, err := f.svc.ListDiets(ctx)
	require.NoError(t, err)
	assert.Empty(t, diets)
	assert.ErrorIs(t, f.svc.CancelDiet(ctx, record.ID), models.ErrNotFound)
}
