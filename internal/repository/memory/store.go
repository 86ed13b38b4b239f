// Package memory is an in-process implementation of repository.Store.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mamadbah2/herdbook/internal/domain/models"
	"github.com/mamadbah2/herdbook/internal/repository"
)

var _ repository.Store = (*Store)(nil)

// Store keeps every collection in maps guarded by a single mutex, so each
// method is atomic with respect to the others.
type Store struct {
	mu        sync.RWMutex
	lots      map[string]models.Lot
	weighings []models.WeighingRecord
	diets     map[string]models.DietRecord
	inventory map[string]models.InventoryItem

	now   func() time.Time
	newID func() string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		lots:      make(map[string]models.Lot),
		diets:     make(map[string]models.DietRecord),
		inventory: make(map[string]models.InventoryItem),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// timestamp is the store clock, truncated so values survive a BSON round-trip.
func (s *Store) timestamp() time.Time {
	return normalizeTime(s.now())
}

func normalizeTime(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC().Truncate(time.Millisecond)
}

func normalizeTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	n := normalizeTime(*t)
	return &n
}

func (s *Store) assignID(id string) string {
	if strings.TrimSpace(id) != "" {
		return id
	}
	return s.newID()
}

// CreateLot validates and stores a new lot.
func (s *Store) CreateLot(ctx context.Context, lot models.Lot) (models.Lot, error) {
	if err := lot.Validate(); err != nil {
		return models.Lot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lot.ID = s.assignID(lot.ID)
	if _, exists := s.lots[lot.ID]; exists {
		return models.Lot{}, models.NewConflict(models.KindLot, lot.ID)
	}
	lot.PurchaseDate = normalizeTimePtr(lot.PurchaseDate)
	lot.CreatedAt = s.timestamp()
	lot.UpdatedAt = lot.CreatedAt
	s.lots[lot.ID] = lot
	return lot, nil
}

// GetLot returns the lot with the given id.
func (s *Store) GetLot(ctx context.Context, id string) (models.Lot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lot, ok := s.lots[id]
	if !ok {
		return models.Lot{}, models.NewNotFound(models.KindLot, id)
	}
	return lot, nil
}

// ListLots returns every lot ordered by creation time.
func (s *Store) ListLots(ctx context.Context) ([]models.Lot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Lot, 0, len(s.lots))
	for _, lot := range s.lots {
		out = append(out, lot)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// UpdateLot applies a partial update to a lot.
func (s *Store) UpdateLot(ctx context.Context, id string, patch models.LotPatch) (models.Lot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lot, ok := s.lots[id]
	if !ok {
		return models.Lot{}, models.NewNotFound(models.KindLot, id)
	}
	updated, err := patch.Apply(lot)
	if err != nil {
		return models.Lot{}, err
	}
	updated.UpdatedAt = s.timestamp()
	s.lots[id] = updated
	return updated, nil
}

// DeleteLot removes a lot. Its weighing history is kept.
func (s *Store) DeleteLot(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lots[id]; !ok {
		return models.NewNotFound(models.KindLot, id)
	}
	delete(s.lots, id)
	return nil
}

// AddWeighingRecord appends a weighing record without touching any lot.
func (s *Store) AddWeighingRecord(ctx context.Context, record models.WeighingRecord) (models.WeighingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.appendWeighing(record), nil
}

func (s *Store) appendWeighing(record models.WeighingRecord) models.WeighingRecord {
	record.ID = s.assignID(record.ID)
	record.CreatedAt = s.timestamp()
	if record.Date.IsZero() {
		record.Date = record.CreatedAt
	}
	record.Date = normalizeTime(record.Date)
	if len(record.Breeds) == 0 {
		record.Breeds = nil
	}
	s.weighings = append(s.weighings, record)
	return record
}

// ListWeighingRecords returns the weighing history of a lot, oldest first.
// An empty lotID lists every record.
func (s *Store) ListWeighingRecords(ctx context.Context, lotID string) ([]models.WeighingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.WeighingRecord, 0)
	for _, r := range s.weighings {
		if lotID == "" || r.LotID == lotID {
			out = append(out, r)
		}
	}
	return out, nil
}

// ApplyWeighing stores the record and applies the lot updates under one lock.
// If any referenced lot is missing nothing is written.
func (s *Store) ApplyWeighing(ctx context.Context, record models.WeighingRecord, updates []models.LotUpdate) (models.WeighingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lots[record.LotID]; !ok {
		return models.WeighingRecord{}, models.NewNotFound(models.KindLot, record.LotID)
	}
	for _, u := range updates {
		if _, ok := s.lots[u.LotID]; !ok {
			return models.WeighingRecord{}, models.NewNotFound(models.KindLot, u.LotID)
		}
	}

	now := s.timestamp()
	for _, u := range updates {
		lot := u.Apply(s.lots[u.LotID])
		lot.UpdatedAt = now
		s.lots[u.LotID] = lot
	}
	return s.appendWeighing(record), nil
}

// AddDietRecord stores a new diet plan.
func (s *Store) AddDietRecord(ctx context.Context, record models.DietRecord) (models.DietRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.ID = s.assignID(record.ID)
	if _, exists := s.diets[record.ID]; exists {
		return models.DietRecord{}, models.NewConflict(models.KindDiet, record.ID)
	}
	record.StartDate = normalizeTime(record.StartDate)
	record.EndDate = normalizeTime(record.EndDate)
	record.LastConsumptionDate = normalizeTimePtr(record.LastConsumptionDate)
	record.CreatedAt = s.timestamp()
	record.UpdatedAt = record.CreatedAt
	s.diets[record.ID] = record
	return record, nil
}

// GetDietRecord returns the diet plan with the given id.
func (s *Store) GetDietRecord(ctx context.Context, id string) (models.DietRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.diets[id]
	if !ok {
		return models.DietRecord{}, models.NewNotFound(models.KindDiet, id)
	}
	return d, nil
}

// ListDietRecords returns every diet plan ordered by creation time.
func (s *Store) ListDietRecords(ctx context.Context) ([]models.DietRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.DietRecord, 0, len(s.diets))
	for _, d := range s.diets {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// UpdateDietRecord applies a partial update to a diet plan.
func (s *Store) UpdateDietRecord(ctx context.Context, id string, patch models.DietPatch) (models.DietRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.diets[id]
	if !ok {
		return models.DietRecord{}, models.NewNotFound(models.KindDiet, id)
	}
	d = patch.Apply(d)
	d.EndDate = normalizeTime(d.EndDate)
	d.LastConsumptionDate = normalizeTimePtr(d.LastConsumptionDate)
	d.UpdatedAt = s.timestamp()
	s.diets[id] = d
	return d, nil
}

// DeleteDietRecord removes a diet plan.
func (s *Store) DeleteDietRecord(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.diets[id]; !ok {
		return models.NewNotFound(models.KindDiet, id)
	}
	delete(s.diets, id)
	return nil
}

// CreateInventoryItem validates and stores a new item.
func (s *Store) CreateInventoryItem(ctx context.Context, item models.InventoryItem) (models.InventoryItem, error) {
	if err := item.Validate(); err != nil {
		return models.InventoryItem{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item.ID = s.assignID(item.ID)
	if _, exists := s.inventory[item.ID]; exists {
		return models.InventoryItem{}, models.NewConflict(models.KindInventoryItem, item.ID)
	}
	item.CreatedAt = s.timestamp()
	item.UpdatedAt = item.CreatedAt
	s.inventory[item.ID] = item
	return item, nil
}

// GetInventoryItem returns the item with the given id.
func (s *Store) GetInventoryItem(ctx context.Context, id string) (models.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.inventory[id]
	if !ok {
		return models.InventoryItem{}, models.NewNotFound(models.KindInventoryItem, id)
	}
	return item, nil
}

// ListInventoryItems returns every item sorted by name.
func (s *Store) ListInventoryItems(ctx context.Context) ([]models.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.InventoryItem, 0, len(s.inventory))
	for _, item := range s.inventory {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// UpdateInventoryItem applies a partial update to an item.
func (s *Store) UpdateInventoryItem(ctx context.Context, id string, patch models.InventoryPatch) (models.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.inventory[id]
	if !ok {
		return models.InventoryItem{}, models.NewNotFound(models.KindInventoryItem, id)
	}
	item = patch.Apply(item)
	item.UpdatedAt = s.timestamp()
	s.inventory[id] = item
	return item, nil
}
