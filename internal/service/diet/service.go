package diet

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/mamadbah2/herdbook/internal/domain/models"
	"github.com/mamadbah2/herdbook/internal/domain/units"
	"github.com/mamadbah2/herdbook/internal/repository"
)

// Repository is the slice of the data store the diet service needs.
type Repository interface {
	repository.DietStore
	repository.InventoryStore
	GetLot(ctx context.Context, id string) (models.Lot, error)
}

// AssignRequest is a validated diet assignment.
type AssignRequest struct {
	LotID             string
	InventoryItemID   string
	QuantityPerAnimal float64
	Unit              units.Unit
	StartDate         time.Time
	EndDate           time.Time
}

// DaySummary reports one run of AdvanceDay.
type DaySummary struct {
	Date         time.Time              `json:"date"`
	Consumptions []Consumption          `json:"consumptions"`
	Applied      int                    `json:"applied"`
	Skipped      int                    `json:"skipped"`
	Failed       int                    `json:"failed"`
	Depleted     []models.InventoryItem `json:"depleted,omitempty"`
}

// Service owns diet plans and the daily inventory deduction.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService wires a diet service.
func NewService(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

// AssignDiet creates a diet plan for a lot.
func (s *Service) AssignDiet(ctx context.Context, req AssignRequest) (models.DietRecord, error) {
	lot, err := s.repo.GetLot(ctx, req.LotID)
	if err != nil {
		return models.DietRecord{}, err
	}
	item, err := s.repo.GetInventoryItem(ctx, req.InventoryItemID)
	if err != nil {
		return models.DietRecord{}, err
	}

	record, err := NewDietRecord(lot, item, req.QuantityPerAnimal, req.Unit, req.StartDate, req.EndDate)
	if err != nil {
		return models.DietRecord{}, err
	}

	stored, err := s.repo.AddDietRecord(ctx, record)
	if err != nil {
		return models.DietRecord{}, fmt.Errorf("store diet record: %w", err)
	}

	s.logger.Info("diet assigned",
		zap.String("diet_id", stored.ID),
		zap.String("lot_id", lot.ID),
		zap.String("item_id", item.ID),
		zap.Float64("total_quantity", stored.TotalQuantity),
		zap.String("unit", string(stored.TotalQuantityUnit)))
	return stored, nil
}

// CancelDiet removes a diet plan.
func (s *Service) CancelDiet(ctx context.Context, id string) error {
	if err := s.repo.DeleteDietRecord(ctx, id); err != nil {
		return err
	}
	s.logger.Info("diet cancelled", zap.String("diet_id", id))
	return nil
}

// ListDiets returns every diet plan.
func (s *Service) ListDiets(ctx context.Context) ([]models.DietRecord, error) {
	return s.repo.ListDietRecords(ctx)
}

// CreateInventoryItem stocks a new item.
func (s *Service) CreateInventoryItem(ctx context.Context, item models.InventoryItem) (models.InventoryItem, error) {
	return s.repo.CreateInventoryItem(ctx, item)
}

// GetInventoryItem loads one item.
func (s *Service) GetInventoryItem(ctx context.Context, id string) (models.InventoryItem, error) {
	return s.repo.GetInventoryItem(ctx, id)
}

// ListInventory returns every stocked item.
func (s *Service) ListInventory(ctx context.Context) ([]models.InventoryItem, error) {
	return s.repo.ListInventoryItems(ctx)
}

// AdvanceDay deducts today's ration of every active diet from inventory.
//
// Items are re-read before each deduction so diets sharing an item draw it down
// in sequence. A diet that fails does not stop the others; all failures are
// returned together alongside the summary.
func (s *Service) AdvanceDay(ctx context.Context, today time.Time) (DaySummary, error) {
	summary := DaySummary{Date: Day(today)}

	diets, err := s.repo.ListDietRecords(ctx)
	if err != nil {
		return summary, fmt.Errorf("list diet records: %w", err)
	}

	var errs error
	depleted := make(map[string]models.InventoryItem)
	for _, d := range diets {
		c, err := s.consume(ctx, d, today)
		if err != nil {
			summary.Failed++
			errs = multierr.Append(errs, err)
			s.logger.Warn("daily consumption failed", zap.String("diet_id", d.ID), zap.Error(err))
			continue
		}
		summary.Consumptions = append(summary.Consumptions, c)
		if !c.Applied {
			summary.Skipped++
			continue
		}
		summary.Applied++
		if c.Depleted {
			item, err := s.repo.GetInventoryItem(ctx, c.InventoryItemID)
			if err == nil {
				depleted[item.ID] = item
			}
		}
	}
	for _, item := range depleted {
		summary.Depleted = append(summary.Depleted, item)
	}
	sort.Slice(summary.Depleted, func(i, j int) bool { return summary.Depleted[i].ID < summary.Depleted[j].ID })

	s.logger.Info("consumption day advanced",
		zap.Time("date", summary.Date),
		zap.Int("applied", summary.Applied),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Int("depleted", len(summary.Depleted)))
	return summary, errs
}

func (s *Service) consume(ctx context.Context, d models.DietRecord, today time.Time) (Consumption, error) {
	item, err := s.repo.GetInventoryItem(ctx, d.InventoryItemID)
	if err != nil {
		return Consumption{}, fmt.Errorf("diet %s: %w", d.ID, err)
	}

	lot, err := s.repo.GetLot(ctx, d.LotID)
	if err != nil {
		return Consumption{}, fmt.Errorf("diet %s: %w", d.ID, err)
	}
	total, err := TotalForLot(d, lot, item.Unit)
	if err != nil {
		return Consumption{}, fmt.Errorf("diet %s: %w", d.ID, err)
	}
	d.TotalQuantityUnit = item.Unit
	refreshed := math.Abs(total-d.TotalQuantity) > 1e-9
	if refreshed {
		d.TotalQuantity = total
	}

	c, err := ApplyDailyConsumption(d, item, today)
	if err != nil {
		return Consumption{}, err
	}
	if !c.Applied {
		return c, nil
	}

	if _, err := s.repo.UpdateInventoryItem(ctx, item.ID, c.InventoryPatch); err != nil {
		return Consumption{}, fmt.Errorf("diet %s: update inventory: %w", d.ID, err)
	}
	patch := c.DietPatch
	if refreshed {
		patch.TotalQuantity = &d.TotalQuantity
	}
	if _, err := s.repo.UpdateDietRecord(ctx, d.ID, patch); err != nil {
		return Consumption{}, fmt.Errorf("diet %s: update diet: %w", d.ID, err)
	}

	s.logger.Debug("inventory decremented",
		zap.String("diet_id", d.ID),
		zap.String("item_id", item.ID),
		zap.Float64("consumed", c.Consumed),
		zap.Float64("remaining", c.NewQuantity))
	return c, nil
}
