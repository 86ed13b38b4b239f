package reporting

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/herdbook/internal/domain/models"
	repo "github.com/mamadbah2/herdbook/internal/repository/sheets"
	"github.com/mamadbah2/herdbook/internal/service/diet"
)

const dateLayout = "2006-01-02"

// ErrSheetsDisabled is returned by sheet-backed operations when no spreadsheet is configured.
var ErrSheetsDisabled = errors.New("spreadsheet export is not configured")

// LotLister is the store capability the herd summary needs.
type LotLister interface {
	ListLots(ctx context.Context) ([]models.Lot, error)
}

// BreedStat aggregates the lots of one breed.
type BreedStat struct {
	Breed   models.Breed `json:"breed"`
	Lots    int          `json:"lots"`
	Animals int          `json:"animals"`
	// WeighedAnimals counts animals in lots that carry an average weight.
	WeighedAnimals int     `json:"weighedAnimals"`
	TotalWeight    float64 `json:"totalWeight"`
	AverageWeight  float64 `json:"averageWeight"`
}

// HerdSummary is the breed-weighted view of every lot still on the farm.
type HerdSummary struct {
	Breeds        []BreedStat `json:"breeds"`
	Lots          int         `json:"lots"`
	Animals       int         `json:"animals"`
	TotalWeight   float64     `json:"totalWeight"`
	AverageWeight float64     `json:"averageWeight"`
}

// ExportedWeighing is a weighing row read back from the spreadsheet.
type ExportedWeighing struct {
	Date             time.Time `json:"date"`
	RecordID         string    `json:"recordId"`
	LotID            string    `json:"lotId"`
	NumberOfAnimals  int       `json:"numberOfAnimals"`
	WeighedAnimals   int       `json:"weighedAnimals"`
	SkippedAnimals   int       `json:"skippedAnimals"`
	TotalWeight      float64   `json:"totalWeight"`
	AverageWeight    float64   `json:"averageWeight"`
	DestinationLotID string    `json:"destinationLotId,omitempty"`
	Notes            string    `json:"notes,omitempty"`
}

// Service builds herd summaries and mirrors weighings to a spreadsheet.
type Service struct {
	sheet          repo.Sheet
	weighingsRange string
	lots           LotLister
	logger         *zap.Logger
}

// NewService wires a new reporting service instance. sheet may be nil, in which
// case sheet-backed operations return ErrSheetsDisabled.
func NewService(sheet repo.Sheet, weighingsRange string, lots LotLister, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{sheet: sheet, weighingsRange: weighingsRange, lots: lots, logger: logger}
}

// BreedSummary aggregates lots per breed. Sold lots are left out. Average
// weights are weighted by animal count and only lots with a recorded average
// contribute to them.
func BreedSummary(lots []models.Lot) HerdSummary {
	byBreed := make(map[models.Breed]*BreedStat)
	var summary HerdSummary
	var weighed int

	for _, lot := range lots {
		if lot.Status == models.LotStatusSold {
			continue
		}
		stat, ok := byBreed[lot.Breed]
		if !ok {
			stat = &BreedStat{Breed: lot.Breed}
			byBreed[lot.Breed] = stat
		}
		stat.Lots++
		stat.Animals += lot.NumberOfAnimals
		summary.Lots++
		summary.Animals += lot.NumberOfAnimals

		if lot.AverageWeight != nil && lot.NumberOfAnimals > 0 {
			w := *lot.AverageWeight * float64(lot.NumberOfAnimals)
			stat.WeighedAnimals += lot.NumberOfAnimals
			stat.TotalWeight += w
			summary.TotalWeight += w
			weighed += lot.NumberOfAnimals
		}
	}

	summary.Breeds = make([]BreedStat, 0, len(byBreed))
	for _, stat := range byBreed {
		if stat.WeighedAnimals > 0 {
			stat.AverageWeight = stat.TotalWeight / float64(stat.WeighedAnimals)
		}
		summary.Breeds = append(summary.Breeds, *stat)
	}
	sort.Slice(summary.Breeds, func(i, j int) bool { return summary.Breeds[i].Breed < summary.Breeds[j].Breed })

	if weighed > 0 {
		summary.AverageWeight = summary.TotalWeight / float64(weighed)
	}
	return summary
}

// HerdSummary loads every lot and summarises it per breed.
func (s *Service) HerdSummary(ctx context.Context) (HerdSummary, error) {
	lots, err := s.lots.ListLots(ctx)
	if err != nil {
		return HerdSummary{}, fmt.Errorf("list lots: %w", err)
	}
	return BreedSummary(lots), nil
}

// ExportWeighing appends a committed weighing to the weighings sheet.
func (s *Service) ExportWeighing(ctx context.Context, record models.WeighingRecord) error {
	if s.sheet == nil {
		return ErrSheetsDisabled
	}

	row := []interface{}{
		record.Date.Format(dateLayout),
		record.ID,
		record.LotID,
		record.NumberOfAnimals,
		record.WeighedAnimals,
		record.SkippedAnimals,
		round2(record.TotalWeight),
		round2(record.AverageWeight),
		record.DestinationLotID,
		record.Notes,
	}
	if err := s.sheet.AppendRows(ctx, s.weighingsRange, [][]interface{}{row}); err != nil {
		return fmt.Errorf("export weighing %s: %w", record.ID, err)
	}

	s.logger.Debug("weighing exported", zap.String("record_id", record.ID), zap.String("lot_id", record.LotID))
	return nil
}

// ExportedWeighings reads the weighings sheet back, keeping rows of lotID (any
// lot when empty) dated within [start, end]. Zero bounds are open.
func (s *Service) ExportedWeighings(ctx context.Context, lotID string, start, end time.Time) ([]ExportedWeighing, error) {
	if s.sheet == nil {
		return nil, ErrSheetsDisabled
	}

	rows, err := s.sheet.ReadRange(ctx, s.weighingsRange)
	if err != nil {
		return nil, fmt.Errorf("load weighings range: %w", err)
	}

	out := make([]ExportedWeighing, 0, len(rows))
	for _, row := range rows {
		if len(row) < 8 {
			continue
		}

		dateValue, err := parseDate(row[0])
		if err != nil {
			s.logger.Debug("skip weighing row with invalid date", zap.Any("value", row[0]), zap.Error(err))
			continue
		}
		if (!start.IsZero() && dateValue.Before(diet.Day(start))) || (!end.IsZero() && dateValue.After(diet.Day(end))) {
			continue
		}

		w := ExportedWeighing{
			Date:     dateValue,
			RecordID: cell(row, 1),
			LotID:    cell(row, 2),
		}
		if lotID != "" && w.LotID != lotID {
			continue
		}

		if w.NumberOfAnimals, err = parseInt(row[3]); err != nil {
			s.logger.Debug("skip weighing row with invalid animal count", zap.Any("value", row[3]), zap.Error(err))
			continue
		}
		if w.TotalWeight, err = parseFloat(row[6]); err != nil {
			s.logger.Debug("skip weighing row with invalid total weight", zap.Any("value", row[6]), zap.Error(err))
			continue
		}
		if w.AverageWeight, err = parseFloat(row[7]); err != nil {
			s.logger.Debug("skip weighing row with invalid average weight", zap.Any("value", row[7]), zap.Error(err))
			continue
		}
		w.WeighedAnimals, _ = parseInt(row[4])
		w.SkippedAnimals, _ = parseInt(row[5])
		w.DestinationLotID = cell(row, 8)
		w.Notes = cell(row, 9)

		out = append(out, w)
	}

	return out, nil
}

// DailyConsumptionMessage renders an AdvanceDay summary as a chat message.
func DailyConsumptionMessage(summary diet.DaySummary, items []models.InventoryItem) string {
	names := make(map[string]string, len(items))
	for _, item := range items {
		names[item.ID] = item.Name
	}
	name := func(id string) string {
		if n, ok := names[id]; ok && n != "" {
			return n
		}
		return id
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Feed consumption %s: %d diets applied, %d skipped", summary.Date.Format(dateLayout), summary.Applied, summary.Skipped)
	if summary.Failed > 0 {
		fmt.Fprintf(&b, ", %d failed", summary.Failed)
	}
	b.WriteString(".")

	for _, c := range summary.Consumptions {
		if !c.Applied {
			continue
		}
		fmt.Fprintf(&b, "\n- %s: %.2f %s used, %.2f %s left", name(c.InventoryItemID), c.Consumed, c.Unit, c.NewQuantity, c.Unit)
	}

	if len(summary.Depleted) > 0 {
		depleted := make([]string, 0, len(summary.Depleted))
		for _, item := range summary.Depleted {
			depleted = append(depleted, name(item.ID))
		}
		fmt.Fprintf(&b, "\nOut of stock: %s.", strings.Join(depleted, ", "))
	}
	return b.String()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func cell(row []interface{}, i int) string {
	if i >= len(row) || row[i] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[i]))
}

func parseDate(value interface{}) (time.Time, error) {
	str := strings.TrimSpace(fmt.Sprint(value))
	if str == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if len(str) > 10 {
		str = str[:10]
	}
	return time.Parse(dateLayout, str)
}

func parseInt(value interface{}) (int, error) {
	if f, ok := value.(float64); ok {
		return int(f), nil
	}
	str := strings.TrimSpace(fmt.Sprint(value))
	if str == "" {
		return 0, fmt.Errorf("empty numeric value")
	}
	return strconv.Atoi(str)
}

func parseFloat(value interface{}) (float64, error) {
	if f, ok := value.(float64); ok {
		return f, nil
	}
	str := strings.TrimSpace(fmt.Sprint(value))
	if str == "" {
		return 0, fmt.Errorf("empty numeric value")
	}
	return strconv.ParseFloat(str, 64)
}
