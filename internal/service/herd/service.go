// Package herd coordinates lots and their weighings. It reads lot snapshots from
// the store, runs the weighing engine over them and commits the outcome.
package herd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/herdbook/internal/domain/models"
	"github.com/mamadbah2/herdbook/internal/repository"
	"github.com/mamadbah2/herdbook/internal/service/weighing"
)

// Repository is the slice of the data store the herd service needs.
type Repository interface {
	repository.LotStore
	repository.WeighingStore
}

// Exporter mirrors committed weighings to an external sink.
type Exporter interface {
	ExportWeighing(ctx context.Context, record models.WeighingRecord) error
}

// AnimalReading is one animal as entered by the operator.
type AnimalReading struct {
	Weight float64
	Breed  models.Breed
	Notes  string
}

// WeighRequest is a complete weighing submitted in one go.
type WeighRequest struct {
	LotID    string
	Animals  []AnimalReading
	Criteria []models.TransferCriterion
	Notes    string
	Date     time.Time
}

// Service exposes lot management and the weighing workflow.
type Service struct {
	repo     Repository
	sessions *weighing.SessionManager
	exporter Exporter
	logger   *zap.Logger
}

// NewService wires a herd service. exporter may be nil.
func NewService(repo Repository, sessions *weighing.SessionManager, exporter Exporter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sessions == nil {
		sessions = weighing.NewSessionManager()
	}
	return &Service{repo: repo, sessions: sessions, exporter: exporter, logger: logger}
}

// CreateLot validates and stores a new lot.
func (s *Service) CreateLot(ctx context.Context, lot models.Lot) (models.Lot, error) {
	created, err := s.repo.CreateLot(ctx, lot)
	if err != nil {
		return models.Lot{}, err
	}
	s.logger.Info("lot created", zap.String("lot_id", created.ID), zap.String("name", created.Name), zap.Int("animals", created.NumberOfAnimals))
	return created, nil
}

// GetLot returns a lot by id.
func (s *Service) GetLot(ctx context.Context, id string) (models.Lot, error) {
	return s.repo.GetLot(ctx, id)
}

// ListLots returns every lot.
func (s *Service) ListLots(ctx context.Context) ([]models.Lot, error) {
	return s.repo.ListLots(ctx)
}

// UpdateLot applies a partial change to a lot.
func (s *Service) UpdateLot(ctx context.Context, id string, patch models.LotPatch) (models.Lot, error) {
	return s.repo.UpdateLot(ctx, id, patch)
}

// DeleteLot removes a lot. Its weighing history is kept.
func (s *Service) DeleteLot(ctx context.Context, id string) error {
	if err := s.repo.DeleteLot(ctx, id); err != nil {
		return err
	}
	s.logger.Info("lot deleted", zap.String("lot_id", id))
	return nil
}

// ListWeighings returns the weighing history of a lot, or of every lot when lotID is empty.
func (s *Service) ListWeighings(ctx context.Context, lotID string) ([]models.WeighingRecord, error) {
	if lotID != "" {
		if _, err := s.repo.GetLot(ctx, lotID); err != nil {
			return nil, err
		}
	}
	return s.repo.ListWeighingRecords(ctx, lotID)
}

// Weigh records a whole weighing at once and commits it.
func (s *Service) Weigh(ctx context.Context, req WeighRequest) (weighing.Outcome, error) {
	observations := make([]models.AnimalObservation, 0, len(req.Animals))
	for i, a := range req.Animals {
		obs, err := weighing.RecordObservation(req.LotID, a.Weight, a.Breed, a.Notes)
		if err != nil {
			return weighing.Outcome{}, fmt.Errorf("animal %d: %w", i+1, err)
		}
		observations = append(observations, obs)
	}

	origin, err := s.repo.GetLot(ctx, req.LotID)
	if err != nil {
		return weighing.Outcome{}, err
	}
	criteria, err := s.usableCriteria(ctx, origin.ID, req.Criteria)
	if err != nil {
		return weighing.Outcome{}, err
	}
	return s.commit(ctx, origin, observations, criteria, req.Notes, req.Date)
}

// OpenSession starts a live weighing of lotID.
func (s *Service) OpenSession(ctx context.Context, lotID string, criteria []models.TransferCriterion) (*weighing.Session, error) {
	origin, err := s.repo.GetLot(ctx, lotID)
	if err != nil {
		return nil, err
	}
	usable, err := s.usableCriteria(ctx, origin.ID, criteria)
	if err != nil {
		return nil, err
	}

	session := s.sessions.Open(origin.ID, usable)
	s.logger.Info("weighing session opened",
		zap.String("session_id", session.ID),
		zap.String("lot_id", origin.ID),
		zap.Int("criteria", len(usable)))
	return session, nil
}

// RecordAnimal adds one animal to a live session and returns it with its destination resolved.
func (s *Service) RecordAnimal(ctx context.Context, sessionID string, reading AnimalReading) (models.AnimalObservation, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return models.AnimalObservation{}, err
	}
	obs, err := session.Record(reading.Weight, reading.Breed, reading.Notes)
	if err != nil {
		return models.AnimalObservation{}, err
	}
	s.logger.Debug("animal recorded",
		zap.String("session_id", sessionID),
		zap.Float64("weight", obs.Weight),
		zap.String("destination_lot_id", obs.DestinationLotID))
	return obs, nil
}

// Session returns a live session.
func (s *Service) Session(sessionID string) (*weighing.Session, error) {
	return s.sessions.Get(sessionID)
}

// FinishSession reconciles a live session against the current state of its lot
// and commits the outcome. The session is closed only once the commit succeeds.
func (s *Service) FinishSession(ctx context.Context, sessionID, notes string) (weighing.Outcome, error) {
	session, err := s.sessions.Get(sessionID)
	if err != nil {
		return weighing.Outcome{}, err
	}

	origin, err := s.repo.GetLot(ctx, session.LotID)
	if err != nil {
		return weighing.Outcome{}, err
	}
	criteria, err := s.usableCriteria(ctx, origin.ID, session.Criteria())
	if err != nil {
		return weighing.Outcome{}, err
	}

	outcome, err := s.commit(ctx, origin, session.Observations(), criteria, notes, time.Time{})
	if err != nil {
		return weighing.Outcome{}, err
	}
	s.sessions.Close(sessionID)
	return outcome, nil
}

// DiscardSession drops a live session without committing anything.
func (s *Service) DiscardSession(sessionID string) error {
	if _, err := s.sessions.Get(sessionID); err != nil {
		return err
	}
	s.sessions.Close(sessionID)
	s.logger.Info("weighing session discarded", zap.String("session_id", sessionID))
	return nil
}

func (s *Service) commit(ctx context.Context, origin models.Lot, observations []models.AnimalObservation, criteria []models.TransferCriterion, notes string, date time.Time) (weighing.Outcome, error) {
	outcome, err := weighing.FinishSession(origin, observations, criteria)
	if err != nil {
		return weighing.Outcome{}, err
	}
	outcome.Record.Notes = strings.TrimSpace(notes)
	outcome.Record.Date = date

	stored, err := s.repo.ApplyWeighing(ctx, outcome.Record, outcome.LotUpdates)
	if err != nil {
		return weighing.Outcome{}, fmt.Errorf("commit weighing of lot %s: %w", origin.ID, err)
	}
	outcome.Record = stored

	for _, w := range outcome.Warnings {
		s.logger.Warn("transfer clamped", zap.String("lot_id", w.LotID), zap.Int("requested", w.Requested), zap.Int("available", w.Available))
	}
	s.logger.Info("weighing committed",
		zap.String("record_id", stored.ID),
		zap.String("lot_id", origin.ID),
		zap.Int("animals", stored.NumberOfAnimals),
		zap.Int("weighed", stored.WeighedAnimals),
		zap.Float64("average_weight", stored.AverageWeight),
		zap.Int("transfers", len(outcome.Transfers)))

	if s.exporter != nil {
		if err := s.exporter.ExportWeighing(ctx, stored); err != nil {
			s.logger.Warn("weighing export failed", zap.String("record_id", stored.ID), zap.Error(err))
		}
	}
	return outcome, nil
}

// usableCriteria drops criteria pointing at lots that do not exist, so they
// never match.
func (s *Service) usableCriteria(ctx context.Context, originLotID string, criteria []models.TransferCriterion) ([]models.TransferCriterion, error) {
	known := map[string]bool{originLotID: true}
	out := make([]models.TransferCriterion, 0, len(criteria))
	for _, c := range criteria {
		dest := strings.TrimSpace(c.DestinationLotID)
		if dest == "" {
			out = append(out, c)
			continue
		}
		exists, checked := known[dest]
		if !checked {
			_, err := s.repo.GetLot(ctx, dest)
			switch {
			case err == nil:
				exists = true
			case errors.Is(err, models.ErrNotFound):
				exists = false
			default:
				return nil, err
			}
			known[dest] = exists
		}
		if !exists {
			s.logger.Warn("transfer criterion dropped: destination lot missing",
				zap.String("lot_id", originLotID),
				zap.String("destination_lot_id", dest))
			continue
		}
		out = append(out, c)
	}
	return out, nil
}
