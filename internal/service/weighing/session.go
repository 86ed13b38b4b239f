package weighing

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mamadbah2/herdbook/internal/domain/models"
)

// Session is a live, per-animal weighing of one lot. Each recorded animal gets
// its destination resolved immediately so the operator can route it on the spot.
type Session struct {
	ID        string
	LotID     string
	StartedAt time.Time

	mu           sync.Mutex
	criteria     []models.TransferCriterion
	observations []models.AnimalObservation
}

// Record adds one animal to the session.
func (s *Session) Record(weight float64, breed models.Breed, notes string) (models.AnimalObservation, error) {
	obs, err := RecordObservation(s.LotID, weight, breed, notes)
	if err != nil {
		return models.AnimalObservation{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	obs.DestinationLotID = s.LotID
	if obs.Weighed() {
		obs.DestinationLotID = EvaluateTransfer(obs.Weight, s.criteria, s.LotID)
	}
	s.observations = append(s.observations, obs)
	return obs, nil
}

// Observations returns a copy of the animals recorded so far.
func (s *Session) Observations() []models.AnimalObservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AnimalObservation, len(s.observations))
	copy(out, s.observations)
	return out
}

// Criteria returns a copy of the session's transfer criteria, in order.
func (s *Session) Criteria() []models.TransferCriterion {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.TransferCriterion, len(s.criteria))
	copy(out, s.criteria)
	return out
}

// SessionManager holds the live sessions of this process.
type SessionManager struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	now      func() time.Time
}

// NewSessionManager creates an empty session manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// Open starts a session on lotID with the given ordered criteria.
func (sm *SessionManager) Open(lotID string, criteria []models.TransferCriterion) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		LotID:     lotID,
		StartedAt: sm.now().UTC(),
		criteria:  append([]models.TransferCriterion(nil), criteria...),
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.sessions[s.ID] = s
	return s
}

// Get retrieves a live session.
func (sm *SessionManager) Get(id string) (*Session, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	if s, exists := sm.sessions[id]; exists {
		return s, nil
	}
	return nil, models.NewNotFound(models.KindSession, id)
}

// Close discards a session. Closing an unknown session is a no-op.
func (sm *SessionManager) Close(id string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, id)
}
