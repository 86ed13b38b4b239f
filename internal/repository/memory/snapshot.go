package memory

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/mamadbah2/herdbook/internal/domain/models"
)

const snapshotVersion = 1

// snapshot is the serialised form of the whole store.
type snapshot struct {
	Version   int                     `bson:"version"`
	SavedAt   time.Time               `bson:"saved_at"`
	Lots      []models.Lot            `bson:"lots"`
	Weighings []models.WeighingRecord `bson:"weighings"`
	Diets     []models.DietRecord     `bson:"diets"`
	Inventory []models.InventoryItem  `bson:"inventory"`
}

// Snapshot serialises every collection into a single BSON document.
func (s *Store) Snapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		Version:   snapshotVersion,
		SavedAt:   s.timestamp(),
		Weighings: append([]models.WeighingRecord(nil), s.weighings...),
	}
	for _, lot := range s.lots {
		snap.Lots = append(snap.Lots, lot)
	}
	for _, d := range s.diets {
		snap.Diets = append(snap.Diets, d)
	}
	for _, item := range s.inventory {
		snap.Inventory = append(snap.Inventory, item)
	}
	sort.Slice(snap.Lots, func(i, j int) bool { return snap.Lots[i].ID < snap.Lots[j].ID })
	sort.Slice(snap.Diets, func(i, j int) bool { return snap.Diets[i].ID < snap.Diets[j].ID })
	sort.Slice(snap.Inventory, func(i, j int) bool { return snap.Inventory[i].ID < snap.Inventory[j].ID })

	data, err := bson.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode store snapshot: %w", err)
	}
	return data, nil
}

// Restore replaces the store contents with a snapshot produced by Snapshot.
func (s *Store) Restore(data []byte) error {
	var snap snapshot
	if err := bson.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode store snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}

	lots := make(map[string]models.Lot, len(snap.Lots))
	for _, lot := range snap.Lots {
		lots[lot.ID] = lot
	}
	diets := make(map[string]models.DietRecord, len(snap.Diets))
	for _, d := range snap.Diets {
		diets[d.ID] = d
	}
	inventory := make(map[string]models.InventoryItem, len(snap.Inventory))
	for _, item := range snap.Inventory {
		inventory[item.ID] = item
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lots = lots
	s.weighings = snap.Weighings
	s.diets = diets
	s.inventory = inventory
	return nil
}

// SaveFile writes a snapshot to path, replacing any previous file atomically.
func (s *Store) SaveFile(path string) error {
	data, err := s.Snapshot()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace snapshot %s: %w", path, err)
	}
	return nil
}

// LoadFile restores the store from path. A missing file leaves the store empty.
func (s *Store) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read snapshot %s: %w", path, err)
	}
	return s.Restore(data)
}
