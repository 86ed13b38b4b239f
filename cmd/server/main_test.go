package main

import (
	"context"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mamadbah2/herdbook/internal/config"
	"github.com/mamadbah2/herdbook/internal/domain/models"
	"github.com/mamadbah2/herdbook/internal/repository/memory"
)

func TestServeReturnsListenerError(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	srv := &http.Server{Addr: busy.Addr().String(), Handler: http.NotFoundHandler()}

	done := make(chan error, 1)
	go func() { done <- serve(context.Background(), srv, time.Second, zap.NewNop()) }()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after the listener failed")
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, time.Second, zap.NewNop()) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}

func TestOpenStoreSavesSnapshotOnClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "herd.bson")
	cfg := &config.Config{Store: config.StoreConfig{Backend: config.BackendMemory, SnapshotPath: path}}

	store, closeStore := openStore(cfg, zap.NewNop())
	lot, err := store.CreateLot(context.Background(), models.Lot{Name: "Recria", Breed: models.BreedNelore, NumberOfAnimals: 12})
	require.NoError(t, err)
	closeStore()

	reloaded := memory.NewStore()
	require.NoError(t, reloaded.LoadFile(path))
	got, err := reloaded.GetLot(context.Background(), lot.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, got.NumberOfAnimals)
}
