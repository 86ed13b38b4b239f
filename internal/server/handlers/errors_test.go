package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/herdbook/internal/domain/models"
	"github.com/mamadbah2/herdbook/internal/domain/units"
	"github.com/mamadbah2/herdbook/internal/service/reporting"
	"github.com/mamadbah2/herdbook/internal/service/weighing"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", models.NewNotFound(models.KindLot, "x"), http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("commit: %w", models.NewNotFound(models.KindLot, "x")), http.StatusNotFound},
		{"conflict", models.NewConflict(models.KindLot, "x"), http.StatusConflict},
		{"empty session", fmt.Errorf("%w: lot x", weighing.ErrEmptySession), http.StatusUnprocessableEntity},
		{"validation", fmt.Errorf("%w: name", models.ErrValidation), http.StatusBadRequest},
		{"observation", weighing.ErrInvalidObservation, http.StatusBadRequest},
		{"unit family", units.ErrInvalidUnitFamily, http.StatusBadRequest},
		{"unknown unit", units.ErrUnknownUnit, http.StatusBadRequest},
		{"sheets disabled", reporting.ErrSheetsDisabled, http.StatusServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestParseDate(t *testing.T) {
	got, err := parseDate("date", "2024-03-10")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), got)

	got, err = parseDate("date", "2024-03-10T08:30:00-03:00")
	require.NoError(t, err)
	assert.Equal(t, 10, got.Day())

	got, err = parseDate("date", "  ")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = parseDate("date", "10/03/2024")
	assert.ErrorIs(t, err, models.ErrValidation)
}
