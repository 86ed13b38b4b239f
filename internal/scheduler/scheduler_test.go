package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/herdbook/internal/config"
	"github.com/mamadbah2/herdbook/internal/domain/models"
	"github.com/mamadbah2/herdbook/internal/domain/units"
	"github.com/mamadbah2/herdbook/internal/service/diet"
)

type consumptionMock struct {
	mock.Mock
}

func (m *consumptionMock) AdvanceDay(ctx context.Context, today time.Time) (diet.DaySummary, error) {
	args := m.Called(ctx, today)
	return args.Get(0).(diet.DaySummary), args.Error(1)
}

func (m *consumptionMock) ListInventory(ctx context.Context) ([]models.InventoryItem, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]models.InventoryItem)
	return items, args.Error(1)
}

type notifierMock struct {
	mock.Mock
}

func (m *notifierMock) Notify(ctx context.Context, message string) error {
	return m.Called(ctx, message).Error(0)
}

func newTestScheduler(t *testing.T, consumption Consumption, notifier *notifierMock, now time.Time) *Scheduler {
	t.Helper()
	s, err := NewScheduler(config.ConsumptionConfig{CronSchedule: "0 6 * * *", Timezone: "UTC"}, consumption, notifier, nil)
	require.NoError(t, err)
	s.now = func() time.Time { return now }
	return s
}

func TestRunDailyNotifiesSummary(t *testing.T) {
	now := time.Date(2024, 3, 10, 6, 0, 0, 0, time.UTC)
	summary := diet.DaySummary{
		Date:         diet.Day(now),
		Applied:      1,
		Consumptions: []diet.Consumption{{InventoryItemID: "i1", Applied: true, Consumed: 5, NewQuantity: 15, Unit: units.Kilogram}},
	}

	consumption := new(consumptionMock)
	consumption.On("AdvanceDay", mock.Anything, now).Return(summary, nil).Once()
	consumption.On("ListInventory", mock.Anything).Return([]models.InventoryItem{{ID: "i1", Name: "Sal mineral"}}, nil).Once()

	notifier := new(notifierMock)
	notifier.On("Notify", mock.Anything, mock.MatchedBy(func(msg string) bool {
		return assert.Contains(t, msg, "Sal mineral: 5.00 kg used, 15.00 kg left")
	})).Return(nil).Once()

	got, err := newTestScheduler(t, consumption, notifier, now).RunDaily(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, got.Applied)

	consumption.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestRunDailyQuietWhenNothingHappened(t *testing.T) {
	now := time.Date(2024, 3, 10, 6, 0, 0, 0, time.UTC)
	consumption := new(consumptionMock)
	consumption.On("AdvanceDay", mock.Anything, now).Return(diet.DaySummary{Skipped: 2}, nil).Once()
	notifier := new(notifierMock)

	_, err := newTestScheduler(t, consumption, notifier, now).RunDaily(context.Background())
	require.NoError(t, err)

	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
	consumption.AssertNotCalled(t, "ListInventory", mock.Anything)
}

func TestRunDailyReportsFailures(t *testing.T) {
	now := time.Date(2024, 3, 10, 6, 0, 0, 0, time.UTC)
	runErr := errors.New("diet d1: inventory item missing")

	consumption := new(consumptionMock)
	consumption.On("AdvanceDay", mock.Anything, now).Return(diet.DaySummary{Date: diet.Day(now), Failed: 1}, runErr).Once()
	consumption.On("ListInventory", mock.Anything).Return(nil, errors.New("store down")).Once()

	notifier := new(notifierMock)
	notifier.On("Notify", mock.Anything, mock.MatchedBy(func(msg string) bool {
		return assert.Contains(t, msg, "1 failed")
	})).Return(errors.New("offline")).Once()

	_, err := newTestScheduler(t, consumption, notifier, now).RunDaily(context.Background())
	assert.ErrorIs(t, err, runErr)
	notifier.AssertExpectations(t)
}

func TestRunDailyUsesConfiguredTimezone(t *testing.T) {
	// 01:30 UTC on the 11th is still the 10th in Sao Paulo.
	now := time.Date(2024, 3, 11, 1, 30, 0, 0, time.UTC)

	consumption := new(consumptionMock)
	consumption.On("AdvanceDay", mock.Anything, mock.MatchedBy(func(today time.Time) bool {
		return diet.Day(today).Equal(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
	})).Return(diet.DaySummary{}, nil).Once()

	s, err := NewScheduler(config.ConsumptionConfig{CronSchedule: "0 6 * * *", Timezone: "America/Sao_Paulo"}, consumption, new(notifierMock), nil)
	require.NoError(t, err)
	s.now = func() time.Time { return now }

	_, err = s.RunDaily(context.Background())
	require.NoError(t, err)
	consumption.AssertExpectations(t)
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s, err := NewScheduler(config.ConsumptionConfig{CronSchedule: "whenever", Timezone: "UTC"}, new(consumptionMock), nil, nil)
	require.NoError(t, err)
	assert.Error(t, s.Start())

	_, err = NewScheduler(config.ConsumptionConfig{CronSchedule: "0 6 * * *", Timezone: "Nowhere/Land"}, new(consumptionMock), nil, nil)
	assert.Error(t, err)
}
