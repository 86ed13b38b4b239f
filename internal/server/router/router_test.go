package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/herdbook/internal/domain/models"
	"github.com/mamadbah2/herdbook/internal/repository/memory"
	"github.com/mamadbah2/herdbook/internal/server/handlers"
	"github.com/mamadbah2/herdbook/internal/service/diet"
	"github.com/mamadbah2/herdbook/internal/service/herd"
	"github.com/mamadbah2/herdbook/internal/service/reporting"
	"github.com/mamadbah2/herdbook/internal/service/weighing"
)

type api struct {
	t      *testing.T
	engine *gin.Engine
}

func newAPI(t *testing.T) *api {
	t.Helper()
	store := memory.NewStore()
	herdSvc := herd.NewService(store, weighing.NewSessionManager(), nil, nil)
	dietSvc := diet.NewService(store, nil)
	reportSvc := reporting.NewService(nil, "Pesagens!A:J", store, nil)

	engine := New(Handlers{
		Lots:    handlers.NewLotHandler(herdSvc, nil),
		Diets:   handlers.NewDietHandler(dietSvc, time.UTC, nil),
		Reports: handlers.NewReportHandler(reportSvc, nil),
		Tools:   handlers.NewToolHandler(nil),
	}, nil)
	return &api{t: t, engine: engine}
}

// call performs a request and decodes the JSON response into out when out is non-nil.
func (a *api) call(method, path string, body any, out any) int {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)

	if out != nil && rec.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

func (a *api) createLot(name string, animals int) models.Lot {
	a.t.Helper()
	var lot models.Lot
	status := a.call(http.MethodPost, "/lots", gin.H{"name": name, "numberOfAnimals": animals, "breed": "nelore"}, &lot)
	require.Equal(a.t, http.StatusCreated, status)
	return lot
}

func TestHealthz(t *testing.T) {
	a := newAPI(t)
	var body map[string]string
	assert.Equal(t, http.StatusOK, a.call(http.MethodGet, "/healthz", nil, &body))
	assert.Equal(t, "ok", body["status"])
}

func TestLotCRUD(t *testing.T) {
	a := newAPI(t)
	lot := a.createLot("Recria 1", 12)
	assert.Equal(t, models.LotStatusActive, lot.Status)

	var got models.Lot
	assert.Equal(t, http.StatusOK, a.call(http.MethodGet, "/lots/"+lot.ID, nil, &got))
	assert.Equal(t, "Recria 1", got.Name)

	assert.Equal(t, http.StatusOK, a.call(http.MethodPatch, "/lots/"+lot.ID, gin.H{"status": "treatment"}, &got))
	assert.Equal(t, models.LotStatusTreatment, got.Status)

	assert.Equal(t, http.StatusBadRequest, a.call(http.MethodPatch, "/lots/"+lot.ID, gin.H{"numberOfAnimals": -1}, nil))
	assert.Equal(t, http.StatusBadRequest, a.call(http.MethodPost, "/lots", gin.H{"name": "x", "breed": "angus"}, nil))
	assert.Equal(t, http.StatusBadRequest, a.call(http.MethodPost, "/lots", gin.H{"breed": "nelore"}, nil))

	var lots []models.Lot
	assert.Equal(t, http.StatusOK, a.call(http.MethodGet, "/lots", nil, &lots))
	assert.Len(t, lots, 1)

	assert.Equal(t, http.StatusNoContent, a.call(http.MethodDelete, "/lots/"+lot.ID, nil, nil))
	assert.Equal(t, http.StatusNotFound, a.call(http.MethodGet, "/lots/"+lot.ID, nil, nil))
}

func TestPartialWeighingEstimatesRemainder(t *testing.T) {
	a := newAPI(t)
	lot := a.createLot("Engorda", 10)

	var outcome weighing.Outcome
	status := a.call(http.MethodPost, "/lots/"+lot.ID+"/weighings", gin.H{
		"animals": []gin.H{{"weight": 200}, {"weight": 210}, {"weight": 195}, {"weight": 205}},
		"date":    "2024-03-10",
	}, &outcome)
	require.Equal(t, http.StatusCreated, status)

	assert.Equal(t, 10, outcome.Record.NumberOfAnimals)
	assert.InDelta(t, 2025, outcome.Record.TotalWeight, 1e-9)
	assert.InDelta(t, 202.5, outcome.Record.AverageWeight, 1e-9)
	assert.Equal(t, "2024-03-10", outcome.Record.Date.Format("2006-01-02"))

	var history []models.WeighingRecord
	assert.Equal(t, http.StatusOK, a.call(http.MethodGet, "/lots/"+lot.ID+"/weighings", nil, &history))
	assert.Len(t, history, 1)

	var updated models.Lot
	a.call(http.MethodGet, "/lots/"+lot.ID, nil, &updated)
	require.NotNil(t, updated.AverageWeight)
	assert.InDelta(t, 202.5, *updated.AverageWeight, 1e-9)
	assert.Equal(t, 10, updated.NumberOfAnimals)
}

func TestWeighingErrors(t *testing.T) {
	a := newAPI(t)
	empty := a.createLot("Vazio", 0)

	assert.Equal(t, http.StatusUnprocessableEntity, a.call(http.MethodPost, "/lots/"+empty.ID+"/weighings", gin.H{"animals": []gin.H{}}, nil))
	assert.Equal(t, http.StatusNotFound, a.call(http.MethodPost, "/lots/ghost/weighings", gin.H{"animals": []gin.H{{"weight": 1}}}, nil))
	assert.Equal(t, http.StatusBadRequest, a.call(http.MethodPost, "/lots/"+empty.ID+"/weighings", gin.H{"animals": []gin.H{{"weight": 1}}, "date": "yesterday"}, nil))
	assert.Equal(t, http.StatusNotFound, a.call(http.MethodGet, "/lots/ghost/weighings", nil, nil))
}

func TestLiveSession(t *testing.T) {
	a := newAPI(t)
	origin := a.createLot("A", 3)
	light := a.createLot("B", 0)

	var session struct {
		ID    string `json:"id"`
		LotID string `json:"lotId"`
	}
	status := a.call(http.MethodPost, "/sessions", gin.H{
		"lotId": origin.ID,
		"criteria": []gin.H{
			{"weightValue": 300, "condition": "less-than-or-equal", "destinationLotId": light.ID},
		},
	}, &session)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, origin.ID, session.LotID)

	var obs models.AnimalObservation
	require.Equal(t, http.StatusCreated, a.call(http.MethodPost, "/sessions/"+session.ID+"/observations", gin.H{"weight": 300}, &obs))
	assert.Equal(t, light.ID, obs.DestinationLotID)
	require.Equal(t, http.StatusCreated, a.call(http.MethodPost, "/sessions/"+session.ID+"/observations", gin.H{"weight": 0}, &obs))
	assert.Equal(t, origin.ID, obs.DestinationLotID)

	var outcome weighing.Outcome
	require.Equal(t, http.StatusCreated, a.call(http.MethodPost, "/sessions/"+session.ID+"/finish", nil, &outcome))
	assert.Equal(t, light.ID, outcome.Record.DestinationLotID)
	assert.InDelta(t, 900, outcome.Record.TotalWeight, 1e-9)

	var lot models.Lot
	a.call(http.MethodGet, "/lots/"+light.ID, nil, &lot)
	assert.Equal(t, 1, lot.NumberOfAnimals)
	a.call(http.MethodGet, "/lots/"+origin.ID, nil, &lot)
	assert.Equal(t, 2, lot.NumberOfAnimals)

	assert.Equal(t, http.StatusNotFound, a.call(http.MethodGet, "/sessions/"+session.ID, nil, nil))
	assert.Equal(t, http.StatusNotFound, a.call(http.MethodDelete, "/sessions/"+session.ID, nil, nil))
	assert.Equal(t, http.StatusBadRequest, a.call(http.MethodPost, "/sessions", gin.H{}, nil))
}

func TestTools(t *testing.T) {
	a := newAPI(t)

	var evaluated struct {
		DestinationLotID string `json:"destinationLotId"`
		Transferred      bool   `json:"transferred"`
	}
	status := a.call(http.MethodPost, "/transfers/evaluate", gin.H{
		"weight":      300,
		"originLotId": "A",
		"criteria": []gin.H{
			{"weightValue": 300, "condition": "less-than-or-equal", "destinationLotId": "B"},
			{"weightValue": 300, "condition": "greater-than", "destinationLotId": "C"},
		},
	}, &evaluated)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "B", evaluated.DestinationLotID)
	assert.True(t, evaluated.Transferred)

	var converted struct {
		Value float64 `json:"value"`
		Unit  string  `json:"unit"`
	}
	require.Equal(t, http.StatusOK, a.call(http.MethodPost, "/units/convert", gin.H{"value": 2.5, "from": "KG", "to": "g"}, &converted))
	assert.InDelta(t, 2500, converted.Value, 1e-9)
	assert.Equal(t, "g", converted.Unit)

	assert.Equal(t, http.StatusBadRequest, a.call(http.MethodPost, "/units/convert", gin.H{"value": 1, "from": "kg", "to": "ml"}, nil))
	assert.Equal(t, http.StatusBadRequest, a.call(http.MethodPost, "/units/convert", gin.H{"value": 1, "from": "kg", "to": "cup"}, nil))
	assert.Equal(t, http.StatusBadRequest, a.call(http.MethodPost, "/units/convert", gin.H{"from": "kg", "to": "g"}, nil))
}

func TestDietConsumptionFlow(t *testing.T) {
	a := newAPI(t)
	lot := a.createLot("Confinamento", 10)

	var item models.InventoryItem
	require.Equal(t, http.StatusCreated, a.call(http.MethodPost, "/inventory", gin.H{"name": "Racao", "quantity": 50, "unit": "kg"}, &item))

	var record models.DietRecord
	require.Equal(t, http.StatusCreated, a.call(http.MethodPost, "/diets", gin.H{
		"lotId":             lot.ID,
		"inventoryItemId":   item.ID,
		"quantityPerAnimal": 2000,
		"unit":              "g",
		"startDate":         "2024-03-01",
		"endDate":           "2024-03-31",
	}, &record))
	assert.InDelta(t, 20, record.TotalQuantity, 1e-9)

	assert.Equal(t, http.StatusBadRequest, a.call(http.MethodPost, "/diets", gin.H{
		"lotId": lot.ID, "inventoryItemId": item.ID, "quantityPerAnimal": 1, "unit": "L",
		"startDate": "2024-03-01", "endDate": "2024-03-31",
	}, nil))

	var advanced struct {
		Summary diet.DaySummary `json:"summary"`
	}
	require.Equal(t, http.StatusOK, a.call(http.MethodPost, "/consumption/advance", gin.H{"date": "2024-03-02"}, &advanced))
	assert.Equal(t, 1, advanced.Summary.Applied)
	require.Equal(t, http.StatusOK, a.call(http.MethodPost, "/consumption/advance", gin.H{"date": "2024-03-02"}, &advanced))
	assert.Equal(t, 0, advanced.Summary.Applied)

	a.call(http.MethodGet, "/inventory/"+item.ID, nil, &item)
	assert.InDelta(t, 30, item.Quantity, 1e-9)

	var diets []models.DietRecord
	a.call(http.MethodGet, "/diets", nil, &diets)
	assert.Len(t, diets, 1)
	assert.Equal(t, http.StatusNoContent, a.call(http.MethodDelete, "/diets/"+record.ID, nil, nil))
	assert.Equal(t, http.StatusNotFound, a.call(http.MethodDelete, "/diets/"+record.ID, nil, nil))
}

func TestReports(t *testing.T) {
	a := newAPI(t)
	lot := a.createLot("Engorda", 2)
	a.call(http.MethodPost, "/lots/"+lot.ID+"/weighings", gin.H{"animals": []gin.H{{"weight": 400}, {"weight": 420}}}, nil)

	var summary reporting.HerdSummary
	require.Equal(t, http.StatusOK, a.call(http.MethodGet, "/reports/breeds", nil, &summary))
	require.Len(t, summary.Breeds, 1)
	assert.InDelta(t, 410, summary.Breeds[0].AverageWeight, 1e-9)

	assert.Equal(t, http.StatusServiceUnavailable, a.call(http.MethodGet, "/reports/weighings", nil, nil))
}
