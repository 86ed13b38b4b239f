package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/herdbook/internal/domain/models"
	"github.com/mamadbah2/herdbook/internal/service/herd"
	"github.com/mamadbah2/herdbook/internal/service/weighing"
)

type createLotRequest struct {
	Name             string           `json:"name" binding:"required"`
	NumberOfAnimals  int              `json:"numberOfAnimals" binding:"min=0"`
	Breed            models.Breed     `json:"breed" binding:"required"`
	Status           models.LotStatus `json:"status"`
	CurrentPastureID string           `json:"currentPastureId"`
	AverageWeight    *float64         `json:"averageWeight" binding:"omitempty,min=0"`
	Source           string           `json:"source"`
	PurchaseDate     string           `json:"purchaseDate"`
	Notes            string           `json:"notes"`
}

type animalRequest struct {
	Weight float64      `json:"weight"`
	Breed  models.Breed `json:"breed"`
	Notes  string       `json:"notes"`
}

type weighRequest struct {
	Animals  []animalRequest            `json:"animals"`
	Criteria []models.TransferCriterion `json:"criteria"`
	Notes    string                     `json:"notes"`
	Date     string                     `json:"date"`
}

type openSessionRequest struct {
	LotID    string                     `json:"lotId" binding:"required"`
	Criteria []models.TransferCriterion `json:"criteria"`
}

type finishSessionRequest struct {
	Notes string `json:"notes"`
}

type sessionResponse struct {
	ID           string                     `json:"id"`
	LotID        string                     `json:"lotId"`
	StartedAt    time.Time                  `json:"startedAt"`
	Criteria     []models.TransferCriterion `json:"criteria"`
	Observations []models.AnimalObservation `json:"observations"`
}

func newSessionResponse(s *weighing.Session) sessionResponse {
	return sessionResponse{
		ID:           s.ID,
		LotID:        s.LotID,
		StartedAt:    s.StartedAt,
		Criteria:     s.Criteria(),
		Observations: s.Observations(),
	}
}

// LotHandler serves lots, their weighings and live weighing sessions.
type LotHandler struct {
	svc    *herd.Service
	logger *zap.Logger
}

// NewLotHandler constructs the HTTP handler adapter.
func NewLotHandler(svc *herd.Service, logger *zap.Logger) *LotHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LotHandler{svc: svc, logger: logger}
}

// Create registers a new lot.
func (h *LotHandler) Create(c *gin.Context) {
	var req createLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	lot := models.Lot{
		Name:             req.Name,
		NumberOfAnimals:  req.NumberOfAnimals,
		Breed:            req.Breed,
		Status:           req.Status,
		CurrentPastureID: req.CurrentPastureID,
		AverageWeight:    req.AverageWeight,
		Source:           req.Source,
		Notes:            req.Notes,
	}
	purchased, err := parseDate("purchaseDate", req.PurchaseDate)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if !purchased.IsZero() {
		lot.PurchaseDate = &purchased
	}

	created, err := h.svc.CreateLot(c.Request.Context(), lot)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// List returns every lot.
func (h *LotHandler) List(c *gin.Context) {
	lots, err := h.svc.ListLots(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, lots)
}

// Get returns one lot by id.
func (h *LotHandler) Get(c *gin.Context) {
	lot, err := h.svc.GetLot(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, lot)
}

// Update applies a partial change to a lot.
func (h *LotHandler) Update(c *gin.Context) {
	var patch models.LotPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	lot, err := h.svc.UpdateLot(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, lot)
}

// Delete removes a lot.
func (h *LotHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteLot(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Weighings lists the weighing history of a lot.
func (h *LotHandler) Weighings(c *gin.Context) {
	records, err := h.svc.ListWeighings(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// Weigh records and commits a complete weighing of a lot in one request.
func (h *LotHandler) Weigh(c *gin.Context) {
	var req weighRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	animals := make([]herd.AnimalReading, len(req.Animals))
	for i, a := range req.Animals {
		animals[i] = herd.AnimalReading{Weight: a.Weight, Breed: a.Breed, Notes: a.Notes}
	}

	outcome, err := h.svc.Weigh(c.Request.Context(), herd.WeighRequest{
		LotID:    c.Param("id"),
		Animals:  animals,
		Criteria: req.Criteria,
		Notes:    req.Notes,
		Date:     date,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, outcome)
}

// OpenSession starts a live weighing session.
func (h *LotHandler) OpenSession(c *gin.Context) {
	var req openSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	session, err := h.svc.OpenSession(c.Request.Context(), req.LotID, req.Criteria)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, newSessionResponse(session))
}

// GetSession shows a live session and the animals recorded so far.
func (h *LotHandler) GetSession(c *gin.Context) {
	session, err := h.svc.Session(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(session))
}

// RecordAnimal adds one animal to a live session.
func (h *LotHandler) RecordAnimal(c *gin.Context) {
	var req animalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	obs, err := h.svc.RecordAnimal(c.Request.Context(), c.Param("id"), herd.AnimalReading{
		Weight: req.Weight,
		Breed:  req.Breed,
		Notes:  req.Notes,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, obs)
}

// FinishSession commits a live session. The body is optional.
func (h *LotHandler) FinishSession(c *gin.Context) {
	var req finishSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, h.logger, err)
			return
		}
	}

	outcome, err := h.svc.FinishSession(c.Request.Context(), c.Param("id"), req.Notes)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, outcome)
}

// DiscardSession drops a live session.
func (h *LotHandler) DiscardSession(c *gin.Context) {
	if err := h.svc.DiscardSession(c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
