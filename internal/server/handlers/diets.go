package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/herdbook/internal/domain/models"
	"github.com/mamadbah2/herdbook/internal/domain/units"
	"github.com/mamadbah2/herdbook/internal/service/diet"
)

type createItemRequest struct {
	Name     string  `json:"name" binding:"required"`
	Quantity float64 `json:"quantity" binding:"min=0"`
	Unit     string  `json:"unit" binding:"required"`
}

type assignDietRequest struct {
	LotID             string  `json:"lotId" binding:"required"`
	InventoryItemID   string  `json:"inventoryItemId" binding:"required"`
	QuantityPerAnimal float64 `json:"quantityPerAnimal" binding:"required,gt=0"`
	Unit              string  `json:"unit" binding:"required"`
	StartDate         string  `json:"startDate" binding:"required"`
	EndDate           string  `json:"endDate" binding:"required"`
}

type advanceRequest struct {
	Date string `json:"date"`
}

// DietHandler serves inventory, diet plans and the consumption trigger.
type DietHandler struct {
	svc      *diet.Service
	location *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// NewDietHandler constructs the handler. loc decides which calendar day "today" is.
func NewDietHandler(svc *diet.Service, loc *time.Location, logger *zap.Logger) *DietHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &DietHandler{svc: svc, location: loc, now: time.Now, logger: logger}
}

// CreateItem stocks a new inventory item.
func (h *DietHandler) CreateItem(c *gin.Context) {
	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	item, err := h.svc.CreateInventoryItem(c.Request.Context(), models.InventoryItem{
		Name:     req.Name,
		Quantity: req.Quantity,
		Unit:     units.Unit(req.Unit),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// ListItems returns every inventory item.
func (h *DietHandler) ListItems(c *gin.Context) {
	items, err := h.svc.ListInventory(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GetItem returns one inventory item by id.
func (h *DietHandler) GetItem(c *gin.Context) {
	item, err := h.svc.GetInventoryItem(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Assign creates a diet plan for a lot.
func (h *DietHandler) Assign(c *gin.Context) {
	var req assignDietRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	start, err := parseDate("startDate", req.StartDate)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	end, err := parseDate("endDate", req.EndDate)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	record, err := h.svc.AssignDiet(c.Request.Context(), diet.AssignRequest{
		LotID:             req.LotID,
		InventoryItemID:   req.InventoryItemID,
		QuantityPerAnimal: req.QuantityPerAnimal,
		Unit:              units.Unit(req.Unit),
		StartDate:         start,
		EndDate:           end,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, record)
}

// List returns every diet plan.
func (h *DietHandler) List(c *gin.Context) {
	diets, err := h.svc.ListDiets(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, diets)
}

// Cancel removes a diet plan.
func (h *DietHandler) Cancel(c *gin.Context) {
	if err := h.svc.CancelDiet(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Advance runs the daily consumption for the given date, today by default.
// Partial failures still return the summary, with the errors listed.
func (h *DietHandler) Advance(c *gin.Context) {
	var req advanceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, h.logger, err)
			return
		}
	}
	today, err := parseDate("date", req.Date)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if today.IsZero() {
		today = h.now().In(h.location)
	}

	summary, err := h.svc.AdvanceDay(c.Request.Context(), today)
	if err != nil && summary.Applied+summary.Skipped+summary.Failed == 0 {
		respondError(c, h.logger, err)
		return
	}
	if err != nil {
		h.logger.Warn("consumption advanced with failures", zap.Error(err))
		c.JSON(http.StatusMultiStatus, gin.H{"summary": summary, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}
