package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/herdbook/internal/domain/models"
	"github.com/mamadbah2/herdbook/internal/domain/units"
	"github.com/mamadbah2/herdbook/internal/service/weighing"
)

type evaluateRequest struct {
	Weight      *float64                   `json:"weight" binding:"required"`
	OriginLotID string                     `json:"originLotId" binding:"required"`
	Criteria    []models.TransferCriterion `json:"criteria"`
}

type convertRequest struct {
	Value *float64 `json:"value" binding:"required"`
	From  string   `json:"from" binding:"required"`
	To    string   `json:"to" binding:"required"`
}

// ToolHandler serves stateless calculators that the forms use for previews.
type ToolHandler struct {
	logger *zap.Logger
}

// NewToolHandler constructs the stateless calculator endpoints.
func NewToolHandler(logger *zap.Logger) *ToolHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ToolHandler{logger: logger}
}

// EvaluateTransfer shows where an animal of the given weight would be routed.
func (h *ToolHandler) EvaluateTransfer(c *gin.Context) {
	var req evaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	dest := weighing.EvaluateTransfer(*req.Weight, req.Criteria, req.OriginLotID)
	c.JSON(http.StatusOK, gin.H{
		"destinationLotId": dest,
		"transferred":      dest != req.OriginLotID,
	})
}

// ConvertUnits converts a quantity between units of the same family.
func (h *ToolHandler) ConvertUnits(c *gin.Context) {
	var req convertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	from, err := units.Parse(req.From)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	to, err := units.Parse(req.To)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	value, err := units.Convert(*req.Value, from, to)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"value": value, "unit": to})
}
