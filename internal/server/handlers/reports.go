package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/herdbook/internal/service/reporting"
)

// ReportHandler serves herd summaries and exported weighings.
type ReportHandler struct {
	svc    *reporting.Service
	logger *zap.Logger
}

// NewReportHandler constructs the reporting HTTP adapter.
func NewReportHandler(svc *reporting.Service, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{svc: svc, logger: logger}
}

// Breeds returns the breed-weighted herd summary.
func (h *ReportHandler) Breeds(c *gin.Context) {
	summary, err := h.svc.HerdSummary(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Weighings lists the weighings exported to the spreadsheet. Query parameters
// lotId, from and to narrow the result.
func (h *ReportHandler) Weighings(c *gin.Context) {
	from, err := parseDate("from", c.Query("from"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	to, err := parseDate("to", c.Query("to"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	rows, err := h.svc.ExportedWeighings(c.Request.Context(), c.Query("lotId"), from, to)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}
