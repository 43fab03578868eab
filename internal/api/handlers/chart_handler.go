package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"example.com/community/services/events/internal/services"
)

// ChartHandler handles aggregation report HTTP requests
type ChartHandler struct {
	reports *services.ReportService
}

// NewChartHandler creates a new chart handler
func NewChartHandler(reports *services.ReportService) *ChartHandler {
	return &ChartHandler{reports: reports}
}

// DailyTotals handles GET /charts/daily-totals. The optional days query
// widens or narrows the reporting window.
func (h *ChartHandler) DailyTotals(c *gin.Context) {
	days := services.DefaultWindowDays
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondBadRequest(c, "invalid days parameter")
			return
		}
		days = parsed
	}

	totals, err := h.reports.DailyTotals(c.Request.Context(), days)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, gin.H{"data": totals})
}
