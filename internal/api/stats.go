package api

import (
	"net/http"
	"strconv"

	"iapkit/internal/response"
	"iapkit/pkg/logging"

	"github.com/gin-gonic/gin"
)

// GetStats returns verification statistics for the last ?days=N days
// (default 7).
// GET /api/stats
func (h *Handler) GetStats(c *gin.Context) {
	if h.audit == nil {
		response.Fail(c, http.StatusServiceUnavailable, response.CodeUnavailable, "Audit log is disabled")
		return
	}

	days := 7
	if raw := c.Query("days"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil || d <= 0 || d > 365 {
			response.Fail(c, http.StatusBadRequest, response.CodeBadRequest, "days must be between 1 and 365")
			return
		}
		days = d
	}

	stats, err := h.audit.GetVerificationStats(c.Request.Context(), days)
	if err != nil {
		logging.Errorf("Failed to get verification stats: %v", err)
		response.Fail(c, http.StatusInternalServerError, response.CodeInternal, "Failed to get stats")
		return
	}

	if h.dedup != nil {
		stats["webhook_dedup"] = h.dedup.GetStats()
	}
	response.OK(c, stats)
}
