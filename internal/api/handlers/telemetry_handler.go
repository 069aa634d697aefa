package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/plagiafix/plagiafix/internal/telemetry"
	"github.com/plagiafix/plagiafix/internal/utils"
)

// TelemetryHandler exposes recent pipeline events to admins.
type TelemetryHandler struct {
	rec *telemetry.MongoRecorder
}

func NewTelemetryHandler(rec *telemetry.MongoRecorder) *TelemetryHandler {
	return &TelemetryHandler{rec: rec}
}

func (h *TelemetryHandler) Recent(c *gin.Context) {
	if h.rec == nil {
		writeError(c, utils.E(utils.CodeUnavailable, "TelemetryHandler.Recent", "telemetry is disabled", nil))
		return
	}

	limit, _ := strconv.ParseInt(c.Query("limit"), 10, 64)
	events, err := h.rec.Recent(c.Request.Context(), c.Query("event"), limit)
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, "TelemetryHandler.Recent", "failed to query events", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}
