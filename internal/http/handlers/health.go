package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-backend/internal/observability"
)

type HealthHandler struct {
	summary *observability.RunSummary
}

func NewHealthHandler(summary *observability.RunSummary) *HealthHandler {
	return &HealthHandler{summary: summary}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (h *HealthHandler) Summary(c *gin.Context) {
	if h.summary == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, h.summary.Snapshot())
}
