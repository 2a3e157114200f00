package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type SystemHandler struct {
	ping func() error
}

// NewSystemHandler takes an optional broker ping; nil skips the check.
func NewSystemHandler(ping func() error) *SystemHandler {
	return &SystemHandler{ping: ping}
}

func (h *SystemHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *SystemHandler) Readyz(c *gin.Context) {
	checks := map[string]string{}
	healthy := true

	// Check NATS
	if h.ping == nil {
		checks["nats"] = "disabled"
	} else if err := h.ping(); err != nil {
		checks["nats"] = err.Error()
		healthy = false
	} else {
		checks["nats"] = "ok"
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status": map[bool]string{true: "ready", false: "not ready"}[healthy],
		"checks": checks,
	})
}
