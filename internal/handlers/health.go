package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (h Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "uptime": time.Since(h.started).String()})
}

func (h Handler) Readiness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready", "timestamp": time.Now().UTC()})
}
