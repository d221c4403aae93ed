package handlers

import (
	"github.com/gin-gonic/gin"
)

func NewRouter(h Handler, allowedOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), AccessLog(h.Log, h.Metrics), Recovery(h.Log), CORSMiddleware(allowedOrigins))

	// health/metrics
	r.GET("/healthz", h.Healthz)
	r.GET("/readiness", h.Readiness)
	r.GET("/metrics", gin.WrapH(h.Metrics.Handler()))

	// prediction service relay
	r.POST("/predict", h.Predict)
	r.GET("/stats", h.Stats)
	r.GET("/model-info", h.ModelInfo)

	return r
}
