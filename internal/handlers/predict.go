package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sknetboy/data-science-prediccion/internal/logging"
	"github.com/sknetboy/data-science-prediccion/internal/metrics"
	"github.com/sknetboy/data-science-prediccion/internal/models"
	"github.com/sknetboy/data-science-prediccion/internal/services"
)

const maxRequestBytes = 1 << 20

// Predict validates the features and relays them to the prediction service.
// 200 carries the service's body as is, 400 lists the offending fields,
// 502 hides whatever went wrong downstream.
func (h Handler) Predict(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBytes))
	if err != nil {
		h.Metrics.CountPrediction(metrics.OutcomeValidationError)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	req, err := models.ParsePredictRequest(body)
	if err != nil {
		h.badRequest(c, err)
		return
	}

	out, err := h.Relay.Predict(c.Request.Context(), req)
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			h.badRequest(c, err)
			return
		}
		h.Metrics.CountPrediction(metrics.OutcomeRelayError)
		h.badGateway(c, err)
		return
	}

	h.Metrics.CountPrediction(metrics.OutcomeOK)
	c.Data(http.StatusOK, "application/json", out)
}

func (h Handler) Stats(c *gin.Context) {
	out, err := h.Relay.Stats(c.Request.Context())
	if err != nil {
		h.badGateway(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", out)
}

func (h Handler) ModelInfo(c *gin.Context) {
	out, err := h.Relay.ModelInfo(c.Request.Context())
	if err != nil {
		h.badGateway(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", out)
}

func (h Handler) badRequest(c *gin.Context, err error) {
	h.Metrics.CountPrediction(metrics.OutcomeValidationError)

	var verr *models.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "violations": verr.Violations})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
}

func (h Handler) badGateway(c *gin.Context, err error) {
	attrs := []any{
		"request_id", logging.RequestID(c.Request.Context()),
		"path", c.FullPath(),
		"err", err.Error(),
	}
	var rerr *services.RelayError
	if errors.As(err, &rerr) {
		attrs = append(attrs, "kind", string(rerr.Kind))
		if rerr.StatusCode != 0 {
			attrs = append(attrs, "upstream_status", rerr.StatusCode)
		}
	}
	h.Log.Warn("prediction service call failed", attrs...)
	c.JSON(http.StatusBadGateway, gin.H{"error": "prediction service unavailable"})
}
