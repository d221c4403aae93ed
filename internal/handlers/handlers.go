package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/sknetboy/data-science-prediccion/internal/metrics"
	"github.com/sknetboy/data-science-prediccion/internal/models"
)

// Relay is the prediction service as seen by the HTTP layer.
type Relay interface {
	Predict(ctx context.Context, req models.PredictRequest) (json.RawMessage, error)
	Stats(ctx context.Context) (json.RawMessage, error)
	ModelInfo(ctx context.Context) (json.RawMessage, error)
}

type Handler struct {
	Relay   Relay
	Log     *slog.Logger
	Metrics *metrics.Metrics
	started time.Time
}

func NewHandler(relay Relay, log *slog.Logger, m *metrics.Metrics) Handler {
	if log == nil {
		log = slog.Default()
	}
	return Handler{
		Relay:   relay,
		Log:     log,
		Metrics: m,
		started: time.Now(),
	}
}
