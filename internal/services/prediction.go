package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sknetboy/data-science-prediccion/internal/config"
	"github.com/sknetboy/data-science-prediccion/internal/logging"
	"github.com/sknetboy/data-science-prediccion/internal/metrics"
	"github.com/sknetboy/data-science-prediccion/internal/models"
)

// Paths on the prediction service.
const (
	PathPredict   = "/predict"
	PathStats     = "/stats"
	PathModelInfo = "/model-info"
)

const maxResponseBytes = 4 << 20

type RelayErrorKind string

const (
	KindUnreachable RelayErrorKind = "unreachable"
	KindTimeout     RelayErrorKind = "timeout"
	KindCanceled    RelayErrorKind = "canceled"
	KindStatus      RelayErrorKind = "status"
	KindDecode      RelayErrorKind = "decode"
	KindEncode      RelayErrorKind = "encode"
)

// RelayError is any failure of a call to the prediction service.
type RelayError struct {
	Op         string // "POST /predict"
	Kind       RelayErrorKind
	StatusCode int // set for KindStatus
	Err        error
}

func (e *RelayError) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("%s: prediction service returned status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *RelayError) Unwrap() error { return e.Err }

// PredictionClient relays requests to the prediction service. One attempt per call,
// nothing is cached. Safe for concurrent use.
type PredictionClient struct {
	baseURL string
	timeout time.Duration
	hc      *http.Client
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewPredictionClient(cfg config.PredictionConfig, log *slog.Logger, m *metrics.Metrics) *PredictionClient {
	if log == nil {
		log = slog.Default()
	}
	dialer := &net.Dialer{Timeout: cfg.Timeout, KeepAlive: 30 * time.Second}
	tr := &http.Transport{
		DialContext:         dialer.DialContext,
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &PredictionClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout,
		hc:      &http.Client{Transport: tr},
		log:     log,
		metrics: m,
	}
}

func (p *PredictionClient) BaseURL() string { return p.baseURL }

// Predict posts the request to {baseURL}/predict and returns the response body
// untouched. Invalid requests are rejected with *models.ValidationError before any
// network call; every other failure is a *RelayError.
func (p *PredictionClient) Predict(ctx context.Context, req models.PredictRequest) (json.RawMessage, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return p.do(ctx, http.MethodPost, PathPredict, req)
}

// Stats relays GET {baseURL}/stats.
func (p *PredictionClient) Stats(ctx context.Context) (json.RawMessage, error) {
	return p.do(ctx, http.MethodGet, PathStats, nil)
}

// ModelInfo relays GET {baseURL}/model-info.
func (p *PredictionClient) ModelInfo(ctx context.Context) (json.RawMessage, error) {
	return p.do(ctx, http.MethodGet, PathModelInfo, nil)
}

func (p *PredictionClient) do(ctx context.Context, method, path string, body any) (out json.RawMessage, err error) {
	op := method + " " + path
	begin := time.Now()
	defer func() {
		kind := ""
		var rerr *RelayError
		if errors.As(err, &rerr) {
			kind = string(rerr.Kind)
		}
		p.metrics.ObserveRelay(path, kind, time.Since(begin))
	}()

	var reader io.Reader
	if body != nil {
		payload, merr := json.Marshal(body)
		if merr != nil {
			return nil, &RelayError{Op: op, Kind: KindEncode, Err: merr}
		}
		reader = bytes.NewReader(payload)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return nil, &RelayError{Op: op, Kind: KindUnreachable, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if id := logging.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := p.hc.Do(req)
	if err != nil {
		return nil, &RelayError{Op: op, Kind: classify(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, &RelayError{Op: op, Kind: KindStatus, StatusCode: resp.StatusCode,
			Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, &RelayError{Op: op, Kind: classify(err), Err: fmt.Errorf("read body: %w", err)}
	}
	if len(data) > maxResponseBytes {
		return nil, &RelayError{Op: op, Kind: KindDecode, Err: errors.New("response body too large")}
	}
	if err := checkJSONObject(data); err != nil {
		return nil, &RelayError{Op: op, Kind: KindDecode, Err: err}
	}

	p.log.Debug("prediction service call ok",
		"op", op, "status", resp.StatusCode, "duration_ms", time.Since(begin).Milliseconds())
	return json.RawMessage(data), nil
}

func checkJSONObject(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return errors.New("empty response body")
	}
	if !json.Valid(trimmed) {
		return errors.New("response body is not valid JSON")
	}
	if trimmed[0] != '{' {
		return errors.New("response body is not a JSON object")
	}
	return nil
}

func classify(err error) RelayErrorKind {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCanceled
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTimeout
	}
	return KindUnreachable
}
