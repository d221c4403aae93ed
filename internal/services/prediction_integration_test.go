package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// MockServer plays the prediction service; nothing of the real model is needed.
func TestPredictionClient_MockServer(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "mockserver/mockserver:5.15.0",
		ExposedPorts: []string{"1080/tcp"},
		WaitingFor: wait.ForHTTP("/mockserver/status").
			WithPort("1080/tcp").
			WithMethod(http.MethodPut).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	baseURL := "http://" + endpoint

	// The expectation only matches the exact wire body, so a renamed field shows up as 404.
	createExpectation(t, baseURL, `{
		"httpRequest": {
			"method": "POST",
			"path": "/predict",
			"headers": {"Content-Type": ["application/json"]},
			"body": {
				"type": "JSON",
				"json": {"tiempo_contrato_meses": 12, "retrasos_pago": 2, "uso_mensual": 18.75, "plan": "Standard"},
				"matchType": "STRICT"
			}
		},
		"httpResponse": {
			"statusCode": 200,
			"headers": {"Content-Type": ["application/json"]},
			"body": {"prevision": "Va a continuar", "probabilidad": 0.1234}
		}
	}`)
	createExpectation(t, baseURL, `{
		"httpRequest": {"method": "GET", "path": "/stats"},
		"httpResponse": {"statusCode": 200, "body": {"predictions_count": 1}},
		"delay": {"timeUnit": "MILLISECONDS", "value": 3000}
	}`)

	client, _ := newClient(t, baseURL, time.Second)

	out, err := client.Predict(ctx, validRequest)
	require.NoError(t, err)
	assert.JSONEq(t, `{"prevision": "Va a continuar", "probabilidad": 0.1234}`, string(out))

	start := time.Now()
	_, err = client.Stats(ctx)
	requireRelayError(t, err, KindTimeout)
	assert.Less(t, time.Since(start).Seconds(), 2.0, "client did not give up at its timeout")
}

func createExpectation(t *testing.T, baseURL, payload string) {
	t.Helper()

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequest(http.MethodPut, fmt.Sprintf("%s/mockserver/expectation", baseURL), strings.NewReader(payload))
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err, "Failed to connect to MockServer to set expectation")
	defer resp.Body.Close()

	require.Equal(t, http.StatusCreated, resp.StatusCode, "MockServer rejected the expectation")
}
