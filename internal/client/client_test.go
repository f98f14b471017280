package client

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelsos/unit-review/internal/config"
	"github.com/kelsos/unit-review/internal/models"
)

func testClient(baseURL string) *APIClient {
	cfg := config.NewConfig()
	cfg.BaseURL = baseURL
	cfg.HTTPTimeout = 2 * time.Second
	return NewAPIClient(cfg)
}

func TestGetDecodesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/1/task_runs/run-1/units", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result": {"units": [{"unit_id": "231", "status": "submitted"}]}, "message": ""}`))
	}))
	defer server.Close()

	var response models.UnitsResponse
	err := testClient(server.URL).Get("/task_runs/run-1/units", &response)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"unit_id": "231", "status": "submitted"}]`, string(response.Result.Units))
}

func TestPostSendsJSONBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/1/units/231/accept", r.URL.Path)
		w.Write([]byte(`{"result": true, "message": ""}`))
	}))
	defer server.Close()

	var response models.ActionResponse
	err := testClient(server.URL).Post("/units/231/accept", nil, &response)
	require.NoError(t, err)
	assert.True(t, response.Result)
}

func TestNonSuccessStatusIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "worker already blocked", http.StatusConflict)
	}))
	defer server.Close()

	var response models.ActionResponse
	err := testClient(server.URL).Post("/units/231/hard_block", nil, &response)

	var transport *TransportError
	require.ErrorAs(t, err, &transport)
	assert.Equal(t, http.StatusConflict, transport.StatusCode)
	assert.Contains(t, transport.Body, "worker already blocked")
	assert.Contains(t, transport.Error(), "409")
}

func TestNetworkFailureIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	var response models.UnitsResponse
	err := testClient(server.URL).Get("/task_runs/run-1/units", &response)

	var transport *TransportError
	require.ErrorAs(t, err, &transport)
	assert.Error(t, transport.Err)
	assert.Zero(t, transport.StatusCode)
}

func TestBuildURLWithParams(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		params   map[string]string
		expected string
	}{
		{
			name:     "no params",
			endpoint: "/units",
			params:   nil,
			expected: "/units",
		},
		{
			name:     "single param",
			endpoint: "/units",
			params:   map[string]string{"task_run_id": "run-1"},
			expected: "/units?task_run_id=run-1",
		},
		{
			name:     "merges existing query",
			endpoint: "/units?limit=10",
			params:   map[string]string{"task_run_id": "run-1"},
			expected: "/units?limit=10&task_run_id=run-1",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, BuildURLWithParams(tc.endpoint, tc.params))
		})
	}
}
