package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelsos/unit-review/internal/config"
	"github.com/kelsos/unit-review/internal/models"
	"github.com/kelsos/unit-review/internal/review"
	"github.com/kelsos/unit-review/internal/store"
)

type event struct {
	kind  string
	err   error
	units store.TaskRunUnits
}

func newTestService(t *testing.T, handler http.Handler) (*ReviewService, chan event, chan review.Outcome) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.NewConfig()
	cfg.BaseURL = server.URL
	cfg.HTTPTimeout = 2 * time.Second

	events := make(chan event, 8)
	settled := make(chan review.Outcome, 8)

	service := NewReviewService(cfg, Callbacks{
		OnLoading:   func() { events <- event{kind: "loading"} },
		OnError:     func(cause error) { events <- event{kind: "error", err: cause} },
		OnEmptyData: func() { events <- event{kind: "empty"} },
		OnData:      func(units store.TaskRunUnits) { events <- event{kind: "data", units: units} },
		OnDispatchSettled: func(unitID string, outcome review.Outcome) {
			settled <- outcome
		},
	})
	t.Cleanup(service.Close)

	return service, events, settled
}

func nextEvent(t *testing.T, events chan event) event {
	t.Helper()
	select {
	case e := <-events:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for presenter callback")
		return event{}
	}
}

func TestLoadUnitsEmptyRun(t *testing.T) {
	service, events, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result": {"units": []}, "message": ""}`)
	}))

	service.LoadUnits(context.Background(), "run-1")

	assert.Equal(t, "loading", nextEvent(t, events).kind)
	assert.Equal(t, "empty", nextEvent(t, events).kind)
	assert.Empty(t, service.Units())
}

func TestLoadUnitsPopulatesStore(t *testing.T) {
	service, events, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/1/task_runs/run-1/units", r.URL.Path)
		fmt.Fprint(w, `{"result": {"units": [
			{"unit_id": "231", "assignment_id": "a-1", "worker_id": "w-1", "task_run_id": "run-1", "status": "submitted", "data": {"inputs": {}, "outputs": {}}}
		]}, "message": ""}`)
	}))

	service.LoadUnits(context.Background(), "run-1")

	assert.Equal(t, "loading", nextEvent(t, events).kind)

	loaded := nextEvent(t, events)
	require.Equal(t, "data", loaded.kind)
	require.Len(t, loaded.units, 1)
	assert.Equal(t, "231", loaded.units[0].UnitID)
	assert.Equal(t, models.StatusSubmitted, loaded.units[0].Status)

	unit, ok := service.Units().Get("231")
	require.True(t, ok)
	assert.Equal(t, models.StatusSubmitted, unit.Status)
}

func TestLoadUnitsTransportFailure(t *testing.T) {
	service, events, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "database locked", http.StatusInternalServerError)
	}))

	service.LoadUnits(context.Background(), "run-1")

	assert.Equal(t, "loading", nextEvent(t, events).kind)

	failed := nextEvent(t, events)
	assert.Equal(t, "error", failed.kind)
	assert.ErrorContains(t, failed.err, "500")
}

func TestLoadUnitsMalformedPayloadIsError(t *testing.T) {
	service, events, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result": {"rows": []}, "message": ""}`)
	}))

	service.LoadUnits(context.Background(), "run-1")

	assert.Equal(t, "loading", nextEvent(t, events).kind)

	failed := nextEvent(t, events)
	require.Equal(t, "error", failed.kind)

	var malformed *store.MalformedPayloadError
	assert.ErrorAs(t, failed.err, &malformed)
}

func TestDispatchAcceptEndToEnd(t *testing.T) {
	service, events, settled := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			fmt.Fprint(w, `{"result": {"units": [
				{"unit_id": "231", "assignment_id": "a-1", "worker_id": "w-1", "task_run_id": "run-1", "status": "submitted", "data": {"inputs": {}, "outputs": {}}}
			]}, "message": ""}`)
		case r.Method == http.MethodPost:
			assert.Equal(t, "/api/1/units/231/accept", r.URL.Path)
			fmt.Fprint(w, `{"result": true, "message": ""}`)
		}
	}))

	service.LoadUnits(context.Background(), "run-1")
	nextEvent(t, events)
	nextEvent(t, events)

	verdict, err := service.Dispatch(context.Background(), review.Action{Kind: review.AcceptAndPay, UnitID: "231"})
	require.NoError(t, err)
	assert.Equal(t, review.VerdictStarted, verdict)

	unit, _ := service.Units().Get("231")
	assert.Equal(t, models.StatusReviewing, unit.Status)

	select {
	case outcome := <-settled:
		assert.True(t, outcome.Applied)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for dispatch to settle")
	}

	unit, _ = service.Units().Get("231")
	assert.Equal(t, models.StatusAccepted, unit.Status)
}
