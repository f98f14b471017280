package services

import (
	"context"
	"fmt"

	"github.com/kelsos/unit-review/internal/client"
	"github.com/kelsos/unit-review/internal/config"
	"github.com/kelsos/unit-review/internal/fetch"
	"github.com/kelsos/unit-review/internal/models"
	"github.com/kelsos/unit-review/internal/review"
	"github.com/kelsos/unit-review/internal/store"
)

// Callbacks is the presenter contract. Exactly one of the four fetch
// callbacks fires per loader state change; OnDispatchSettled fires once per
// settled dispatch.
type Callbacks struct {
	OnLoading         func()
	OnError           func(cause error)
	OnEmptyData       func()
	OnData            func(units store.TaskRunUnits)
	OnDispatchSettled func(unitID string, outcome review.Outcome)
}

// loadedUnits pairs a fetched collection with the task run it belongs to, so
// store reconciliation happens against the request that actually won.
type loadedUnits struct {
	taskRunID string
	units     store.TaskRunUnits
}

// ReviewService wires the API client, loader, unit store and dispatcher into
// the engine a presenter consumes. One instance per active presenter.
type ReviewService struct {
	config     *config.Config
	client     *client.APIClient
	units      *store.Store
	loader     *fetch.Loader[loadedUnits]
	dispatcher *review.Dispatcher
}

// NewReviewService creates a review service with all dependencies.
func NewReviewService(cfg *config.Config, callbacks Callbacks) *ReviewService {
	apiClient := client.NewAPIClient(cfg)
	units := store.NewStore()

	s := &ReviewService{
		config: cfg,
		client: apiClient,
		units:  units,
	}

	s.loader = fetch.NewLoader(func(result fetch.Result[loadedUnits]) {
		// The loader only notifies for the winning request, so the
		// wholesale replace here cannot resurrect a stale fetch.
		switch result.State() {
		case fetch.StateData, fetch.StateEmpty:
			loaded := result.Value()
			units.Replace(loaded.taskRunID, loaded.units)
		}

		result.Render(fetch.Handler[loadedUnits]{
			OnLoading:   callbacks.OnLoading,
			OnError:     callbacks.OnError,
			OnEmptyData: callbacks.OnEmptyData,
			OnData: func(loaded loadedUnits) {
				if callbacks.OnData != nil {
					callbacks.OnData(loaded.units)
				}
			},
		})
	})

	s.dispatcher = review.NewDispatcher(apiClient, units, callbacks.OnDispatchSettled)

	return s
}

// WaitForAPIReady waits for the review API to become ready.
func (s *ReviewService) WaitForAPIReady() bool {
	return s.client.WaitForAPIReady()
}

// LoadUnits fetches the units of the given task run. The store is replaced
// wholesale before the presenter callback fires; a request superseded by a
// newer LoadUnits call is discarded, never applied.
func (s *ReviewService) LoadUnits(ctx context.Context, taskRunID string) {
	s.loader.Load(ctx,
		func(ctx context.Context) (loadedUnits, error) {
			units, err := s.fetchUnits(taskRunID)
			if err != nil {
				return loadedUnits{}, err
			}
			return loadedUnits{taskRunID: taskRunID, units: units}, nil
		},
		func(loaded loadedUnits) bool {
			return len(loaded.units) == 0
		},
	)
}

// Dispatch hands a review action to the dispatcher.
func (s *ReviewService) Dispatch(ctx context.Context, action review.Action) (review.Verdict, error) {
	return s.dispatcher.Dispatch(ctx, action)
}

// Units returns a snapshot of the current unit collection.
func (s *ReviewService) Units() store.TaskRunUnits {
	return s.units.Units()
}

// InFlight reports whether a dispatch on the unit is still pending.
func (s *ReviewService) InFlight(unitID string) bool {
	return s.dispatcher.InFlight(unitID)
}

// Close discards the service: outstanding loads and dispatches settle into
// the void instead of a freed store.
func (s *ReviewService) Close() {
	s.loader.Invalidate()
	s.dispatcher.Close()
}

func (s *ReviewService) fetchUnits(taskRunID string) (store.TaskRunUnits, error) {
	endpoint := fmt.Sprintf("/task_runs/%s/units", taskRunID)

	var response models.UnitsResponse
	if err := s.client.Get(endpoint, &response); err != nil {
		return nil, fmt.Errorf("failed to fetch units for task run %s: %w", taskRunID, err)
	}

	return store.FromPayload(response.Result)
}
