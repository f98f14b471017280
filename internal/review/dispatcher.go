package review

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/kelsos/unit-review/internal/logger"
	"github.com/kelsos/unit-review/internal/models"
	"github.com/kelsos/unit-review/internal/store"
)

// Poster is the slice of the API client the dispatcher needs.
type Poster interface {
	Post(endpoint string, body interface{}, result interface{}) error
}

// Verdict is the immediate answer to a Dispatch call, before the remote call
// settles.
type Verdict string

const (
	// VerdictStarted means the unit entered Pending and exactly one remote
	// call was issued; the settle arrives via the OnSettled callback.
	VerdictStarted Verdict = "started"
	// VerdictAlreadyInFlight means a prior dispatch on the same unit has not
	// settled yet. No remote call is made. Expected under rapid clicks,
	// not an error.
	VerdictAlreadyInFlight Verdict = "already-in-flight"
	// VerdictAlreadyApplied means the unit already holds the action's
	// terminal status. Safe no-op, nothing is re-sent.
	VerdictAlreadyApplied Verdict = "already-applied"
	// VerdictNotActionable means the unit sits in a terminal status that
	// does not match the action; the engine refuses to double-disposition.
	VerdictNotActionable Verdict = "not-actionable"
)

// Outcome describes a settled dispatch.
type Outcome struct {
	Action  Action
	Applied bool
	Err     error
}

// SettleFunc receives the outcome of every dispatch that settles while the
// dispatcher is still live.
type SettleFunc func(unitID string, outcome Outcome)

type pendingDispatch struct {
	id        string
	taskRunID string
	prev      models.UnitStatus
}

// Dispatcher validates and executes reviewer-initiated transitions on units.
// Per unit it runs the machine Idle -> Pending -> {Applied, Failed} and
// guarantees at most one dispatch in flight per unit. Dispatches on distinct
// units may run concurrently.
type Dispatcher struct {
	client    Poster
	units     *store.Store
	onSettled SettleFunc

	mu      sync.Mutex
	pending map[string]pendingDispatch
	closed  bool
}

// NewDispatcher creates a dispatcher patching the given store and reporting
// settles to onSettled.
func NewDispatcher(client Poster, units *store.Store, onSettled SettleFunc) *Dispatcher {
	return &Dispatcher{
		client:    client,
		units:     units,
		onSettled: onSettled,
		pending:   make(map[string]pendingDispatch),
	}
}

// Dispatch validates the action against the unit's current state and, when the
// unit is idle, moves it to Pending, patches the store to the transient
// reviewing status and issues exactly one remote call. The returned verdict is
// immediate; the settle is reported asynchronously. Failed dispatches are
// never retried automatically: these calls move money and blocks, a retry
// requires a fresh reviewer action.
func (d *Dispatcher) Dispatch(ctx context.Context, action Action) (Verdict, error) {
	if !action.Kind.Valid() {
		return "", fmt.Errorf("unsupported review action kind: %q", action.Kind)
	}

	terminal := action.Kind.TerminalStatus()

	d.mu.Lock()

	if d.closed {
		d.mu.Unlock()
		return "", errors.New("dispatcher is closed")
	}

	if entry, inFlight := d.pending[action.UnitID]; inFlight {
		d.mu.Unlock()
		logger.Debug("Dispatch %s ignored: unit %s already has dispatch %s in flight", action, action.UnitID, entry.id)
		return VerdictAlreadyInFlight, nil
	}

	unit, ok := d.units.Get(action.UnitID)
	if !ok {
		d.mu.Unlock()
		err := &store.UnitNotFoundError{UnitID: action.UnitID}
		logger.Error("Dispatch %s aborted: %v", action, err)
		return "", err
	}

	if unit.Status == terminal {
		d.mu.Unlock()
		logger.Debug("Dispatch %s is a no-op: unit already %s", action, terminal)
		return VerdictAlreadyApplied, nil
	}

	if !unit.Status.Actionable() {
		d.mu.Unlock()
		logger.Warn("Dispatch %s refused: unit status is %s", action, unit.Status)
		return VerdictNotActionable, nil
	}

	entry := pendingDispatch{
		id:        uuid.New().String(),
		taskRunID: d.units.TaskRunID(),
		prev:      unit.Status,
	}
	d.pending[action.UnitID] = entry

	// Optimistic patch so the presenter can disable input for the unit
	// without waiting on the network.
	if _, err := d.units.Patch(entry.taskRunID, action.UnitID, models.StatusReviewing); err != nil {
		delete(d.pending, action.UnitID)
		d.mu.Unlock()
		logger.Error("Dispatch %s aborted: optimistic patch failed: %v", action, err)
		return "", err
	}

	d.mu.Unlock()

	logger.Info("Dispatch %s started (id %s, task run %s)", action, entry.id, entry.taskRunID)

	go d.settle(ctx, action, entry)

	return VerdictStarted, nil
}

// InFlight reports whether a dispatch on the unit is currently pending.
func (d *Dispatcher) InFlight(unitID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[unitID]
	return ok
}

// Close marks the dispatcher discarded. Settles arriving afterwards neither
// patch the store nor invoke the settle callback.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
}

func (d *Dispatcher) settle(ctx context.Context, action Action, entry pendingDispatch) {
	var response models.ActionResponse
	err := d.client.Post(action.Endpoint(), nil, &response)

	d.mu.Lock()
	delete(d.pending, action.UnitID)

	if d.closed || ctx.Err() != nil {
		d.mu.Unlock()
		logger.Debug("Dispatch %s (id %s) settled after shutdown, result discarded", action, entry.id)
		return
	}

	status := action.Kind.TerminalStatus()
	if err != nil {
		// Roll back the optimistic reviewing status so the unit is not
		// stuck; the reviewer retries explicitly.
		status = entry.prev
	}

	applied, patchErr := d.units.Patch(entry.taskRunID, action.UnitID, status)
	d.mu.Unlock()

	if patchErr != nil {
		logger.Error("Dispatch %s (id %s): patch after settle failed: %v", action, entry.id, patchErr)
		return
	}
	if !applied {
		logger.Debug("Dispatch %s (id %s): store moved to another task run, patch discarded", action, entry.id)
		return
	}

	if err != nil {
		logger.Error("Dispatch %s (id %s) failed, status rolled back to %s: %v", action, entry.id, entry.prev, err)
	} else {
		logger.Info("Dispatch %s (id %s) applied, unit now %s", action, entry.id, status)
	}

	if d.onSettled != nil {
		d.onSettled(action.UnitID, Outcome{Action: action, Applied: err == nil, Err: err})
	}
}
