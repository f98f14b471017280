package store

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/kelsos/unit-review/internal/models"
)

// MalformedPayloadError indicates a fetch response without the expected unit
// sequence. It blocks rendering and is surfaced, never silently coerced.
type MalformedPayloadError struct {
	Reason string
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("malformed units payload: %s", e.Reason)
}

// UnitNotFoundError indicates a patch that targeted a unit absent from the
// collection. This never happens in correct operation; it means a stale
// reference and is treated as a programming error.
type UnitNotFoundError struct {
	UnitID string
}

func (e *UnitNotFoundError) Error() string {
	return fmt.Sprintf("unit %s not found in task run units", e.UnitID)
}

// TaskRunUnits is the ordered sequence of units belonging to one task run.
type TaskRunUnits []models.Unit

// FromPayload extracts the unit sequence from a successful fetch payload.
func FromPayload(payload models.UnitsPayload) (TaskRunUnits, error) {
	if payload.Units == nil {
		return nil, &MalformedPayloadError{Reason: "missing units field"}
	}

	var units []models.Unit
	if err := json.Unmarshal(payload.Units, &units); err != nil {
		return nil, &MalformedPayloadError{Reason: fmt.Sprintf("units field is not a unit sequence: %v", err)}
	}

	return TaskRunUnits(units), nil
}

// Get returns the unit with the given id.
func (u TaskRunUnits) Get(unitID string) (models.Unit, bool) {
	for _, unit := range u {
		if unit.UnitID == unitID {
			return unit, true
		}
	}
	return models.Unit{}, false
}

// Patch returns a copy of the collection with the targeted unit's status
// replaced. All other units and fields are left untouched.
func (u TaskRunUnits) Patch(unitID string, status models.UnitStatus) (TaskRunUnits, error) {
	patched := make(TaskRunUnits, len(u))
	copy(patched, u)

	for i := range patched {
		if patched[i].UnitID == unitID {
			patched[i].Status = status
			return patched, nil
		}
	}

	return nil, &UnitNotFoundError{UnitID: unitID}
}

// Store owns the current task run's unit collection. The loader replaces it
// wholesale, the dispatcher patches it incrementally. One instance per active
// presenter; discarded on unmount.
type Store struct {
	mu        sync.RWMutex
	taskRunID string
	units     TaskRunUnits
}

func NewStore() *Store {
	return &Store{}
}

// Replace swaps in a freshly fetched collection for the given task run.
func (s *Store) Replace(taskRunID string, units TaskRunUnits) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taskRunID = taskRunID
	s.units = units
}

// TaskRunID returns the task run the store currently holds units for.
func (s *Store) TaskRunID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.taskRunID
}

// Units returns a snapshot of the current collection.
func (s *Store) Units() TaskRunUnits {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make(TaskRunUnits, len(s.units))
	copy(snapshot, s.units)
	return snapshot
}

// Get returns the current state of one unit.
func (s *Store) Get(unitID string) (models.Unit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.units.Get(unitID)
}

// Patch replaces the targeted unit's status. The task run id captured at
// dispatch time must still match the store's current one; a patch racing a
// wholesale replace for a different task run is discarded and reported as
// applied=false with no error.
func (s *Store) Patch(taskRunID, unitID string, status models.UnitStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if taskRunID != s.taskRunID {
		return false, nil
	}

	patched, err := s.units.Patch(unitID, status)
	if err != nil {
		return false, err
	}

	s.units = patched
	return true, nil
}
