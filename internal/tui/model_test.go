package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kelsos/unit-review/internal/models"
	"github.com/kelsos/unit-review/internal/review"
	"github.com/kelsos/unit-review/internal/store"
)

func keyMsg(key string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, _ := m.Update(msg)
	next, ok := updated.(Model)
	require.True(t, ok)
	return next
}

func testUnits() store.TaskRunUnits {
	return store.TaskRunUnits{
		{UnitID: "231", AssignmentID: "a-1", WorkerID: "w-1", Status: models.StatusSubmitted},
		{UnitID: "232", AssignmentID: "a-2", WorkerID: "w-2", Status: models.StatusSubmitted},
	}
}

func TestModelRendersEachFetchState(t *testing.T) {
	m := NewModel("run-1", Hooks{})

	assert.Contains(t, m.View(), "Loading units")

	m = update(t, m, LoadFailedMsg{Err: errors.New("connection refused")})
	assert.Contains(t, m.View(), "Failed to load units")
	assert.Contains(t, m.View(), "connection refused")

	m = update(t, m, NoUnitsMsg{})
	assert.Contains(t, m.View(), "Nothing to review")

	m = update(t, m, UnitsLoadedMsg{Units: testUnits()})
	view := m.View()
	assert.Contains(t, view, "231")
	assert.Contains(t, view, "w-2")
	assert.Contains(t, view, "submitted")
}

func TestModelActionKeyDispatchesSelectedUnit(t *testing.T) {
	var dispatched []review.Action

	m := NewModel("run-1", Hooks{
		Dispatch: func(action review.Action) (review.Verdict, error) {
			dispatched = append(dispatched, action)
			return review.VerdictStarted, nil
		},
		Snapshot: testUnits,
	})

	m = update(t, m, UnitsLoadedMsg{Units: testUnits()})
	m = update(t, m, keyMsg("j"))
	m = update(t, m, keyMsg("h"))

	require.Len(t, dispatched, 1)
	assert.Equal(t, review.Action{Kind: review.HardBlock, UnitID: "232"}, dispatched[0])
}

func TestModelIgnoresActionKeysOutsideUnitsView(t *testing.T) {
	calls := 0
	m := NewModel("run-1", Hooks{
		Dispatch: func(review.Action) (review.Verdict, error) {
			calls++
			return review.VerdictStarted, nil
		},
	})

	m = update(t, m, NoUnitsMsg{})
	update(t, m, keyMsg("a"))

	assert.Zero(t, calls)
}

func TestModelReportsSettledDispatch(t *testing.T) {
	m := NewModel("run-1", Hooks{Snapshot: testUnits})
	m = update(t, m, UnitsLoadedMsg{Units: testUnits()})

	m = update(t, m, DispatchSettledMsg{
		UnitID: "231",
		Outcome: review.Outcome{
			Action:  review.Action{Kind: review.RejectAndPay, UnitID: "231"},
			Applied: false,
			Err:     errors.New("HTTP error 502"),
		},
	})

	view := m.View()
	assert.Contains(t, view, "failed")
	assert.Contains(t, view, "retry")
}
