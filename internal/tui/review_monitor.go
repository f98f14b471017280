package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kelsos/unit-review/internal/review"
	"github.com/kelsos/unit-review/internal/store"
)

// ReviewMonitor owns the bubbletea program and forwards engine callbacks to
// it as messages.
type ReviewMonitor struct {
	program *tea.Program
}

func NewReviewMonitor(model Model) *ReviewMonitor {
	return &ReviewMonitor{
		program: tea.NewProgram(model, tea.WithAltScreen()),
	}
}

// Run blocks until the reviewer quits.
func (rm *ReviewMonitor) Run() error {
	_, err := rm.program.Run()
	return err
}

func (rm *ReviewMonitor) Loading() {
	rm.program.Send(LoadingMsg{})
}

func (rm *ReviewMonitor) LoadFailed(cause error) {
	rm.program.Send(LoadFailedMsg{Err: cause})
}

func (rm *ReviewMonitor) NoUnits() {
	rm.program.Send(NoUnitsMsg{})
}

func (rm *ReviewMonitor) UnitsLoaded(units store.TaskRunUnits) {
	rm.program.Send(UnitsLoadedMsg{Units: units})
}

func (rm *ReviewMonitor) DispatchSettled(unitID string, outcome review.Outcome) {
	rm.program.Send(DispatchSettledMsg{UnitID: unitID, Outcome: outcome})
}
