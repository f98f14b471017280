package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kelsos/unit-review/internal/models"
	"github.com/kelsos/unit-review/internal/review"
	"github.com/kelsos/unit-review/internal/store"
)

type viewState int

const (
	viewLoading viewState = iota
	viewError
	viewEmpty
	viewUnits
)

// LoadingMsg signals that a fetch is in flight.
type LoadingMsg struct{}

// LoadFailedMsg carries the cause of a failed fetch.
type LoadFailedMsg struct {
	Err error
}

// NoUnitsMsg signals a successful fetch with nothing to review.
type NoUnitsMsg struct{}

// UnitsLoadedMsg carries a freshly fetched unit collection.
type UnitsLoadedMsg struct {
	Units store.TaskRunUnits
}

// DispatchSettledMsg carries the outcome of a settled review action.
type DispatchSettledMsg struct {
	UnitID  string
	Outcome review.Outcome
}

// Hooks are the engine entry points the presenter drives.
type Hooks struct {
	// Mount starts the initial fetch; invoked once from Init.
	Mount func()
	// Refresh re-fetches the current task run.
	Refresh func()
	// Dispatch hands a review action to the engine.
	Dispatch func(action review.Action) (review.Verdict, error)
	// Snapshot returns the engine's current unit collection.
	Snapshot func() store.TaskRunUnits
}

type Model struct {
	taskRunID string
	hooks     Hooks

	state    viewState
	loadErr  error
	units    store.TaskRunUnits
	selected int
	notices  []string
	spinner  spinner.Model
	width    int
	height   int
	quit     bool
}

func NewModel(taskRunID string, hooks Hooks) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return Model{
		taskRunID: taskRunID,
		hooks:     hooks,
		state:     viewLoading,
		spinner:   sp,
		width:     80,
		height:    24,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		func() tea.Msg {
			if m.hooks.Mount != nil {
				m.hooks.Mount()
			}
			return nil
		},
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		var quit bool
		m, quit = m.handleKeyMsg(msg)
		if quit {
			m.quit = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case LoadingMsg:
		m.state = viewLoading

	case LoadFailedMsg:
		m.state = viewError
		m.loadErr = msg.Err

	case NoUnitsMsg:
		m.state = viewEmpty
		m.units = nil
		m.selected = 0

	case UnitsLoadedMsg:
		m.state = viewUnits
		m.units = msg.Units
		if m.selected >= len(m.units) {
			m.selected = 0
		}

	case DispatchSettledMsg:
		m = m.handleDispatchSettled(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (Model, bool) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, true

	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}

	case "down", "j":
		if m.selected < len(m.units)-1 {
			m.selected++
		}

	case "R":
		if m.hooks.Refresh != nil {
			m.hooks.Refresh()
		}

	case "a":
		m = m.dispatchSelected(review.AcceptAndPay)
	case "r":
		m = m.dispatchSelected(review.RejectAndPay)
	case "s":
		m = m.dispatchSelected(review.SoftBlock)
	case "h":
		m = m.dispatchSelected(review.HardBlock)
	}

	return m, false
}

func (m Model) dispatchSelected(kind review.Kind) Model {
	if m.state != viewUnits || m.selected >= len(m.units) || m.hooks.Dispatch == nil {
		return m
	}

	unit := m.units[m.selected]
	action := review.Action{Kind: kind, UnitID: unit.UnitID}

	verdict, err := m.hooks.Dispatch(action)
	switch {
	case err != nil:
		m = m.addNotice(fmt.Sprintf("✗ %s: %v", action, err))
	case verdict == review.VerdictAlreadyInFlight:
		// Expected under rapid keypresses, nothing to report.
	case verdict == review.VerdictAlreadyApplied:
		m = m.addNotice(fmt.Sprintf("• %s already applied", action))
	case verdict == review.VerdictNotActionable:
		m = m.addNotice(fmt.Sprintf("• %s refused: unit is %s", action, unit.Status))
	}

	m = m.resnapshot()
	return m
}

func (m Model) handleDispatchSettled(msg DispatchSettledMsg) Model {
	if msg.Outcome.Applied {
		m = m.addNotice(fmt.Sprintf("✓ %s applied", msg.Outcome.Action))
	} else {
		m = m.addNotice(fmt.Sprintf("✗ %s failed, press the key again to retry: %v", msg.Outcome.Action, msg.Outcome.Err))
	}
	return m.resnapshot()
}

func (m Model) resnapshot() Model {
	if m.hooks.Snapshot != nil && m.state == viewUnits {
		m.units = m.hooks.Snapshot()
		if m.selected >= len(m.units) {
			m.selected = 0
		}
	}
	return m
}

func (m Model) addNotice(notice string) Model {
	m.notices = append(m.notices, fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), notice))
	if len(m.notices) > 8 {
		m.notices = m.notices[len(m.notices)-8:]
	}
	return m
}

func (m Model) View() string {
	if m.quit {
		return "Shutting down...\n"
	}

	var s strings.Builder

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")).
		MarginBottom(1)

	s.WriteString(headerStyle.Render(fmt.Sprintf("📋 Unit Review — task run %s", m.taskRunID)))
	s.WriteString("\n\n")

	switch m.state {
	case viewLoading:
		s.WriteString(fmt.Sprintf("%s Loading units...\n", m.spinner.View()))

	case viewError:
		errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
		s.WriteString(errorStyle.Render(fmt.Sprintf("❌ Failed to load units: %v", m.loadErr)))
		s.WriteString("\n\nPress 'R' to retry or 'q' to quit.\n")

	case viewEmpty:
		emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
		s.WriteString(emptyStyle.Render("Nothing to review for this task run."))
		s.WriteString("\n")

	case viewUnits:
		s.WriteString(m.renderUnits())
	}

	if len(m.notices) > 0 {
		noticeStyle := lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Width(m.width - 2)

		s.WriteString("\n")
		s.WriteString(noticeStyle.Render(strings.Join(m.notices, "\n")))
		s.WriteString("\n")
	}

	footerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	footer := "a accept | r reject | s soft-block | h hard-block | j/k move | R refresh | q quit"
	s.WriteString("\n")
	s.WriteString(footerStyle.Render(footer))

	return s.String()
}

func (m Model) renderUnits() string {
	sectionStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(1).
		Width(m.width - 2)

	counts := map[models.UnitStatus]int{}
	for _, unit := range m.units {
		counts[unit.Status]++
	}

	summaryStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	summary := fmt.Sprintf("Units: %d | Pending review: %d | ✅ Accepted: %d | ❌ Rejected: %d | ⛔ Blocked: %d",
		len(m.units),
		counts[models.StatusSubmitted]+counts[models.StatusExpired],
		counts[models.StatusAccepted],
		counts[models.StatusRejected],
		counts[models.StatusSoftBlocked]+counts[models.StatusHardBlocked])

	var rows strings.Builder
	rows.WriteString(fmt.Sprintf("  %-14s %-14s %-14s %s\n", "UNIT", "WORKER", "ASSIGNMENT", "STATUS"))
	rows.WriteString(strings.Repeat("─", 60) + "\n")

	for i, unit := range m.units {
		cursor := "  "
		if i == m.selected {
			cursor = "▶ "
		}

		status := string(unit.Status)
		if unit.Status == models.StatusReviewing {
			status = fmt.Sprintf("%s %s", m.spinner.View(), status)
		}

		line := fmt.Sprintf("%s%-14s %-14s %-14s %s %s",
			cursor,
			truncate(unit.UnitID, 14),
			truncate(unit.WorkerID, 14),
			truncate(unit.AssignmentID, 14),
			statusIcon(unit.Status),
			status)

		rowStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(statusColor(unit.Status)))
		if i == m.selected {
			rowStyle = rowStyle.Bold(true)
		}

		rows.WriteString(rowStyle.Render(line) + "\n")
	}

	return summaryStyle.Render(summary) + "\n\n" + sectionStyle.Render(rows.String())
}

func statusIcon(status models.UnitStatus) string {
	switch status {
	case models.StatusSubmitted:
		return "📨"
	case models.StatusAccepted:
		return "✅"
	case models.StatusRejected:
		return "❌"
	case models.StatusSoftBlocked:
		return "🚧"
	case models.StatusHardBlocked:
		return "⛔"
	case models.StatusExpired:
		return "⏰"
	case models.StatusReviewing:
		return "⏳"
	default:
		return "❓"
	}
}

func statusColor(status models.UnitStatus) string {
	switch status {
	case models.StatusSubmitted:
		return "39"
	case models.StatusAccepted:
		return "42"
	case models.StatusRejected:
		return "196"
	case models.StatusSoftBlocked, models.StatusHardBlocked:
		return "208"
	case models.StatusExpired:
		return "244"
	case models.StatusReviewing:
		return "205"
	default:
		return "252"
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
