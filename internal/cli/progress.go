package cli

import (
	"fmt"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/grayfield/photodex/internal/models"
	"github.com/grayfield/photodex/internal/status"
)

const statusPollInterval = time.Second

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status     lipgloss.Color
	Success    lipgloss.Color
	Error      lipgloss.Color
	Hint       lipgloss.Color
	ProgressBg lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:     lipgloss.Color("#5FAFD7"), // light blue
	Success:    lipgloss.Color("#00D787"), // green
	Error:      lipgloss.Color("#FF005F"), // red
	Hint:       lipgloss.Color("#6C6C6C"), // dim gray
	ProgressBg: lipgloss.Color("#3A3A3A"), // dark gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// tickMsg triggers re-reading the status document.
type tickMsg time.Time

// statusUpdateMsg carries a fresh read of the status document.
type statusUpdateMsg struct {
	st  models.ReindexStatus
	err error
}

// watchModel is the bubbletea model following a reindex run. The run may
// not have started yet when the watch begins; the model waits for the
// worker to pick the trigger up, then follows it to completion.
type watchModel struct {
	reporter   *status.Reporter
	st         models.ReindexStatus
	progress   progress.Model
	theme      Theme
	sawRunning bool
	done       bool
	quitting   bool
	err        error
}

func newWatchModel(reporter *status.Reporter) watchModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)

	return watchModel{
		reporter: reporter,
		progress: prog,
		theme:    defaultTheme,
	}
}

// Init returns the initial command (start polling).
func (m watchModel) Init() tea.Cmd {
	return tea.Batch(
		m.readStatus(),
		m.progress.Init(),
	)
}

// Update handles messages and returns the updated model.
func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		return m, m.readStatus()

	case statusUpdateMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("read status: %w", msg.err)
			m.done = true
			return m, tea.Quit
		}

		m.st = msg.st
		if m.st.IsRunning {
			m.sawRunning = true
		} else if m.sawRunning {
			// The run we were following has finished.
			m.done = true
			if m.st.Error != nil {
				m.err = fmt.Errorf("%s", *m.st.Error)
			}
			return m, tea.Quit
		}

		return m, tickCmd()

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m watchModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

// renderContent builds the display string.
func (m watchModel) renderContent() string {
	if m.done {
		return m.finalView()
	}

	if !m.sawRunning {
		hint := m.theme.hintStyle().Render("Press Ctrl+C to stop watching")
		return fmt.Sprintf("Waiting for the worker to start a run...\n%s\n", hint)
	}

	var pct float64
	if m.st.TotalOrders > 0 {
		pct = float64(m.st.ProcessedOrders) / float64(m.st.TotalOrders)
	}

	label := m.theme.statusStyle().Render(fmt.Sprintf("[%s]", m.st.ReindexType))
	progressBar := m.progress.ViewAs(pct)
	counts := fmt.Sprintf("%d/%d orders", m.st.ProcessedOrders, m.st.TotalOrders)

	current := ""
	if m.st.CurrentOrder != nil {
		current = fmt.Sprintf("  processing order %s\n", *m.st.CurrentOrder)
	}
	hint := m.theme.hintStyle().Render("Press Ctrl+C to continue in background")

	return fmt.Sprintf("%s %s %s\n%s%s\n", label, progressBar, counts, current, hint)
}

// finalView renders the completion message.
func (m watchModel) finalView() string {
	if m.err != nil {
		return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ Run failed: %s\n", m.err))
	}

	out := m.theme.completedStyle().Render("✓ Completed") + "\n\n"
	out += fmt.Sprintf("  Orders processed: %d/%d\n", m.st.ProcessedOrders, m.st.TotalOrders)
	if m.st.EndTime != nil && m.st.StartTime != nil {
		out += fmt.Sprintf("  Duration:         %s\n", m.st.EndTime.Sub(*m.st.StartTime).Round(time.Second))
	}
	return out
}

// readStatus reads the status file off the Update goroutine.
func (m watchModel) readStatus() tea.Cmd {
	return func() tea.Msg {
		st, err := m.reporter.Read()
		return statusUpdateMsg{st: st, err: err}
	}
}

// tickCmd returns a command that sends a tick after the poll interval.
func tickCmd() tea.Cmd {
	return tea.Tick(statusPollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// watchStatus runs the interactive progress UI until the next run
// completes. Returns nil on success or Ctrl+C, an error when the run
// aborted.
func watchStatus(root string) error {
	model := newWatchModel(status.NewReporter(root))
	p := tea.NewProgram(model)

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("progress UI error: %w", err)
	}

	if m, ok := finalModel.(watchModel); ok {
		if m.quitting {
			return nil
		}
		if m.err != nil {
			return m.err
		}
	}

	return nil
}
