// Package tui renders a run's progress in the terminal.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/localrank/backend/internal/domain"
)

const maxBarWidth = 60

// Messages
type eventMsg domain.Event

type streamClosedMsg struct{}

// Model follows the event stream of one run until it ends or the user quits.
type Model struct {
	fileName string
	total    int
	events   <-chan domain.Event
	cancel   context.CancelFunc

	bar     progress.Model
	last    domain.Progress
	result  *domain.RunResult
	err     error
	done    bool
	started time.Time
	now     func() time.Time
}

// NewModel creates a model reading events. cancel stops the run when the
// user quits early.
func NewModel(fileName string, total int, events <-chan domain.Event, cancel context.CancelFunc) Model {
	return Model{
		fileName: fileName,
		total:    total,
		events:   events,
		cancel:   cancel,
		bar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(50),
		),
		last:    domain.Progress{TotalQueries: total},
		started: time.Now(),
		now:     time.Now,
	}
}

func (m Model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

func waitForEvent(events <-chan domain.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return streamClosedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-4, 10), maxBarWidth)
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if !m.done {
				m.cancel()
				m.err = domain.ErrStreamDisconnected
				m.done = true
			}
			return m, tea.Quit
		}
	case eventMsg:
		ev := domain.Event(msg)
		switch ev.Type {
		case domain.EventComplete:
			m.result = ev.Result
			m.done = true
			return m, tea.Quit
		case domain.EventError:
			m.err = ev.Err
			m.done = true
			return m, tea.Quit
		default:
			m.last = ev.Progress
			return m, waitForEvent(m.events)
		}
	case streamClosedMsg:
		if !m.done {
			m.err = domain.ErrStreamDisconnected
			m.done = true
		}
		return m, tea.Quit
	}
	return m, nil
}

// Outcome returns the run result once the stream has ended
func (m Model) Outcome() (*domain.RunResult, error) {
	return m.result, m.err
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Ranking %d queries from %s", m.total, m.fileName)))
	b.WriteString("\n\n")
	b.WriteString(statsBox.Render(m.renderStats()))
	b.WriteString("\n\n")
	b.WriteString(m.bar.ViewAs(float64(m.last.Percent) / 100))
	b.WriteString("\n\n")

	switch {
	case m.result != nil:
		b.WriteString(successText.Render(fmt.Sprintf(
			"Complete! %d places, %d brand matches",
			m.result.Stats.PlacesFound, len(m.result.BrandMatches))))
	case m.err != nil:
		b.WriteString(errorText.Render(fmt.Sprintf("Error: %v", m.err)))
	default:
		b.WriteString(statusBar.Render("q cancel • ctrl+c quit"))
	}
	b.WriteString("\n")

	return b.String()
}

func (m Model) renderStats() string {
	var sb strings.Builder

	row := func(label, value string) {
		sb.WriteString(statLabel.Render(label))
		sb.WriteString(statValue.Render(value))
		sb.WriteString("\n")
	}

	query := m.last.CurrentQuery
	if query == "" {
		query = "-"
	}
	row("Query:", query)
	row("Page:", fmt.Sprintf("%d", m.last.CurrentPage))
	row("Processed:", fmt.Sprintf("%d/%d", m.last.ProcessedQueries, m.total))
	row("API calls:", fmt.Sprintf("%d", m.last.APICallsMade))
	row("Rate:", fmt.Sprintf("%.2f q/s", m.last.QueriesPerSecond))
	row("Elapsed:", m.now().Sub(m.started).Truncate(time.Second).String())
	if !m.done && m.last.ProcessedQueries > 0 {
		row("ETA:", "~"+(time.Duration(m.last.EstimatedTimeRemaining)*time.Second).String())
	}

	return strings.TrimSuffix(sb.String(), "\n")
}
