package console

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/yoke233/sleuth/internal/usecase/investigate"
)

type Options struct {
	RefreshInterval time.Duration
}

type model struct {
	ctx             context.Context
	service         *investigate.Service
	refreshInterval time.Duration

	snapshot investigate.StatusSnapshot
	loaded   bool
	status   string
}

type snapshotLoadedMsg struct {
	snapshot investigate.StatusSnapshot
	err      error
}

type tickMsg struct{}

func NewModel(ctx context.Context, service *investigate.Service, options Options) tea.Model {
	interval := options.RefreshInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	return &model{
		ctx:             ctx,
		service:         service,
		refreshInterval: interval,
		status:          "loading",
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(m.loadSnapshotCmd(), m.tickCmd())
}

func (m *model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := message.(type) {
	case tickMsg:
		return m, tea.Batch(m.loadSnapshotCmd(), m.tickCmd())
	case snapshotLoadedMsg:
		if msg.err != nil {
			m.status = "refresh failed: " + msg.err.Error()
			return m, nil
		}
		m.snapshot = msg.snapshot
		m.loaded = true
		m.status = fmt.Sprintf("refreshed, %d pending", len(m.snapshot.Pending))
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "g":
			m.status = "refreshing"
			return m, m.loadSnapshotCmd()
		}
	}
	return m, nil
}

func (m *model) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	aliveStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	var builder strings.Builder
	builder.WriteString(titleStyle.Render("Sleuth Console"))
	builder.WriteString("\n")
	builder.WriteString(dimStyle.Render(fmt.Sprintf("refresh=%s", m.refreshInterval)))
	builder.WriteString("\n\n")

	builder.WriteString(sectionStyle.Render("Worker"))
	builder.WriteString("\n")
	switch {
	case !m.loaded:
		builder.WriteString(dimStyle.Render("- unknown"))
		builder.WriteString("\n")
	case m.snapshot.WorkerAlive:
		builder.WriteString(aliveStyle.Render(fmt.Sprintf("running pid=%d", m.snapshot.WorkerPID)))
		builder.WriteString("\n")
	default:
		builder.WriteString("not running\n")
	}
	builder.WriteString("\n")

	builder.WriteString(sectionStyle.Render("Pending"))
	builder.WriteString("\n")
	if len(m.snapshot.Pending) == 0 {
		builder.WriteString(dimStyle.Render("- queue is empty"))
		builder.WriteString("\n\n")
	} else {
		for index, item := range m.snapshot.Pending {
			builder.WriteString(fmt.Sprintf(
				"%2d. %s queued=%s\n",
				index+1,
				item.Ref(),
				item.EnqueuedAt.Local().Format("15:04:05"),
			))
		}
		builder.WriteString("\n")
	}

	builder.WriteString(sectionStyle.Render("Completed"))
	builder.WriteString("\n")
	if len(m.snapshot.Completed) == 0 {
		builder.WriteString(dimStyle.Render("- nothing yet"))
		builder.WriteString("\n\n")
	} else {
		repositories := make([]string, 0, len(m.snapshot.Completed))
		for repository := range m.snapshot.Completed {
			repositories = append(repositories, repository)
		}
		sort.Strings(repositories)
		for _, repository := range repositories {
			numbers := m.snapshot.Completed[repository]
			builder.WriteString(fmt.Sprintf("%s: %d issues %v\n", repository, len(numbers), numbers))
		}
		builder.WriteString("\n")
	}

	builder.WriteString(dimStyle.Render("keys: g=refresh q=quit"))
	builder.WriteString("\n")
	builder.WriteString(dimStyle.Render("status: " + m.status))
	builder.WriteString("\n")
	return builder.String()
}

func (m *model) loadSnapshotCmd() tea.Cmd {
	return func() tea.Msg {
		snapshot, err := m.service.Status(m.ctx)
		return snapshotLoadedMsg{snapshot: snapshot, err: err}
	}
}

func (m *model) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}
