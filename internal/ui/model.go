package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertwitch/tablefs/internal/mount"
	"github.com/dustin/go-humanize"
)

const (
	statsInterval = 250 * time.Millisecond
	maxLogLines   = 100
)

//nolint:gochecknoglobals
var (
	// titleStyle defines the style for a panel's title.
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	// borderStyle defines the style for a panel's borders.
	borderStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Padding(0, 1)
)

// StatsMsg is a [tea.Msg] containing the [mount.Stats] of the filesystem.
type StatsMsg struct {
	t     time.Time
	stats mount.Stats
}

// TeaModel is the principal [tea.Model] for the command-line user interface.
type TeaModel struct {
	width  int
	height int

	cancel context.CancelFunc

	uiHandler *Handler

	fullWidthWithBorders  int
	splitWidthWithBorders int

	stats      mount.Stats
	statsTaken time.Time

	inodeProgress   progress.Model
	storageProgress progress.Model
	logsViewport    viewport.Model
	logs            []string

	ready bool
}

// NewTeaModel returns an initial new [TeaModel].
//
//nolint:mnd
func NewTeaModel(uiHandler *Handler, cancel context.CancelFunc) TeaModel {
	return TeaModel{
		uiHandler: uiHandler,
		inodeProgress: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(80),
		),
		storageProgress: progress.New(
			progress.WithDefaultGradient(),
			progress.WithWidth(80),
		),
		logsViewport: viewport.New(80, 20),
		logs:         make([]string, 0, maxLogLines),
		cancel:       cancel,
	}
}

// Init initializes the model within a [tea.Program].
func (m TeaModel) Init() tea.Cmd {
	m.uiHandler.Initialized.Store(true)

	return tea.Batch(
		tea.EnterAltScreen,
		updateStats(m.uiHandler.stats),
	)
}

// updateStats produces a [tea.Cmd] for later scheduling in a [tea.Program].
// When executed, a [StatsMsg] with the current statistics is returned.
func updateStats(source statsProvider) tea.Cmd {
	return tea.Tick(statsInterval, func(t time.Time) tea.Msg {
		return StatsMsg{
			t:     t,
			stats: source.Stats(),
		}
	})
}

// Update is the principal message handling method of the model.
// It sets the internal state of the model, for later rendering.
//
//nolint:mnd,ireturn
func (m TeaModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()

			return m, tea.Quit
		case "q":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		m.fullWidthWithBorders = m.width - 2
		m.splitWidthWithBorders = (m.width / 2) - 2

		m.inodeProgress.Width = m.splitWidthWithBorders
		m.storageProgress.Width = m.splitWidthWithBorders

		// Upper panels take about 40% of the height.
		upperHeight := m.height * 2 / 5
		lowerHeight := m.height - upperHeight

		m.logsViewport.Width = m.fullWidthWithBorders
		m.logsViewport.Height = max(lowerHeight-3, 1)

		m.refreshLogs()

		m.ready = true

	case StatsMsg:
		m.stats = msg.stats
		m.statsTaken = msg.t

		cmds = append(cmds,
			m.inodeProgress.SetPercent(inodeUsage(m.stats)),
			m.storageProgress.SetPercent(storageUsage(m.stats)),
			updateStats(m.uiHandler.stats),
		)

	case LogMsg:
		if len(m.logs) >= maxLogLines {
			m.logs = m.logs[1:]
		}

		m.logs = append(m.logs, string(msg))
		m.refreshLogs()

	case progress.FrameMsg:
		updatedInodes, cmd := m.inodeProgress.Update(msg)
		if progressModel, ok := updatedInodes.(progress.Model); ok {
			m.inodeProgress = progressModel
		}
		cmds = append(cmds, cmd)

		updatedStorage, cmd := m.storageProgress.Update(msg)
		if progressModel, ok := updatedStorage.(progress.Model); ok {
			m.storageProgress = progressModel
		}
		cmds = append(cmds, cmd)
	}

	m.logsViewport, cmd = m.logsViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *TeaModel) refreshLogs() {
	if len(m.logs) == 0 {
		return
	}

	logs := lipgloss.NewStyle().
		Width(m.logsViewport.Width).
		Render(strings.TrimSuffix(strings.Join(m.logs, ""), "\n"))

	m.logsViewport.SetContent(logs)
	m.logsViewport.GotoBottom()
}

// View is the principal rendering function of the model.
func (m TeaModel) View() string {
	if !m.ready {
		return "Loading the GUI..."
	}

	usageSection := lipgloss.JoinHorizontal(
		lipgloss.Top,
		borderStyle.Width(m.splitWidthWithBorders).Render(m.usageView()),
		borderStyle.Width(m.splitWidthWithBorders).Render(m.operationsView()),
	)

	logsSection := borderStyle.
		Width(m.fullWidthWithBorders).
		Render(
			lipgloss.JoinVertical(
				lipgloss.Left,
				titleStyle.Width(m.fullWidthWithBorders).Render("Filesystem Log ("+m.uiHandler.mountpoint+")"),
				lipgloss.NewStyle().Width(m.fullWidthWithBorders).Render(m.logsViewport.View()),
			),
		)

	helpSection := helpStyle.
		Width(m.fullWidthWithBorders).
		Render("q: quit gui • ctrl+c: unmount and quit")

	return lipgloss.JoinVertical(
		lipgloss.Left,
		usageSection,
		logsSection,
		helpSection,
	)
}

func (m TeaModel) usageView() string {
	engine := m.stats.Engine

	inodes := fmt.Sprintf("Inodes: %d/%d used (%d free)",
		engine.Used, engine.Capacity, engine.Capacity-engine.Used)

	storage := fmt.Sprintf("Content: %s/%s (max. %s per file)",
		humanize.IBytes(engine.Bytes),
		humanize.IBytes(storageCapacity(m.stats)),
		humanize.IBytes(uint64(max(engine.Limits.MaxFileSize, 0))),
	)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Width(m.splitWidthWithBorders).Render("Usage"),
		"",
		m.inodeProgress.View(),
		infoStyle.Width(m.splitWidthWithBorders).Render(inodes),
		"",
		m.storageProgress.View(),
		infoStyle.Width(m.splitWidthWithBorders).Render(storage),
	)
}

func (m TeaModel) operationsView() string {
	lastSave := "never"
	if !m.stats.LastSave.IsZero() {
		lastSave = humanize.Time(m.stats.LastSave)
	}

	details := fmt.Sprintf(
		"Lookups: %s\n"+
			"Entries: Created=%s, Removed=%s\n"+
			"Reads: %s (%s)\n"+
			"Writes: %s (%s)\n"+
			"Errors: %s\n"+
			"Snapshots: %s (last %s)\n",
		humanize.Comma(m.stats.Lookups),
		humanize.Comma(m.stats.Creates),
		humanize.Comma(m.stats.Removes),
		humanize.Comma(m.stats.Reads),
		humanize.IBytes(uint64(max(m.stats.BytesRead, 0))),
		humanize.Comma(m.stats.Writes),
		humanize.IBytes(uint64(max(m.stats.BytesWritten, 0))),
		humanize.Comma(m.stats.Errors),
		humanize.Comma(m.stats.Saves),
		lastSave,
	)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		titleStyle.Width(m.splitWidthWithBorders).Render("Operations"),
		"",
		infoStyle.Width(m.splitWidthWithBorders).Render(details),
	)
}

// storageCapacity returns the content capacity of the whole table in bytes.
func storageCapacity(stats mount.Stats) uint64 {
	engine := stats.Engine

	return uint64(max(engine.Capacity, 0)) * uint64(max(engine.Limits.MaxFileSize, 0))
}

// inodeUsage returns the used share of the table's slots between 0 and 1.
func inodeUsage(stats mount.Stats) float64 {
	if stats.Engine.Capacity <= 0 {
		return 0
	}

	return float64(stats.Engine.Used) / float64(stats.Engine.Capacity)
}

// storageUsage returns the used share of the table's content capacity
// between 0 and 1.
func storageUsage(stats mount.Stats) float64 {
	capacity := storageCapacity(stats)
	if capacity == 0 {
		return 0
	}

	return min(float64(stats.Engine.Bytes)/float64(capacity), 1)
}
