package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/apodwall/internal/logtail"
	"github.com/five82/apodwall/internal/prefs"
	"github.com/five82/apodwall/internal/state"
)

const (
	defaultRefresh = time.Second
	logFetchLimit  = 200
)

// Options configures the status view.
type Options struct {
	Store        *state.Store
	LogPath      string
	PrefsPath    string
	RefreshEvery time.Duration
	// Now is used for relative times; defaults to time.Now.
	Now func() time.Time
}

// Model is the root Bubble Tea model.
type Model struct {
	store     *state.Store
	logPath   string
	prefsPath string
	refresh   time.Duration
	now       func() time.Time

	keys     keyMap
	help     help.Model
	spinner  spinner.Model
	theme    Theme
	showLogs bool
	showHelp bool
	width    int
	height   int
	ready    bool

	snapshot state.Snapshot
	logLines []logtail.Record
	logErr   error
}

// New creates the model. Preferences are loaded from PrefsPath.
func New(opts Options) Model {
	refresh := opts.RefreshEvery
	if refresh <= 0 {
		refresh = defaultRefresh
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	p, _ := prefs.Load(prefsPath)

	theme := GetTheme(p.Theme)
	sp := spinner.New(spinner.WithSpinner(spinner.MiniDot))
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Accent))

	return Model{
		store:     opts.Store,
		logPath:   opts.LogPath,
		prefsPath: prefsPath,
		refresh:   refresh,
		now:       now,
		keys:      DefaultKeyMap(),
		help:      help.New(),
		spinner:   sp,
		theme:     theme,
		showLogs:  !p.HideLogs,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, tickCmd(m.refresh)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.logPath != "" {
		cmds = append(cmds, readLogCmd(m.logPath))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
		return m, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd(m.refresh)}
		if m.store != nil {
			cmds = append(cmds, fetchSnapshotCmd(m.store))
		}
		if m.showLogs && m.logPath != "" {
			cmds = append(cmds, readLogCmd(m.logPath))
		}
		return m, tea.Batch(cmds...)

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		return m, nil

	case logTailMsg:
		m.logLines = msg
		m.logErr = nil
		return m, nil

	case logErrorMsg:
		m.logErr = msg.err
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		m.help.ShowAll = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.spinner.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Accent))
		m.savePrefs()
		return m, nil
	case key.Matches(msg, m.keys.ToggleLogs):
		m.showLogs = !m.showLogs
		m.savePrefs()
		if m.showLogs && m.logPath != "" {
			return m, readLogCmd(m.logPath)
		}
		return m, nil
	}
	return m, nil
}

func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	_ = prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name, HideLogs: !m.showLogs})
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type logTailMsg []logtail.Record

type logErrorMsg struct{ err error }

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func readLogCmd(path string) tea.Cmd {
	return func() tea.Msg {
		lines, err := logtail.Read(path, logFetchLimit)
		if err != nil {
			return logErrorMsg{err: err}
		}
		records := make([]logtail.Record, 0, len(lines))
		for _, line := range lines {
			records = append(records, logtail.Parse(line))
		}
		return logTailMsg(records)
	}
}

// Run starts the program and blocks until the user quits or ctx is done.
func Run(ctx context.Context, opts Options) error {
	if opts.Store == nil {
		return fmt.Errorf("ui requires a status store")
	}
	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
