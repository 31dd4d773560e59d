// Package tui is the terminal settings panel. It drives a popup.Controller
// for the browser's active tab and shows the focus statistics.
package tui

import (
	"context"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lotas/attention-cleaner/internal/clock"
	"github.com/lotas/attention-cleaner/internal/popup"
	"github.com/lotas/attention-cleaner/internal/stats"
	"github.com/lotas/attention-cleaner/internal/store"
)

const statusInterval = 2 * time.Second

// Options wires the panel to the running host. Target reports the active
// tab; Connected, when set, reports whether the browser is attached.
type Options struct {
	Store     store.Store
	Sender    popup.Sender
	Badge     popup.Badge
	Tracker   *stats.Tracker
	Clock     clock.Clock
	Target    func() (tabID int, url string)
	Connected func() bool
}

// --- Messages ---

type stateLoadedMsg struct {
	tabID int
	state popup.State
	err   error
}

type statsLoadedMsg struct {
	stats   stats.Statistics
	summary stats.Summary
	err     error
}

type statusTickMsg struct{}

// panel serializes calls into the controller. Commands run on their own
// goroutines and key presses can queue several at once.
type panel struct {
	mu    sync.Mutex
	tabID int
	ctrl  *popup.Controller
}

func (p *panel) do(fn func(ctx context.Context, c *popup.Controller) error) tea.Cmd {
	return func() tea.Msg {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.ctrl == nil {
			return stateLoadedMsg{err: fmt.Errorf("panel not loaded")}
		}
		err := fn(context.Background(), p.ctrl)
		return stateLoadedMsg{tabID: p.tabID, state: p.ctrl.State(), err: err}
	}
}

func (p *panel) readStats() tea.Cmd {
	return func() tea.Msg {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.ctrl == nil {
			return statsLoadedMsg{err: fmt.Errorf("panel not loaded")}
		}
		s, sum, err := p.ctrl.Statistics(context.Background())
		return statsLoadedMsg{stats: s, summary: sum, err: err}
	}
}

func (p *panel) resetStats() tea.Cmd {
	return func() tea.Msg {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.ctrl == nil {
			return statsLoadedMsg{err: fmt.Errorf("panel not loaded")}
		}
		ctx := context.Background()
		if err := p.ctrl.ResetStatistics(ctx); err != nil {
			return statsLoadedMsg{err: err}
		}
		s, sum, err := p.ctrl.Statistics(ctx)
		return statsLoadedMsg{stats: s, summary: sum, err: err}
	}
}

// load binds a fresh controller to the current target tab.
func load(p *panel, opts Options) tea.Cmd {
	return func() tea.Msg {
		tabID, url := 0, ""
		if opts.Target != nil {
			tabID, url = opts.Target()
		}
		ctrl := popup.New(popup.Config{
			TabID:   tabID,
			URL:     url,
			Store:   opts.Store,
			Sender:  opts.Sender,
			Badge:   opts.Badge,
			Tracker: opts.Tracker,
			Clock:   opts.Clock,
		})

		p.mu.Lock()
		defer p.mu.Unlock()
		p.tabID = tabID
		p.ctrl = ctrl
		state, err := ctrl.Load(context.Background())
		return stateLoadedMsg{tabID: tabID, state: state, err: err}
	}
}

func statusTick() tea.Cmd {
	return tea.Tick(statusInterval, func(time.Time) tea.Msg { return statusTickMsg{} })
}

// --- Model ---

type Model struct {
	opts  Options
	panel *panel

	view     ViewType
	settings SettingsView
	statsV   StatsView

	tabID     int
	state     popup.State
	loading   bool
	connected bool
	err       error
	width     int
	height    int
}

func NewModel(opts Options) Model {
	return Model{
		opts:    opts,
		panel:   &panel{},
		loading: true,
	}
}

func (m Model) Init() tea.Cmd {
	if m.opts.Connected != nil {
		return tea.Batch(load(m.panel, m.opts), statusTick())
	}
	return load(m.panel, m.opts)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.view == ViewStats && m.statsV.confirmReset {
			var cmd tea.Cmd
			m.statsV, cmd = m.statsV.Confirm(msg.String(), m.panel)
			return m, cmd
		}

		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "tab":
			if m.view == ViewSettings {
				return m.switchView(ViewStats)
			}
			return m.switchView(ViewSettings)
		case "1":
			return m.switchView(ViewSettings)
		case "2":
			return m.switchView(ViewStats)
		case "r":
			m.loading = true
			return m, load(m.panel, m.opts)
		}

		if m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		switch m.view {
		case ViewSettings:
			m.settings, cmd = m.settings.Update(msg, m.state, m.panel)
		case ViewStats:
			m.statsV, cmd = m.statsV.Update(msg, m.panel)
		}
		return m, cmd

	case stateLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.tabID = msg.tabID
		m.state = msg.state
		return m, nil

	case statsLoadedMsg:
		m.err = msg.err
		if msg.err == nil {
			m.statsV.stats = msg.stats
			m.statsV.summary = msg.summary
			m.statsV.loaded = true
		}
		return m, nil

	case statusTickMsg:
		m.connected = m.opts.Connected()
		cmds := []tea.Cmd{statusTick()}
		if m.opts.Target != nil && !m.loading {
			if tabID, _ := m.opts.Target(); tabID != m.tabID {
				m.loading = true
				cmds = append(cmds, load(m.panel, m.opts))
			}
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m Model) switchView(v ViewType) (tea.Model, tea.Cmd) {
	m.view = v
	if v == ViewStats {
		return m, m.panel.readStats()
	}
	return m, nil
}

func (m Model) View() string {
	var status string
	if m.opts.Connected != nil {
		if m.connected {
			status = "● connected"
		} else {
			status = "○ waiting for browser"
		}
	}

	width := m.width
	if width == 0 {
		width = 60
	}
	navbar := renderNavbar(m.view, m.state.Site, status, width)

	var body string
	switch {
	case m.loading:
		body = "\n  Loading...\n"
	case m.view == ViewSettings:
		body = m.settings.View(m.state)
	case m.view == ViewStats:
		body = m.statsV.View()
	}

	if m.err != nil {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Padding(0, 1)
		body += "\n" + errStyle.Render("Error: "+m.err.Error())
	}

	bottomBarStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Padding(0, 1)
	bottomText := "tab switch · r reload · q quit"
	switch m.view {
	case ViewSettings:
		bottomText = "↑↓/jk navigate · enter/space toggle · h/l duration · " + bottomText
	case ViewStats:
		bottomText = "x reset · " + bottomText
	}

	return lipgloss.JoinVertical(lipgloss.Left, navbar, body, bottomBarStyle.Render(bottomText))
}
