package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/skygen/skydesk/internal/config"
	"github.com/skygen/skydesk/internal/ipc"
)

type statusMsg struct {
	status *ipc.StatusData
	err    error
}

type actionDoneMsg struct {
	action string
	err    error
}

func runAction(name string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{action: name, err: fn()}
	}
}

// model is the root bubbletea model for the TUI.
type model struct {
	configPath string
	daemon     Daemon
	result     *config.LoadResult
	loadErr    error
	// saved is the config as last written; ctrl+s diffs against it.
	saved *config.Config

	activeTab  Tab
	overlayTab OverlayTab
	accountTab AccountTab
	generalTab GeneralTab
	save       SaveOverlay

	// status is nil while the daemon is unreachable.
	status *ipc.StatusData

	width, height int
}

func newModel(configPath string, daemon Daemon) model {
	m := model{
		configPath: configPath,
		daemon:     daemon,
		activeTab:  TabOverlay,
	}

	if configPath == "" {
		m.result, m.loadErr = config.LoadWithSources()
	} else {
		m.result, m.loadErr = config.LoadFromPath(configPath)
	}

	var cfg *config.Config
	defaultColor := config.DefaultOutlineColor
	if m.loadErr == nil {
		cfg = m.result.Config
		m.snapshot()
		defaultColor = cfg.Outline.DefaultColor
	}

	m.overlayTab = NewOverlayTab(daemon, defaultColor)
	m.accountTab = NewAccountTab(daemon)
	m.generalTab = NewGeneralTab(cfg)
	return m
}

// snapshot records the current config as saved. Config holds only values,
// so a struct copy is enough.
func (m *model) snapshot() {
	c := *m.result.Config
	m.saved = &c
}

func (m model) refreshStatus() tea.Cmd {
	if m.daemon == nil {
		return nil
	}
	d := m.daemon
	return func() tea.Msg {
		st, err := d.GetStatus()
		return statusMsg{status: st, err: err}
	}
}

func (m model) reloadFunc() func() error {
	if m.status == nil || m.daemon == nil {
		return nil
	}
	return m.daemon.Reload
}

// contentHeight is the terminal height minus the status, tab and help bars.
func (m model) contentHeight() int {
	return max(m.height-4, 1)
}

func (m model) capturing() bool {
	switch m.activeTab {
	case TabOverlay:
		return m.overlayTab.editing
	case TabAccount:
		return m.accountTab.editing
	case TabGeneral:
		return m.generalTab.editing
	}
	return false
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return tea.Batch(m.refreshStatus(), m.accountTab.Refresh())
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Async results are routed regardless of the active tab.
	switch msg := msg.(type) {
	case statusMsg:
		if msg.err != nil {
			m.status = nil
		} else {
			m.status = msg.status
		}
		m.overlayTab.SetStatus(m.status)
		return m, nil
	case actionDoneMsg:
		var cmd tea.Cmd
		m.overlayTab, cmd = m.overlayTab.Update(msg)
		return m, tea.Batch(cmd, m.refreshStatus())
	case authStatusMsg, authResultMsg, installDoneMsg:
		var cmd tea.Cmd
		m.accountTab, cmd = m.accountTab.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		subMsg := tea.WindowSizeMsg{Width: m.width, Height: m.contentHeight()}
		m.overlayTab, _ = m.overlayTab.Update(subMsg)
		m.accountTab, _ = m.accountTab.Update(subMsg)
		m.generalTab, _ = m.generalTab.Update(subMsg)
		return m, nil
	}

	if m.save.Active() {
		if km, ok := msg.(tea.KeyMsg); ok {
			if km.String() == "ctrl+c" {
				return m, tea.Quit
			}
			confirming := m.save.phase == savePreview
			m.save = m.save.Update(km, m.result.Config, m.configPath, m.reloadFunc())
			if confirming && m.save.SaveSucceeded() {
				m.snapshot()
			}
		}
		return m, nil
	}

	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "ctrl+s":
			if m.loadErr == nil {
				m.save.Show(m.saved, m.result.Config)
			}
			return m, nil
		case "ctrl+r":
			return m, tea.Batch(m.refreshStatus(), m.accountTab.Refresh())
		}

		if !m.capturing() {
			switch km.String() {
			case "q":
				return m, tea.Quit
			case "tab":
				m.activeTab = (m.activeTab + 1) % tabCount
				return m, nil
			case "shift+tab":
				m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
				return m, nil
			}
			if k := km.String(); len(k) == 1 && k[0] >= '1' && k[0] < '1'+byte(tabCount) {
				m.activeTab = Tab(k[0] - '1')
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	switch m.activeTab {
	case TabOverlay:
		m.overlayTab, cmd = m.overlayTab.Update(msg)
	case TabAccount:
		m.accountTab, cmd = m.accountTab.Update(msg)
	case TabGeneral:
		m.generalTab, cmd = m.generalTab.Update(msg)
	}
	return m, cmd
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	statusBar := renderStatusBar(m.status, m.width)
	tabBar := renderTabBar(m.activeTab, m.width)
	helpBar := renderHelpBar(m.width)

	bars := lipgloss.Height(statusBar) + lipgloss.Height(tabBar) + lipgloss.Height(helpBar)

	var content string
	switch {
	case m.save.Active():
		content = m.save.View(m.width, max(m.height-bars, 1))
	case m.loadErr != nil && m.activeTab == TabGeneral:
		content = errorStyle.Render("config: "+m.loadErr.Error()) + "\n" +
			hintStyle.Render("fix the file and restart; daemon actions still work")
	default:
		switch m.activeTab {
		case TabOverlay:
			content = m.overlayTab.View()
		case TabAccount:
			content = m.accountTab.View()
		case TabGeneral:
			content = m.generalTab.View()
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		statusBar,
		tabBar,
		content,
		helpBar,
	)
}
