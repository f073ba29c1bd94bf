// Package tui provides the interactive Bubble Tea dashboard for nexus.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chiptspb/biohacker-nexus/internal/config"
	"github.com/chiptspb/biohacker-nexus/internal/premium"
	"github.com/chiptspb/biohacker-nexus/internal/projection"
	"github.com/chiptspb/biohacker-nexus/internal/store"
	"github.com/chiptspb/biohacker-nexus/internal/tui/components"
	"github.com/chiptspb/biohacker-nexus/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// SnapshotMsg is sent when the store has been read.
type SnapshotMsg struct {
	Snapshot store.Snapshot
	Err      error
	LoadTime time.Duration
}

// DoseLoggedMsg is sent after a scheduled dose has been logged.
type DoseLoggedMsg struct {
	Result store.LogResult
	Err    error
}

// SetupSavedMsg is sent after the onboarding answers have been persisted.
type SetupSavedMsg struct {
	Err error
}

// App is the root Bubble Tea model.
type App struct {
	store *store.Store
	cfg   config.Config
	now   func() time.Time

	// Data
	snap     store.Snapshot
	loaded   bool
	loadErr  error
	loadTime time.Duration

	// Derived from snap at the last recompute
	due    projection.DueResult
	stock  []projection.StockProjection
	alerts []projection.StockProjection

	// Refresh state
	refreshInterval time.Duration
	lastRefresh     time.Time
	refreshing      bool

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	message   string

	// Per-tab state
	todayCursor    int
	protocolCursor int
	historyOffset  int
	settings       settingsState

	// First-run onboarding (huh form)
	setupForm *huh.Form
	setupVals setupValues
	needSetup bool

	spinner spinner.Model
}

const (
	minTerminalWidth = 60
	maxContentWidth  = 140

	minContentHeight = 5
	refreshInterval  = 30 * time.Second
	storeTimeout     = 5 * time.Second
)

const (
	tabToday = iota
	tabProtocols
	tabInventory
	tabHistory
	tabSettings
)

// loadConfigOrDefault loads config, returning defaults on error.
func loadConfigOrDefault() config.Config {
	cfg, err := config.Load()
	if err != nil {
		return config.DefaultConfig()
	}
	return cfg
}

// NewApp creates a new TUI app model reading from st.
func NewApp(st *store.Store, cfg config.Config) App {
	theme.SetActive(cfg.Appearance.Theme)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	return App{
		store:           st,
		cfg:             cfg,
		now:             time.Now,
		refreshInterval: refreshInterval,
		spinner:         sp,
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadSnapshotCmd(a.store),
		a.spinner.Tick,
		tickCmd(a.refreshInterval),
	)
}

// recompute derives the due list and stock projections from the snapshot.
func (a *App) recompute() {
	now := a.now()
	a.due = projection.DueToday(a.snap.Schedule, now)
	a.stock = projection.Project(a.snap.Products, a.snap.Inventory)
	a.alerts = projection.DashboardAlerts(a.stock)

	a.todayCursor = min(max(a.todayCursor, 0), max(len(a.due.Doses)-1, 0))
	a.protocolCursor = min(max(a.protocolCursor, 0), max(len(a.snap.Products)-1, 0))
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || (a.needSetup && a.setupForm != nil) {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			return a.moveCursor(-1), nil
		case tea.MouseButtonWheelDown:
			return a.moveCursor(1), nil
		case tea.MouseButtonLeft:
			if msg.Action == tea.MouseActionPress && msg.Y == 0 {
				if tab := a.tabAtX(msg.X); tab >= 0 {
					a.activeTab = tab
				}
			}
		}
		return a, nil

	case tea.KeyMsg:
		return a.updateKey(msg)

	case SnapshotMsg:
		a.refreshing = false
		a.lastRefresh = a.now()
		a.loadTime = msg.LoadTime
		a.loadErr = msg.Err
		if msg.Err != nil {
			a.loaded = true
			return a, nil
		}
		first := !a.loaded
		a.snap = msg.Snapshot
		a.loaded = true
		a.recompute()

		if first && (!a.snap.OnboardingComplete || !a.snap.DisclaimerAccepted) {
			a.needSetup = true
			a.setupVals = defaultSetupValues(a.snap.Profile, a.cfg)
			a.setupForm = newSetupForm(&a.setupVals)
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.setupForm.Init()
		}
		return a, nil

	case DoseLoggedMsg:
		if msg.Err != nil {
			a.message = "Log failed: " + msg.Err.Error()
			return a, nil
		}
		a.message = fmt.Sprintf("Logged %s", doseLabel(a.snap, msg.Result))
		if msg.Result.NegativeStock {
			a.message += " (stock below zero)"
		}
		a.refreshing = true
		return a, loadSnapshotCmd(a.store)

	case SetupSavedMsg:
		if msg.Err != nil {
			a.message = "Setup not saved: " + msg.Err.Error()
		}
		a.refreshing = true
		return a, loadSnapshotCmd(a.store)

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd(a.refreshInterval)}
		if a.loaded && !a.refreshing {
			a.refreshing = true
			cmds = append(cmds, loadSnapshotCmd(a.store))
		}
		return a, tea.Batch(cmds...)
	}

	// Forward unhandled messages to the setup form (cursor blinks, etc.)
	if a.needSetup && a.setupForm != nil {
		return a.updateSetupForm(msg)
	}

	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}

	if !a.loaded {
		return a, nil
	}

	// Onboarding intercepts all keys
	if a.needSetup && a.setupForm != nil {
		return a.updateSetupForm(msg)
	}

	if a.activeTab == tabSettings && a.settings.editing {
		return a.updateSettingsInput(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	a.message = ""

	switch key {
	case "q":
		return a, tea.Quit
	case "r":
		if !a.refreshing {
			a.refreshing = true
			return a, loadSnapshotCmd(a.store)
		}
		return a, nil
	case "j", "down":
		return a.moveCursor(1), nil
	case "k", "up":
		return a.moveCursor(-1), nil
	case "left":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		return a, nil
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		return a, nil
	case "enter", " ":
		switch a.activeTab {
		case tabToday:
			return a.logSelected()
		case tabSettings:
			return a.settingsStartEdit()
		}
		return a, nil
	}

	if r := []rune(key); len(r) == 1 {
		if idx := components.TabIdxByKey(r[0]); idx >= 0 {
			a.activeTab = idx
		}
	}
	return a, nil
}

func (a App) moveCursor(delta int) App {
	switch a.activeTab {
	case tabToday:
		a.todayCursor = min(max(a.todayCursor+delta, 0), max(len(a.due.Doses)-1, 0))
	case tabProtocols:
		a.protocolCursor = min(max(a.protocolCursor+delta, 0), max(len(a.snap.Products)-1, 0))
	case tabHistory:
		a.historyOffset = max(a.historyOffset+delta, 0)
	case tabSettings:
		if !a.settings.editing {
			a.settings.cursor = min(max(a.settings.cursor+delta, 0), settingsFieldCount-1)
		}
	}
	return a
}

// logSelected logs the highlighted due dose.
func (a App) logSelected() (tea.Model, tea.Cmd) {
	if len(a.due.Doses) == 0 {
		return a, nil
	}
	d := a.due.Doses[a.todayCursor]
	return a, logScheduledCmd(a.store, d.ID)
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		a.needSetup = false
		a.setupForm = nil
		theme.SetActive(a.setupVals.theme)
		a.cfg.Appearance.Theme = a.setupVals.theme
		return a, saveSetupCmd(a.store, a.setupVals, a.cfg)
	case huh.StateAborted:
		return a, tea.Quit
	}

	return a, cmd
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) profilePremium() bool {
	return premium.IsPremium(a.snap.Profile)
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.needSetup && a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  nexus needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)

	logoStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)

	subtitleStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ nexus"))
	b.WriteString(subtitleStyle.Render(" · protocol tracker"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())
	b.WriteString(subtitleStyle.Render(" Loading protocols..."))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		title    string
		bindings [][2]string
	}{
		{"Navigation", [][2]string{
			{"t p i h x", "Jump to tab"},
			{"← → tab", "Previous / Next tab"},
			{"j k", "Move selection"},
		}},
		{"Actions", [][2]string{
			{"Enter", "Log selected dose / edit setting"},
			{"Esc", "Cancel edit"},
			{"r", "Reload from disk"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")
	for _, s := range sections {
		b.WriteString(sectionStyle.Render(s.title))
		b.WriteString("\n")
		for _, bind := range s.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind[0])),
				descStyle.Render(bind[1]))
		}
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	header := components.RenderTabBar(a.activeTab, w)

	info := components.StatusInfo{
		Premium:    a.profilePremium(),
		Refreshing: a.refreshing,
		Message:    a.message,
	}
	if !a.lastRefresh.IsZero() {
		info.Updated = a.lastRefresh.Format("15:04")
	}
	statusBar := components.RenderStatusBar(w, info)

	contentH := max(h-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	if a.loadErr != nil {
		content = components.ContentCard("Error", "Could not read the store: "+a.loadErr.Error(), cw)
	} else {
		switch a.activeTab {
		case tabToday:
			content = a.renderTodayTab(cw)
		case tabProtocols:
			content = a.renderProtocolsTab(cw)
		case tabInventory:
			content = a.renderInventoryTab(cw)
		case tabHistory:
			content = a.renderHistoryTab(cw, contentH)
		case tabSettings:
			content = a.renderSettingsTab(cw)
		}
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// ─── Commands ───────────────────────────────────────────────────

type tickMsg struct{}

func tickCmd(every time.Duration) tea.Cmd {
	return tea.Tick(every, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func loadSnapshotCmd(st *store.Store) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		start := time.Now()
		snap, err := st.Load(ctx)
		return SnapshotMsg{Snapshot: snap, Err: err, LoadTime: time.Since(start)}
	}
}

func logScheduledCmd(st *store.Store, scheduledID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		res, err := st.LogScheduled(ctx, scheduledID)
		return DoseLoggedMsg{Result: res, Err: err}
	}
}

// ─── Helpers ────────────────────────────────────────────────────

func doseLabel(snap store.Snapshot, res store.LogResult) string {
	if res.Completed != nil && res.Completed.ProductName != "" {
		return res.Completed.ProductName
	}
	if p, ok := snap.Product(res.Log.ProductID); ok {
		return p.Name
	}
	return "dose"
}

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes are derived from the same width rules used by RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW
		// Separator is one column between tabs.
		if i < len(components.Tabs)-1 {
			pos++
		}
	}
	return -1
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		result.WriteString(lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg)))
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}
