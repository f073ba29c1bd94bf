package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chiptspb/biohacker-nexus/internal/config"
	"github.com/chiptspb/biohacker-nexus/internal/logging"
	"github.com/chiptspb/biohacker-nexus/internal/model"
	"github.com/chiptspb/biohacker-nexus/internal/tui/components"
	"github.com/chiptspb/biohacker-nexus/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	settingsFieldTheme = iota
	settingsFieldScheduleDays
	settingsFieldDefaultTime
	settingsFieldLogLevel
	settingsFieldDaemonAddr
	settingsFieldCount // sentinel
)

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool  // flash "saved" message briefly
	saveErr error // non-nil if last save or validation failed
}

func newSettingsInput() textinput.Model {
	ti := textinput.New()
	ti.CharLimit = 128
	ti.Width = 40
	return ti
}

func (a App) settingsStartEdit() (tea.Model, tea.Cmd) {
	a.settings.editing = true
	a.settings.saved = false
	a.settings.saveErr = nil

	ti := newSettingsInput()
	switch a.settings.cursor {
	case settingsFieldTheme:
		ti.Placeholder = strings.Join(theme.Names(), ", ")
		ti.SetValue(a.cfg.Appearance.Theme)
	case settingsFieldScheduleDays:
		ti.Placeholder = "30"
		ti.SetValue(strconv.Itoa(a.cfg.General.ScheduleDays))
	case settingsFieldDefaultTime:
		ti.Placeholder = "08:00"
		ti.SetValue(a.cfg.General.DefaultTime)
	case settingsFieldLogLevel:
		ti.Placeholder = "debug, info, warn, error"
		ti.SetValue(a.cfg.Log.Level)
	case settingsFieldDaemonAddr:
		ti.Placeholder = "127.0.0.1:8787"
		ti.SetValue(a.cfg.Daemon.Addr)
	}

	ti.Focus()
	a.settings.input = ti
	return a, ti.Cursor.BlinkCmd()
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.settingsSave()
		a.settings.editing = false
		a.settings.saved = a.settings.saveErr == nil
		return a, nil
	case "esc":
		a.settings.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

// settingsSave validates the edited value, applies it to the app config, and
// writes the config file.
func (a *App) settingsSave() {
	val := strings.TrimSpace(a.settings.input.Value())
	cfg := a.cfg

	switch a.settings.cursor {
	case settingsFieldTheme:
		if theme.ByName(val).Name != val {
			a.settings.saveErr = fmt.Errorf("unknown theme %q", val)
			return
		}
		cfg.Appearance.Theme = val
		theme.SetActive(val)
	case settingsFieldScheduleDays:
		d, err := strconv.Atoi(val)
		if err != nil || d <= 0 {
			a.settings.saveErr = fmt.Errorf("schedule days must be a positive number")
			return
		}
		cfg.General.ScheduleDays = d
	case settingsFieldDefaultTime:
		h, m, err := model.ParseDoseTime(val)
		if err != nil {
			a.settings.saveErr = err
			return
		}
		cfg.General.DefaultTime = fmt.Sprintf("%02d:%02d", h, m)
	case settingsFieldLogLevel:
		if _, err := logging.ParseLevel(val); err != nil {
			a.settings.saveErr = err
			return
		}
		cfg.Log.Level = val
	case settingsFieldDaemonAddr:
		if val == "" {
			a.settings.saveErr = fmt.Errorf("daemon address is required")
			return
		}
		cfg.Daemon.Addr = val
	}

	a.cfg = cfg
	a.settings.saveErr = config.Save(cfg)
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active
	cfg := a.cfg

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	greenStyle := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)

	fields := [settingsFieldCount][2]string{
		settingsFieldTheme:        {"Theme", cfg.Appearance.Theme},
		settingsFieldScheduleDays: {"Schedule Days", strconv.Itoa(cfg.General.ScheduleDays)},
		settingsFieldDefaultTime:  {"Default Time", cfg.General.DefaultTime},
		settingsFieldLogLevel:     {"Log Level", cfg.Log.Level},
		settingsFieldDaemonAddr:   {"Daemon Address", cfg.Daemon.Addr},
	}

	var form strings.Builder
	for i, f := range fields {
		if a.settings.editing && i == a.settings.cursor {
			form.WriteString(markerStyle.Render("▸ "))
			form.WriteString(accentStyle.Render(fmt.Sprintf("%-16s ", f[0])))
			form.WriteString(a.settings.input.View())
			form.WriteString("\n")
			continue
		}

		if i == a.settings.cursor {
			marker := markerStyle.Render("▸ ")
			label := selectedLabelStyle.Render(fmt.Sprintf("%-16s ", f[0]+":"))
			value := selectedStyle.Render(f[1])
			form.WriteString(marker + label + value)
			used := lipgloss.Width(marker) + lipgloss.Width(label) + lipgloss.Width(value)
			if padLen := components.CardInnerWidth(cw) - used; padLen > 0 {
				form.WriteString(lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", padLen)))
			}
		} else {
			form.WriteString(lipgloss.NewStyle().Background(t.Surface).Render("  "))
			form.WriteString(labelStyle.Render(fmt.Sprintf("%-16s ", f[0]+":")))
			form.WriteString(valueStyle.Render(f[1]))
		}
		form.WriteString("\n")
	}

	if a.settings.saveErr != nil {
		warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
		form.WriteString("\n")
		form.WriteString(warnStyle.Render(fmt.Sprintf("Not saved: %s", a.settings.saveErr)))
	} else if a.settings.saved {
		form.WriteString("\n")
		form.WriteString(greenStyle.Render("Saved!"))
	}
	form.WriteString("\n")
	form.WriteString(labelStyle.Render("[j/k] navigate  [Enter] edit  [Esc] cancel"))

	tier := "free"
	if a.profilePremium() {
		tier = "premium"
	}

	var info strings.Builder
	info.WriteString(labelStyle.Render("Data directory:  ") + valueStyle.Render(cfg.DataDir()) + "\n")
	info.WriteString(labelStyle.Render("Config file:     ") + valueStyle.Render(config.ConfigPath()) + "\n")
	info.WriteString(labelStyle.Render("Products:        ") + valueStyle.Render(strconv.Itoa(len(a.snap.Products))) + "\n")
	info.WriteString(labelStyle.Render("Doses logged:    ") + valueStyle.Render(strconv.Itoa(len(a.snap.DoseLogs))) + "\n")
	info.WriteString(labelStyle.Render("Tier:            ") + valueStyle.Render(tier) + "\n")
	info.WriteString(labelStyle.Render("Load time:       ") + valueStyle.Render(fmt.Sprintf("%dms", a.loadTime.Milliseconds())))

	var b strings.Builder
	b.WriteString(components.ContentCard("Settings", form.String(), cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("General", info.String(), cw))
	return b.String()
}
