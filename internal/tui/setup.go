package tui

import (
	"context"
	"errors"
	"strings"

	"github.com/chiptspb/biohacker-nexus/internal/config"
	"github.com/chiptspb/biohacker-nexus/internal/model"
	"github.com/chiptspb/biohacker-nexus/internal/store"
	"github.com/chiptspb/biohacker-nexus/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// Disclaimer is shown during onboarding and must be accepted.
const Disclaimer = "nexus is a personal tracking tool, not medical advice. " +
	"Doses, schedules, and supply projections are only as accurate as what you enter. " +
	"Consult a qualified clinician before starting or changing any protocol."

var errDisclaimer = errors.New("the disclaimer must be accepted to continue")

// setupValues holds the form-bound values for the onboarding wizard.
type setupValues struct {
	accepted bool
	name     string
	units    string
	theme    string
}

func defaultSetupValues(p *model.UserProfile, cfg config.Config) setupValues {
	v := setupValues{
		units: model.UnitsMetric,
		theme: cfg.Appearance.Theme,
	}
	if p != nil {
		v.name = p.Name
		if p.Units != "" {
			v.units = p.Units
		}
	}
	if v.theme == "" {
		v.theme = theme.FlexokiDark.Name
	}
	return v
}

// newSetupForm builds the huh form for onboarding.
func newSetupForm(vals *setupValues) *huh.Form {
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themeOpts = append(themeOpts, huh.NewOption(t.Name, t.Name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to nexus").
				Description(Disclaimer),
			huh.NewConfirm().
				Title("I understand and accept").
				Affirmative("Accept").
				Negative("Decline").
				Validate(func(ok bool) error {
					if !ok {
						return errDisclaimer
					}
					return nil
				}).
				Value(&vals.accepted),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Your name").
				Description("Optional. Shown on the dashboard.").
				Value(&vals.name),

			huh.NewSelect[string]().
				Title("Units").
				Options(
					huh.NewOption("Metric (kg)", model.UnitsMetric),
					huh.NewOption("Imperial (lb)", model.UnitsImperial),
				).
				Value(&vals.units),

			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.theme),
		),
	).WithTheme(huh.ThemeDracula())
}

// saveSetupCmd stores the profile, marks onboarding done, and persists the
// theme choice. The config write is best-effort.
func saveSetupCmd(st *store.Store, vals setupValues, cfg config.Config) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		return SetupSavedMsg{Err: saveSetup(ctx, st, vals, cfg)}
	}
}

func saveSetup(ctx context.Context, st *store.Store, vals setupValues, cfg config.Config) error {
	if !vals.accepted {
		return errDisclaimer
	}

	profile, _, err := st.Profile(ctx)
	if err != nil {
		return err
	}
	profile.Name = strings.TrimSpace(vals.name)
	profile.Units = vals.units
	if _, err := st.SaveProfile(ctx, profile); err != nil {
		return err
	}
	if err := st.SetFlag(ctx, store.KeyDisclaimerAccepted, true); err != nil {
		return err
	}
	if err := st.SetFlag(ctx, store.KeyOnboardingComplete, true); err != nil {
		return err
	}

	cfg.Appearance.Theme = vals.theme
	_ = config.Save(cfg)
	return nil
}

// RunSetup runs the onboarding form inline, outside the dashboard, and saves
// the answers.
func RunSetup(ctx context.Context, st *store.Store, cfg config.Config) error {
	snap, err := st.Load(ctx)
	if err != nil {
		return err
	}

	vals := defaultSetupValues(snap.Profile, cfg)
	if err := newSetupForm(&vals).RunWithContext(ctx); err != nil {
		return err
	}
	theme.SetActive(vals.theme)
	return saveSetup(ctx, st, vals, cfg)
}
