package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/chiptspb/biohacker-nexus/internal/cli"
	"github.com/chiptspb/biohacker-nexus/internal/model"

	"github.com/spf13/cobra"
)

const lbPerKg = 2.20462

var (
	flagProfileName   string
	flagProfileEmail  string
	flagProfileAge    int
	flagProfileSex    string
	flagProfileWeight float64
	flagProfileUnits  string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or edit your profile",
	RunE:  withEnv(runProfileShow),
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show your profile",
	Args:  cobra.NoArgs,
	RunE:  withEnv(runProfileShow),
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update profile fields",
	Long:  "Updates only the flags given. --weight is read in the profile's unit system.",
	Args:  cobra.NoArgs,
	RunE:  withEnv(runProfileSet),
}

func init() {
	fs := profileSetCmd.Flags()
	fs.StringVar(&flagProfileName, "name", "", "Display name")
	fs.StringVar(&flagProfileEmail, "email", "", "Email address")
	fs.IntVar(&flagProfileAge, "age", 0, "Age in years")
	fs.StringVar(&flagProfileSex, "sex", "", "Sex")
	fs.Float64Var(&flagProfileWeight, "weight", 0, "Body weight (kg for metric, lb for imperial)")
	fs.StringVar(&flagProfileUnits, "units", "", "Unit system: metric or imperial")

	profileCmd.AddCommand(profileShowCmd, profileSetCmd)
	rootCmd.AddCommand(profileCmd)
}

func runProfileShow(ctx context.Context, e *env, _ *cobra.Command, _ []string) error {
	p, ok, err := e.store.Profile(ctx)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("\n  No profile yet. Run `nexus setup` or `nexus profile set`.")
		return nil
	}

	tier := "free"
	if p.Premium {
		tier = "premium"
	}
	rows := [][]string{
		{"Name", p.Name},
		{"Email", p.Email},
		{"Age", optionalInt(p.Age)},
		{"Sex", p.Sex},
		{"Weight", formatWeight(p.WeightKg, p.Units)},
		{"Units", p.Units},
		{"Tier", tier},
		{"Created", p.CreatedAt.Local().Format("2006-01-02")},
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{Title: "Profile", Rows: rows, LeftCols: 2}))
	return nil
}

func runProfileSet(ctx context.Context, e *env, c *cobra.Command, _ []string) error {
	p, _, err := e.store.Profile(ctx)
	if err != nil {
		return err
	}

	fs := c.Flags()
	if fs.Changed("units") {
		u := strings.ToLower(strings.TrimSpace(flagProfileUnits))
		if u != model.UnitsMetric && u != model.UnitsImperial {
			return fmt.Errorf("units must be %s or %s", model.UnitsMetric, model.UnitsImperial)
		}
		p.Units = u
	}
	if fs.Changed("name") {
		p.Name = strings.TrimSpace(flagProfileName)
	}
	if fs.Changed("email") {
		p.Email = strings.TrimSpace(flagProfileEmail)
	}
	if fs.Changed("age") {
		if flagProfileAge < 0 || flagProfileAge > 150 {
			return fmt.Errorf("age %d is out of range", flagProfileAge)
		}
		p.Age = flagProfileAge
	}
	if fs.Changed("sex") {
		p.Sex = flagProfileSex
	}
	if fs.Changed("weight") {
		if flagProfileWeight < 0 {
			return fmt.Errorf("weight must not be negative")
		}
		p.WeightKg = weightToKg(flagProfileWeight, p.Units)
	}

	if _, err := e.store.SaveProfile(ctx, p); err != nil {
		return err
	}
	fmt.Println("  " + cli.RenderOK("Profile saved"))
	return nil
}

func weightToKg(w float64, units string) float64 {
	if units == model.UnitsImperial {
		return w / lbPerKg
	}
	return w
}

func formatWeight(kg float64, units string) string {
	if kg <= 0 {
		return ""
	}
	if units == model.UnitsImperial {
		return fmt.Sprintf("%.1f lb", kg*lbPerKg)
	}
	return fmt.Sprintf("%.1f kg", kg)
}

func optionalInt(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}
