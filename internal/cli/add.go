package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/oghuzrustamli/iranisrael/internal/entry"
)

var (
	addCountry       string
	addCities        []string
	addTarget        string
	addWeapons       []string
	addDeaths        string
	addInjured       string
	addDate          string
	addWeaponDetails string
	addImpactRadius  float64
)

// addCmd represents the add command
var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Manually record an incident",
	Long: `Add records an incident without going through news extraction. One
record is created per city; manual records survive automated clear and
refresh cycles.

Example:
  iranisrael add --country iran --city "Tel Aviv" --weapon "Ballistic Missile"
  iranisrael add --country israel --city Tehran --city Isfahan \
    --weapon Drone --deaths 3 --injured 12 --date 2025-06-15`,
	RunE: runAdd,
}

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().StringVar(&addCountry, "country", "", "attacking country (israel or iran)")
	addCmd.Flags().StringArrayVar(&addCities, "city", nil, "attacked city (repeatable)")
	addCmd.Flags().StringVar(&addTarget, "target", "", "target location or facility")
	addCmd.Flags().StringArrayVar(&addWeapons, "weapon", nil, "weapon type (repeatable)")
	addCmd.Flags().StringVar(&addDeaths, "deaths", "", "death toll (number, empty for unknown)")
	addCmd.Flags().StringVar(&addInjured, "injured", "", "injured count (number, empty for unknown)")
	addCmd.Flags().StringVar(&addDate, "date", "", "event date as YYYY-MM-DD (default: today)")
	addCmd.Flags().StringVar(&addWeaponDetails, "weapon-details", "", "free-form weapon details")
	addCmd.Flags().Float64Var(&addImpactRadius, "impact-radius", 0, "impact radius in meters (draws a circle on the map)")

	_ = addCmd.MarkFlagRequired("country")
	_ = addCmd.MarkFlagRequired("city")
	_ = addCmd.MarkFlagRequired("weapon")
}

func runAdd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	form := entry.Form{
		Country:        addCountry,
		Cities:         addCities,
		TargetLocation: addTarget,
		Weapons:        addWeapons,
		Deaths:         addDeaths,
		Injured:        addInjured,
		WeaponDetails:  addWeaponDetails,
		ImpactRadius:   addImpactRadius,
	}
	if addDate != "" {
		date, err := time.Parse("2006-01-02", addDate)
		if err != nil {
			return fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", addDate)
		}
		form.Date = date
	}

	ctx := context.Background()
	a, err := buildEntryApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	records, err := entry.Submit(ctx, form, a.gazetteer, a.incidents, clockwork.NewRealClock())
	if err != nil {
		return err
	}

	for _, rec := range records {
		fmt.Printf("Recorded %s (%s)\n", rec.ID, rec.Locations[0].Name)
	}
	return nil
}
