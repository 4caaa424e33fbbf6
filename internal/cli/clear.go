package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// clearCmd represents the clear command
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear automated incidents, keeping manual entries",
	Long: `Clear removes every automatically extracted incident from the store
and the map layer. Manually entered incidents are kept and re-rendered.`,
	RunE: runClear,
}

func init() {
	rootCmd.AddCommand(clearCmd)
}

func runClear(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := buildEntryApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	before := a.incidents.Len()
	if err := a.incidents.ClearAutomatedPreserveManual(ctx); err != nil {
		return fmt.Errorf("clear failed: %w", err)
	}
	fmt.Printf("Cleared %d automated incidents, %d manual entries kept\n",
		before-a.incidents.Len(), a.incidents.Len())
	return nil
}
