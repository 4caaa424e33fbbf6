package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var fetchRefresh bool

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Run one fetch cycle and exit",
	Long: `Fetch runs a single cycle: query every configured news topic,
extract attack facts from new articles, and persist confirmed incidents.

Requires GNEWS_API_KEY and OPENAI_API_KEY (or the corresponding config
entries).

Example:
  iranisrael fetch
  iranisrael fetch --refresh`,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().BoolVar(&fetchRefresh, "refresh", false, "clear automated incidents first (manual entries are kept)")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.News.APIKey == "" {
		return fmt.Errorf("GNEWS_API_KEY environment variable not set")
	}

	ctx := context.Background()
	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	if fetchRefresh {
		if err := a.pipeline.Refresh(ctx); err != nil {
			return fmt.Errorf("refresh failed: %w", err)
		}
	} else if err := a.pipeline.RunFetchCycle(ctx); err != nil {
		return fmt.Errorf("fetch cycle failed: %w", err)
	}

	fmt.Printf("Done: %d incidents tracked\n", a.incidents.Len())
	return nil
}
