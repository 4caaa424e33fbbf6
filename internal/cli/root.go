package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/oghuzrustamli/iranisrael/internal/model"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "iranisrael",
	Short: "Iranisrael - Israel-Iran conflict incident tracker",
	Long: `Iranisrael tracks the Israel-Iran conflict by continuously fetching
news articles, extracting structured attack facts with an inference
endpoint, and rendering confirmed incidents onto a map layer.

Incidents can also be entered manually; manual entries survive
automated clear and refresh cycles.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("iranisrael v0.2.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.iranisrael/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(home + "/.iranisrael")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match IRANISRAEL_*
	viper.SetEnvPrefix("IRANISRAEL")
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig merges the config file and environment over the defaults.
// API keys come from the conventional environment variables when the
// config leaves them empty.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeHookFunc(time.RFC3339),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := viper.Unmarshal(cfg, hooks); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}

	if cfg.News.APIKey == "" {
		cfg.News.APIKey = os.Getenv("GNEWS_API_KEY")
	}
	if cfg.Extract.APIKey == "" {
		cfg.Extract.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	cfg.Output.Verbose = cfg.Output.Verbose || verbose

	return cfg, nil
}
