package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/foretell/internal/logging"
	"github.com/ppiankov/foretell/internal/model"
)

const version = "foretell v0.3.0"

var (
	cfgFile  string
	verbose  bool
	logLevel string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "foretell",
	Short: "Foretell - checks forecasts against what happened",
	Long: `Foretell collects evidence about economic and policy forecasts from a
fixed list of trusted publishers and public indicators, then flags each
forecast as EARLY, ON-TIME or LATE (or LIKELY EARLY / LATE-RISK when the
target year has not arrived yet).

Every flag is computed by fixed rules from the cited evidence. An
optional LLM summary can be attached; it never changes a flag.`,
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
	Long:  `Display the version number of Foretell.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.foretell/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".foretell"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// FORETELL_LLM_PROVIDER overrides llm.provider, and so on
	viper.SetEnvPrefix("FORETELL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range []string{
		"llm.provider", "llm.model", "llm.base_url",
		"cache.path", "cache.ttl", "search.max_results", "search.country",
	} {
		_ = viper.BindEnv(key)
	}

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig overlays the config file, environment and bound flags on
// the defaults. Lists given in the file replace the default lists.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	err := viper.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) {
		dc.ZeroFields = true
	})
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if len(cfg.Sectors) == 0 {
		cfg.Sectors = model.DefaultSectors()
	}
	return cfg, nil
}

func newLogger(cfg *model.Config) *log.Logger {
	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	if verbose {
		level = "debug"
	}
	return logging.New(os.Stderr, level)
}
