package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ppiankov/foretell/internal/cache"
	"github.com/ppiankov/foretell/internal/model"
	"github.com/ppiankov/foretell/internal/session"
)

var errNoCachePath = errors.New("cache.path is not set")

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the search and source cache",
	Long: `Manage the cache of searches, World Bank readings and feeds.

Without cache.path the cache lives in memory and ends with each run.
With cache.path set it is kept in a SQLite file between runs.`,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cached response",
	Long: `Clear empties the persistent cache at cache.path, so the next run
searches and fetches everything again.

Example:
  foretell cache clear
  FORETELL_CACHE_PATH=/tmp/foretell.db foretell cache clear`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		n, err := clearCache(cfg, newLogger(cfg))
		if errors.Is(err, errNoCachePath) {
			fmt.Fprintf(os.Stderr, "No persistent cache configured (cache.path is empty); nothing to clear\n")
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Printf("✓ Cleared %d cached entries from %s\n", n, cfg.Cache.Path)
		return nil
	},
}

// clearCache resets a session over the persistent cache and returns how
// many entries it held
func clearCache(cfg *model.Config, logger *log.Logger) (n int, err error) {
	if cfg.Cache.Path == "" {
		return 0, errNoCachePath
	}

	disk, err := cache.OpenSQLite(cfg.Cache.Path, cfg.Cache.TTL)
	if err != nil {
		return 0, fmt.Errorf("open cache: %w", err)
	}
	defer func() {
		if closeErr := disk.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close cache: %w", closeErr)
		}
	}()

	n, err = disk.Len()
	if err != nil {
		return 0, err
	}
	if err := session.New(disk, cfg.Cache.TTL, logger).Reset(); err != nil {
		return 0, err
	}
	return n, nil
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
