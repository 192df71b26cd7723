package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"ao3scraper/internal/components/configutil"
	"ao3scraper/internal/components/serviceutil"
	"ao3scraper/internal/components/telemetry"
	"ao3scraper/internal/scrapers/ao3"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
)

var (
	configPath *string
	verbose    *bool
	logJson    *bool
	cacheDir   *string
	redisAddr  *string
)

// state shared by every subcommand, set up in PersistentPreRun
var (
	session        *ao3.Session
	releaseSession func()
	providers      telemetry.Telemetry
	tel            telemetry.API = telemetry.SlogAPI{}
)

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "ao3.json5", "The config file to read, ao3.local.json5 next to it overrides it.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Print debug logs.")
	logJson = rootCmd.PersistentFlags().Bool("log-json", false, "Print logs as json lines.")
	cacheDir = rootCmd.PersistentFlags().String("cache", "", "A directory to keep a page cache in.")
	redisAddr = rootCmd.PersistentFlags().String("redis", "", "The address of a redis server to keep the page cache in.")
}

var rootCmd = &cobra.Command{
	Use:   "ao3-cli",
	Short: "ao3-cli reads works from Archive of Our Own.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose, *logJson)

		cfg, err := readConfig(*configPath)
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		if *cacheDir != "" {
			cfg.Cache.Dir = *cacheDir
		}
		if *redisAddr != "" {
			cfg.Cache.Redis = *redisAddr
		}

		providers, err = telemetry.SetupFromEnv(cmd.Context(), "ao3-cli")
		if err != nil {
			slog.Warn("failed to setup telemetry", "err", err)
		}
		metered, err := telemetry.NewMeteredAPI(otel.Meter("ao3-cli"), telemetry.SlogAPI{})
		if err != nil {
			slog.Warn("failed to create report metrics", "err", err)
		} else {
			tel = metered
		}

		session, releaseSession, err = openSession(cmd.Context(), cfg, tel)
		if err != nil {
			serviceutil.Fatal("failed to create session", err)
		}
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if releaseSession != nil {
			releaseSession()
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		err := providers.Shutdown(ctx)
		if err != nil {
			slog.Warn("failed to flush telemetry", "err", err)
		}
	},
}

// readConfig reads the config file at path, a missing file means the defaults.
func readConfig(path string) (Config, error) {
	cfg, err := configutil.ReadConfig[Config](path)
	if os.IsNotExist(err) {
		slog.Debug("no config file found, using defaults", "path", path)
		return Config{}, nil
	}
	return cfg, err
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
