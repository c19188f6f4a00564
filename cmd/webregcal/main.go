package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"webregcal/internal/archive"
	"webregcal/internal/config"
	appLog "webregcal/internal/log"
	"webregcal/internal/web"
)

// flagConfig holds CLI flag values.
type flagConfig struct {
	configPath string
	listen     string
	debug      bool
}

func main() {
	appLog.Info("webregcal starting")

	flags := parseFlags()

	// .env feeds the WEBREGCAL_* overrides in development; missing
	// file is fine in production.
	_ = godotenv.Load()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	if flags.debug {
		conf.LogLevel = "DEBUG"
	}
	appLog.SetLevel(appLog.Level(conf.LogLevel))

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"single_day_fallback", conf.SingleDayFallback,
		"cache_ttl_minutes", conf.CacheTTLMinutes,
		"archive_dir", conf.Archive.Dir,
		"archive_retention_days", conf.Archive.RetentionDays,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	store := archive.NewStore(conf.Archive.Dir)
	retention := time.Duration(conf.Archive.RetentionDays) * 24 * time.Hour
	janitor, err := store.StartJanitor(conf.Archive.CleanupCron, retention)
	if err != nil {
		appLog.Error("failed to start archive janitor", err, "cron", conf.Archive.CleanupCron)
		os.Exit(1)
	}
	defer janitor.Stop()

	if err := web.StartServer(ctx, conf, store, flags.debug); err != nil {
		appLog.Error("HTTP server failed", err)
		os.Exit(1)
	}

	appLog.Info("webregcal exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging and request logs")

	flag.Parse()

	return cfg
}
