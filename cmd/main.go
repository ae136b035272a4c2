// Command voldca buys crypto on a schedule, sizing each purchase by recent volatility.
//
// Usage:
//
//	voldca -config config.yaml            run every due asset once
//	voldca -config config.yaml -force     ignore the schedule
//	voldca -config config.yaml -daemon    run on the configured cron schedule
//	voldca -config config.yaml -stats     print portfolio statistics
//	voldca -config config.yaml -setup     add or edit an asset interactively
//
// Environment variables:
//
//	HYPERLIQUID_PRIVATE_KEY                 account key for the hyperliquid platform
//	TELEGRAM_BOT_TOKEN, TELEGRAM_CHAT_ID    optional notifications
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/vadiminshakov/voldca/config"
	"github.com/vadiminshakov/voldca/internal"
	"github.com/vadiminshakov/voldca/internal/setup"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to yaml config")
	force := flag.Bool("force", false, "buy even when the schedule says it is not due")
	daemon := flag.Bool("daemon", false, "run on the configured cron schedule until interrupted")
	stats := flag.Bool("stats", false, "print portfolio statistics and exit")
	wizard := flag.Bool("setup", false, "launch the asset configuration wizard")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	if *wizard {
		if err := setup.RunTUI(*configPath); err != nil {
			log.Printf("setup failed: %v", err)
			return 1
		}
		return 0
	}

	logger, err := newLogger(*debug)
	if err != nil {
		log.Printf("failed to create logger: %v", err)
		return 1
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", zap.Error(err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := internal.NewServices(ctx, logger, cfg)
	if err != nil {
		logger.Error("failed to create services", zap.Error(err))
		return 1
	}
	defer func() {
		if err := services.Close(); err != nil {
			logger.Warn("failed to close services", zap.Error(err))
		}
	}()

	bot, err := internal.NewBot(logger, cfg, services)
	if err != nil {
		logger.Error("failed to create bot", zap.Error(err))
		return 1
	}

	switch {
	case *stats:
		reports, err := bot.Stats(ctx)
		if err != nil {
			logger.Error("failed to compute statistics", zap.Error(err))
			return 1
		}
		for _, r := range reports {
			fmt.Println(r.String())
		}
		return 0
	case *daemon:
		if err := bot.Run(ctx); err != nil {
			logger.Error("daemon failed", zap.Error(err))
			return 1
		}
		return 0
	default:
		outcomes := bot.RunOnce(ctx, *force)
		for _, o := range outcomes {
			fmt.Println(o.String())
		}
		if internal.AnyFailed(outcomes) {
			return 1
		}
		return 0
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
