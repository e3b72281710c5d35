package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"propertyhub/internal/engine/organizations"
	"propertyhub/internal/engine/webhooks"
	"propertyhub/internal/pkg/logger"
	"propertyhub/internal/platform/auth"
	"propertyhub/internal/platform/config"
	"propertyhub/internal/platform/database"
	"propertyhub/internal/platform/metrics"
	"propertyhub/internal/workers"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	runNow := flag.String("run", "", "Run one job immediately and exit: rent_generation or late_fees")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	logger.Init(cfg.Logging)

	loc, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("timezone", cfg.Scheduler.Timezone).Msg("Unknown timezone")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	globalDB, err := database.NewGlobalDB(cfg.Database.Global)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to global DB")
	}
	defer globalDB.Close()

	pool := database.NewTenantDBPool(cfg.Database.Tenant)
	defer pool.CloseAll()

	m := metrics.New()
	orgs := organizations.NewService(globalDB, pool, auth.NewTokenService(cfg.JWT), cfg.Billing)
	dispatcher := webhooks.NewDispatcher(cfg.Webhooks.Timeout, m)
	defer dispatcher.Wait()

	runner := workers.NewRunner(orgs, dispatcher, m, loc)

	switch *runNow {
	case "":
	case workers.JobRentGeneration:
		if _, err := runner.GenerateRent(ctx); err != nil {
			log.Error().Err(err).Msg("Rent generation failed")
		}
		return
	case workers.JobLateFees:
		if _, err := runner.AssessLateFees(ctx); err != nil {
			log.Error().Err(err).Msg("Late fee assessment failed")
		}
		return
	default:
		log.Fatal().Str("job", *runNow).Msg("Unknown job")
	}

	c := cron.New(cron.WithLocation(loc))
	if err := runner.Schedule(ctx, c, cfg.Scheduler); err != nil {
		log.Fatal().Err(err).Msg("Invalid job schedule")
	}
	c.Start()
	log.Info().Str("timezone", loc.String()).Msg("Worker started")

	<-ctx.Done()
	log.Info().Msg("Stopping worker")
	<-c.Stop().Done()
}
