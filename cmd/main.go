package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"chamber_monitor/internal/chamber"
	"chamber_monitor/internal/config"
	"chamber_monitor/internal/handlers"
	"chamber_monitor/internal/logger"
	"chamber_monitor/internal/metrics"
	"chamber_monitor/internal/models"
	"chamber_monitor/internal/notify"
	"chamber_monitor/internal/optimise"
	"chamber_monitor/internal/repository"
	"chamber_monitor/internal/repository/db"
	"chamber_monitor/internal/server"
	"chamber_monitor/internal/service"
)

const shutdownTimeout = 10 * time.Second

// @title        Chamber Monitor API
// @version      1.0
// @description  Fermentation chamber states and events.
// @BasePath     /
func main() {
	cfg, err := config.Load("configs")
	if err != nil {
		logger.Get(logger.InfoLevel, logger.ConsoleFormat).Fatalw("error reading config", "err", err)
	}
	log := logger.Get(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatalw("chamber monitor stopped", "err", err)
	}
}

func run(cfg config.Config, log *logger.Logger) error {
	sqlDB, err := db.InitDB(cfg.DBPath)
	if err != nil {
		return errors.Wrap(err, "init sqlite")
	}
	defer func() {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	repos := repository.NewRepository(sqlDB, cfg.DataDir)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	notifier, closeNotifier, err := buildNotifier(cfg, log)
	if err != nil {
		return err
	}
	defer closeNotifier()

	dial, err := buildDialer(cfg, repos.ChamberRepo, log)
	if err != nil {
		return err
	}
	manager := chamber.NewConnManager(dial, log.Component("chamber"), m)
	defer func() { _ = manager.Close() }()

	services := service.NewService(repos, service.Deps{
		Manager:   manager,
		Notifier:  notifier,
		Metrics:   m,
		GyleLog:   cfg.GyleLog(),
		Optimiser: optimise.New(cfg.Optimiser()),
		Logger:    log.Component("collector"),
	})
	srv := server.New(cfg.HTTPPort, handlers.NewHandler(services, m, log.Component("http")).InitRoutes())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return services.Collector.Run(gctx, cfg.ReadingPeriod)
	})
	g.Go(func() error {
		log.Infow("http server listening", "addr", server.Addr(cfg.HTTPPort))
		return srv.Run()
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Infow("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	runErr := g.Wait()
	if err := services.Collector.Shutdown(); err != nil {
		log.Errorw("failed to flush gyle logs", "err", err)
		if runErr == nil {
			runErr = err
		}
	}
	return runErr
}

// buildNotifier fans events out to the log and, when enabled, to Kafka.
func buildNotifier(cfg config.Config, log *logger.Logger) (notify.Notifier, func(), error) {
	notifiers := notify.Multi{notify.NewLogNotifier(log.Component("events"))}
	if !cfg.KafkaEnabled {
		return notifiers, func() {}, nil
	}
	kn, err := notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic, log.Component("kafka"))
	if err != nil {
		return nil, nil, errors.Wrap(err, "init kafka notifier")
	}
	closeFn := func() {
		if err := kn.Close(); err != nil {
			log.Errorw("failed to close kafka writer", "err", err)
		}
	}
	return append(notifiers, kn), closeFn, nil
}

// buildDialer returns the controller link. Only the simulated controller is
// available; on an empty data dir it also seeds a demo chamber so the collector
// has something to poll.
func buildDialer(cfg config.Config, chambers repository.ChamberRepo, log *logger.Logger) (chamber.Dialer, error) {
	if !cfg.SimulatedChambers {
		return nil, errors.New("no chamber controller configured; set chamberManager.simulated")
	}
	if err := seedDemoChamber(chambers, time.Now(), log); err != nil {
		return nil, err
	}
	sim := chamber.NewSimController(time.Now().UnixNano(), time.Now)
	return sim.Dial, nil
}

func seedDemoChamber(repo repository.ChamberRepo, now time.Time, log *logger.Logger) error {
	existing, err := repo.Chambers()
	if err != nil {
		return errors.Wrap(err, "list chambers")
	}
	if len(existing) > 0 {
		return nil
	}
	ch := models.Chamber{
		ID:                    1,
		Name:                  "Demo chamber",
		TMin:                  -10,
		TMax:                  400,
		HasHeater:             true,
		FridgeMinOnTimeMins:   10,
		FridgeMinOffTimeMins:  15,
		FridgeSwitchOnLagMins: 3,
		Kp:                    1,
		Ki:                    0.1,
		Kd:                    0.05,
	}
	var profile models.TemperatureProfile
	for _, pt := range []models.Point{{HoursSinceStart: 0, TargetTemp: 170}, {HoursSinceStart: 72, TargetTemp: 200}, {HoursSinceStart: 120, TargetTemp: 40}} {
		if err := profile.AddPoint(pt.HoursSinceStart, pt.TargetTemp); err != nil {
			return err
		}
	}
	g := models.Gyle{
		ID:                 1,
		ChamberID:          ch.ID,
		Name:               "Demo gyle",
		TemperatureProfile: profile,
		DtStarted:          models.Int64Ptr(now.UnixMilli()),
	}
	if err := repo.SaveChamber(ch); err != nil {
		return errors.Wrap(err, "seed chamber")
	}
	if err := repo.SaveGyle(g); err != nil {
		return errors.Wrap(err, "seed gyle")
	}
	log.Infow("seeded demo chamber", "chamber", ch.ID, "gyle", g.ID)
	return nil
}
