package service

import (
	"context"
	"time"

	"chamber_monitor/internal/chamber"
	"chamber_monitor/internal/gylelog"
	"chamber_monitor/internal/logger"
	"chamber_monitor/internal/models"
	"chamber_monitor/internal/notify"
	"chamber_monitor/internal/optimise"
	"chamber_monitor/internal/repository"
)

// Monitoring exposes the latest reading of each chamber.
type Monitoring interface {
	GetState(ctx context.Context, chamberID int) (models.ChamberState, error)
	ListStates(ctx context.Context) ([]models.ChamberState, error)
}

// EventLog exposes append-only logs with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.ChamberEvent, error)
}

// Collector runs the background loop that polls every chamber.
// Stop via context cancellation in main(), then Shutdown to flush the logs.
type Collector interface {
	Run(ctx context.Context, tick time.Duration) error
	Shutdown() error
}

// Deps are the collaborators the collector needs besides the repositories.
type Deps struct {
	Manager   chamber.Manager
	Notifier  notify.Notifier
	Metrics   CollectorMetrics
	GyleLog   gylelog.Config
	Optimiser *optimise.Optimiser
	Logger    *logger.Logger
}

type Service struct {
	Monitoring
	EventLog
	Collector
}

func NewService(repos *repository.Repository, deps Deps) *Service {
	return &Service{
		Monitoring: NewMonitoringService(repos.StateRepo),
		EventLog:   NewEventLogService(repos.EventRepo),
		Collector:  NewCollectorService(repos, deps),
	}
}
