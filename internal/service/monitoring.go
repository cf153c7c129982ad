package service

import (
	"context"
	"errors"
	"time"

	"chamber_monitor/internal/models"
	"chamber_monitor/internal/repository"
)

// ErrNoState is returned for a chamber that has never been polled.
var ErrNoState = errors.New("no state recorded for chamber")

type MonitoringService struct {
	stateRepo repository.StateRepo
}

func NewMonitoringService(stateRepo repository.StateRepo) *MonitoringService {
	return &MonitoringService{stateRepo: stateRepo}
}

// GetState returns the latest persisted state of the chamber.
func (s *MonitoringService) GetState(ctx context.Context, chamberID int) (models.ChamberState, error) {
	state, err := s.stateRepo.Load(ctx, chamberID)
	if err != nil {
		return models.ChamberState{}, err
	}
	if state.ChamberID == 0 {
		return models.ChamberState{}, ErrNoState
	}
	state.UpdatedAt = toUTC(state.UpdatedAt)
	return state, nil
}

func (s *MonitoringService) ListStates(ctx context.Context) ([]models.ChamberState, error) {
	states, err := s.stateRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range states {
		states[i].UpdatedAt = toUTC(states[i].UpdatedAt)
	}
	return states, nil
}

// toUTC normalizes non-zero time to UTC, preserving zero values.
func toUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}
