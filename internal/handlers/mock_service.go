package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"chamber_monitor/internal/metrics"
	"chamber_monitor/internal/models"
	"chamber_monitor/internal/service"
)

// ---- Service Mocks ----

type mockMonitoring struct {
	state  models.ChamberState
	states []models.ChamberState
	err    error
	lastID int
}

func (m *mockMonitoring) GetState(ctx context.Context, chamberID int) (models.ChamberState, error) {
	m.lastID = chamberID
	return m.state, m.err
}

func (m *mockMonitoring) ListStates(ctx context.Context) ([]models.ChamberState, error) {
	return m.states, m.err
}

type mockEventLog struct {
	resp        []models.ChamberEvent
	err         error
	calls       int
	lastFrom    time.Time
	lastTo      time.Time
	lastType    string
	lastChamber int
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.ChamberEvent, error) {
	m.calls++
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	m.lastChamber = f.ChamberID
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service, m *metrics.Metrics) *gin.Engine {
	h := NewHandler(s, m, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}
