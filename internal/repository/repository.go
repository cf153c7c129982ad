package repository

import (
	"context"
	"database/sql"
	"time"

	"chamber_monitor/internal/models"
)

// StateRepo keeps the latest reading per chamber.
type StateRepo interface {
	Save(ctx context.Context, s models.ChamberState) error
	Load(ctx context.Context, chamberID int) (models.ChamberState, error)
	List(ctx context.Context) ([]models.ChamberState, error)
}

// EventRepo is the append-only chamber event log. A zero chamberID or empty
// typ matches everything.
type EventRepo interface {
	Append(ctx context.Context, e models.ChamberEvent) error
	List(ctx context.Context, from, to time.Time, chamberID int, typ string) ([]models.ChamberEvent, error)
}

// ChamberRepo reads chamber and gyle definitions from the data directory.
type ChamberRepo interface {
	Chambers() ([]models.Chamber, error)
	LatestGyle(chamberID int) (models.Gyle, bool, error)
	GyleLogsDir(chamberID, gyleID int) string
	SaveChamber(ch models.Chamber) error
	SaveGyle(g models.Gyle) error
}

type Repository struct {
	StateRepo   StateRepo
	EventRepo   EventRepo
	ChamberRepo ChamberRepo
}

func NewRepository(db *sql.DB, dataDir string) *Repository {
	return &Repository{
		StateRepo:   NewStateSQLite(db),
		EventRepo:   NewEventSQLite(db),
		ChamberRepo: NewChamberFS(dataDir),
	}
}
