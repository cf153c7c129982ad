package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"chamber_monitor/internal/models"
)

type StateSQLite struct {
	db *sql.DB
}

func NewStateSQLite(db *sql.DB) *StateSQLite {
	return &StateSQLite{db: db}
}

const (
	insertOrUpdateStateSQL = `
		INSERT INTO chamber_state (chamber_id, gyle_id, reading, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(chamber_id) DO UPDATE SET
			gyle_id=excluded.gyle_id,
			reading=excluded.reading,
			updated_at=excluded.updated_at
	`

	selectStateColumns = `SELECT chamber_id, gyle_id, reading, updated_at FROM chamber_state`
)

// marshalReading converts the reading to a JSON string; nil stays NULL.
func marshalReading(r *models.Reading) (*string, error) {
	if r == nil {
		return nil, nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

func unmarshalReading(s sql.NullString) (*models.Reading, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var r models.Reading
	if err := json.Unmarshal([]byte(s.String), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Save upserts the chamber's row.
func (r *StateSQLite) Save(ctx context.Context, state models.ChamberState) error {
	readingJSON, err := marshalReading(state.Reading)
	if err != nil {
		return errors.Wrap(err, "marshal reading")
	}

	tsUTC := state.UpdatedAt
	if tsUTC.IsZero() {
		tsUTC = time.Now().UTC()
	} else {
		tsUTC = tsUTC.UTC()
	}

	var gylePtr *int
	if state.GyleID != 0 {
		gylePtr = &state.GyleID
	}

	_, err = r.db.ExecContext(ctx, insertOrUpdateStateSQL,
		state.ChamberID,
		gylePtr,
		readingJSON,
		tsUTC,
	)
	return errors.Wrapf(err, "save state of chamber %d", state.ChamberID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanState(row rowScanner) (models.ChamberState, error) {
	var (
		s       models.ChamberState
		gyleID  sql.NullInt64
		reading sql.NullString
	)
	if err := row.Scan(&s.ChamberID, &gyleID, &reading, &s.UpdatedAt); err != nil {
		return models.ChamberState{}, err
	}
	rd, err := unmarshalReading(reading)
	if err != nil {
		return models.ChamberState{}, errors.Wrap(err, "unmarshal reading")
	}
	s.GyleID = int(gyleID.Int64)
	s.Reading = rd
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}

// Load fetches the chamber's row. No row yet gives a zero state and no error.
func (r *StateSQLite) Load(ctx context.Context, chamberID int) (models.ChamberState, error) {
	row := r.db.QueryRowContext(ctx, selectStateColumns+" WHERE chamber_id=?", chamberID)
	s, err := scanState(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ChamberState{}, nil
		}
		return models.ChamberState{}, errors.Wrapf(err, "load state of chamber %d", chamberID)
	}
	return s, nil
}

// List returns every chamber's row ordered by chamber id.
func (r *StateSQLite) List(ctx context.Context) ([]models.ChamberState, error) {
	rows, err := r.db.QueryContext(ctx, selectStateColumns+" ORDER BY chamber_id ASC")
	if err != nil {
		return nil, errors.Wrap(err, "query chamber states")
	}
	defer rows.Close()

	var out []models.ChamberState
	for rows.Next() {
		s, err := scanState(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan chamber state")
		}
		out = append(out, s)
	}
	return out, errors.Wrap(rows.Err(), "iterate chamber states")
}
