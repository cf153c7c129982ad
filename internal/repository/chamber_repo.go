package repository

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/pkg/errors"

	"chamber_monitor/internal/models"
)

const (
	chambersDir  = "chambers"
	gylesDir     = "gyles"
	logsDir      = "logs"
	chamberFile  = "chamber.json"
	gyleFile     = "gyle.json"
	jsonFileMode = 0o644
	dirMode      = 0o755
)

// ChamberFS lays chambers out as
// {dataDir}/chambers/{id}/chamber.json and {dataDir}/chambers/{id}/gyles/{id}/gyle.json,
// with each gyle's segments under .../gyles/{id}/logs.
type ChamberFS struct {
	dataDir string
}

func NewChamberFS(dataDir string) *ChamberFS {
	return &ChamberFS{dataDir: dataDir}
}

func (r *ChamberFS) chamberDir(chamberID int) string {
	return filepath.Join(r.dataDir, chambersDir, strconv.Itoa(chamberID))
}

func (r *ChamberFS) gyleDir(chamberID, gyleID int) string {
	return filepath.Join(r.chamberDir(chamberID), gylesDir, strconv.Itoa(gyleID))
}

func (r *ChamberFS) GyleLogsDir(chamberID, gyleID int) string {
	return filepath.Join(r.gyleDir(chamberID, gyleID), logsDir)
}

// numericDirs returns the ids of the numerically named subdirectories of dir, ascending.
// A missing dir has none.
func numericDirs(dir string) ([]int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "read dir %s", dir)
	}
	var ids []int
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		id, err := strconv.Atoi(e.Name())
		if err != nil || id <= 0 {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return errors.Wrapf(json.Unmarshal(b, v), "decode %s", path)
}

func writeJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode json")
	}
	if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
		return errors.Wrap(err, "create dir")
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, jsonFileMode); err != nil {
		return errors.Wrapf(err, "write %s", tmp)
	}
	return errors.Wrapf(os.Rename(tmp, path), "rename %s", tmp)
}

// Chambers returns every chamber with a chamber.json, ordered by id.
func (r *ChamberFS) Chambers() ([]models.Chamber, error) {
	ids, err := numericDirs(filepath.Join(r.dataDir, chambersDir))
	if err != nil {
		return nil, err
	}
	out := make([]models.Chamber, 0, len(ids))
	for _, id := range ids {
		var ch models.Chamber
		if err := readJSON(filepath.Join(r.chamberDir(id), chamberFile), &ch); err != nil {
			if os.IsNotExist(errors.Cause(err)) {
				continue
			}
			return nil, errors.Wrapf(err, "load chamber %d", id)
		}
		ch.ID = id
		out = append(out, ch)
	}
	return out, nil
}

// LatestGyle returns the highest numbered gyle that has a gyle.json.
func (r *ChamberFS) LatestGyle(chamberID int) (models.Gyle, bool, error) {
	ids, err := numericDirs(filepath.Join(r.chamberDir(chamberID), gylesDir))
	if err != nil {
		return models.Gyle{}, false, err
	}
	for i := len(ids) - 1; i >= 0; i-- {
		var g models.Gyle
		err := readJSON(filepath.Join(r.gyleDir(chamberID, ids[i]), gyleFile), &g)
		if err != nil {
			if os.IsNotExist(errors.Cause(err)) {
				continue
			}
			return models.Gyle{}, false, errors.Wrapf(err, "load gyle %d of chamber %d", ids[i], chamberID)
		}
		g.ID = ids[i]
		g.ChamberID = chamberID
		return g, true, nil
	}
	return models.Gyle{}, false, nil
}

func (r *ChamberFS) SaveChamber(ch models.Chamber) error {
	if ch.ID <= 0 {
		return errors.Errorf("invalid chamber id %d", ch.ID)
	}
	return writeJSON(filepath.Join(r.chamberDir(ch.ID), chamberFile), ch)
}

// SaveGyle validates the profile before writing.
func (r *ChamberFS) SaveGyle(g models.Gyle) error {
	if g.ID <= 0 || g.ChamberID <= 0 {
		return errors.Errorf("invalid gyle %d of chamber %d", g.ID, g.ChamberID)
	}
	if err := g.TemperatureProfile.Validate(); err != nil {
		return errors.Wrapf(err, "gyle %d", g.ID)
	}
	return writeJSON(filepath.Join(r.gyleDir(g.ChamberID, g.ID), gyleFile), g)
}
