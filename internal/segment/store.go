package segment

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"chamber_monitor/internal/models"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644

	// max size of a single ndjson line
	maxLineBytes = 64 * 1024
)

// Store manages the segment files of one gyle's logs directory.
// It is not safe for concurrent use; the owning engine serialises access.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the logs directory.
func (s *Store) Dir() string {
	return s.dir
}

// EnsureDir creates the logs directory if it does not exist.
func (s *Store) EnsureDir() error {
	return errors.Wrapf(os.MkdirAll(s.dir, dirPerm), "create logs dir %s", s.dir)
}

// List returns every segment ordered by SeqNo. Unfinished .tmp files are skipped;
// any other unparseable name yields ErrMalformedSegmentName.
func (s *Store) List() ([]Descriptor, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read logs dir %s", s.dir)
	}
	out := make([]Descriptor, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasSuffix(e.Name(), tmpExt) {
			continue
		}
		d, err := Parse(e.Name())
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SeqNo < out[j].SeqNo })
	return out, nil
}

// NextSeqNo is one more than the highest existing SeqNo, or 0 for an empty directory.
func (s *Store) NextSeqNo() (int, error) {
	segs, err := s.List()
	if err != nil {
		return 0, err
	}
	if len(segs) == 0 {
		return 0, nil
	}
	return segs[len(segs)-1].SeqNo + 1, nil
}

// Write stores readings as a new segment of the given generation. The file is
// written under a temporary name and renamed once complete.
func (s *Store) Write(generation int, readings []models.Reading) (Descriptor, error) {
	if len(readings) == 0 {
		return Descriptor{}, errors.New("refusing to write an empty segment")
	}
	seq, err := s.NextSeqNo()
	if err != nil {
		return Descriptor{}, err
	}
	d := Descriptor{
		SeqNo:      seq,
		Generation: generation,
		StartTs:    readings[0].Dt,
		EndTs:      readings[len(readings)-1].Dt,
	}

	final := filepath.Join(s.dir, d.Name())
	tmp := final + tmpExt
	if err := writeNDJSON(tmp, readings); err != nil {
		os.Remove(tmp)
		return Descriptor{}, errors.Wrapf(err, "write segment %s", d.Name())
	}
	if err := os.Rename(tmp, final); err != nil {
		return Descriptor{}, errors.Wrapf(err, "rename segment %s", d.Name())
	}
	return d, nil
}

func writeNDJSON(path string, readings []models.Reading) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, filePerm)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for i := range readings {
		if err := enc.Encode(&readings[i]); err != nil {
			f.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Read loads every reading of a segment.
func (s *Store) Read(d Descriptor) ([]models.Reading, error) {
	f, err := os.Open(filepath.Join(s.dir, d.Name()))
	if err != nil {
		return nil, errors.Wrapf(err, "open segment %s", d.Name())
	}
	defer f.Close()

	var out []models.Reading
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 4096), maxLineBytes)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var r models.Reading
		if err := json.Unmarshal(line, &r); err != nil {
			return nil, errors.Wrapf(err, "decode segment %s line %d", d.Name(), len(out)+1)
		}
		out = append(out, r)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "scan segment %s", d.Name())
	}
	return out, nil
}

// Delete removes a segment file.
func (s *Store) Delete(d Descriptor) error {
	return errors.Wrapf(os.Remove(filepath.Join(s.dir, d.Name())), "delete segment %s", d.Name())
}

// RemoveTemp deletes leftovers of interrupted writes and returns how many were removed.
func (s *Store) RemoveTemp() (int, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*"+tmpExt))
	if err != nil {
		return 0, errors.Wrap(err, "glob temp segments")
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil {
			return 0, errors.Wrapf(err, "remove temp segment %s", m)
		}
	}
	return len(matches), nil
}
