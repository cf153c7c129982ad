package segment

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chamber_monitor/internal/models"
)

func readings(fromDt int64, n int) []models.Reading {
	out := make([]models.Reading, n)
	for i := range out {
		out[i] = models.Reading{
			Dt:       fromDt + int64(i)*2,
			TBeer:    models.IntPtr(170 + i),
			FridgeOn: models.BoolPtr(i%2 == 0),
			Mode:     models.ModePtr(models.ModeAuto),
		}
	}
	return out
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "logs"))
	require.NoError(t, s.EnsureDir())
	return s
}

func TestStoreWriteReadList(t *testing.T) {
	s := newTestStore(t)

	seq, err := s.NextSeqNo()
	require.NoError(t, err)
	assert.Equal(t, 0, seq)

	first, err := s.Write(1, readings(100, 3))
	require.NoError(t, err)
	assert.Equal(t, Descriptor{SeqNo: 0, Generation: 1, StartTs: 100, EndTs: 104}, first)

	second, err := s.Write(2, readings(106, 2))
	require.NoError(t, err)
	assert.Equal(t, 1, second.SeqNo)

	list, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []Descriptor{first, second}, list)

	got, err := s.Read(first)
	require.NoError(t, err)
	assert.Equal(t, readings(100, 3), got)
}

func TestStoreWritesOneRecordPerLine(t *testing.T) {
	s := newTestStore(t)
	d, err := s.Write(1, readings(10, 2))
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(s.Dir(), d.Name()))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(raw), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `{"dt":10,"tBeer":170,"fridgeOn":true,"mode":"A"}`, lines[0])
	assert.Equal(t, `{"dt":12,"tBeer":171,"fridgeOn":false,"mode":"A"}`, lines[1])
}

func TestStoreListSortsBySeqNo(t *testing.T) {
	s := newTestStore(t)
	for _, name := range []string{"10-1-5-6.ndjson", "2-1-1-2.ndjson", "9-2-1-4.ndjson"} {
		require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), name), nil, 0o644))
	}
	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []int{2, 9, 10}, []int{list[0].SeqNo, list[1].SeqNo, list[2].SeqNo})

	next, err := s.NextSeqNo()
	require.NoError(t, err)
	assert.Equal(t, 11, next)
}

func TestStoreListFailsOnMalformedName(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "junk.json"), nil, 0o644))
	_, err := s.List()
	assert.True(t, errors.Is(err, ErrMalformedSegmentName))
}

func TestStoreTempFiles(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "3-1-1-2.ndjson.tmp"), []byte("{"), 0o644))

	list, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, list)

	n, err := s.RemoveTemp()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStoreDelete(t *testing.T) {
	s := newTestStore(t)
	d, err := s.Write(1, readings(0, 1))
	require.NoError(t, err)
	require.NoError(t, s.Delete(d))
	assert.Error(t, s.Delete(d))

	_, err = s.Read(d)
	assert.Error(t, err)
}

func TestStoreRejectsEmptyWrite(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Write(1, nil)
	assert.Error(t, err)
}
