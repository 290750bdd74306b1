package correlation

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "correlation.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	table := map[string]Record{
		"task:T1": {ID: "abc123", CreatedAt: time.Now().Truncate(time.Second)},
		"task:T2": {ID: "def456", CreatedAt: time.Now().Truncate(time.Second)},
	}

	require.NoError(t, store.Save(table))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "abc123", loaded["task:T1"].ID)
	assert.Equal(t, "def456", loaded["task:T2"].ID)
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "correlation.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store, err := NewFileStore(path)
	require.NoError(t, err)

	_, err = store.Load()
	assert.Error(t, err)
}

func TestManagerPersistsAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "correlation.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	m1 := NewManager(Options{Store: store})
	want := m1.GetOrCreate("task:T1")
	m1.Close()

	m2 := NewManager(Options{Store: store})
	got, ok := m2.Get("task:T1")
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestManagerPurgesExpiredOnLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "correlation.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Save(map[string]Record{
		"stale": {ID: "old", CreatedAt: time.Now().Add(-48 * time.Hour)},
		"fresh": {ID: "new", CreatedAt: time.Now()},
	}))

	m := NewManager(Options{Store: store})
	_, ok := m.Get("stale")
	assert.False(t, ok)
	got, ok := m.Get("fresh")
	require.True(t, ok)
	assert.Equal(t, "new", got)
}

func TestManagerFlusherWritesPeriodically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "correlation.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	m := NewManager(Options{Store: store})
	m.StartFlusher(20 * time.Millisecond)
	defer m.Close()

	m.GetOrCreate("task:T1")

	require.Eventually(t, func() bool {
		loaded, err := store.Load()
		return err == nil && len(loaded) == 1
	}, time.Second, 10*time.Millisecond)
}

type failingStore struct {
	loaded map[string]Record
}

func (s *failingStore) Load() (map[string]Record, error) { return s.loaded, nil }
func (s *failingStore) Save(map[string]Record) error     { return errors.New("disk full") }

func TestManagerSurvivesPersistenceFailure(t *testing.T) {
	m := NewManager(Options{Store: &failingStore{}})

	want := m.GetOrCreate("task:T1")
	m.Close() // triggers a failing persist; must not panic

	// Lookups keep working in memory-only mode.
	got, ok := m.Get("task:T1")
	require.True(t, ok)
	assert.Equal(t, want, got)
}
