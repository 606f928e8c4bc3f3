package sched

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.json")
	store := NewFileStore(path)

	arch := NewArchive()
	arch.Gamma = 0.95
	arch.LastBootstrapTS = "2026-01-08-14"
	arch.Stats["LON|PAR|2026-03-01|2026-03-08"] = &ArmStats{
		Mean: 99.6, Variance: 1.08, Weight: 10.8, LastUpdateDay: "2026-01-08",
	}
	store.Save(arch)

	loaded := store.Load()
	assert.Equal(t, arch.Gamma, loaded.Gamma)
	assert.Equal(t, arch.LastBootstrapTS, loaded.LastBootstrapTS)
	require.Contains(t, loaded.Stats, "LON|PAR|2026-03-01|2026-03-08")
	assert.Equal(t, *arch.Stats["LON|PAR|2026-03-01|2026-03-08"], *loaded.Stats["LON|PAR|2026-03-01|2026-03-08"])
}

func TestFileStore_LoadMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "nope", "archive.json"))
	arch := store.Load()
	require.NotNil(t, arch)
	assert.Equal(t, DefaultGamma, arch.Gamma)
	assert.Empty(t, arch.Stats)
}

func TestFileStore_LoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	arch := NewFileStore(path).Load()
	require.NotNil(t, arch)
	assert.Equal(t, DefaultGamma, arch.Gamma)
	assert.Empty(t, arch.Stats)
}

func TestFileStore_LoadRepairsInvalidGamma(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"gamma": 7.0, "stats": null}`), 0o644))

	arch := NewFileStore(path).Load()
	assert.Equal(t, DefaultGamma, arch.Gamma)
	assert.NotNil(t, arch.Stats)
}

func TestFileStore_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "archive.json"))
	store.Save(NewArchive())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "archive.json", entries[0].Name())
}
