package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func historyFixture() []HistoricalRecord {
	return []HistoricalRecord{
		{Timestamp: "2026-01-03-09", Origin: "LON", Dest: "PAR", Depart: "2026-03-01", Return: "2026-03-08", Price: 120},
		{Timestamp: "2026-01-01", Origin: "LON", Dest: "PAR", Depart: "2026-03-01", Return: "2026-03-08", Price: 140},
		{Timestamp: "2026-01-05-18", Origin: "LON", Dest: "ROM", Depart: "2026-04-10", Return: "2026-04-14", Price: 85},
	}
}

func TestBootstrap_ReplaysChronologically(t *testing.T) {
	arch := NewArchive()
	n := arch.Bootstrap(historyFixture())

	assert.Equal(t, 3, n)
	assert.Equal(t, "2026-01-05-18", arch.LastBootstrapTS)

	s := arch.Stats["LON|PAR|2026-03-01|2026-03-08"]
	require.NotNil(t, s)
	// The Jan 1 record seeds the arm at 140; the Jan 3 record decays it two
	// days then blends in 120.
	want := NewArchive()
	want.AddObservation("LON|PAR|2026-03-01|2026-03-08", 140, "2026-01-01")
	want.AddObservation("LON|PAR|2026-03-01|2026-03-08", 120, "2026-01-03")
	// The Jan 5 record for the other arm decays this one two further days.
	want.Decay("2026-01-05")
	assert.InDelta(t, want.Stats["LON|PAR|2026-03-01|2026-03-08"].Mean, s.Mean, 1e-9)

	require.Contains(t, arch.Stats, "LON|ROM|2026-04-10|2026-04-14")
}

func TestBootstrap_Idempotent(t *testing.T) {
	once := NewArchive()
	once.Bootstrap(historyFixture())

	twice := NewArchive()
	twice.Bootstrap(historyFixture())
	n := twice.Bootstrap(historyFixture())

	assert.Equal(t, 0, n)
	assert.Equal(t, once.LastBootstrapTS, twice.LastBootstrapTS)
	require.Equal(t, len(once.Stats), len(twice.Stats))
	for key, s := range once.Stats {
		assert.Equal(t, *s, *twice.Stats[key], key)
	}
}

func TestBootstrap_OnlyNewerThanWatermark(t *testing.T) {
	arch := NewArchive()
	arch.LastBootstrapTS = "2026-01-03-09"

	n := arch.Bootstrap(historyFixture())

	assert.Equal(t, 1, n)
	assert.NotContains(t, arch.Stats, "LON|PAR|2026-03-01|2026-03-08")
	assert.Contains(t, arch.Stats, "LON|ROM|2026-04-10|2026-04-14")
	assert.Equal(t, "2026-01-05-18", arch.LastBootstrapTS)
}

func TestBootstrap_SkipsMalformedRecords(t *testing.T) {
	arch := NewArchive()
	n := arch.Bootstrap([]HistoricalRecord{
		{Timestamp: "not-a-date", Origin: "A", Dest: "B", Depart: "2026-01-01", Return: "2026-01-02", Price: 10},
		{Timestamp: "2026-01-01", Origin: "", Dest: "B", Depart: "2026-01-01", Return: "2026-01-02", Price: 10},
		{Timestamp: "2026-01-01", Origin: "A", Dest: "B", Depart: "2026-01-01", Return: "2026-01-02", Price: -3},
	})

	assert.Equal(t, 0, n)
	assert.Empty(t, arch.Stats)
	assert.Empty(t, arch.LastBootstrapTS)
}

func TestNormalizeTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2026-01-03-09", "2026-01-03-09"},
		{"2026-01-03", "2026-01-03-00"},
		{"garbage", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeTimestamp(tt.in), tt.in)
	}
}
