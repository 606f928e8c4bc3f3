package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farewatch/farewatch-cli/internal/sched"
)

func TestCommandsRegistered(t *testing.T) {
	var names []string
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"sweep", "propose", "archive", "airports"} {
		assert.Contains(t, names, want)
	}
}

func TestArchiveSubcommands(t *testing.T) {
	var names []string
	for _, c := range archiveCmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "status")
	assert.Contains(t, names, "bootstrap")
}

func TestParseLatLon(t *testing.T) {
	tests := []struct {
		in       string
		lat, lon float64
		wantErr  bool
	}{
		{in: "51.5074,-0.1278", lat: 51.5074, lon: -0.1278},
		{in: " 48.85 , 2.35 ", lat: 48.85, lon: 2.35},
		{in: "51.5074", wantErr: true},
		{in: "north,south", wantErr: true},
	}
	for _, tt := range tests {
		lat, lon, err := parseLatLon(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.lat, lat)
		assert.Equal(t, tt.lon, lon)
	}
}

func TestCheapestArms(t *testing.T) {
	arch := sched.NewArchive()
	arch.AddObservation("LON|PAR|2026-03-01|2026-03-08", 300, "2026-03-01")
	arch.AddObservation("LON|ROM|2026-03-01|2026-03-08", 120, "2026-03-01")
	arch.AddObservation("MAD|PAR|2026-03-02|2026-03-09", 210, "2026-03-01")
	arch.Stats["not-a-key"] = &sched.ArmStats{Mean: 1}

	rows := cheapestArms(arch, 0)
	require.Len(t, rows, 3, "unparseable keys are dropped")
	assert.Equal(t, "ROM", rows[0].arm.Dest)
	assert.Equal(t, 120.0, rows[0].st.Mean)
	assert.Equal(t, "PAR", rows[1].arm.Dest)
	assert.Equal(t, "PAR", rows[2].arm.Dest)
	assert.Equal(t, 300.0, rows[2].st.Mean)

	capped := cheapestArms(arch, 2)
	require.Len(t, capped, 2)
	assert.Equal(t, 120.0, capped[0].st.Mean)
}

func TestOrDash(t *testing.T) {
	assert.Equal(t, "-", orDash(""))
	assert.Equal(t, "2026-01-05-14", orDash("2026-01-05-14"))
}
