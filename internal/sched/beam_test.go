package sched

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepresentativeLengths(t *testing.T) {
	tests := []struct {
		name string
		in   []int
		want []int
	}{
		{"empty", nil, nil},
		{"single", []int{7}, []int{7}},
		{"shortest and median", []int{3, 7, 10, 14, 21}, []int{3, 10}},
		{"duplicates collapse", []int{7, 7, 7}, []int{7}},
		{"two values", []int{3, 9}, []int{3, 9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, representativeLengths(tt.in))
		})
	}
}

func TestReturnDate(t *testing.T) {
	assert.Equal(t, "2026-03-08", returnDate("2026-03-01", 7))
	assert.Equal(t, "2026-03-01", returnDate("2026-03-01", 0))
	assert.Equal(t, "bogus", returnDate("bogus", 7))
}

func TestTopFactors_FallsBackToPoolOrder(t *testing.T) {
	pool := []string{"AAA", "BBB", "CCC"}
	assert.Equal(t, []string{"AAA", "BBB"}, topFactors(nil, pool, 2))
}

func TestTopFactors_RanksByScoreAscending(t *testing.T) {
	scores := map[string]float64{"AAA": 30, "BBB": 10, "CCC": 20}
	assert.Equal(t, []string{"BBB", "CCC"}, topFactors(scores, []string{"AAA", "BBB", "CCC"}, 2))
}

func TestBeamCompose_ReturnsCheapestUnseen(t *testing.T) {
	arch := additiveFixture()
	eff := arch.FitSurrogate()

	origins := []string{"LON", "MAD"}
	dests := []string{"PAR", "ROM"}
	dates := []string{"2026-03-01", "2026-03-15"}

	// Trip length 3 never appears in the fixture (which uses 7), so every
	// composed arm is unseen.
	arms := arch.BeamCompose(eff, origins, dests, dates, []int{3}, 20, 2)
	require.Len(t, arms, 2)

	// Cheapest factor levels: LON (+0), PAR (+100), 2026-03-01 (+0).
	assert.Equal(t, Arm{Origin: "LON", Dest: "PAR", Depart: "2026-03-01", Return: "2026-03-04"}, arms[0])
}

func TestBeamCompose_SkipsArchivedArms(t *testing.T) {
	arch := additiveFixture()
	eff := arch.FitSurrogate()

	// Same trip length as the fixture: the whole cross product is already
	// archived, so nothing is left to propose.
	arms := arch.BeamCompose(eff, []string{"LON", "MAD"}, []string{"PAR", "ROM"},
		[]string{"2026-03-01", "2026-03-15"}, []int{7}, 20, 5)
	assert.Empty(t, arms)
}

func TestBeamCompose_NoTripLengths(t *testing.T) {
	arch := NewArchive()
	arms := arch.BeamCompose(Effects{}, []string{"LON"}, []string{"PAR"}, []string{"2026-03-01"}, nil, 5, 5)
	assert.Empty(t, arms)
}

func TestBeamCompose_BoundedOutput(t *testing.T) {
	arch := NewArchive()
	var origins, dests, dates []string
	for i := 0; i < 15; i++ {
		origins = append(origins, fmt.Sprintf("O%02d", i))
		dests = append(dests, fmt.Sprintf("D%02d", i))
		dates = append(dates, fmt.Sprintf("2026-03-%02d", i+1))
	}

	arms := arch.BeamCompose(Effects{}, origins, dests, dates, []int{3, 7, 12}, 10, 4)
	assert.Len(t, arms, 4)

	seen := map[string]struct{}{}
	for _, arm := range arms {
		_, dup := seen[arm.Key()]
		assert.False(t, dup, "duplicate %s", arm.Key())
		seen[arm.Key()] = struct{}{}
	}
}

func TestBeamCompose_OrdersByCompositeScore(t *testing.T) {
	arch := NewArchive()
	eff := Effects{
		Origin: map[string]float64{"AAA": 0, "BBB": 100},
		Dest:   map[string]float64{"XXX": 0, "YYY": 100},
		Date:   map[string]float64{"2026-03-01": 0, "2026-03-02": 100},
	}

	arms := arch.BeamCompose(eff, []string{"BBB", "AAA"}, []string{"YYY", "XXX"},
		[]string{"2026-03-02", "2026-03-01"}, []int{5}, 2, 3)
	require.Len(t, arms, 3)
	assert.Equal(t, Arm{Origin: "AAA", Dest: "XXX", Depart: "2026-03-01", Return: "2026-03-06"}, arms[0])
	first := eff.Score(arms[0].Origin, arms[0].Dest, arms[0].Depart)
	last := eff.Score(arms[2].Origin, arms[2].Dest, arms[2].Depart)
	assert.LessOrEqual(t, first, last)
}
