package kayak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farewatch/farewatch-cli/internal/sched"
)

const resultsPage = `<html><body>
<div class="result-card">
  <div class="leg"><span>7h 35m</span></div>
  <div class="leg"><span>8h 10m</span></div>
  <div class="J0g6-operator-text">British Airways</div>
  <div class="f8F1-price-text">$412</div>
</div>
<div class="result-card">
  <div class="leg"><span>3h 05m</span></div>
  <div class="leg"><span>2h 55m</span></div>
  <div class="J0g6-operator-text">Ryanair</div>
  <div class="f8F1-price-text">$1,038</div>
</div>
<div class="result-card">
  <div class="leg"><span>4h 20m</span></div>
  <div class="leg"><span>4h 45m</span></div>
  <div class="J0g6-operator-text">easyJet</div>
  <span class="js-label js-price">389</span>
</div>
</body></html>`

func TestParseResults(t *testing.T) {
	fares := parseResults(resultsPage)
	require.Len(t, fares, 3)

	assert.Equal(t, 412.0, fares[0].Price)
	assert.Equal(t, "British Airways", fares[0].Company)
	assert.Equal(t, "7h 35m", fares[0].DurationOut)
	assert.Equal(t, "8h 10m", fares[0].DurationReturn)
	assert.Equal(t, 7*time.Hour+35*time.Minute, fares[0].durOut)

	// Thousands separators are stripped.
	assert.Equal(t, 1038.0, fares[1].Price)
	assert.Equal(t, "Ryanair", fares[1].Company)

	// Legacy price markup is parsed too.
	assert.Equal(t, 389.0, fares[2].Price)
	assert.Equal(t, "easyJet", fares[2].Company)
}

func TestParseResults_Empty(t *testing.T) {
	assert.Nil(t, parseResults("<html><body>No results found</body></html>"))
}

func TestCheapestEligible(t *testing.T) {
	fares := parseResults(resultsPage)

	t.Run("unconstrained picks minimum price", func(t *testing.T) {
		best, ok := cheapestEligible(fares, 0)
		require.True(t, ok)
		assert.Equal(t, 389.0, best.Price)
	})

	t.Run("duration cap excludes long legs", func(t *testing.T) {
		// 4h cap rules out both the 7h35m outbound and the 4h45m return.
		best, ok := cheapestEligible(fares, 4*time.Hour)
		require.True(t, ok)
		assert.Equal(t, "Ryanair", best.Company)
	})

	t.Run("cap below every fare finds nothing", func(t *testing.T) {
		_, ok := cheapestEligible(fares, time.Hour)
		assert.False(t, ok)
	})
}

func TestSearchURL(t *testing.T) {
	e := New(Options{BaseURL: "https://www.kayak.example"})
	arm := sched.Arm{Origin: "LON", Dest: "PAR", Depart: "2026-03-01", Return: "2026-03-08"}
	assert.Equal(t,
		"https://www.kayak.example/flights/LON-PAR/2026-03-01/2026-03-08?sort=bestflight_a",
		e.searchURL(arm),
	)
}
