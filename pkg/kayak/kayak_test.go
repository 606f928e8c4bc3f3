package kayak

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrowserSharedAcrossProbes(t *testing.T) {
	e := New(Options{})
	defer e.Close()

	c1 := e.browser()
	c2 := e.browser()
	assert.True(t, c1 == c2, "successive probes must reuse one browser context")
}

func TestCloseTearsDownBrowser(t *testing.T) {
	e := New(Options{})

	c1 := e.browser()
	e.Close()
	require.Error(t, c1.Err())

	// After Close the next probe gets a fresh browser.
	c2 := e.browser()
	defer e.Close()
	assert.NoError(t, c2.Err())
	assert.False(t, c1 == c2)
}

func TestCloseBeforeFirstProbe(t *testing.T) {
	e := New(Options{})
	e.Close()
	e.Close()
}
