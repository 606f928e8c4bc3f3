// Package probe defines the contract between the scheduler's sweep loop and
// whatever actually queries the fare source. Probes are slow, live network
// negotiations; the loop only cares about three outcomes: a fare, "nothing
// qualifying", or "source unreachable".
package probe

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/farewatch/farewatch-cli/internal/sched"
)

// ErrNoFare means the probe completed but found no qualifying itinerary.
// The sweep loop feeds a penalty observation for the arm.
var ErrNoFare = eris.New("probe: no qualifying fare")

// ErrOffline means the fare source could not be reached at all. Transient:
// the sweep loop pauses and retries instead of penalizing the arm.
var ErrOffline = eris.New("probe: source unreachable")

// Result is a successful probe outcome.
type Result struct {
	Arm            sched.Arm
	Price          float64
	Company        string
	DurationOut    string
	DurationReturn string
}

// Request describes one probe, the arm plus its qualifying constraints.
type Request struct {
	Arm         sched.Arm
	MaxDuration time.Duration // longest acceptable single-leg flight time; 0 = unconstrained
}

// Executor runs one live probe. Implementations must honor ctx cancellation;
// a cancelled probe returns ctx.Err() and the caller ingests nothing.
type Executor interface {
	Probe(ctx context.Context, req Request) (*Result, error)
}
