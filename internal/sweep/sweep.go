// Package sweep drives the probe loop: once per sweep it asks the scheduler
// for a batch of candidate itineraries, executes each probe, and feeds the
// outcome straight back into the archive so later candidates in the same
// sweep benefit from what earlier ones learned.
package sweep

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/farewatch/farewatch-cli/internal/config"
	"github.com/farewatch/farewatch-cli/internal/notify"
	"github.com/farewatch/farewatch-cli/internal/probe"
	"github.com/farewatch/farewatch-cli/internal/records"
	"github.com/farewatch/farewatch-cli/internal/resilience"
	"github.com/farewatch/farewatch-cli/internal/sched"
)

const (
	dayFormat = "2006-01-02"
	tsFormat  = "2006-01-02-15"

	// priceJumpFactor triggers the jump alert when a fare rose this much
	// against the fare recorded three days earlier.
	priceJumpFactor   = 1.10
	priceJumpBaseline = 72 * time.Hour
)

// Stats summarizes one sweep.
type Stats struct {
	Proposed  int
	Probed    int
	Fares     int
	NoFare    int
	Offline   bool
	Cancelled bool
}

// Runner owns the sweep loop's collaborators.
type Runner struct {
	cfg      *config.Config
	store    *sched.FileStore
	log      *records.Log
	exec     probe.Executor
	notifier notify.Notifier
	limiter  *rate.Limiter
	retry    resilience.RetryConfig
	rng      *rand.Rand
	now      func() time.Time

	arch *sched.Archive
}

// New assembles a runner. A nil notifier falls back to log-only alerts.
func New(cfg *config.Config, store *sched.FileStore, log *records.Log, exec probe.Executor, notifier notify.Notifier) *Runner {
	if notifier == nil {
		notifier = notify.LogNotifier{}
	}
	perMin := cfg.Probe.ProbesPerMinute
	if perMin <= 0 {
		perMin = 2
	}
	retry := resilience.DefaultRetryConfig()
	retry.InitialBackoff = cfg.Probe.OfflineWait()
	return &Runner{
		cfg:      cfg,
		store:    store,
		log:      log,
		exec:     exec,
		notifier: notifier,
		limiter:  rate.NewLimiter(rate.Limit(perMin/60.0), 1),
		retry:    retry,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:      time.Now,
	}
}

// Run executes sweeps until the context is cancelled. The archive loads
// once, catches up from the record log, and persists after every mutation,
// so an interruption loses at most the in-flight probe.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.prepare(); err != nil {
		return err
	}

	for {
		stats, err := r.RunOnce(ctx)
		if err != nil {
			return err
		}
		if stats.Cancelled {
			return nil
		}

		pause := r.cfg.Probe.SweepPause()
		if stats.Offline {
			pause = r.cfg.Probe.OfflineWait()
		}
		zap.L().Info("sweep complete",
			zap.Int("proposed", stats.Proposed),
			zap.Int("probed", stats.Probed),
			zap.Int("fares", stats.Fares),
			zap.Int("no_fare", stats.NoFare),
			zap.Bool("offline", stats.Offline),
			zap.Duration("pause", pause),
		)

		timer := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// prepare loads the archive and replays any record-log history the archive
// has not seen yet.
func (r *Runner) prepare() error {
	r.arch = r.store.Load()

	history, err := r.log.All()
	if err != nil {
		return eris.Wrap(err, "sweep: read record log")
	}
	if n := r.arch.Bootstrap(ToHistorical(history)); n > 0 {
		r.store.Save(r.arch)
	}
	return nil
}

// RunOnce performs a single sweep: decay, propose, probe, ingest.
func (r *Runner) RunOnce(ctx context.Context) (Stats, error) {
	if r.arch == nil {
		if err := r.prepare(); err != nil {
			return Stats{}, err
		}
	}

	sweepID := uuid.New().String()[:8]
	log := zap.L().With(zap.String("sweep_id", sweepID))

	today := r.now().Format(dayFormat)
	r.arch.Decay(today)
	r.store.Save(r.arch)

	batch := r.arch.ProposeBatch(r.batchParams(), r.rng)
	stats := Stats{Proposed: len(batch)}
	log.Info("sweep proposed batch", zap.Int("candidates", len(batch)))

	for _, arm := range batch {
		if err := r.limiter.Wait(ctx); err != nil {
			stats.Cancelled = true
			return stats, nil
		}

		log.Info("probing", zap.String("arm", arm.String()))
		res, err := r.probeOnce(ctx, arm)
		stats.Probed++

		switch {
		case ctx.Err() != nil:
			// An aborted probe must not train the archive.
			stats.Cancelled = true
			return stats, nil

		case err == nil:
			stats.Fares++
			r.ingestFare(arm, res, today, log)

		case eris.Is(err, probe.ErrNoFare):
			stats.NoFare++
			r.ingestFailure(arm, today, log)

		default:
			// Source unreachable even after retries: pause the sweep
			// rather than mis-train arms with penalty observations.
			log.Warn("fare source offline, pausing sweep", zap.Error(err))
			stats.Offline = true
			return stats, nil
		}
	}

	return stats, nil
}

func (r *Runner) batchParams() sched.BatchParams {
	return sched.BatchParams{
		Origins:         r.cfg.Search.Origins,
		Dests:           r.cfg.Search.Destinations,
		Dates:           BuildDatePool(r.cfg.Search.WindowStart, r.cfg.Search.WindowEnd, r.cfg.Search.TripLengths),
		TripLengths:     r.cfg.Search.TripLengths,
		Q:               r.cfg.Sched.SamplesPerSweep,
		RandomFloorFrac: r.cfg.Sched.RandomFloorFrac,
		BeamK:           r.cfg.Sched.BeamK,
	}
}

// probeOnce runs one probe with retry on transient unreachability. ErrNoFare
// is a completed probe, never retried.
func (r *Runner) probeOnce(ctx context.Context, arm sched.Arm) (*probe.Result, error) {
	cfg := r.retry
	cfg.ShouldRetry = func(err error) bool {
		return eris.Is(err, probe.ErrOffline) || resilience.IsTransient(err)
	}
	cfg.OnRetry = resilience.RetryLogger("probe")

	return resilience.DoVal(ctx, cfg, func(ctx context.Context) (*probe.Result, error) {
		probeCtx, cancel := context.WithTimeout(ctx, r.cfg.Probe.Timeout())
		defer cancel()
		return r.exec.Probe(probeCtx, probe.Request{
			Arm:         arm,
			MaxDuration: time.Duration(r.cfg.Search.MaxFlightHrs * float64(time.Hour)),
		})
	})
}

// ingestFare records a successful probe: append to the fare log, update the
// archive, persist, and raise alerts.
func (r *Runner) ingestFare(arm sched.Arm, res *probe.Result, today string, log *zap.Logger) {
	prevBest, err := r.log.GlobalBest()
	if err != nil {
		log.Warn("global best lookup failed", zap.Error(err))
	}

	now := r.now()
	rec := records.Record{
		Timestamp:      now.Format(tsFormat),
		Origin:         arm.Origin,
		Dest:           arm.Dest,
		Company:        res.Company,
		DurationOut:    res.DurationOut,
		DurationReturn: res.DurationReturn,
		Price:          res.Price,
		Depart:         arm.Depart,
		Return:         arm.Return,
	}
	if err := r.log.Save(rec); err != nil {
		log.Warn("record save failed", zap.Error(err))
	}

	r.arch.AddObservation(arm.Key(), res.Price, today)
	r.store.Save(r.arch)

	log.Info("fare observed",
		zap.String("arm", arm.String()),
		zap.Float64("price", res.Price),
		zap.String("company", res.Company),
	)

	if prevBest == 0 || res.Price < prevBest {
		r.notifier.AllTimeLow(arm.Origin, arm.Dest, arm.Depart, res.Price)
	}

	baselineTS := now.Add(-priceJumpBaseline).Format(tsFormat)
	if old, err := r.log.Get(baselineTS); err == nil && old != nil && old.Price > 0 {
		if res.Price > old.Price*priceJumpFactor {
			diff := res.Price - old.Price
			r.notifier.PriceJump(arm.Origin, arm.Dest, diff, diff/old.Price*100)
		}
	}
}

// ingestFailure feeds the penalty observation for a probe that found no
// qualifying fare.
func (r *Runner) ingestFailure(arm sched.Arm, today string, log *zap.Logger) {
	globalBest, err := r.log.GlobalBest()
	if err != nil {
		log.Warn("global best lookup failed", zap.Error(err))
	}
	r.arch.AddFailure(arm.Key(), globalBest, r.cfg.Sched.PenaltyFactor, today)
	r.store.Save(r.arch)

	log.Info("no qualifying fare, penalty ingested",
		zap.String("arm", arm.String()),
		zap.Float64("global_best", globalBest),
	)
}

// BuildDatePool expands a search window into candidate outbound dates,
// trimmed so that every allowed trip length still returns inside the
// window.
func BuildDatePool(windowStart, windowEnd string, tripLengths []int) []string {
	start, err := time.Parse(dayFormat, windowStart)
	if err != nil {
		return nil
	}
	end, err := time.Parse(dayFormat, windowEnd)
	if err != nil {
		return nil
	}
	if len(tripLengths) == 0 {
		return nil
	}

	longest := tripLengths[0]
	for _, l := range tripLengths[1:] {
		if l > longest {
			longest = l
		}
	}
	latestDepart := end.AddDate(0, 0, -longest)

	var pool []string
	for d := start; !d.After(latestDepart); d = d.AddDate(0, 0, 1) {
		pool = append(pool, d.Format(dayFormat))
	}
	return pool
}

// ToHistorical converts fare-log rows into the scheduler's replay form.
func ToHistorical(recs []records.Record) []sched.HistoricalRecord {
	out := make([]sched.HistoricalRecord, 0, len(recs))
	for _, rec := range recs {
		out = append(out, sched.HistoricalRecord{
			Timestamp: rec.When(),
			Origin:    rec.Origin,
			Dest:      rec.Dest,
			Depart:    rec.Depart,
			Return:    rec.Return,
			Price:     rec.Price,
		})
	}
	return out
}
