// Package notify abstracts user-facing alerts raised by the sweep loop.
// Desktop toast delivery lives outside this repository; the default
// implementation writes structured log lines the host can tail.
package notify

import "go.uber.org/zap"

// Notifier receives noteworthy fare events.
type Notifier interface {
	// AllTimeLow fires when a probe beats every recorded price.
	AllTimeLow(origin, dest, depart string, price float64)
	// PriceJump fires when a fare rose sharply against a recent baseline.
	PriceJump(origin, dest string, diff, pct float64)
}

// LogNotifier writes notifications to the global logger.
type LogNotifier struct{}

func (LogNotifier) AllTimeLow(origin, dest, depart string, price float64) {
	zap.L().Info("new all-time low",
		zap.String("origin", origin),
		zap.String("dest", dest),
		zap.String("depart", depart),
		zap.Float64("price", price),
	)
}

func (LogNotifier) PriceJump(origin, dest string, diff, pct float64) {
	zap.L().Warn("price jump",
		zap.String("origin", origin),
		zap.String("dest", dest),
		zap.Float64("diff", diff),
		zap.Float64("pct", pct),
	)
}
