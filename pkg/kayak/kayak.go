// Package kayak probes Kayak round-trip search pages with a headless
// browser and extracts the cheapest eligible fare.
package kayak

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/farewatch/farewatch-cli/internal/probe"
	"github.com/farewatch/farewatch-cli/internal/sched"
)

const defaultBaseURL = "https://www.kayak.com"

// Options configures the executor.
type Options struct {
	// BaseURL is the Kayak host, without trailing slash.
	BaseURL string
	// Headless controls whether Chrome runs without a window.
	Headless bool
	// Settle is how long to wait after navigation for results to load.
	Settle time.Duration
}

// Executor runs fare probes against Kayak. It implements probe.Executor.
// One Chrome process is shared across probes; each probe opens its own tab.
type Executor struct {
	opts Options

	mu            sync.Mutex
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
}

// New creates an Executor. Chrome launches lazily on the first probe.
func New(opts Options) *Executor {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Settle <= 0 {
		opts.Settle = 30 * time.Second
	}
	return &Executor{opts: opts}
}

// browser returns the shared browser context, starting it on first use.
// The browser outlives individual probe contexts, so it hangs off
// context.Background and is torn down by Close.
func (e *Executor) browser() context.Context {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.browserCtx != nil && e.browserCtx.Err() == nil {
		return e.browserCtx
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", e.opts.Headless),
		chromedp.Flag("disable-gpu", true),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	e.allocCancel = cancelAlloc
	e.browserCtx = browserCtx
	e.browserCancel = cancelBrowser
	return browserCtx
}

// Close shuts down the shared browser. Safe to call before any probe ran.
func (e *Executor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.browserCancel != nil {
		e.browserCancel()
		e.browserCancel = nil
		e.browserCtx = nil
	}
	if e.allocCancel != nil {
		e.allocCancel()
		e.allocCancel = nil
	}
}

// searchURL builds the round-trip results URL, sorted by best flight.
func (e *Executor) searchURL(arm sched.Arm) string {
	return fmt.Sprintf("%s/flights/%s-%s/%s/%s?sort=bestflight_a",
		e.opts.BaseURL, arm.Origin, arm.Dest, arm.Depart, arm.Return)
}

// Probe fetches the results page for one route and date pair and returns
// the cheapest fare whose legs fit within req.MaxDuration. It returns
// probe.ErrNoFare when the page loads but carries no eligible result and
// probe.ErrOffline when the browser cannot reach the network.
func (e *Executor) Probe(ctx context.Context, req probe.Request) (*probe.Result, error) {
	tabCtx, cancelTab := chromedp.NewContext(e.browser())
	defer cancelTab()

	// Propagate caller cancellation and deadlines into the tab.
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	url := e.searchURL(req.Arm)
	zap.L().Debug("kayak: probing",
		zap.String("arm", req.Arm.Key()),
		zap.String("url", url),
	)

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(e.opts.Settle),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if isNetworkErr(err) {
			return nil, eris.Wrap(probe.ErrOffline, "kayak: navigate")
		}
		return nil, eris.Wrapf(err, "kayak: load %s", url)
	}

	fares := parseResults(html)
	fare, ok := cheapestEligible(fares, req.MaxDuration)
	if !ok {
		return nil, eris.Wrapf(probe.ErrNoFare, "kayak: %s", req.Arm.Key())
	}

	return &probe.Result{
		Arm:            req.Arm,
		Price:          fare.Price,
		Company:        fare.Company,
		DurationOut:    fare.DurationOut,
		DurationReturn: fare.DurationReturn,
	}, nil
}

// isNetworkErr reports whether a chromedp error indicates the machine is
// offline rather than the page being broken.
func isNetworkErr(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"net::err_internet_disconnected",
		"net::err_name_not_resolved",
		"net::err_connection_refused",
		"net::err_connection_reset",
		"net::err_network_changed",
		"net::err_address_unreachable",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
