package catalog

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Phase is the top-level application state.
type Phase string

const (
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
)

// Result is the outcome of the catalog fetch. Err is non-nil when the fetch
// failed; Products is then empty.
type Result struct {
	Products  []Product
	Err       error
	FetchedAt time.Time
	Duration  time.Duration
}

// OK reports whether the fetch succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Status is a point-in-time view of the loader for status endpoints.
type Status struct {
	Phase        Phase         `json:"phase"`
	ProductCount int           `json:"product_count"`
	Error        string        `json:"error,omitempty"`
	FetchedAt    *time.Time    `json:"fetched_at,omitempty"`
	Duration     time.Duration `json:"duration_ns,omitempty"`
}

// Observer is notified once when the loader reaches Ready.
type Observer func(Result)

// Loader runs the single catalog fetch and holds the result.
//
// It starts in PhaseLoading. Start moves it to PhaseReady exactly once,
// whether the fetch succeeds or fails. Failures are logged and leave an
// empty product list behind.
type Loader struct {
	fetcher  Fetcher
	observer Observer

	once  sync.Once
	ready chan struct{}

	mu     sync.RWMutex
	result Result
}

// NewLoader creates a loader over fetcher. observer may be nil.
func NewLoader(fetcher Fetcher, observer Observer) *Loader {
	return &Loader{
		fetcher:  fetcher,
		observer: observer,
		ready:    make(chan struct{}),
	}
}

// Start launches the fetch in the background. Calls after the first are
// no-ops: the catalog is never refetched.
func (l *Loader) Start(ctx context.Context) {
	l.once.Do(func() {
		go l.run(ctx)
	})
}

// Load runs the fetch synchronously. Like Start it only ever fetches once.
func (l *Loader) Load(ctx context.Context) Result {
	l.once.Do(func() {
		l.run(ctx)
	})
	<-l.ready
	return l.Result()
}

func (l *Loader) run(ctx context.Context) {
	start := time.Now()
	products, err := l.fetcher.Fetch(ctx)

	res := Result{
		FetchedAt: time.Now(),
		Duration:  time.Since(start),
	}
	if err != nil {
		slog.Error("error fetching catalog", "error", err, "duration_ms", res.Duration.Milliseconds())
		res.Err = err
		res.Products = []Product{}
	} else {
		if products == nil {
			products = []Product{}
		}
		res.Products = products
		slog.Info("catalog loaded", "products", len(products), "duration_ms", res.Duration.Milliseconds())
	}

	l.mu.Lock()
	l.result = res
	l.mu.Unlock()

	if l.observer != nil {
		l.observer(res)
	}
	close(l.ready)
}

// Ready reports whether the fetch has completed.
func (l *Loader) Ready() bool {
	select {
	case <-l.ready:
		return true
	default:
		return false
	}
}

// Products returns the raw product list, empty while loading.
// Callers must not modify the returned slice.
func (l *Loader) Products() []Product {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.result.Products
}

// Result returns the fetch outcome, zero while loading.
func (l *Loader) Result() Result {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.result
}

// Status reports the loader phase and outcome.
func (l *Loader) Status() Status {
	if !l.Ready() {
		return Status{Phase: PhaseLoading}
	}
	res := l.Result()
	st := Status{
		Phase:        PhaseReady,
		ProductCount: len(res.Products),
		Duration:     res.Duration,
	}
	if !res.FetchedAt.IsZero() {
		t := res.FetchedAt
		st.FetchedAt = &t
	}
	if res.Err != nil {
		st.Error = res.Err.Error()
	}
	return st
}
