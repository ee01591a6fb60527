package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/JonMunkholm/ProductTable/internal/catalog"
	"github.com/JonMunkholm/ProductTable/internal/export"
	"golang.org/x/text/language"
)

var (
	// ErrNothingSelected is returned when an export is requested with an
	// empty selection.
	ErrNothingSelected = errors.New("no products selected")

	// ErrCatalogLoading is returned by operations that need the product
	// list before the catalog fetch has completed.
	ErrCatalogLoading = errors.New("catalog is still loading")

	// ErrUnknownProduct is returned when an id is not in the product list.
	ErrUnknownProduct = errors.New("unknown product")
)

// Recorder receives service events for metrics. All methods must be safe
// for concurrent use.
type Recorder interface {
	IntentApplied(name string)
	ExportCompleted(rows int, d time.Duration)
	ExportFailed(code string)
	SessionsActive(n int)
}

type nopRecorder struct{}

func (nopRecorder) IntentApplied(string) {}
func (nopRecorder) ExportCompleted(int, time.Duration) {}
func (nopRecorder) ExportFailed(string) {}
func (nopRecorder) SessionsActive(int) {}

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	Locale              language.Tag
	TextSort            bool
	SessionTTL          time.Duration
	ExportMaxConcurrent int
	ExportMaxWait       time.Duration
	Recorder            Recorder
}

// Service is the entry point for the web layer: it ties the catalog
// loader, the per-session View States, the view pipeline and the export
// step together.
type Service struct {
	loader   *catalog.Loader
	sessions *Sessions
	pipeline Pipeline
	limiter  *ExportLimiter
	recorder Recorder
}

// NewService creates a service reading products from loader.
func NewService(loader *catalog.Loader, opts Options) *Service {
	if opts.Locale == language.Und {
		opts.Locale = language.English
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	return &Service{
		loader:   loader,
		sessions: NewSessions(opts.SessionTTL),
		pipeline: NewPipeline(opts.Locale, opts.TextSort),
		limiter:  NewExportLimiter(opts.ExportMaxConcurrent, opts.ExportMaxWait),
		recorder: opts.Recorder,
	}
}

// View is everything a renderer needs for one session.
type View struct {
	Phase       catalog.Phase
	State       State
	Rows        []catalog.Product // pipeline output
	Total       int               // size of the raw product list
	AllSelected bool
	Bounds      PriceBounds
}

// Loading reports whether the catalog fetch is still running.
func (v View) Loading() bool {
	return v.Phase == catalog.PhaseLoading
}

// ServiceStatus is reported by the status endpoint.
type ServiceStatus struct {
	Catalog  catalog.Status      `json:"catalog"`
	Sessions int                 `json:"sessions"`
	Exports  ExportLimiterStatus `json:"exports"`
}

// Status returns the loader, session and export state.
func (s *Service) Status() ServiceStatus {
	return ServiceStatus{
		Catalog:  s.loader.Status(),
		Sessions: s.sessions.Len(),
		Exports:  s.limiter.Status(),
	}
}

// Ready reports whether the catalog fetch has completed.
func (s *Service) Ready() bool {
	return s.loader.Ready()
}

// EnsureSession returns id if it is a live session, otherwise a new one.
func (s *Service) EnsureSession(id string) (string, bool) {
	sid, created := s.sessions.Ensure(id)
	if created {
		s.recorder.SessionsActive(s.sessions.Len())
		slog.Debug("session created", "session_id", sid)
	}
	return sid, created
}

// View computes the current view for a session.
func (s *Service) View(ctx context.Context, sessionID string) (View, error) {
	st, err := s.sessions.Snapshot(sessionID)
	if err != nil {
		return View{}, err
	}
	return s.buildView(st), nil
}

// Dispatch applies an intent to a session and returns the resulting view.
func (s *Service) Dispatch(ctx context.Context, sessionID string, a Action) (View, error) {
	st, err := s.sessions.Dispatch(sessionID, a, s.loader.Products())
	if err != nil {
		return View{}, err
	}
	s.recorder.IntentApplied(a.Name())
	slog.Debug("intent applied",
		"session_id", sessionID,
		"intent", a.Name(),
		"selected", st.SelectedCount(),
	)
	return s.buildView(st), nil
}

func (s *Service) buildView(st State) View {
	phase := catalog.PhaseReady
	if !s.loader.Ready() {
		phase = catalog.PhaseLoading
	}
	raw := s.loader.Products()
	return View{
		Phase:       phase,
		State:       st,
		Rows:        s.pipeline.Apply(raw, st),
		Total:       len(raw),
		AllSelected: st.IsAllSelected(len(raw)),
		Bounds:      st.PriceBounds(),
	}
}

// Product returns the loaded product with id.
func (s *Service) Product(id int64) (catalog.Product, error) {
	raw := s.loader.Products()
	if i := indexOf(raw, id); i >= 0 {
		return raw[i], nil
	}
	return catalog.Product{}, fmt.Errorf("%w: %d", ErrUnknownProduct, id)
}

// ExportSelected writes the session's selected products as an XLSX
// workbook to w and returns the number of rows exported. Rows follow the
// raw list order, not the current sort.
func (s *Service) ExportSelected(ctx context.Context, sessionID string, w io.Writer) (int, error) {
	if !s.loader.Ready() {
		return 0, ErrCatalogLoading
	}
	st, err := s.sessions.Snapshot(sessionID)
	if err != nil {
		return 0, err
	}

	selected := export.Project(s.loader.Products(), st.SelectedSet())
	if len(selected) == 0 {
		return 0, ErrNothingSelected
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		s.recorder.ExportFailed(MapError(err).Code)
		return 0, err
	}
	defer s.limiter.Release()

	start := time.Now()
	if err := export.WriteXLSX(w, selected); err != nil {
		s.recorder.ExportFailed(MapError(err).Code)
		return 0, err
	}

	s.recorder.ExportCompleted(len(selected), time.Since(start))
	return len(selected), nil
}

// WaitForExports blocks until running exports finish or ctx is done.
func (s *Service) WaitForExports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
