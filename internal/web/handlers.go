package web

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/ProductTable/internal/catalog"
	"github.com/JonMunkholm/ProductTable/internal/core"
	"github.com/JonMunkholm/ProductTable/internal/export"
	"github.com/JonMunkholm/ProductTable/internal/logging"
	"github.com/JonMunkholm/ProductTable/internal/web/templates"
	"github.com/go-chi/chi/v5"
)

// handleIndex renders the full page for the caller's session.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.View(r.Context(), sessionID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Page(view).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "error", err)
	}
}

// handleSearch replaces the search query.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		s.respondError(w, r, err)
		return
	}
	form := searchForm{Query: r.PostForm.Get("q")}
	if err := s.bind(form); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.dispatch(w, r, core.SearchChanged{Query: form.Query})
}

// handlePrice updates the price bounds. Submitting both fields replaces
// the range; submitting one updates only that bound.
func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		s.respondError(w, r, err)
		return
	}
	form := priceForm{Min: formValue(r, "min"), Max: formValue(r, "max")}
	if err := s.bind(form); err != nil {
		s.respondError(w, r, err)
		return
	}

	var a core.Action
	switch {
	case form.Min != nil && form.Max != nil:
		a = core.PriceRangeChanged{Min: *form.Min, Max: *form.Max}
	case form.Min != nil:
		a = core.MinPriceChanged{Value: *form.Min}
	case form.Max != nil:
		a = core.MaxPriceChanged{Value: *form.Max}
	default:
		s.respondError(w, r, errInvalidForm)
		return
	}
	s.dispatch(w, r, a)
}

// handleSort toggles the sort on a column.
func (s *Server) handleSort(w http.ResponseWriter, r *http.Request) {
	params := sortParams{Key: chi.URLParam(r, "key")}
	if err := s.bind(params); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.dispatch(w, r, core.SortToggled{Key: params.Key})
}

// handleToggleRow adds or removes one product from the selection.
func (s *Server) handleToggleRow(w http.ResponseWriter, r *http.Request) {
	id, err := s.productID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.dispatch(w, r, core.RowToggled{ID: id})
}

// handleToggleAll selects every product, or clears the selection when
// everything is already selected.
func (s *Server) handleToggleAll(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, core.SelectAllToggled{})
}

// handleViewDetails opens the detail panel.
func (s *Server) handleViewDetails(w http.ResponseWriter, r *http.Request) {
	id, err := s.productID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.dispatch(w, r, core.DetailsViewed{ID: id})
}

// handleCloseDetails closes the detail panel.
func (s *Server) handleCloseDetails(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, core.DetailsClosed{})
}

// handleExportSelected streams the selected products as an XLSX workbook.
// The workbook is built in memory first so a failure never leaves a
// truncated download behind.
func (s *Server) handleExportSelected(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var buf bytes.Buffer
	rows, err := s.service.ExportSelected(r.Context(), sessionID(r), &buf)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logger := logging.WithFields(r.Context(), "rows", rows, "bytes", buf.Len())
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		logger.Warn("export write interrupted", "error", err)
		return
	}
	logger.Info("export completed", "duration_ms", time.Since(start).Milliseconds())
}

// productsResponse is the body of GET /api/products.
type productsResponse struct {
	Phase     catalog.Phase     `json:"phase"`
	Total     int               `json:"total"`
	SortKey   string            `json:"sort_key"`
	SortOrder core.SortOrder    `json:"sort_order"`
	Selected  []int64           `json:"selected"`
	Products  []catalog.Product `json:"products"`
}

// handleAPIProducts returns the pipeline output for the caller's session.
func (s *Server) handleAPIProducts(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.View(r.Context(), sessionID(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, productsResponse{
		Phase:     view.Phase,
		Total:     view.Total,
		SortKey:   view.State.EffectiveSortKey(),
		SortOrder: view.State.SortOrder,
		Selected:  view.State.SelectedIDs(),
		Products:  view.Rows,
	})
}

// handleAPIProduct returns one loaded product with every field the
// catalog sent, in catalog order.
func (s *Server) handleAPIProduct(w http.ResponseWriter, r *http.Request) {
	id, err := s.productID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	p, err := s.service.Product(id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, p)
}

// handleAPIStatus reports the catalog, session and export state.
func (s *Server) handleAPIStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.service.Status())
}

// handleHealth is the liveness probe. It succeeds while loading too.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	phase := catalog.PhaseReady
	if !s.service.Ready() {
		phase = catalog.PhaseLoading
	}
	writeJSON(w, map[string]string{"status": "ok", "phase": string(phase)})
}
