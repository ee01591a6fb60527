// Package web provides HTTP handlers for the product table application.
// This file contains shared utilities and helper functions used across handlers.
package web

import (
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strconv"

	"github.com/JonMunkholm/ProductTable/internal/core"
	"github.com/JonMunkholm/ProductTable/internal/logging"
	"github.com/JonMunkholm/ProductTable/internal/web/templates"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// maxFormBytes bounds intent form bodies.
const maxFormBytes = 64 << 10

var sortKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// newValidator returns a validator with the sortkey tag registered.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("sortkey", func(fl validator.FieldLevel) bool {
		return sortKeyPattern.MatchString(fl.Field().String())
	})
	return v
}

// searchForm is the body of POST /search.
type searchForm struct {
	Query string `validate:"max=200"`
}

// priceForm is the body of POST /price. A nil field was not submitted.
type priceForm struct {
	Min *string `validate:"omitnil,max=64"`
	Max *string `validate:"omitnil,max=64"`
}

// sortParams is the path of POST /sort/{key}.
type sortParams struct {
	Key string `validate:"required,max=64,sortkey"`
}

// idParams is the path of the row and detail intents.
type idParams struct {
	ID int64 `validate:"gt=0"`
}

// bind validates v and wraps failures as invalid input.
func (s *Server) bind(v any) error {
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %w", errInvalidForm, err)
	}
	return nil
}

// parseForm reads an intent form with a bounded body.
func parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("%w: %w", errInvalidForm, err)
	}
	return nil
}

// formValue returns the posted value for key, or nil when absent.
func formValue(r *http.Request, key string) *string {
	if _, ok := r.PostForm[key]; !ok {
		return nil
	}
	v := r.PostForm.Get(key)
	return &v
}

// productID parses and validates the {id} path parameter.
func (s *Server) productID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", errInvalidID, raw)
	}
	if err := s.validate.Struct(idParams{ID: id}); err != nil {
		return 0, fmt.Errorf("%w: %q", errInvalidID, raw)
	}
	return id, nil
}

// dispatch applies an intent to the caller's session. HTMX requests get
// the table partial; plain form posts are redirected back to the page.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, a core.Action) {
	view, err := s.service.Dispatch(r.Context(), sessionID(r), a)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		partial := templates.Table(view)
		if view.Loading() {
			partial = templates.Loading()
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := partial.Render(r.Context(), w); err != nil {
			logging.FromContext(r.Context()).Error("render partial", "error", err, "intent", a.Name())
		}
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// clientIP returns the request's remote IP without the port.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
