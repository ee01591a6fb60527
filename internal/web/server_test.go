package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/JonMunkholm/ProductTable/internal/catalog"
	"github.com/JonMunkholm/ProductTable/internal/config"
	"github.com/JonMunkholm/ProductTable/internal/core"
	"github.com/JonMunkholm/ProductTable/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fetcherFunc func(ctx context.Context) ([]catalog.Product, error)

func (f fetcherFunc) Fetch(ctx context.Context) ([]catalog.Product, error) { return f(ctx) }

func fruit() []catalog.Product {
	return []catalog.Product{
		catalog.MustProduct(
			catalog.Field{Key: "id", Value: 1},
			catalog.Field{Key: "name", Value: "Apple"},
			catalog.Field{Key: "price", Value: 10},
		),
		catalog.MustProduct(
			catalog.Field{Key: "id", Value: 2},
			catalog.Field{Key: "name", Value: "Banana"},
			catalog.Field{Key: "price", Value: 20},
			catalog.Field{Key: "description", Value: "Yellow <fruit>"},
		),
	}
}

func testConfig(t *testing.T, vars map[string]string) *config.Config {
	t.Helper()
	env := map[string]string{"RATE_LIMIT_ENABLED": "false"}
	for k, v := range vars {
		env[k] = v
	}
	cfg, err := config.LoadFrom(env)
	require.NoError(t, err)
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config, m *metrics.Metrics) *Server {
	t.Helper()
	loader := catalog.NewLoader(fetcherFunc(func(context.Context) ([]catalog.Product, error) {
		return fruit(), nil
	}), nil)
	loader.Load(context.Background())

	srv := NewServer(core.NewService(loader, core.Options{}), cfg, m)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return srv
}

// browser carries the session cookie between requests.
type browser struct {
	t      *testing.T
	srv    *Server
	cookie *http.Cookie
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}
	rec := httptest.NewRecorder()
	b.srv.Router().ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == b.srv.cfg.Session.CookieName {
			b.cookie = c
		}
	}
	return rec
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) htmx(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	return b.do(req)
}

func TestIndex_RendersTable(t *testing.T) {
	b := &browser{t: t, srv: newTestServer(t, testConfig(t, nil), nil)}

	rec := b.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, b.cookie, "session cookie must be issued")
	assert.True(t, b.cookie.HttpOnly)

	body := rec.Body.String()
	assert.Contains(t, body, "Apple")
	assert.Contains(t, body, "Banana")
	assert.NotContains(t, body, "Download Selected as Excel")
	assert.NotContains(t, body, "Loading...")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestIndex_LoadingPhase(t *testing.T) {
	release := make(chan struct{})
	loader := catalog.NewLoader(fetcherFunc(func(ctx context.Context) ([]catalog.Product, error) {
		<-release
		return fruit(), nil
	}), nil)
	loader.Start(context.Background())
	defer close(release)

	srv := NewServer(core.NewService(loader, core.Options{}), testConfig(t, nil), nil)
	b := &browser{t: t, srv: srv}

	rec := b.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Loading...")
	assert.NotContains(t, rec.Body.String(), "<table>")

	rec = b.get("/healthz")
	assert.JSONEq(t, `{"status":"ok","phase":"loading"}`, rec.Body.String())
}

func TestSelectAndExport(t *testing.T) {
	b := &browser{t: t, srv: newTestServer(t, testConfig(t, nil), nil)}
	b.get("/")

	rec := b.post("/rows/2/toggle", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	assert.Contains(t, b.get("/").Body.String(), "Download Selected as Excel")

	rec = b.get("/export/selected")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="selected_products.xlsx"`, rec.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Selected Products")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"id", "name", "price", "description"}, rows[0])
	assert.Equal(t, []string{"2", "Banana", "20", "Yellow <fruit>"}, rows[1])
}

func TestExport_NothingSelected(t *testing.T) {
	b := &browser{t: t, srv: newTestServer(t, testConfig(t, nil), nil)}

	rec := b.get("/export/selected")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "EXP001")
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
}

func TestExport_PlainTextError(t *testing.T) {
	b := &browser{t: t, srv: newTestServer(t, testConfig(t, nil), nil)}

	rec := b.get("/export/selected")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No products are selected (Code: EXP001). Select at least one row before downloading\n", rec.Body.String())
}

func TestHTMXErrorRendersAlert(t *testing.T) {
	b := &browser{t: t, srv: newTestServer(t, testConfig(t, nil), nil)}

	rec := b.htmx("/price", url.Values{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `<div class="alert" role="alert"><strong>`)
	assert.Contains(t, rec.Body.String(), "<small>Code: REQ003</small>")
}

func TestSessionsAreIsolated(t *testing.T) {
	srv := newTestServer(t, testConfig(t, nil), nil)
	alice := &browser{t: t, srv: srv}
	bob := &browser{t: t, srv: srv}
	alice.get("/")
	bob.get("/")
	require.NotEqual(t, alice.cookie.Value, bob.cookie.Value)

	alice.post("/rows/1/toggle", nil)

	assert.Contains(t, alice.get("/").Body.String(), "Download Selected as Excel")
	assert.NotContains(t, bob.get("/").Body.String(), "Download Selected as Excel")
}

func TestHTMXSearchReturnsPartial(t *testing.T) {
	b := &browser{t: t, srv: newTestServer(t, testConfig(t, nil), nil)}

	rec := b.htmx("/search", url.Values{"q": {"ban"}})
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.NotContains(t, body, "<!DOCTYPE html>")
	assert.Contains(t, body, `id="product-table"`)
	assert.Contains(t, body, "Banana")
	assert.NotContains(t, body, "Apple")
}

func TestSortIndicator(t *testing.T) {
	b := &browser{t: t, srv: newTestServer(t, testConfig(t, nil), nil)}

	body := b.htmx("/sort/name", nil).Body.String()
	assert.Contains(t, body, "Name ▲")

	body = b.htmx("/sort/name", nil).Body.String()
	assert.Contains(t, body, "Name ▼")
	assert.Less(t, strings.Index(body, "Banana"), strings.Index(body, "Apple"))
}

func TestPriceForm(t *testing.T) {
	b := &browser{t: t, srv: newTestServer(t, testConfig(t, nil), nil)}

	body := b.htmx("/price", url.Values{"min": {"15"}, "max": {"25"}}).Body.String()
	assert.Contains(t, body, "Banana")
	assert.NotContains(t, body, "Apple")

	body = b.htmx("/price", url.Values{"min": {"abc"}}).Body.String()
	assert.Contains(t, body, `aria-invalid="true"`)
	assert.Contains(t, body, "Apple", "non-numeric bound is unconstrained")
	assert.Contains(t, body, "Banana")

	body = b.htmx("/price", url.Values{"max": {"15"}}).Body.String()
	assert.Contains(t, body, "Apple")
	assert.NotContains(t, body, "Banana")
	assert.Contains(t, body, `value="abc"`, "min input is kept")

	rec := b.htmx("/price", url.Values{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "REQ003")
}

func TestDetailsPanel(t *testing.T) {
	b := &browser{t: t, srv: newTestServer(t, testConfig(t, nil), nil)}

	body := b.htmx("/details/2", nil).Body.String()
	assert.Contains(t, body, `class="detail"`)
	assert.Contains(t, body, "Yellow &lt;fruit&gt;")
	assert.NotContains(t, body, "Download Selected as Excel", "viewing details does not select")

	body = b.htmx("/details/close", nil).Body.String()
	assert.NotContains(t, body, `class="detail"`)
}

func TestInvalidRequests(t *testing.T) {
	b := &browser{t: t, srv: newTestServer(t, testConfig(t, nil), nil)}

	tests := []struct {
		path string
		code string
	}{
		{"/rows/abc/toggle", "REQ001"},
		{"/rows/0/toggle", "REQ001"},
		{"/details/-4", "REQ001"},
		{"/sort/a$b", "REQ003"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, nil)
			req.Header.Set("Accept", "application/json")
			rec := b.do(req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestAPIProducts(t *testing.T) {
	b := &browser{t: t, srv: newTestServer(t, testConfig(t, nil), nil)}
	b.post("/rows/1/toggle", nil)
	b.post("/search", url.Values{"q": {"app"}})

	rec := b.get("/api/products")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Phase    string            `json:"phase"`
		Total    int               `json:"total"`
		Selected []int64           `json:"selected"`
		Products []json.RawMessage `json:"products"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ready", resp.Phase)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, []int64{1}, resp.Selected)
	require.Len(t, resp.Products, 1)
	assert.JSONEq(t, `{"id":1,"name":"Apple","price":10}`, string(resp.Products[0]))
}

func TestAPIProduct(t *testing.T) {
	b := &browser{t: t, srv: newTestServer(t, testConfig(t, nil), nil)}

	rec := b.get("/api/products/2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":2,"name":"Banana","price":20,"description":"Yellow <fruit>"}`, rec.Body.String())

	tests := []struct {
		path   string
		status int
		code   string
	}{
		{"/api/products/42", http.StatusNotFound, "REQ002"},
		{"/api/products/abc", http.StatusBadRequest, "REQ001"},
		{"/api/products/0", http.StatusBadRequest, "REQ001"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := b.get(tt.path)
			assert.Equal(t, tt.status, rec.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestPageLoadsEnhancementScript(t *testing.T) {
	b := &browser{t: t, srv: newTestServer(t, testConfig(t, nil), nil)}

	assert.Contains(t, b.get("/").Body.String(), `<script src="/static/app.js" defer></script>`)

	rec := b.get("/static/app.js")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"HX-Request": "true"`)
}

func TestAPIStatusAndMetrics_RequireKey(t *testing.T) {
	cfg := testConfig(t, map[string]string{"REQUIRE_API_KEY": "true", "API_KEYS": "secret"})
	b := &browser{t: t, srv: newTestServer(t, cfg, metrics.New(false))}

	assert.Equal(t, http.StatusUnauthorized, b.get("/api/status").Code)
	assert.Equal(t, http.StatusUnauthorized, b.get("/metrics").Code)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("X-API-Key", "secret")
	rec := b.do(req)
	require.Equal(t, http.StatusOK, rec.Code)

	var st core.ServiceStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, catalog.PhaseReady, st.Catalog.Phase)
	assert.Equal(t, 2, st.Catalog.ProductCount)

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("X-API-Key", "secret")
	rec = b.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "product_table_request_duration_seconds")
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig(t, map[string]string{
		"RATE_LIMIT_ENABLED":             "true",
		"RATE_LIMIT_REQUESTS_PER_MINUTE": "1",
		"RATE_LIMIT_BURST":               "2",
	})
	srv := newTestServer(t, cfg, nil)

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "203.0.113.10:1234"
		req.Header.Set("Accept", "application/json")
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send().Code)
	assert.Equal(t, http.StatusOK, send().Code)

	rec := send()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "RATE001")
}

func TestStaticStylesheet(t *testing.T) {
	b := &browser{t: t, srv: newTestServer(t, testConfig(t, nil), nil)}
	rec := b.get("/static/app.css")
	assert.Equal(t, http.StatusOK, rec.Code)
}
