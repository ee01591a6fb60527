package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCatalogServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Empty(t, r.URL.RawQuery, "catalog request must not carry query parameters")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Fetch(t *testing.T) {
	srv := newCatalogServer(t, http.StatusOK,
		`{"products":[{"id":1,"name":"Apple","price":10},{"id":2,"name":"Banana","price":20}],"total":2,"skip":0,"limit":30}`)

	c := NewClient(srv.Client(), ClientOptions{URL: srv.URL})
	products, err := c.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Apple", products[0].DisplayName())
	assert.Equal(t, int64(2), products[1].ID)
}

func TestClient_FetchKeepsBadPriceRecord(t *testing.T) {
	srv := newCatalogServer(t, http.StatusOK,
		`{"products":[{"id":1,"name":"Apple","price":10},{"id":2,"name":"Banana","price":"N/A"},{"id":3,"name":"Cherry","price":30}]}`)

	c := NewClient(srv.Client(), ClientOptions{URL: srv.URL})
	products, err := c.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 3)

	assert.True(t, products[0].HasPrice())
	assert.False(t, products[1].HasPrice())
	v, ok := products[1].Field("price")
	require.True(t, ok)
	assert.Equal(t, "N/A", v)
	assert.True(t, products[2].HasPrice())
}

func TestClient_FetchErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		is     error
	}{
		{"server error", http.StatusInternalServerError, `oops`, ErrCatalogStatus},
		{"not found", http.StatusNotFound, `{}`, ErrCatalogStatus},
		{"malformed json", http.StatusOK, `{"products":[`, nil},
		{"product without id", http.StatusOK, `{"products":[{"name":"x"}]}`, ErrMissingID},
		{"duplicate ids", http.StatusOK, `{"products":[{"id":1},{"id":1}]}`, ErrDuplicateID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newCatalogServer(t, tt.status, tt.body)
			c := NewClient(srv.Client(), ClientOptions{URL: srv.URL})

			products, err := c.Fetch(context.Background())
			require.Error(t, err)
			assert.Nil(t, products)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestClient_FetchEmptyPayload(t *testing.T) {
	srv := newCatalogServer(t, http.StatusOK, `{}`)
	c := NewClient(srv.Client(), ClientOptions{URL: srv.URL})

	products, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestClient_UserAgent(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("User-Agent")
		w.Write([]byte(`{"products":[]}`))
	}))
	defer srv.Close()

	c := NewClient(nil, ClientOptions{URL: srv.URL, UserAgent: "producttable/test"})
	_, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "producttable/test", got)
}

func TestNewClient_DefaultURL(t *testing.T) {
	c := NewClient(nil, ClientOptions{})
	assert.Equal(t, DefaultURL, c.URL())
}
