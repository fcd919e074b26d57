package catalogapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/smallbiznis/catalogadmin/internal/config"
	"github.com/smallbiznis/catalogadmin/internal/product/domain"
	"github.com/smallbiznis/catalogadmin/pkg/telemetry/correlation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPaths(baseURL string) config.CatalogAPIConfig {
	return config.CatalogAPIConfig{
		BaseURL:    baseURL,
		Timeout:    time.Second,
		ListPath:   "/products",
		GetPath:    "/products/{id}",
		CreatePath: "/products/add",
		UpdatePath: "/products/{id}",
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient(testPaths(srv.URL), srv.Client(), nil, nil)
	require.NoError(t, err)
	return client
}

func TestListSendsSerialisedQuery(t *testing.T) {
	var got *http.Request
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"content":[{"id":1,"name":"Lamp","sku":"L-1","created_at":"2024-03-01T10:15:00"}],"totalPages":4}`)
	})

	q := domain.DefaultListQuery(25)
	q.PageNo = 3
	q.NameFilter = "lamp"
	q.FromDate = domain.NewDate(2024, time.January, 2)

	page, err := client.List(context.Background(), q)
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "/products", got.URL.Path)
	params := got.URL.Query()
	assert.Equal(t, "3", params.Get("pageNo"))
	assert.Equal(t, "25", params.Get("pageSize"))
	assert.Equal(t, "createdAt", params.Get("sortField"))
	assert.Equal(t, "desc", params.Get("sortDir"))
	assert.Equal(t, "lamp", params.Get("name"))
	assert.Equal(t, "2024-01-02", params.Get("from"))
	assert.False(t, params.Has("to"))
	assert.NotEmpty(t, got.Header.Get(correlation.HeaderName))

	assert.Equal(t, 4, page.TotalPages)
	require.Len(t, page.Content, 1)
	assert.Equal(t, "Lamp", page.Content[0].Name)
	assert.Equal(t, "01/03/24 10:15", page.Content[0].CreatedAt.Display())
}

func TestListEmptyContentIsNotNil(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"totalPages":0}`)
	})

	page, err := client.List(context.Background(), domain.DefaultListQuery(10))
	require.NoError(t, err)
	assert.NotNil(t, page.Content)
	assert.Empty(t, page.Content)
}

func TestListUndecodableBodyIsTransportError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>`)
	})

	_, err := client.List(context.Background(), domain.DefaultListQuery(10))
	var transportErr *TransportError
	assert.ErrorAs(t, err, &transportErr)
}

func TestOversizedBodyIsTransportError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"content":[{"id":1,"name":"Desk Lamp"}],"totalPages":1}`)
	})
	client.maxBody = 16

	_, err := client.List(context.Background(), domain.DefaultListQuery(10))
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, "list", transportErr.Op)
	assert.ErrorIs(t, err, ErrResponseTooLarge)
}

func TestBodyAtLimitIsRead(t *testing.T) {
	body := `{"content":[],"totalPages":2}`
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, body)
	})
	client.maxBody = int64(len(body))

	page, err := client.List(context.Background(), domain.DefaultListQuery(10))
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalPages)
}

func TestCreatePostsFullRecord(t *testing.T) {
	var body map[string]any
	var path, method string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path, method = r.URL.Path, r.Method
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":77,"name":"Lamp","sku":"L-1"}`)
	})

	price := 12.5
	created, err := client.Create(context.Background(), domain.Record{Name: "Lamp", SKU: "L-1", Price: &price})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "/products/add", path)
	assert.Equal(t, []any{}, body["productImages"])
	assert.Contains(t, body, "barcode")
	assert.Equal(t, 12.5, body["price"])
	require.NotNil(t, created.ID)
	assert.Equal(t, int64(77), *created.ID)
}

func TestCreateAcceptsEmptyOrPlainBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "created")
	})

	created, err := client.Create(context.Background(), domain.Record{Name: "Lamp", SKU: "L-1"})
	require.NoError(t, err)
	assert.Equal(t, "Lamp", created.Name)
}

func TestUpdateUsesIDPath(t *testing.T) {
	var path, method string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path, method = r.URL.Path, r.Method
		w.WriteHeader(http.StatusNoContent)
	})

	_, err := client.Update(context.Background(), 42, domain.Record{Name: "Lamp", SKU: "L-1"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/products/42", path)

	_, err = client.Update(context.Background(), 0, domain.Record{})
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestStructuredErrorEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"apierror":{"message":"Validation failed","subErrors":[{"field":"sku","message":"SKU already exists"}]}}`)
	})

	_, err := client.Create(context.Background(), domain.Record{Name: "Lamp", SKU: "L-1"})
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.True(t, apiErr.Structured)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "Validation failed", apiErr.Message)
	assert.Equal(t, domain.FieldErrors{"sku": "SKU already exists"}, apiErr.FieldErrors())
}

func TestUnstructuredErrorBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "boom")
	})

	_, err := client.Create(context.Background(), domain.Record{})
	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.False(t, apiErr.Structured)
	assert.False(t, apiErr.HasSubErrors())
}

func TestGetNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.Get(context.Background(), 9)
	assert.True(t, IsNotFound(err))
}

func TestTransportErrorWhenServerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client, err := NewClient(testPaths(base), &http.Client{Timeout: time.Second}, nil, nil)
	require.NoError(t, err)

	_, err = client.List(context.Background(), domain.DefaultListQuery(10))
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, "list", transportErr.Op)
	_, isAPI := AsAPIError(err)
	assert.False(t, isAPI)
}

func TestNewClientRejectsRelativeBase(t *testing.T) {
	_, err := NewClient(testPaths("/relative"), nil, nil, nil)
	assert.True(t, errors.Is(err, ErrInvalidBaseURL))
}

func TestBasePathPrefixIsKept(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_, _ = io.WriteString(w, `{"content":[],"totalPages":0}`)
	}))
	defer srv.Close()

	client, err := NewClient(testPaths(srv.URL+"/api/"), srv.Client(), nil, nil)
	require.NoError(t, err)
	_, err = client.List(context.Background(), domain.DefaultListQuery(10))
	require.NoError(t, err)
	assert.Equal(t, "/api/products", path)
}
