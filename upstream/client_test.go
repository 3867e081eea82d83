package upstream

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payment-service/models"
)

// closedURL returns an address nothing listens on.
func closedURL(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return "http://" + addr
}

func TestCallReturnsStatusWithoutInterpreting(t *testing.T) {
	t.Parallel()

	for _, code := range []int{http.StatusOK, http.StatusNotFound, http.StatusServiceUnavailable} {
		code := code
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
			_, _ = io.WriteString(w, "ignored")
		}))
		t.Cleanup(srv.Close)

		out := NewClient(0).Call(context.Background(), ServiceGateway, http.MethodGet, srv.URL, nil)

		assert.True(t, out.Success)
		assert.Equal(t, code, out.StatusCode)
		assert.Empty(t, out.ErrorDetail)
		assert.NoError(t, out.Err)
		assert.Equal(t, code == http.StatusOK, out.OK())
	}
}

func TestCallTransportFailure(t *testing.T) {
	t.Parallel()

	out := NewClient(0).Call(context.Background(), ServiceUser, http.MethodGet, closedURL(t)+"/check/u1", nil)

	assert.False(t, out.Success)
	assert.False(t, out.OK())
	assert.Zero(t, out.StatusCode)
	assert.Contains(t, out.ErrorDetail, "connection refused")
	assert.ErrorIs(t, out.Err, ErrTransport)
}

func TestCallSendsJSONBody(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var gotType string
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		gotType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&got)
	}))
	t.Cleanup(srv.Close)

	out := NewClient(0).Call(context.Background(), ServiceUser, http.MethodPost, srv.URL, map[string]int{"n": 1})

	require.True(t, out.OK())
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, float64(1), got["n"])
}

func TestServicesRoutes(t *testing.T) {
	t.Parallel()

	type hit struct{ method, path, body string }
	var mu sync.Mutex
	var hits []hit
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		b, _ := io.ReadAll(r.Body)
		hits = append(hits, hit{r.Method, r.URL.EscapedPath(), string(b)})
	}))
	t.Cleanup(srv.Close)

	svc := NewServices(NewClient(0), srv.URL+"/", srv.URL, srv.URL+"/charge")
	ctx := context.Background()
	order := models.Order{
		ID:     "3f1c2a9e-8d7b-4c1e-9a0f-5b6d7e8f9a0b",
		UserID: "u 1",
		Cart: models.Cart{
			Items: []models.Item{{SKU: models.ShippingSKU, Qty: 1}},
			Total: decimal.RequireFromString("12.50"),
		},
	}

	require.True(t, svc.CheckUser(ctx, "u 1").OK())
	require.True(t, svc.Charge(ctx, order.Cart).OK())
	require.True(t, svc.AppendHistory(ctx, order).OK())
	require.True(t, svc.DeleteCart(ctx, "u 1").OK())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, hits, 4)
	assert.Equal(t, hit{http.MethodGet, "/check/u%201", ""}, hits[0])
	assert.Equal(t, hit{http.MethodGet, "/charge", ""}, hits[1])
	assert.Equal(t, http.MethodPost, hits[2].method)
	assert.Equal(t, "/order/u%201", hits[2].path)
	assert.JSONEq(t,
		`{"orderid":"3f1c2a9e-8d7b-4c1e-9a0f-5b6d7e8f9a0b","cart":{"items":[{"sku":"SHIP","qty":1}],"total":12.5}}`,
		hits[2].body)
	assert.Equal(t, hit{http.MethodDelete, "/cart/u%201", ""}, hits[3])
}
