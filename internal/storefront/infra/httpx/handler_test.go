package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/necs-cart/internal/cart"
	"github.com/jcmexdev/necs-cart/internal/notify"
	"github.com/jcmexdev/necs-cart/internal/pkg/health"
	"github.com/jcmexdev/necs-cart/internal/pkg/interceptors/constants"
	"github.com/jcmexdev/necs-cart/internal/pkg/kv"
	"github.com/jcmexdev/necs-cart/internal/pkg/telemetry"
	"github.com/jcmexdev/necs-cart/internal/storefront/infra/adapters/service"
)

const visitor = "7f1c7c1e-3a51-4d4e-9b7a-3f0c2e8d1a10"

type failingWrites struct {
	kv.Store
	err     error
	readErr error
}

func (f *failingWrites) Get(ctx context.Context, key string) (string, error) {
	if f.readErr != nil {
		return "", f.readErr
	}
	return f.Store.Get(ctx, key)
}

func (f *failingWrites) Set(ctx context.Context, key, value string) error {
	if f.err != nil {
		return f.err
	}
	return f.Store.Set(ctx, key, value)
}

func (f *failingWrites) Ping(ctx context.Context) error { return f.err }

type testServer struct {
	router   http.Handler
	storage  *failingWrites
	registry *cart.Registry
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	storage := &failingWrites{Store: kv.NewMemory()}
	registry := cart.NewRegistry(storage)
	h := NewHandler(
		service.NewCartService(registry),
		notify.NewToaster(),
		health.NewChecker(storage),
	)
	router := NewRouter(h, telemetry.NewServerMetrics("cart_service"))
	return &testServer{router: router, storage: storage, registry: registry}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.AddCookie(&http.Cookie{Name: constants.CookieVisitor, Value: visitor})
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeCart(t *testing.T, rec *httptest.ResponseRecorder) CartResponse {
	t.Helper()
	var resp CartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func TestAddAndAdjustFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/cart/items", `{"name":"Tee","price":45}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeCart(t, rec)
	assert.True(t, resp.DrawerOpen)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "$45", resp.Total)

	rec = s.do(t, http.MethodPost, "/cart/items", `{"name":"Tee","price":999}`)
	resp = decodeCart(t, rec)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "$90", resp.Total)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "$45", resp.Items[0].PriceDisplay)
	assert.Equal(t, json.Number("45"), resp.Items[0].Price)

	rec = s.do(t, http.MethodPost, "/cart/lines/0/dec", "")
	resp = decodeCart(t, rec)
	assert.False(t, resp.DrawerOpen)
	assert.Equal(t, 1, resp.Count)

	rec = s.do(t, http.MethodPost, "/cart/lines/0/dec", "")
	resp = decodeCart(t, rec)
	assert.Equal(t, 0, resp.Count)
	assert.Empty(t, resp.Items)
	assert.Equal(t, "$0", resp.Total)
}

func TestAdjustOutOfRangeIsNoop(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/cart/items", `{"name":"Cap","price":"19.5"}`)

	rec := s.do(t, http.MethodPost, "/cart/lines/3/inc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeCart(t, rec)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "$19.50", resp.Total)
}

func TestAdjustOverflowingIndexIsNoop(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/cart/items", `{"name":"Cap","price":20}`)

	rec := s.do(t, http.MethodPost, "/cart/lines/99999999999999999999999/dec", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeCart(t, rec)
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "$20", resp.Total)
}

func TestAdjustByName(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/cart/items", `{"name":"Sticker Pack","price":7.5}`)

	rec := s.do(t, http.MethodPost, "/cart/items/Sticker%20Pack/inc", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeCart(t, rec)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "$15", resp.Total)
}

func TestAddItemValidation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/cart/items", `{"price":45}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/cart/items", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/cart/lines/abc/inc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/cart/lines/0/double", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMissingOrInvalidPriceIsZero(t *testing.T) {
	s := newTestServer(t)

	s.do(t, http.MethodPost, "/cart/items", `{"name":"Free Poster"}`)
	rec := s.do(t, http.MethodPost, "/cart/items", `{"name":"Mystery","price":"lots"}`)

	resp := decodeCart(t, rec)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "$0", resp.Total)
}

func TestCheckoutStubAndToast(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/notifications", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodPost, "/cart/checkout", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var checkout CheckoutResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &checkout))
	assert.Equal(t, "Your cart is empty.", checkout.Notice)

	s.do(t, http.MethodPost, "/cart/items", `{"name":"Tee","price":45}`)
	rec = s.do(t, http.MethodPost, "/cart/checkout", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &checkout))
	assert.Equal(t, "Checkout is coming soon!", checkout.Notice)
	assert.Equal(t, 1, checkout.Cart.Count)

	rec = s.do(t, http.MethodGet, "/notifications", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var n NotificationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &n))
	assert.Equal(t, "Checkout is coming soon!", n.Message)
}

func TestDrawerMarkup(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/cart/items", `{"name":"NECS Jersey","price":65}`)

	rec := s.do(t, http.MethodGet, "/cart/drawer", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `<div class="cart-item-title">NECS Jersey</div>`)
	assert.Contains(t, rec.Body.String(), `<span id="cartTotal">$65</span>`)
}

func TestStorageFailureKeepsCart(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/cart/items", `{"name":"Tee","price":45}`)

	s.storage.err = errors.New("redis down")
	rec := s.do(t, http.MethodPost, "/cart/items", `{"name":"Cap","price":20}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = s.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	s.storage.err = nil
	resp := decodeCart(t, s.do(t, http.MethodGet, "/cart", ""))
	assert.Equal(t, 1, resp.Count)

	rec = s.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnreadableStorageDoesNotLoseSavedCart(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.storage.Store.Set(context.Background(), visitor+":necs_cart", `[{"name":"Jersey","price":65,"qty":3}]`))

	s.storage.readErr = errors.New("redis timeout")
	rec := s.do(t, http.MethodGet, "/cart", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	rec = s.do(t, http.MethodPost, "/cart/items", `{"name":"Tee","price":45}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	s.storage.readErr = nil
	rec = s.do(t, http.MethodPost, "/cart/items", `{"name":"Tee","price":45}`)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeCart(t, rec)
	assert.Equal(t, 4, resp.Count)
	assert.Equal(t, "$240", resp.Total)
}

func TestCookielessReadsDoNotOpenCarts(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/cart", "/cart/drawer"} {
		for i := 0; i < 5; i++ {
			rec := httptest.NewRecorder()
			s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			require.Equal(t, http.StatusOK, rec.Code)
		}
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cart/checkout", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Your cart is empty.")

	assert.Equal(t, 0, s.registry.Len())
}

func TestVisitorsHaveSeparateCarts(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/cart/items", `{"name":"Tee","price":45}`)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decodeCart(t, rec).Count)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, constants.CookieVisitor, cookies[0].Name)
	assert.NotEqual(t, visitor, cookies[0].Value)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodGet, "/cart", "")

	rec := s.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="/cart",status="200"`)
}
