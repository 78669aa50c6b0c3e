package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/anasol/cafe-orders/internal/orders"
	"github.com/anasol/cafe-orders/internal/redisx"
)

type stubService struct {
	view    orders.OrderView
	err     error
	deleted []string
	filter  orders.Filter
	page    orders.PageRequest
}

func (s *stubService) PlaceOrder(_ context.Context, _ orders.User, _ orders.PlaceOrderInput) (orders.OrderView, error) {
	return s.view, s.err
}

func (s *stubService) GetOrder(_ context.Context, _ string) (orders.OrderView, error) {
	return s.view, s.err
}

func (s *stubService) UpdateStatus(_ context.Context, _ string, _ orders.Status) (orders.OrderView, error) {
	return s.view, s.err
}

func (s *stubService) CancelMyOrder(_ context.Context, _ orders.User, _ string) (orders.OrderView, error) {
	return s.view, s.err
}

func (s *stubService) ReceiveMyOrder(_ context.Context, _ orders.User, _ string) (orders.OrderView, error) {
	return s.view, s.err
}

func (s *stubService) DeleteOrder(_ context.Context, orderID string) error {
	s.deleted = append(s.deleted, orderID)
	return s.err
}

func (s *stubService) List(_ context.Context, f orders.Filter, p orders.PageRequest) (orders.Page[orders.OrderView], error) {
	s.filter, s.page = f, p
	return orders.Page[orders.OrderView]{Content: []orders.OrderView{s.view}}, s.err
}

func (s *stubService) ListProducts(_ context.Context) ([]orders.Product, error) {
	return nil, s.err
}

type stubDirectory struct {
	users map[string]orders.User
}

func (d *stubDirectory) FindByEmail(_ context.Context, email string) (orders.User, error) {
	u, ok := d.users[email]
	if !ok {
		return orders.User{}, orders.ErrUserNotFound
	}
	return u, nil
}

func newTestHandler(svc *stubService) *OrdersHandler {
	return &OrdersHandler{
		Service: svc,
		Users: &stubDirectory{users: map[string]orders.User{
			"staff@cafe.local": {ID: "user-1", Email: "staff@cafe.local"},
		}},
		Products: svc,
		// nothing listens here; cache writes fail silently, reads fall through
		Redis: redisx.New("127.0.0.1:1"),
		Log:   zap.NewNop(),
	}
}

func serve(h *OrdersHandler, req *http.Request) *httptest.ResponseRecorder {
	router := NewRouter()
	h.Register(router)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestPlaceOrderHandler(t *testing.T) {
	t.Parallel()

	svc := &stubService{view: orders.OrderView{ID: "order-1", Status: orders.StatusPending, Quantity: 2}}
	h := newTestHandler(svc)

	body := `{"branchId":"branch-1","productId":"prod-1","quantity":2}`
	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body))
	req.Header.Set("X-User-Email", "staff@cafe.local")

	rec := serve(h, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var view orders.OrderView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "order-1", view.ID)
	assert.Equal(t, orders.StatusPending, view.Status)
}

func TestPlaceOrderHandlerRejectsAnonymous(t *testing.T) {
	t.Parallel()

	h := newTestHandler(&stubService{})

	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{"quantity":1}`))
	rec := serve(h, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPlaceOrderHandlerUnknownPrincipal(t *testing.T) {
	t.Parallel()

	h := newTestHandler(&stubService{})

	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{"quantity":1}`))
	req.Header.Set("X-User-Email", "ghost@cafe.local")
	rec := serve(h, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		code int
	}{
		{orders.ErrValidation, http.StatusBadRequest},
		{orders.ErrInsufficientStock, http.StatusConflict},
		{orders.ErrInvalidTransition, http.StatusUnprocessableEntity},
		{orders.ErrConflict, http.StatusConflict},
		{orders.ErrOrderNotFound, http.StatusNotFound},
		{orders.ErrForbidden, http.StatusForbidden},
		{&orders.ProcessingError{Op: "PlaceOrder", Cause: assert.AnError}, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		svc := &stubService{err: tc.err}
		h := newTestHandler(svc)

		body := `{"branchId":"b","productId":"p","quantity":1}`
		req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body))
		req.Header.Set("X-User-Email", "staff@cafe.local")

		rec := serve(h, req)
		assert.Equal(t, tc.code, rec.Code, "error %v", tc.err)
	}
}

func TestProcessingErrorStaysGenericOnTheWire(t *testing.T) {
	t.Parallel()

	svc := &stubService{err: &orders.ProcessingError{Op: "PlaceOrder", Cause: assert.AnError}}
	h := newTestHandler(svc)

	body := `{"branchId":"b","productId":"p","quantity":1}`
	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body))
	req.Header.Set("X-User-Email", "staff@cafe.local")

	rec := serve(h, req)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
	assert.Contains(t, rec.Body.String(), "order processing failed")
}

func TestUpdateStatusHandlerValidatesStatus(t *testing.T) {
	t.Parallel()

	h := newTestHandler(&stubService{})

	req := httptest.NewRequest(http.MethodPut, "/api/orders/order-1/status", strings.NewReader(`{"status":"EATEN"}`))
	rec := serve(h, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteOrderHandler(t *testing.T) {
	t.Parallel()

	svc := &stubService{}
	h := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/orders/order-1", nil)
	rec := serve(h, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"order-1"}, svc.deleted)
}

func TestListMyOrdersScopesToCaller(t *testing.T) {
	t.Parallel()

	svc := &stubService{}
	h := newTestHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/my?status=PENDING&page=2&size=5", nil)
	req.Header.Set("X-User-Email", "staff@cafe.local")

	rec := serve(h, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", svc.filter.UserID)
	assert.Equal(t, orders.StatusPending, svc.filter.Status)
	assert.Equal(t, 2, svc.page.Page)
	assert.Equal(t, 5, svc.page.Size)
}
