package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/anasol/cafe-orders/internal/orders"
	"github.com/anasol/cafe-orders/internal/redisx"
)

// OrderService is the slice of the order core the HTTP layer consumes.
type OrderService interface {
	PlaceOrder(ctx context.Context, user orders.User, in orders.PlaceOrderInput) (orders.OrderView, error)
	GetOrder(ctx context.Context, orderID string) (orders.OrderView, error)
	UpdateStatus(ctx context.Context, orderID string, target orders.Status) (orders.OrderView, error)
	CancelMyOrder(ctx context.Context, user orders.User, orderID string) (orders.OrderView, error)
	ReceiveMyOrder(ctx context.Context, user orders.User, orderID string) (orders.OrderView, error)
	DeleteOrder(ctx context.Context, orderID string) error
	List(ctx context.Context, f orders.Filter, p orders.PageRequest) (orders.Page[orders.OrderView], error)
}

// UserDirectory resolves the authenticated principal to a user record.
type UserDirectory interface {
	FindByEmail(ctx context.Context, email string) (orders.User, error)
}

type ProductLister interface {
	ListProducts(ctx context.Context) ([]orders.Product, error)
}

type OrdersHandler struct {
	Service  OrderService
	Users    UserDirectory
	Products ProductLister
	Redis    *redis.Client
	Log      *zap.Logger
}

type placeOrderReq struct {
	BranchID  string `json:"branchId"`
	ProductID string `json:"productId"`
	Quantity  int64  `json:"quantity"`
}

type statusUpdateReq struct {
	Status string `json:"status"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Post("/", h.placeOrder)
		r.Get("/", h.listOrders)
		r.Get("/my", h.listMyOrders)
		r.Get("/{id}", h.getOrder)
		r.Put("/{id}/status", h.updateStatus)
		r.Put("/{id}/cancel", h.cancelOrder)
		r.Put("/{id}/receive", h.receiveOrder)
		r.Delete("/{id}", h.deleteOrder)
	})
	r.Get("/api/products", h.listProducts)
}

// currentUser resolves the principal set by the auth middleware upstream.
// Identity is resolved once here and passed into the core explicitly.
func (h *OrdersHandler) currentUser(r *http.Request) (orders.User, error) {
	email := r.Header.Get("X-User-Email")
	if email == "" {
		return orders.User{}, orders.ErrUnauthenticated
	}
	return h.Users.FindByEmail(r.Context(), email)
}

func (h *OrdersHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := h.currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	view, err := h.Service.PlaceOrder(ctx, user, orders.PlaceOrderInput{
		BranchID:  req.BranchID,
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.cacheView(ctx, view)
	writeJSON(w, http.StatusCreated, view)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// cache first, DB is the source of truth
	key := fmt.Sprintf(redisx.KeyOrderView, orderID)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		writeJSON(w, http.StatusOK, json.RawMessage(s))
		return
	}

	view, err := h.Service.GetOrder(ctx, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheView(ctx, view)
	writeJSON(w, http.StatusOK, view)
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusUpdateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	target, err := orders.ParseStatus(req.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	view, err := h.Service.UpdateStatus(ctx, chi.URLParam(r, "id"), target)
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheView(ctx, view)
	writeJSON(w, http.StatusOK, view)
}

func (h *OrdersHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	h.ownOrderAction(w, r, h.Service.CancelMyOrder)
}

func (h *OrdersHandler) receiveOrder(w http.ResponseWriter, r *http.Request) {
	h.ownOrderAction(w, r, h.Service.ReceiveMyOrder)
}

func (h *OrdersHandler) ownOrderAction(w http.ResponseWriter, r *http.Request,
	action func(ctx context.Context, user orders.User, orderID string) (orders.OrderView, error)) {

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := h.currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	view, err := action(ctx, user, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheView(ctx, view)
	writeJSON(w, http.StatusOK, view)
}

func (h *OrdersHandler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	orderID := chi.URLParam(r, "id")
	if err := h.Service.DeleteOrder(ctx, orderID); err != nil {
		writeError(w, err)
		return
	}
	_ = h.Redis.Del(ctx, fmt.Sprintf(redisx.KeyOrderView, orderID)).Err()
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	f, p, err := listParams(r)
	if err != nil {
		writeError(w, err)
		return
	}

	page, err := h.Service.List(ctx, f, p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *OrdersHandler) listMyOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := h.currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	f, p, err := listParams(r)
	if err != nil {
		writeError(w, err)
		return
	}
	f.UserID = user.ID

	page, err := h.Service.List(ctx, f, p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *OrdersHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Products.ListProducts(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *OrdersHandler) cacheView(ctx context.Context, view orders.OrderView) {
	b, err := json.Marshal(view)
	if err != nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderView, view.ID)
	if err := h.Redis.Set(ctx, key, b, redisx.TTLOrderView).Err(); err != nil {
		h.Log.Debug("order view cache write failed", zap.String("order_id", view.ID), zap.Error(err))
	}
}

func listParams(r *http.Request) (orders.Filter, orders.PageRequest, error) {
	q := r.URL.Query()

	var f orders.Filter
	if s := q.Get("status"); s != "" {
		st, err := orders.ParseStatus(s)
		if err != nil {
			return f, orders.PageRequest{}, err
		}
		f.Status = st
	}
	f.UserID = q.Get("userId")
	f.BranchID = q.Get("branchId")

	p := orders.PageRequest{
		Page:      atoiDefault(q.Get("page"), 0),
		Size:      atoiDefault(q.Get("size"), 10),
		SortBy:    q.Get("sortBy"),
		Direction: q.Get("direction"),
	}
	return f, p, nil
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
