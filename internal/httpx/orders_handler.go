package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"pizzaria-orders/internal/orders"
	"pizzaria-orders/internal/redisx"
)

type OrdersHandler struct {
	Service *orders.Service
	Redis   *redis.Client // optional; nil disables caching and idempotency
	Log     *slog.Logger
}

type createOrderReq struct {
	Table int    `json:"table"`
	Name  string `json:"name"`
}

type addItemReq struct {
	OrderID   string `json:"order_id"`
	ProductID string `json:"product_id"`
	Amount    int    `json:"amount"`
}

type orderRef struct {
	OrderID string `json:"order_id"`
}

type checkoutReq struct {
	CheckoutID string            `json:"checkout_id"`
	Table      int               `json:"table"`
	Name       string            `json:"name"`
	Items      []orders.CartLine `json:"items"`
}

type orderView struct {
	ID         string        `json:"id"`
	Table      int           `json:"table"`
	Name       string        `json:"name"`
	Status     orders.Status `json:"status"`
	Draft      bool          `json:"draft"`
	TotalCents int           `json:"total_cents"`
	Items      []itemView    `json:"items,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

type itemView struct {
	ID          string `json:"id"`
	OrderID     string `json:"order_id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	PriceCents  int    `json:"price_cents"`
	Amount      int    `json:"amount"`
}

func viewOrder(o orders.Order) orderView {
	v := orderView{
		ID:         o.ID,
		Table:      o.Table,
		Name:       o.Name,
		Status:     o.Status,
		Draft:      o.Status == orders.StatusDraft,
		TotalCents: o.TotalCents,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
	for _, it := range o.Items {
		v.Items = append(v.Items, viewItem(it))
	}
	return v
}

func viewItem(it orders.Item) itemView {
	return itemView{
		ID:          it.ID,
		OrderID:     it.OrderID,
		ProductID:   it.ProductID,
		ProductName: it.ProductName,
		PriceCents:  it.PriceCents,
		Amount:      it.Amount,
	}
}

func (h *OrdersHandler) Register(r *chi.Mux, auth func(http.Handler) http.Handler) {
	r.Get("/products", h.listProducts) // public catalog read
	r.Group(func(g chi.Router) {
		g.Use(auth)
		g.Post("/order", h.createOrder)
		g.Delete("/order", h.removeOrder)
		g.Post("/order/add", h.addItem)
		g.Delete("/order/remove", h.removeItem)
		g.Put("/order/send", h.sendOrder)
		g.Put("/order/finish", h.finishOrder)
		g.Get("/order/detail", h.orderDetail)
		g.Get("/order/status", h.orderStatus)
		g.Post("/order/checkout", h.checkout)
		g.Get("/orders", h.listOrders)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func errStatus(err error) int {
	switch {
	case orders.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, orders.ErrOrderNotFound),
		errors.Is(err, orders.ErrItemNotFound),
		errors.Is(err, orders.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, orders.ErrOrderNotEditable),
		errors.Is(err, orders.ErrEmptyOrder),
		errors.Is(err, orders.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *OrdersHandler) writeError(w http.ResponseWriter, err error) {
	code := errStatus(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		// persistence failures stay opaque to the caller
		if h.Log != nil {
			h.Log.Error("request failed", "err", err)
		}
		msg = "internal server error"
	}
	writeJSON(w, code, map[string]string{"error": msg})
}

func (h *OrdersHandler) cacheStatus(ctx context.Context, o orders.Order) {
	if h.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, o.ID)
	_ = h.Redis.Set(ctx, key, `{"status":"`+string(o.Status)+`"}`, redisx.TTLStatusCache).Err()
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Service.CreateOrder(ctx, req.Table, req.Name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.cacheStatus(ctx, o)
	writeJSON(w, http.StatusCreated, viewOrder(o))
}

func (h *OrdersHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	it, err := h.Service.AddItem(ctx, req.OrderID, req.ProductID, req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewItem(it))
}

func (h *OrdersHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("order_id")
	itemID := r.URL.Query().Get("item_id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Service.RemoveItem(ctx, orderID, itemID); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": itemID})
}

func (h *OrdersHandler) sendOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRef
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Service.SendOrder(ctx, req.OrderID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.cacheStatus(ctx, o)
	writeJSON(w, http.StatusOK, viewOrder(o))
}

func (h *OrdersHandler) finishOrder(w http.ResponseWriter, r *http.Request) {
	var req orderRef
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Service.FinishOrder(ctx, req.OrderID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.cacheStatus(ctx, o)
	writeJSON(w, http.StatusOK, viewOrder(o))
}

func (h *OrdersHandler) removeOrder(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("order_id")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Service.RemoveOrder(ctx, orderID); err != nil {
		h.writeError(w, err)
		return
	}
	if h.Redis != nil {
		_ = h.Redis.Del(ctx, fmt.Sprintf(redisx.KeyOrderStatus, orderID)).Err()
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": orderID})
}

func (h *OrdersHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Service.ListOrders(ctx, r.URL.Query().Get("status"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]orderView, 0, len(list))
	for _, o := range list {
		out = append(out, viewOrder(o))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrdersHandler) orderDetail(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Service.OrderDetail(ctx, r.URL.Query().Get("order_id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOrder(o))
}

// orderStatus serves the ordering client's poll loop from the cache,
// falling back to the store on a miss.
func (h *OrdersHandler) orderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("order_id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if h.Redis != nil {
		key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
		if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
			writeJSON(w, http.StatusOK, json.RawMessage(s))
			return
		}
	}

	o, err := h.Service.OrderDetail(ctx, orderID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.cacheStatus(ctx, o)
	writeJSON(w, http.StatusOK, map[string]any{"status": o.Status})
}

func (h *OrdersHandler) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	// A retried checkout with the same checkout_id returns the order the
	// first attempt produced instead of creating a duplicate.
	var idemKey string
	if req.CheckoutID != "" && h.Redis != nil {
		idemKey = fmt.Sprintf(redisx.KeyIdemCheckout, req.CheckoutID)
		if existing, err := h.Redis.Get(ctx, idemKey).Result(); err == nil && existing != "" {
			o, derr := h.Service.OrderDetail(ctx, existing)
			if derr == nil {
				writeJSON(w, http.StatusOK, viewOrder(o))
				return
			}
		}
	}

	cart := orders.NewCart()
	for _, line := range req.Items {
		if err := cart.Add(line); err != nil {
			h.writeError(w, err)
			return
		}
	}

	o, err := h.Service.Checkout(ctx, req.Table, req.Name, cart)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if idemKey != "" {
		_ = h.Redis.Set(ctx, idemKey, o.ID, redisx.TTLIdempotency).Err()
	}
	h.cacheStatus(ctx, o)
	writeJSON(w, http.StatusCreated, viewOrder(o))
}

func (h *OrdersHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Service.ListProducts(ctx)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}
