package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/jcmexdev/necs-cart/internal/cart"
	"github.com/jcmexdev/necs-cart/internal/cart/domain"
	"github.com/jcmexdev/necs-cart/internal/notify"
	"github.com/jcmexdev/necs-cart/internal/storefront/core/ports"
	"github.com/jcmexdev/necs-cart/internal/storefront/infra/httpx/middlewares"
	"github.com/jcmexdev/necs-cart/internal/storefront/render"
)

// HealthChecker reports whether the cart storage is reachable.
type HealthChecker interface {
	Check(ctx context.Context) error
}

// Handler serves the cart drawer, its triggers and the toast surface.
type Handler struct {
	carts   ports.CartService
	toaster *notify.Toaster
	health  HealthChecker
}

func NewHandler(carts ports.CartService, toaster *notify.Toaster, health HealthChecker) *Handler {
	return &Handler{
		carts:   carts,
		toaster: toaster,
		health:  health,
	}
}

// GetCart returns the visitor's cart with display-formatted amounts.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	snap, err := h.view(r)
	if err != nil {
		writeStorageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCartToResponse(snap, false))
}

// GetDrawer returns the drawer markup for the visitor's cart.
func (h *Handler) GetDrawer(w http.ResponseWriter, r *http.Request) {
	snap, err := h.view(r)
	if err != nil {
		writeStorageError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := render.WriteDrawer(&buf, snap); err != nil {
		slog.ErrorContext(r.Context(), "render drawer", "error", err)
		writeError(w, http.StatusInternalServerError, "render_failed", "")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// AddItem handles an "add to cart" trigger and asks the UI to open the drawer.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}

	snap, err := h.carts.AddItem(r.Context(), middlewares.VisitorID(r.Context()), name, parsePrice(req.Price))
	if err != nil {
		writeStorageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCartToResponse(snap, true))
}

// AdjustLine handles the +/- buttons, which address a line by position.
func (h *Handler) AdjustLine(w http.ResponseWriter, r *http.Request) {
	delta, ok := parseAction(chi.URLParam(r, "action"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_action", "action must be inc or dec")
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if errors.Is(err, strconv.ErrRange) {
		// Too large for any cart: the same no-op as any other missing line.
		h.GetCart(w, r)
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_index", "index must be an integer")
		return
	}

	snap, err := h.carts.AdjustLine(r.Context(), middlewares.VisitorID(r.Context()), index, delta)
	if err != nil {
		writeStorageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCartToResponse(snap, false))
}

// AdjustItem is AdjustLine addressed by product name.
func (h *Handler) AdjustItem(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil || name == "" {
		writeError(w, http.StatusBadRequest, "invalid_name", "")
		return
	}
	delta, ok := parseAction(chi.URLParam(r, "action"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown_action", "action must be inc or dec")
		return
	}

	snap, err := h.carts.AdjustItem(r.Context(), middlewares.VisitorID(r.Context()), name, delta)
	if err != nil {
		writeStorageError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCartToResponse(snap, false))
}

// Checkout is a stub: it only raises a toast saying why nothing happened.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	visitorID := middlewares.VisitorID(r.Context())
	notice := domain.NoticeEmptyCart
	if !middlewares.IsNewVisitor(r.Context()) {
		var err error
		if notice, err = h.carts.Checkout(r.Context(), visitorID); err != nil {
			writeStorageError(w, r, err)
			return
		}
	}
	snap, err := h.view(r)
	if err != nil {
		writeStorageError(w, r, err)
		return
	}
	h.toaster.Show(r.Context(), visitorID, string(notice))

	writeJSON(w, http.StatusOK, CheckoutResponse{
		Notice: string(notice),
		Cart:   mapCartToResponse(snap, false),
	})
}

// GetNotification returns the toast currently visible to the visitor.
func (h *Handler) GetNotification(w http.ResponseWriter, r *http.Request) {
	n, ok := h.toaster.Current(middlewares.VisitorID(r.Context()))
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, NotificationResponse{
		Message:   n.Message,
		ExpiresAt: n.ExpiresAt.UTC().Format(time.RFC3339Nano),
	})
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.health.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "storage_unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// view loads the visitor's cart. A visitor who was only just issued an id
// has nothing saved, so no store is opened for them.
func (h *Handler) view(r *http.Request) (cart.Snapshot, error) {
	if middlewares.IsNewVisitor(r.Context()) {
		return cart.Snapshot{}, nil
	}
	return h.carts.View(r.Context(), middlewares.VisitorID(r.Context()))
}

// parsePrice reads a trigger's price. Missing, null or unparsable values
// count as zero; both 45 and "45" are accepted.
func parsePrice(raw json.RawMessage) decimal.Decimal {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return decimal.Zero
	}
	s = strings.Trim(s, `"`)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseAction(action string) (int, bool) {
	switch action {
	case "inc":
		return 1, true
	case "dec":
		return -1, true
	default:
		return 0, false
	}
}

func mapCartToResponse(snap cart.Snapshot, drawerOpen bool) CartResponse {
	items := make([]CartItemResponse, len(snap.Lines))
	for i, l := range snap.Lines {
		items[i] = CartItemResponse{
			Index:        i,
			Name:         l.Name,
			Price:        json.Number(l.UnitPrice.String()),
			PriceDisplay: domain.FormatMoney(l.UnitPrice),
			Qty:          l.Quantity,
			Subtotal:     domain.FormatMoney(l.Subtotal()),
		}
	}
	return CartResponse{
		Items:       items,
		Count:       snap.TotalCount,
		Total:       domain.FormatMoney(snap.TotalPrice),
		TotalAmount: json.Number(snap.TotalPrice.String()),
		DrawerOpen:  drawerOpen,
	}
}

func writeStorageError(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "cart storage failed", "error", err)
	writeError(w, http.StatusServiceUnavailable, "storage_unavailable", "the cart is unavailable, try again")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}
