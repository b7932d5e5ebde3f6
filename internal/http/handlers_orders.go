package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"pacaprints/internal/core"
	"pacaprints/internal/finance"
	"pacaprints/internal/storage"
)

type ordersPage struct {
	Year     int
	Label    string
	Query    core.ListQuery
	Orders   []core.Order
	Products []core.Product
	NextPage int
	PrevPage int
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderOrders(w, r)
	case http.MethodPost:
		s.createOrder(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) renderOrders(w http.ResponseWriter, r *http.Request) {
	q := parseListQuery(r, time.Now())

	orders, err := s.deps.Orders.ListOrders(r.Context(), q)
	if err != nil {
		slog.ErrorContext(r.Context(), "List orders failed", "error", err)
		http.Error(w, "failed to load orders", http.StatusInternalServerError)
		return
	}
	products, err := s.deps.Catalog.ListProducts(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List products failed", "error", err)
	}

	page := ordersPage{
		Year:     q.TaxYearStart,
		Label:    finance.TaxYear{StartYear: q.TaxYearStart}.Label(),
		Query:    q,
		Orders:   orders,
		Products: products,
		NextPage: q.Page + 1,
		PrevPage: q.Page - 1,
	}
	s.render(w, r, "orders.html", page)
}

func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	placedOn, err := formDate(r, "placed_on", time.Now())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid date")
		return
	}
	productID, err := formID(r, "product_id")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Choose a product")
		return
	}
	quantity, err := formID(r, "quantity")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid quantity")
		return
	}

	gross, err := core.ParseDecimalToPence(r.Form.Get("gross"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid gross amount")
		return
	}
	var fees, payout int64
	if v := strings.TrimSpace(r.Form.Get("fees")); v != "" {
		if fees, err = core.ParseDecimalToPence(v); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "Invalid fees")
			return
		}
	}
	if v := strings.TrimSpace(r.Form.Get("payout")); v != "" {
		if payout, err = core.ParseDecimalToPence(v); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "Invalid payout")
			return
		}
	}

	o := core.Order{
		PlacedOn:  placedOn,
		Platform:  sanitizeInput(r.Form.Get("platform")),
		Reference: sanitizeInput(r.Form.Get("reference")),
		ProductID: productID,
		Quantity:  quantity,
		Gross:     core.Money{Pence: gross},
		Fees:      core.Money{Pence: fees},
		Payout:    core.Money{Pence: payout},
	}

	id, err := s.deps.Orders.CreateOrder(r.Context(), o)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create order failed", "error", err, "reference", o.Reference)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.invalidateFinance()
	w.Header().Set("HX-Trigger", "order:created")
	writeSuccess(w, fmt.Sprintf("Order #%d saved: %s %s", id, o.Platform, o.Reference))
}

// handleOrderFlag sets a printed/shipped flag to an explicit target value.
// The response carries the previous value so the client can offer an undo
// that restores the exact prior state.
func (s *Server) handleOrderFlag(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	id, err := formID(r, "id")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid order id")
		return
	}
	flag := sanitizeInput(r.Form.Get("flag"))
	value := r.Form.Get("value") == "true"

	prev, err := s.deps.Orders.SetFlag(r.Context(), id, flag, value)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Order not found")
			return
		}
		slog.ErrorContext(r.Context(), "Set order flag failed", "error", err, "id", id, "flag", flag)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	order, err := s.deps.Orders.GetOrder(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload order")
		return
	}

	w.Header().Set("X-Prev-Value", fmt.Sprintf("%t", prev))
	s.render(w, r, "order_row.html", order)
}

func (s *Server) handleOrderProduce(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	id, err := formID(r, "id")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid order id")
		return
	}

	cogs, err := s.deps.Orders.Produce(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrInsufficientStock) {
			writeError(w, http.StatusConflict, "Not enough stock to produce this order")
			return
		}
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Order not found")
			return
		}
		slog.ErrorContext(r.Context(), "Produce order failed", "error", err, "id", id)
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	order, err := s.deps.Orders.GetOrder(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload order")
		return
	}

	slog.InfoContext(r.Context(), "Order produced from dashboard", "id", id, "cogs_pence", cogs)
	s.render(w, r, "order_row.html", order)
}
