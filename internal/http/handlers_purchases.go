package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"pacaprints/internal/core"
	"pacaprints/internal/storage"
)

type purchasesPage struct {
	Purchases []core.PurchaseOrder
	Items     []core.StockItem
	ItemNames map[int64]string
}

func (s *Server) handlePurchases(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderPurchases(w, r)
	case http.MethodPost:
		s.createPurchase(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) renderPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := s.deps.Purchases.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List purchases failed", "error", err)
		http.Error(w, "failed to load purchases", http.StatusInternalServerError)
		return
	}
	items, err := s.deps.Inventory.ListItems(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List stock items failed", "error", err)
	}

	names := make(map[int64]string, len(items))
	for _, item := range items {
		names[item.ID] = item.Name
	}

	s.render(w, r, "purchases.html", purchasesPage{
		Purchases: purchases,
		Items:     items,
		ItemNames: names,
	})
}

func (s *Server) createPurchase(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	orderedOn, err := formDate(r, "ordered_on", time.Now())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid date")
		return
	}
	itemID, err := formID(r, "item_id")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Choose an item")
		return
	}
	quantity, err := formFloat(r, "quantity")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid quantity")
		return
	}
	unitCost, err := core.ParseDecimalToPence(r.Form.Get("unit_cost"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid unit cost")
		return
	}

	po := core.PurchaseOrder{
		OrderedOn: orderedOn,
		Vendor:    sanitizeInput(r.Form.Get("vendor")),
		ItemID:    itemID,
		Quantity:  quantity,
		UnitCost:  core.Money{Pence: unitCost},
	}

	id, err := s.deps.Purchases.Create(r.Context(), po)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeSuccess(w, fmt.Sprintf("Purchase order #%d created for %s", id, po.Vendor))
}

// handleReceivePurchase marks a purchase received: storage opens the stock
// batch and books the Materials expense together.
func (s *Server) handleReceivePurchase(w http.ResponseWriter, r *http.Request) {
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
		writeError(w, http.StatusUnprocessableEntity, "Invalid purchase order id")
		return
	}
	receivedOn, err := formDate(r, "received_on", time.Now())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid date")
		return
	}

	if err := s.deps.Purchases.Receive(r.Context(), id, receivedOn); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Purchase order not found")
			return
		}
		slog.ErrorContext(r.Context(), "Receive purchase failed", "error", err, "id", id)
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	s.invalidateFinance()
	w.Header().Set("HX-Trigger", "stock:changed")
	writeSuccess(w, fmt.Sprintf("Purchase order #%d received into stock", id))
}
