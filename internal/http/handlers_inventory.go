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

type inventoryPage struct {
	Items []core.StockItem
	Low   map[int64]bool
}

func (s *Server) handleInventory(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderInventory(w, r)
	case http.MethodPost:
		s.createStockItem(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) renderInventory(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Inventory.ListItems(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List stock items failed", "error", err)
		http.Error(w, "failed to load inventory", http.StatusInternalServerError)
		return
	}

	low := make(map[int64]bool, len(items))
	for _, item := range items {
		if item.OnHand <= item.ReorderLevel {
			low[item.ID] = true
		}
	}

	s.render(w, r, "inventory.html", inventoryPage{Items: items, Low: low})
}

func (s *Server) createStockItem(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	item := core.StockItem{
		Name: sanitizeInput(r.Form.Get("name")),
		Unit: sanitizeInput(r.Form.Get("unit")),
	}
	if v := r.Form.Get("reorder_level"); v != "" {
		level, err := formFloat(r, "reorder_level")
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "Invalid reorder level")
			return
		}
		item.ReorderLevel = level
	}

	id, err := s.deps.Inventory.CreateItem(r.Context(), item)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeSuccess(w, fmt.Sprintf("Item #%d added: %s (%s)", id, item.Name, item.Unit))
}

// handleAddBatch records stock received outside a purchase order.
func (s *Server) handleAddBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	itemID, err := formID(r, "item_id")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Choose an item")
		return
	}
	receivedOn, err := formDate(r, "received_on", time.Now())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid date")
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

	b := core.StockBatch{
		ItemID:     itemID,
		ReceivedOn: receivedOn,
		Quantity:   quantity,
		UnitCost:   core.Money{Pence: unitCost},
	}
	if _, err := s.deps.Inventory.AddBatch(r.Context(), b); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	w.Header().Set("HX-Trigger", "stock:changed")
	writeSuccess(w, "Batch recorded")
}

// handleReorderLevel backs the inline reorder-level edit.
func (s *Server) handleReorderLevel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	itemID, err := formID(r, "item_id")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid item id")
		return
	}
	level, err := formFloat(r, "reorder_level")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid reorder level")
		return
	}

	if err := s.deps.Inventory.SetReorderLevel(r.Context(), itemID, level); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Item not found")
			return
		}
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeSuccess(w, "Reorder level updated")
}
