package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"pacaprints/internal/core"
)

type recipesPage struct {
	Products  []core.Product
	Items     []core.StockItem
	ItemNames map[int64]string

	// Selected product detail, when ?product= is present.
	Selected *core.Product
	Lines    []core.RecipeLine
	UnitCost core.Money
}

func (s *Server) handleRecipes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderRecipes(w, r)
	case http.MethodPost:
		s.createProduct(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) renderRecipes(w http.ResponseWriter, r *http.Request) {
	products, err := s.deps.Catalog.ListProducts(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List products failed", "error", err)
		http.Error(w, "failed to load products", http.StatusInternalServerError)
		return
	}
	items, err := s.deps.Inventory.ListItems(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List stock items failed", "error", err)
	}

	page := recipesPage{Products: products, Items: items, ItemNames: make(map[int64]string, len(items))}
	for _, item := range items {
		page.ItemNames[item.ID] = item.Name
	}

	if v := strings.TrimSpace(r.URL.Query().Get("product")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err == nil && id > 0 {
			product, err := s.deps.Catalog.GetProduct(r.Context(), id)
			if err == nil {
				page.Selected = &product
				if page.Lines, err = s.deps.Catalog.RecipeLines(r.Context(), id); err != nil {
					slog.ErrorContext(r.Context(), "List recipe lines failed", "error", err, "product_id", id)
				}
				if page.UnitCost, err = s.deps.Catalog.UnitCost(r.Context(), id); err != nil {
					slog.ErrorContext(r.Context(), "Recipe unit cost failed", "error", err, "product_id", id)
				}
			}
		}
	}

	s.render(w, r, "recipes.html", page)
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	p := core.Product{
		SKU:  sanitizeInput(r.Form.Get("sku")),
		Name: sanitizeInput(r.Form.Get("name")),
	}
	id, err := s.deps.Catalog.CreateProduct(r.Context(), p)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeSuccess(w, fmt.Sprintf("Product #%d added: %s", id, p.Name))
}

// handleRecipeLine upserts (POST) or removes (DELETE) one bill-of-materials
// line.
func (s *Server) handleRecipeLine(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request format")
			return
		}
		productID, err := formID(r, "product_id")
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "Invalid product")
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

		line := core.RecipeLine{ProductID: productID, ItemID: itemID, Quantity: quantity}
		if err := s.deps.Catalog.SetRecipeLine(r.Context(), line); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeSuccess(w, "Recipe line saved")

	case http.MethodDelete:
		q := r.URL.Query()
		productID, err := strconv.ParseInt(q.Get("product_id"), 10, 64)
		if err != nil || productID <= 0 {
			writeError(w, http.StatusUnprocessableEntity, "Invalid product")
			return
		}
		itemID, err := strconv.ParseInt(q.Get("item_id"), 10, 64)
		if err != nil || itemID <= 0 {
			writeError(w, http.StatusUnprocessableEntity, "Invalid item")
			return
		}

		if err := s.deps.Catalog.RemoveRecipeLine(r.Context(), productID, itemID); err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeSuccess(w, "Recipe line removed")

	default:
		w.Header().Set("Allow", "POST, DELETE")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
