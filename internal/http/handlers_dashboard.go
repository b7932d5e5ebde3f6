package http

import (
	"log/slog"
	"net/http"

	"pacaprints/internal/core"
	"pacaprints/internal/services"
)

type dashboardPage struct {
	Label    string
	Year     int
	Overview services.Overview
	LowStock []core.StockItem
	Recent   []core.Order
}

// handleDashboard renders the landing page: the current tax year at a
// glance, low-stock warnings and the latest orders.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	year := s.deps.Finance.CurrentTaxYear().StartYear

	ov, err := s.getOverview(r, year)
	if err != nil {
		slog.ErrorContext(r.Context(), "Dashboard overview failed", "error", err, "year", year)
		http.Error(w, "failed to compute overview", http.StatusInternalServerError)
		return
	}

	low, err := s.deps.Inventory.LowStock(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Low stock check failed", "error", err)
	}

	recent, err := s.deps.Orders.ListOrders(r.Context(), core.ListQuery{
		TaxYearStart: year,
		PageSize:     10,
	})
	if err != nil {
		slog.ErrorContext(r.Context(), "Recent orders failed", "error", err)
	}

	s.render(w, r, "index.html", dashboardPage{
		Label:    ov.Year.Label(),
		Year:     year,
		Overview: ov,
		LowStock: low,
		Recent:   recent,
	})
}
