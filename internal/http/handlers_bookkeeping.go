package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"pacaprints/internal/core"
	"pacaprints/internal/finance"
)

type expensesPage struct {
	Year     int
	Label    string
	Expenses []core.Expense
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderExpenses(w, r)
	case http.MethodPost:
		s.createExpense(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) renderExpenses(w http.ResponseWriter, r *http.Request) {
	startYear := parseTaxYear(r, time.Now())
	year := finance.TaxYear{StartYear: startYear}
	fromT, toT := year.Range()

	expenses, err := s.deps.Bookkeeping.ListExpenses(r.Context(),
		core.Date{Time: fromT}, core.Date{Time: toT})
	if err != nil {
		slog.ErrorContext(r.Context(), "List expenses failed", "error", err)
		http.Error(w, "failed to load expenses", http.StatusInternalServerError)
		return
	}

	s.render(w, r, "expenses.html", expensesPage{
		Year:     startYear,
		Label:    year.Label(),
		Expenses: expenses,
	})
}

func (s *Server) createExpense(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	spentOn, err := formDate(r, "spent_on", time.Now())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid date")
		return
	}
	amount, err := core.ParseDecimalToPence(r.Form.Get("amount"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid amount")
		return
	}

	source := core.SourceType(sanitizeInput(r.Form.Get("source")))
	if source == "" {
		source = core.SourceBusiness
	}

	e := core.Expense{
		SpentOn:     spentOn,
		Description: sanitizeInput(r.Form.Get("description")),
		Amount:      core.Money{Pence: amount},
		Category:    sanitizeInput(r.Form.Get("category")),
		Vendor:      sanitizeInput(r.Form.Get("vendor")),
		PaidBy:      sanitizeInput(r.Form.Get("paid_by")),
		Source:      source,
		Notes:       sanitizeInput(r.Form.Get("notes")),
	}

	id, err := s.deps.Bookkeeping.CreateExpense(r.Context(), e)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.invalidateFinance()
	w.Header().Set("HX-Trigger", "expense:created")
	writeSuccess(w, fmt.Sprintf("Expense #%d saved: %s %s", id, e.Description, core.FormatGBP(e.Amount.Pence)))
}

type mileagePage struct {
	Year       int
	Label      string
	Logs       []core.MileageLog
	TotalMiles float64
	Claim      float64
}

func (s *Server) handleMileage(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderMileage(w, r)
	case http.MethodPost:
		s.createMileageLog(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) renderMileage(w http.ResponseWriter, r *http.Request) {
	startYear := parseTaxYear(r, time.Now())
	year := finance.TaxYear{StartYear: startYear}
	fromT, toT := year.Range()

	logs, err := s.deps.Bookkeeping.ListMileageLogs(r.Context(),
		core.Date{Time: fromT}, core.Date{Time: toT})
	if err != nil {
		slog.ErrorContext(r.Context(), "List mileage logs failed", "error", err)
		http.Error(w, "failed to load mileage", http.StatusInternalServerError)
		return
	}

	var total float64
	for _, l := range logs {
		total += l.Miles
	}
	settings, err := s.deps.Finance.Settings(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Load settings failed", "error", err)
		settings = finance.DefaultSettings()
	}

	s.render(w, r, "mileage.html", mileagePage{
		Year:       startYear,
		Label:      year.Label(),
		Logs:       logs,
		TotalMiles: total,
		Claim:      finance.MileageClaim(total, settings),
	})
}

func (s *Server) createMileageLog(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	traveledOn, err := formDate(r, "traveled_on", time.Now())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid date")
		return
	}
	milesDriven, err := formFloat(r, "miles")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid miles")
		return
	}

	m := core.MileageLog{
		TraveledOn:    traveledOn,
		Person:        sanitizeInput(r.Form.Get("person")),
		Miles:         milesDriven,
		StartLocation: sanitizeInput(r.Form.Get("start_location")),
		EndLocation:   sanitizeInput(r.Form.Get("end_location")),
		Notes:         sanitizeInput(r.Form.Get("notes")),
	}

	if _, err := s.deps.Bookkeeping.CreateMileageLog(r.Context(), m); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.invalidateFinance()
	writeSuccess(w, fmt.Sprintf("Trip saved: %s, %.1f miles", m.Person, m.Miles))
}
