package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"pacaprints/internal/finance"
	"pacaprints/internal/services"
)

type financePage struct {
	Overview  services.Overview
	Label     string
	PrevYear  int
	NextYear  int
	IsCurrent bool
}

func (s *Server) handleFinance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	startYear := parseTaxYear(r, time.Now())
	ov, err := s.getOverview(r, startYear)
	if err != nil {
		slog.ErrorContext(r.Context(), "Finance overview failed", "error", err, "year", startYear)
		http.Error(w, "failed to compute finance overview", http.StatusInternalServerError)
		return
	}

	s.render(w, r, "finance.html", financePage{
		Overview:  ov,
		Label:     ov.Year.Label(),
		PrevYear:  startYear - 1,
		NextYear:  startYear + 1,
		IsCurrent: startYear == s.deps.Finance.CurrentTaxYear().StartYear,
	})
}

func (s *Server) getOverview(r *http.Request, startYear int) (services.Overview, error) {
	key := strconv.Itoa(startYear)
	if ov, ok := s.overviewCache.Get(key); ok {
		slog.DebugContext(r.Context(), "Overview cache hit", "year", startYear)
		return ov, nil
	}

	ov, err := s.deps.Finance.Overview(r.Context(), startYear)
	if err != nil {
		return services.Overview{}, err
	}
	s.overviewCache.Set(key, ov)
	return ov, nil
}

type settingsPage struct {
	Settings finance.Settings
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		settings, err := s.deps.Finance.Settings(r.Context())
		if err != nil {
			slog.ErrorContext(r.Context(), "Load settings failed", "error", err)
			http.Error(w, "failed to load settings", http.StatusInternalServerError)
			return
		}
		s.render(w, r, "settings.html", settingsPage{Settings: settings})

	case http.MethodPost:
		s.saveSettings(w, r)

	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) saveSettings(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	owners, err := strconv.Atoi(r.Form.Get("owners_count"))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid owners count")
		return
	}
	taxRate, err := formFloat(r, "est_tax_rate")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid tax rate")
		return
	}
	rateFirst, err := formFloat(r, "mileage_rate_first")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid mileage rate")
		return
	}
	rateAfter, err := formFloat(r, "mileage_rate_after")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid mileage rate")
		return
	}
	threshold, err := formFloat(r, "mileage_threshold")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Invalid mileage threshold")
		return
	}

	set := finance.Settings{
		OwnersCount:      owners,
		EstTaxRate:       taxRate,
		MileageRateFirst: rateFirst,
		MileageRateAfter: rateAfter,
		MileageThreshold: threshold,
	}
	if err := s.deps.Finance.SaveSettings(r.Context(), set); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.invalidateFinance()
	writeSuccess(w, "Settings saved")
}
