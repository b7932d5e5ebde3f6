package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pacaprints/internal/core"
	"pacaprints/internal/finance"
)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"gbp":    core.FormatGBP,
		"pounds": func(p float64) string { return fmt.Sprintf("£%.2f", p) },
		"miles":  func(m float64) string { return strconv.FormatFloat(m, 'f', -1, 64) },
	}
}

// parseTaxYear reads the "year" query parameter (tax year start year),
// falling back to the current tax year.
func parseTaxYear(r *http.Request, now time.Time) int {
	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil && y >= 1900 && y <= 2200 {
			return y
		}
	}
	return finance.CurrentTaxYear(now).StartYear
}

// parseListQuery builds the immutable listing query from request parameters.
func parseListQuery(r *http.Request, now time.Time) core.ListQuery {
	q := core.ListQuery{
		TaxYearStart: parseTaxYear(r, now),
		Search:       sanitizeInput(r.URL.Query().Get("q")),
	}
	if v := strings.TrimSpace(r.URL.Query().Get("page")); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			q.Page = p
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("page_size")); v != "" {
		if ps, err := strconv.Atoi(v); err == nil {
			q.PageSize = ps
		}
	}
	return q.Normalized()
}

func formID(r *http.Request, field string) (int64, error) {
	v := strings.TrimSpace(r.Form.Get(field))
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", field, v)
	}
	return id, nil
}

func formFloat(r *http.Request, field string) (float64, error) {
	v := strings.TrimSpace(strings.ReplaceAll(r.Form.Get(field), ",", "."))
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", field, v)
	}
	return f, nil
}

// formDate parses a YYYY-MM-DD form field, defaulting to today when empty.
func formDate(r *http.Request, field string, now time.Time) (core.Date, error) {
	v := strings.TrimSpace(r.Form.Get(field))
	if v == "" {
		return core.NewDate(now.Year(), int(now.Month()), now.Day()), nil
	}
	return core.ParseDate(v)
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// render executes a template, falling back to a 500 when templates failed to
// parse at startup.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "template", name)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed", "template", name, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// writeError renders an htmx-friendly error fragment.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`<div class="error">` + template.HTMLEscapeString(msg) + `</div>`))
}

func writeSuccess(w http.ResponseWriter, msg string) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">` + template.HTMLEscapeString(msg) + `</div>`))
}
