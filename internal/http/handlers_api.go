package http

import (
	"context"
	"encoding/json"
	"net/http"

	"painel/internal/catalog"
	"painel/internal/comparison"
	"painel/internal/core"
	applog "painel/internal/log"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleAPICatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"sections": catalog.Sections(),
		"entries":  catalog.Entries(),
		"headline": catalog.Headline,
	})
}

func (s *Server) handleAPICompanies(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), loadTimeout)
	defer cancel()

	companies, err := s.deps.Dashboard.Companies(ctx)
	if err != nil {
		s.slog.LogError(ctx, "Company list failed", err, applog.ComponentCompany, applog.OpList, nil)
		writeJSONError(w, http.StatusInternalServerError, msgLoadCompanies)
		return
	}
	if companies == nil {
		companies = []core.Company{}
	}
	writeJSON(w, http.StatusOK, companies)
}

// companyRecords loads a company's records, answering 404 for an unknown company.
func (s *Server) companyRecords(w http.ResponseWriter, r *http.Request) ([]core.QuarterlyRecord, bool) {
	companyID := r.PathValue("id")
	ctx, cancel := context.WithTimeout(r.Context(), loadTimeout)
	defer cancel()

	if _, err := s.deps.Companies.Get(ctx, companyID); err != nil {
		status := statusFor(err)
		if status == http.StatusNotFound {
			writeJSONError(w, status, msgCompanyNotFound)
		} else {
			writeJSONError(w, status, msgLoadCompanies)
		}
		return nil, false
	}
	records, err := s.deps.Dashboard.Records(ctx, companyID)
	if err != nil {
		s.slog.LogError(ctx, "Record list failed", err, applog.ComponentRecord, applog.OpList,
			applog.NewFields().WithCompany(companyID, ""))
		writeJSONError(w, http.StatusInternalServerError, msgLoadRecords)
		return nil, false
	}
	if records == nil {
		records = []core.QuarterlyRecord{}
	}
	return records, true
}

func (s *Server) handleAPIRecords(w http.ResponseWriter, r *http.Request) {
	records, ok := s.companyRecords(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// comparisonResponse is one field's comparison anchored on one quarter.
type comparisonResponse struct {
	CompanyID  string            `json:"company_id"`
	Field      core.Field        `json:"field"`
	Title      string            `json:"title"`
	Unit       catalog.Unit      `json:"unit"`
	Quarter    string            `json:"quarter,omitempty"`
	Current    *float64          `json:"current"`
	Comparison comparison.Result `json:"comparison"`
	// Percentage changes against each prior value, absent when undefined.
	ChangePrevious *float64         `json:"change_previous,omitempty"`
	ChangeLastYear *float64         `json:"change_last_year,omitempty"`
	Trend          comparison.Trend `json:"trend"`
}

// handleAPIComparisons answers ?field= (required) anchored on ?quarter=, or
// on the latest record when quarter is omitted.
func (s *Server) handleAPIComparisons(w http.ResponseWriter, r *http.Request) {
	field := core.Field(sanitizeInput(r.URL.Query().Get("field")))
	if field == "" {
		writeJSONError(w, http.StatusUnprocessableEntity, "parâmetro field é obrigatório")
		return
	}
	var at *core.Quarter
	if key := sanitizeInput(r.URL.Query().Get("quarter")); key != "" {
		q, err := core.ParseQuarterKey(key)
		if err != nil {
			writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		at = &q
	}

	records, ok := s.companyRecords(w, r)
	if !ok {
		return
	}

	resp := comparisonResponse{
		CompanyID: r.PathValue("id"),
		Field:     field,
		Title:     catalog.TitleOf(field),
		Unit:      catalog.UnitOf(field),
		Trend:     comparison.TrendUnknown,
	}

	sorted := comparison.SortDescending(records)
	if at == nil && len(sorted) > 0 {
		q := sorted[0].Period()
		at = &q
	}
	if at != nil {
		resp.Quarter = at.Key()
		for _, rec := range sorted {
			if rec.Period() == *at {
				resp.Current = rec.Get(field)
				break
			}
		}
		resp.Comparison = comparison.CompareAt(sorted, field, *at)
		resp.ChangePrevious = change(resp.Current, resp.Comparison.PreviousQuarter)
		resp.ChangeLastYear = change(resp.Current, resp.Comparison.SameQuarterLastYear)
		resp.Trend = comparison.TrendOf(resp.Current, resp.Comparison.PreviousQuarter)
	}
	writeJSON(w, http.StatusOK, resp)
}

func change(current, prior *float64) *float64 {
	if current == nil || prior == nil {
		return nil
	}
	pct, ok := comparison.Change(*current, *prior)
	if !ok {
		return nil
	}
	return &pct
}
