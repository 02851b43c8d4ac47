package http

import (
	"context"
	"errors"
	"net/http"

	"painel/internal/catalog"
	"painel/internal/charts"
	"painel/internal/comparison"
	"painel/internal/core"
	applog "painel/internal/log"
	"painel/internal/services"
)

// handleIndex renders the full dashboard page. ?company= selects a company
// (the first one by default) and ?quarter= anchors the comparisons.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	session := sessionID(w, r)
	companyID := sanitizeInput(r.URL.Query().Get("company"))
	quarter := sanitizeInput(r.URL.Query().Get("quarter"))

	ctx, cancel := context.WithTimeout(r.Context(), loadTimeout)
	defer cancel()

	tok := s.deps.Selections.Begin(session, companyID)
	d, err := s.deps.Dashboard.Build(ctx, companyID, quarter)
	if err != nil {
		status := statusFor(err)
		msg := msgLoadCompanies
		switch status {
		case http.StatusUnprocessableEntity:
			msg = "Trimestre inválido: " + quarter
		case http.StatusNotFound:
			msg = msgCompanyNotFound
		default:
			s.slog.LogError(ctx, "Dashboard load failed", err, applog.ComponentDashboard, applog.OpRead,
				applog.NewFields().WithCompany(companyID, ""))
		}
		s.render(w, r, status, "index.html", indexPage{Page: Page{Title: "Painel", Active: "dashboard", Error: msg}})
		return
	}
	tok.CompanyID = d.Company.ID
	s.deps.Selections.Commit(tok, d.Records)

	s.render(w, r, http.StatusOK, "index.html", indexPage{
		Page: Page{Title: "Painel", Active: "dashboard"},
		View: dashboardView{Dashboard: d, Quarter: quarter},
	})
}

// handleDashboard renders the dashboard partial for one company. Each call
// starts a new selection generation for the session; when a later selection
// has started by the time the data arrives, the response is discarded.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	session := sessionID(w, r)
	companyID := r.PathValue("companyID")
	quarter := sanitizeInput(r.URL.Query().Get("quarter"))

	ctx, cancel := context.WithTimeout(r.Context(), loadTimeout)
	defer cancel()

	tok := s.deps.Selections.Begin(session, companyID)
	d, err := s.deps.Dashboard.Build(ctx, companyID, quarter)
	if err != nil {
		if !s.current(tok) {
			s.discardStale(w, r, tok)
			return
		}
		if statusFor(err) == http.StatusInternalServerError {
			s.slog.LogError(ctx, "Dashboard load failed", err, applog.ComponentDashboard, applog.OpRead,
				applog.NewFields().WithCompany(companyID, ""))
		}
		if errors.Is(err, core.ErrInvalidQuarterKey) {
			UnprocessableEntityError("Trimestre inválido: " + quarter).Write(w)
			return
		}
		if errors.Is(err, core.ErrNotFound) {
			NotFoundError(msgCompanyNotFound).Write(w)
			return
		}
		InternalServerError(msgLoadRecords).Write(w)
		return
	}

	if !s.deps.Selections.Commit(tok, d.Records) {
		s.discardStale(w, r, tok)
		return
	}

	s.render(w, r, http.StatusOK, "dashboard", dashboardView{Dashboard: d, Quarter: quarter})
}

// current reports whether tok is still the session's latest generation.
func (s *Server) current(tok services.Token) bool {
	return s.deps.Selections.IsLatest(tok)
}

func (s *Server) discardStale(w http.ResponseWriter, r *http.Request, tok services.Token) {
	s.metrics.staleSelections.Inc()
	applog.FromContext(r.Context()).WithComponent(applog.ComponentDashboard).DebugContext(r.Context(), "Discarding stale dashboard response",
		applog.FieldSessionID, tok.Session,
		applog.FieldCompanyID, tok.CompanyID,
		"generation", tok.Generation)
	StaleResponse().Write(w)
}

// handleChart renders one indicator's series as a standalone ECharts page,
// embedded by the dashboard in an iframe.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	companyID := r.PathValue("id")
	field := core.Field(r.PathValue("field"))
	if !catalog.Known(field) {
		http.Error(w, "Indicador desconhecido", http.StatusNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), loadTimeout)
	defer cancel()

	if _, err := s.deps.Companies.Get(ctx, companyID); err != nil {
		http.Error(w, msgCompanyNotFound, statusFor(err))
		return
	}
	records, err := s.deps.Dashboard.Records(ctx, companyID)
	if err != nil {
		s.slog.LogError(ctx, "Chart load failed", err, applog.ComponentDashboard, applog.OpRender,
			applog.NewFields().WithCompany(companyID, ""))
		http.Error(w, msgLoadRecords, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := charts.Render(w, catalog.TitleOf(field), catalog.UnitOf(field), comparison.Series(records, field)); err != nil {
		s.logger.ErrorContext(ctx, "Chart render failed", "error", err, applog.FieldIndicator, field)
	}
}
