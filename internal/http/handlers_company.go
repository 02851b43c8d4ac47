package http

import (
	"context"
	"net/http"

	"painel/internal/core"
	applog "painel/internal/log"
)

func (s *Server) handleCompaniesPage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), loadTimeout)
	defer cancel()

	data := companiesPage{Page: Page{Title: "Empresas", Active: "companies"}}
	companies, err := s.deps.Dashboard.Companies(ctx)
	if err != nil {
		s.slog.LogError(ctx, "Company list failed", err, applog.ComponentCompany, applog.OpList, nil)
		data.Error = msgLoadCompanies
		s.render(w, r, http.StatusInternalServerError, "companies.html", data)
		return
	}
	data.List.Companies = companies
	s.render(w, r, http.StatusOK, "companies.html", data)
}

func (s *Server) handleEditCompany(w http.ResponseWriter, r *http.Request) {
	c, err := s.deps.Companies.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		failure(err, msgLoadCompanies).Write(w)
		return
	}
	s.render(w, r, http.StatusOK, "company_form", companyForm{Company: &c})
}

func (s *Server) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError(msgBadRequest).Write(w)
		return
	}

	saved, err := s.deps.Companies.Create(r.Context(), ParseCompany(p))
	s.metrics.mutation("company", applog.OpCreate, err)
	if err != nil {
		s.companyFailure(w, r, err, applog.OpCreate)
		return
	}
	s.slog.LogMutation(r.Context(), applog.ComponentCompany, applog.OpCreate,
		applog.NewFields().WithCompany(saved.ID, saved.Ticker))
	s.writeCompanyList(w, r, msgCompanyCreated)
}

// handleUpdateCompany accepts POST from HTML forms and PUT from htmx or API clients.
func (s *Server) handleUpdateCompany(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError(msgBadRequest).Write(w)
		return
	}

	c := ParseCompany(p)
	c.ID = r.PathValue("id")
	saved, err := s.deps.Companies.Update(r.Context(), c)
	s.metrics.mutation("company", applog.OpUpdate, err)
	if err != nil {
		s.companyFailure(w, r, err, applog.OpUpdate)
		return
	}
	s.slog.LogMutation(r.Context(), applog.ComponentCompany, applog.OpUpdate,
		applog.NewFields().WithCompany(saved.ID, saved.Ticker))
	s.writeCompanyList(w, r, msgCompanyUpdated)
}

func (s *Server) handleDeleteCompany(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := s.deps.Companies.Delete(r.Context(), id)
	s.metrics.mutation("company", applog.OpDelete, err)
	if err != nil {
		s.companyFailure(w, r, err, applog.OpDelete)
		return
	}
	s.slog.LogMutation(r.Context(), applog.ComponentCompany, applog.OpDelete,
		applog.NewFields().WithCompany(id, ""))
	s.writeCompanyList(w, r, msgCompanyDeleted)
}

func (s *Server) companyFailure(w http.ResponseWriter, r *http.Request, err error, op string) {
	if statusFor(err) == http.StatusInternalServerError {
		s.slog.LogError(r.Context(), "Company mutation failed", err, applog.ComponentCompany, op, nil)
	}
	failure(err, "Erro ao salvar empresa.").Write(w)
}

// writeCompanyList answers a successful mutation with the re-fetched list
// and a blank form, so the page never shows stale rows.
func (s *Server) writeCompanyList(w http.ResponseWriter, r *http.Request, toast string) {
	ctx, cancel := context.WithTimeout(r.Context(), loadTimeout)
	defer cancel()

	companies, err := s.deps.Dashboard.Companies(ctx)
	if err != nil {
		s.slog.LogError(ctx, "Company list reload failed", err, applog.ComponentCompany, applog.OpList, nil)
		InternalServerError(msgLoadCompanies).Write(w)
		return
	}

	list, err := s.partial("company_list", companyList{Companies: companies})
	if err == nil {
		var form string
		form, err = s.partial("company_form", companyForm{OOB: true})
		list += form
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Template execution failed", "error", err, "template", "company_list")
		InternalServerError("Erro ao renderizar página").Write(w)
		return
	}

	NewHTMXResponse().
		TriggerSuccessNotification(toast).
		TriggerCompaniesChanged().
		TriggerFormReset().
		BodyHTML(list).
		Write(w)
}

// companyByID finds id in companies.
func companyByID(companies []core.Company, id string) (core.Company, bool) {
	for _, c := range companies {
		if c.ID == id {
			return c, true
		}
	}
	return core.Company{}, false
}
