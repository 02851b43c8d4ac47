package http

import (
	"context"
	"net/http"

	"golang.org/x/sync/errgroup"

	"painel/internal/core"
	applog "painel/internal/log"
	"painel/internal/services"
)

func (s *Server) handleRecordsPage(w http.ResponseWriter, r *http.Request) {
	companyID := r.PathValue("id")
	ctx, cancel := context.WithTimeout(r.Context(), loadTimeout)
	defer cancel()

	var (
		companies []core.Company
		records   []core.QuarterlyRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		companies, err = s.deps.Dashboard.Companies(gctx)
		return err
	})
	g.Go(func() (err error) {
		records, err = s.deps.Dashboard.Records(gctx, companyID)
		return err
	})

	data := recordsPage{Page: Page{Title: "Dados financeiros", Active: "companies"}}
	if err := g.Wait(); err != nil {
		s.slog.LogError(ctx, "Record list failed", err, applog.ComponentRecord, applog.OpList,
			applog.NewFields().WithCompany(companyID, ""))
		data.Error = msgLoadRecords
		s.render(w, r, http.StatusInternalServerError, "records.html", data)
		return
	}

	company, ok := companyByID(companies, companyID)
	if !ok {
		data.Error = msgCompanyNotFound
		s.render(w, r, http.StatusNotFound, "records.html", data)
		return
	}

	data.Title = company.Name + " · Dados financeiros"
	data.Company = company
	data.List = recordList{CompanyID: companyID, Records: records}
	data.Form = s.newRecordForm(companyID, nil)
	s.render(w, r, http.StatusOK, "records.html", data)
}

func (s *Server) handleEditRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.deps.Records.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		failure(err, msgLoadRecords).Write(w)
		return
	}
	s.render(w, r, http.StatusOK, "record_form", s.newRecordForm(rec.CompanyID, &rec))
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.parseRecord(w, r)
	if !ok {
		return
	}
	rec.CompanyID = r.PathValue("id")

	saved, err := s.deps.Records.Create(r.Context(), rec)
	s.metrics.mutation("record", applog.OpCreate, err)
	if err != nil {
		s.recordFailure(w, r, err, applog.OpCreate, rec)
		return
	}
	s.writeRecordList(w, r, applog.OpCreate, saved, msgRecordCreated)
}

// handleUpdateRecord accepts POST from HTML forms and PUT from htmx or API clients.
func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.parseRecord(w, r)
	if !ok {
		return
	}
	rec.ID = r.PathValue("id")

	saved, err := s.deps.Records.Update(r.Context(), rec)
	s.metrics.mutation("record", applog.OpUpdate, err)
	if err != nil {
		s.recordFailure(w, r, err, applog.OpUpdate, rec)
		return
	}
	s.writeRecordList(w, r, applog.OpUpdate, saved, msgRecordUpdated)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	saved, err := s.deps.Records.Delete(r.Context(), id)
	s.metrics.mutation("record", applog.OpDelete, err)
	if err != nil {
		s.recordFailure(w, r, err, applog.OpDelete, core.QuarterlyRecord{ID: id})
		return
	}
	s.writeRecordList(w, r, applog.OpDelete, saved, msgRecordDeleted)
}

func (s *Server) parseRecord(w http.ResponseWriter, r *http.Request) (core.QuarterlyRecord, bool) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError(msgBadRequest).Write(w)
		return core.QuarterlyRecord{}, false
	}
	rec, err := ParseRecord(p)
	if err != nil {
		s.metrics.mutation("record", applog.OpParse, err)
		failure(err, msgRecordFailed).Write(w)
		return core.QuarterlyRecord{}, false
	}
	return rec, true
}

func (s *Server) recordFailure(w http.ResponseWriter, r *http.Request, err error, op string, rec core.QuarterlyRecord) {
	if statusFor(err) == http.StatusInternalServerError {
		s.slog.LogError(r.Context(), "Record mutation failed", err, applog.ComponentRecord, op,
			applog.NewFields().WithCompany(rec.CompanyID, "").WithRecord(rec.ID, rec.Quarter))
	}
	failure(err, msgRecordFailed).Write(w)
}

// writeRecordList answers a successful mutation with the company's records
// as re-fetched by the service, and a blank form.
func (s *Server) writeRecordList(w http.ResponseWriter, r *http.Request, op string, saved services.Saved, toast string) {
	companyID := saved.Record.CompanyID
	s.slog.LogMutation(r.Context(), applog.ComponentRecord, op,
		applog.NewFields().WithCompany(companyID, "").WithRecord(saved.Record.ID, saved.Record.Quarter))

	list, err := s.partial("record_list", recordList{CompanyID: companyID, Records: saved.Records})
	if err == nil {
		form := s.newRecordForm(companyID, nil)
		form.OOB = true
		var body string
		body, err = s.partial("record_form", form)
		list += body
	}
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution failed", "error", err, "template", "record_list")
		InternalServerError("Erro ao renderizar página").Write(w)
		return
	}

	NewHTMXResponse().
		TriggerSuccessNotification(toast).
		TriggerRecordsChanged(companyID).
		TriggerFormReset().
		BodyHTML(list).
		Write(w)
}
