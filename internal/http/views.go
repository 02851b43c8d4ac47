package http

import (
	"bytes"
	"html/template"
	"net/http"
	"slices"

	"painel/internal/catalog"
	"painel/internal/charts"
	"painel/internal/comparison"
	"painel/internal/core"
	"painel/internal/format"
	"painel/internal/services"
)

var templateFuncs = template.FuncMap{
	"value": format.Value,
	"change": func(current, prior *float64) string {
		if current == nil || prior == nil {
			return format.Missing
		}
		return format.Change(comparison.Change(*current, *prior))
	},
	"input": core.FormatInput,
	"fieldInput": func(rec *core.QuarterlyRecord, f core.Field) string {
		if rec == nil {
			return ""
		}
		return core.FormatInput(rec.Get(f))
	},
	"number": func(unit catalog.Unit, v float64) string {
		return format.Value(unit, &v)
	},
	"axis":     charts.AxisName,
	"title":    catalog.TitleOf,
	"unit":     catalog.UnitOf,
	"headline": headlineEntries,
	"trendClass": func(t comparison.Trend) string {
		return "trend trend--" + string(t)
	},
}

func headlineEntries() []catalog.Entry {
	out := make([]catalog.Entry, 0, len(catalog.Headline))
	for _, f := range catalog.Headline {
		if e, ok := catalog.Lookup(f); ok {
			out = append(out, e)
		}
	}
	return out
}

// Page is the data every full page layout needs.
type Page struct {
	Title  string
	Active string
	Error  string
}

type indexPage struct {
	Page
	View dashboardView
}

// dashboardView is the data of the dashboard partial.
type dashboardView struct {
	*services.Dashboard
	// Quarter is the selected quarter key, empty for the latest.
	Quarter string
}

type companiesPage struct {
	Page
	List companyList
	Form companyForm
}

type companyForm struct {
	// Company is nil when the form creates a new company.
	Company *core.Company
	// OOB marks the form for an out-of-band swap next to a list response.
	OOB bool
}

type companyList struct {
	Companies []core.Company
}

type recordsPage struct {
	Page
	Company core.Company
	List    recordList
	Form    recordForm
}

type recordList struct {
	CompanyID string
	Records   []core.QuarterlyRecord
}

type recordForm struct {
	CompanyID string
	// Record is nil when the form creates a new record.
	Record   *core.QuarterlyRecord
	Quarters []core.Quarter
	Sections []catalog.Group
	OOB      bool
}

// newRecordForm builds the record form. An edited record whose quarter is
// outside the configured years is still offered so saving keeps it.
func (s *Server) newRecordForm(companyID string, rec *core.QuarterlyRecord) recordForm {
	quarters := core.QuarterOptions(s.opts.FirstYear, s.opts.LastYear)
	if rec != nil && !slices.Contains(quarters, rec.Period()) {
		quarters = append([]core.Quarter{rec.Period()}, quarters...)
	}
	return recordForm{
		CompanyID: companyID,
		Record:    rec,
		Quarters:  quarters,
		Sections:  catalog.Sections(),
	}
}

// partial executes a named template into a string.
func (s *Server) partial(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// render writes a full page or partial. The template runs into a buffer
// first so a failure can still produce a clean 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	body, err := s.partial(name, data)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution failed", "error", err, "template", name)
		http.Error(w, "Erro ao renderizar página", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
