// Package http provides HTTP server and handler implementations.
//
// This file turns request bodies into domain values.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"painel/internal/catalog"
	"painel/internal/core"
)

const maxBodyBytes = 64 << 10

var strictPolicy = bluemonday.StrictPolicy()

// sanitizeInput strips markup and control characters and trims whitespace.
// The result is plain text; templates escape it again on output.
func sanitizeInput(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// RequestBodyParser reads a JSON or form-encoded body once.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse decodes the body as JSON when it looks like JSON, otherwise as a form.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns the sanitized value of key.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseCompany reads a company from the nome, ticker and link_ri keys.
func ParseCompany(p *RequestBodyParser) core.Company {
	return core.Company{
		Name:                 p.Get("nome"),
		Ticker:               p.Get("ticker"),
		InvestorRelationsURL: p.Get("link_ri"),
	}
}

// FieldErrors maps form keys to the reason their value was rejected.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for _, f := range catalog.Entries() {
		if msg, ok := fe[string(f.Field)]; ok {
			keys = append(keys, fmt.Sprintf("%s: %s", f.Title, msg))
		}
	}
	for _, k := range []struct{ key, label string }{{"year", "Ano"}, {"quarter_number", "Trimestre"}} {
		if msg, ok := fe[k.key]; ok {
			keys = append(keys, fmt.Sprintf("%s: %s", k.label, msg))
		}
	}
	return "campos inválidos: " + strings.Join(keys, "; ")
}

func (fe FieldErrors) Unwrap() error { return core.ErrValidation }

// ParseRecord reads a quarterly record. The quarter comes from "quarter"
// ("2024-T1") when present, otherwise from "year" and "quarter_number".
// Every stored indicator is read from the key of the same name; an empty
// value means absent. Rejected values are reported together.
func ParseRecord(p *RequestBodyParser) (core.QuarterlyRecord, error) {
	var rec core.QuarterlyRecord
	errs := FieldErrors{}

	if key := p.Get("quarter"); key != "" {
		q, err := core.ParseQuarterKey(key)
		if err != nil {
			return core.QuarterlyRecord{}, err
		}
		rec.SetQuarter(q)
	} else {
		year, err := strconv.Atoi(p.Get("year"))
		if err != nil {
			errs["year"] = "ano inválido"
		}
		num, err := strconv.Atoi(p.Get("quarter_number"))
		if err != nil {
			errs["quarter_number"] = "trimestre inválido"
		}
		rec.SetQuarter(core.Quarter{Year: year, Number: num})
	}

	for _, f := range core.Fields() {
		v, err := core.ParseIndicatorValue(p.Get(string(f)))
		if err != nil {
			errs[string(f)] = "valor numérico inválido"
			continue
		}
		rec.Set(f, v)
	}

	if len(errs) > 0 {
		return core.QuarterlyRecord{}, errs
	}
	return rec, nil
}

// isValidation reports whether err was caused by bad input.
func isValidation(err error) bool {
	return errors.Is(err, core.ErrValidation) || errors.Is(err, core.ErrInvalidQuarterKey)
}
