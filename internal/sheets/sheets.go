// Package sheets mirrors each company's quarterly records into a Google
// Sheets spreadsheet, one tab per ticker.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"painel/internal/catalog"
	"painel/internal/comparison"
	"painel/internal/core"
)

const quarterHeader = "Trimestre"

// Config selects the spreadsheet and how to authenticate against it.
// Service-account credentials win over an OAuth token when both are set.
type Config struct {
	SpreadsheetID      string
	ServiceAccountJSON string
	ServiceAccountFile string
	OAuthClientJSON    string
	OAuthClientFile    string
	OAuthTokenFile     string
}

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string

	mu   sync.Mutex
	tabs map[string]bool
}

func New(ctx context.Context, cfg Config) (*Exporter, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	opt, err := clientOption(ctx, cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx, opt, goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets exporter ready", "spreadsheet_id", cfg.SpreadsheetID)
	return &Exporter{svc: svc, spreadsheetID: cfg.SpreadsheetID, tabs: make(map[string]bool)}, nil
}

func clientOption(ctx context.Context, cfg Config) (goption.ClientOption, error) {
	switch {
	case cfg.ServiceAccountJSON != "":
		return goption.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON)), nil
	case cfg.ServiceAccountFile != "":
		b, err := os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return goption.WithCredentialsJSON(b), nil
	case cfg.OAuthTokenFile != "":
		ts, err := tokenSource(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return goption.WithTokenSource(ts), nil
	}
	return nil, errors.New("missing Google credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_OAUTH_TOKEN_FILE)")
}

// tokenSource refreshes the token written by oauth-init using the OAuth
// client it was issued for.
func tokenSource(ctx context.Context, cfg Config) (oauth2.TokenSource, error) {
	clientJSON := []byte(cfg.OAuthClientJSON)
	if len(clientJSON) == 0 && cfg.OAuthClientFile != "" {
		b, err := os.ReadFile(cfg.OAuthClientFile)
		if err != nil {
			return nil, fmt.Errorf("read oauth client file: %w", err)
		}
		clientJSON = b
	}
	if len(clientJSON) == 0 {
		return nil, errors.New("oauth token requires GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE")
	}

	oc, err := google.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	tok, err := ReadToken(cfg.OAuthTokenFile)
	if err != nil {
		return nil, err
	}
	return oc.TokenSource(ctx, tok), nil
}

// ExportCompany rewrites the company's tab with every record, oldest first.
func (e *Exporter) ExportCompany(ctx context.Context, c core.Company, records []core.QuarterlyRecord) error {
	tab := TabName(c.Ticker)
	if err := e.ensureTab(ctx, tab); err != nil {
		return err
	}

	if _, err := e.svc.Spreadsheets.Values.Clear(e.spreadsheetID, tab, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear tab %s: %w", tab, err)
	}

	values := append([][]any{Header()}, Rows(records)...)
	vr := &gsheet.ValueRange{Values: values}
	if _, err := e.svc.Spreadsheets.Values.Update(e.spreadsheetID, tab+"!A1", vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write tab %s: %w", tab, err)
	}

	slog.InfoContext(ctx, "Company exported to Google Sheets",
		"company_id", c.ID,
		"ticker", c.Ticker,
		"rows", len(records))
	return nil
}

// DeleteCompany clears the ticker's tab. The tab itself stays so that
// references to it in other sheets keep working.
func (e *Exporter) DeleteCompany(ctx context.Context, ticker string) error {
	tab := TabName(ticker)
	exists, err := e.hasTab(ctx, tab)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	if _, err := e.svc.Spreadsheets.Values.Clear(e.spreadsheetID, tab, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear tab %s: %w", tab, err)
	}
	slog.InfoContext(ctx, "Company tab cleared in Google Sheets", "ticker", ticker)
	return nil
}

func (e *Exporter) hasTab(ctx context.Context, tab string) (bool, error) {
	e.mu.Lock()
	known := e.tabs[tab]
	e.mu.Unlock()
	if known {
		return true, nil
	}

	ss, err := e.svc.Spreadsheets.Get(e.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("get spreadsheet: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			e.tabs[s.Properties.Title] = true
		}
	}
	return e.tabs[tab], nil
}

func (e *Exporter) ensureTab(ctx context.Context, tab string) error {
	exists, err := e.hasTab(ctx, tab)
	if err != nil || exists {
		return err
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: tab},
			},
		}},
	}
	if _, err := e.svc.Spreadsheets.BatchUpdate(e.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add tab %s: %w", tab, err)
	}

	e.mu.Lock()
	e.tabs[tab] = true
	e.mu.Unlock()
	return nil
}

// TabName turns a ticker into a tab title. Characters Sheets treats
// specially in A1 ranges are replaced.
func TabName(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	t = strings.Map(func(r rune) rune {
		switch r {
		case '!', '\'', ':', '[', ']', '*', '?', '/', '\\':
			return '_'
		}
		return r
	}, t)
	if t == "" {
		return "SEM_TICKER"
	}
	return t
}

// Header is the first row of every tab.
func Header() []any {
	row := []any{quarterHeader}
	for _, e := range catalog.Entries() {
		row = append(row, e.Title)
	}
	return row
}

// Rows renders records oldest first, one column per catalog entry.
// Absent values become empty cells.
func Rows(records []core.QuarterlyRecord) [][]any {
	sorted := comparison.SortDescending(records)
	slices.Reverse(sorted)

	entries := catalog.Entries()
	out := make([][]any, 0, len(sorted))
	for _, r := range sorted {
		row := make([]any, 0, len(entries)+1)
		row = append(row, r.Quarter)
		for _, e := range entries {
			if v, ok := r.Value(e.Field); ok {
				row = append(row, v)
			} else {
				row = append(row, "")
			}
		}
		out = append(out, row)
	}
	return out
}
