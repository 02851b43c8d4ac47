package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"painel/internal/core"
	applog "painel/internal/log"
	"painel/internal/ports"
	"painel/internal/services"
	"painel/internal/storage/memory"
)

type testEnv struct {
	srv   *Server
	store ports.Store
	romi  core.Company
	petr  core.Company
}

func newTestEnv(t *testing.T, store ports.Store, opts Options) *testEnv {
	t.Helper()
	return newTestEnvWithLogger(t, store, opts, applog.New(applog.Config{Level: slog.LevelError, Output: io.Discard}))
}

func newTestEnvWithLogger(t *testing.T, store ports.Store, opts Options, logger *applog.Logger) *testEnv {
	t.Helper()
	dash := services.NewDashboardService(store, 16, time.Minute)
	deps := Deps{
		Store:      store,
		Dashboard:  dash,
		Companies:  services.NewCompanyService(store, nil, dash),
		Records:    services.NewRecordService(store, nil, dash),
		Selections: services.NewSelections(64, time.Hour),
		Logger:     logger,
	}
	if opts.FirstYear == 0 {
		opts.FirstYear, opts.LastYear = 2022, 2025
	}
	srv, err := NewServer(":0", deps, opts)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })

	env := &testEnv{srv: srv, store: store}
	companies, err := store.ListCompanies(context.Background())
	if err != nil {
		t.Fatalf("list companies: %v", err)
	}
	for _, c := range companies {
		switch c.Ticker {
		case "ROMI3":
			env.romi = c
		case "PETR4":
			env.petr = c
		}
	}
	return env
}

func demoStore(t *testing.T) *memory.Store {
	t.Helper()
	store, err := memory.NewWithDemoData(context.Background())
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return store
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func form(method, target string, values url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("HX-Request", "true")
	return req
}

func TestIndexAndHealth(t *testing.T) {
	env := newTestEnv(t, demoStore(t), Options{})

	rr := env.do(httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("index status = %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"ROMI S.A.", "Petrobras", `id="company-select"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("index missing %q", want)
		}
	}
	if rr.Header().Get("Content-Security-Policy") == "" {
		t.Fatal("missing security headers")
	}
	if !strings.Contains(rr.Header().Get("Set-Cookie"), sessionCookie) {
		t.Fatal("expected session cookie on first visit")
	}

	rr = env.do(httptest.NewRequest(http.MethodGet, "/?company="+env.romi.ID, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("index status = %d", rr.Code)
	}
	body = rr.Body.String()
	if !strings.Contains(body, "2024-T1") || !strings.Contains(body, "/charts/ebitda") {
		t.Fatal("dashboard for company with records should list quarters and charts")
	}

	rr = env.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"status":"ok"`) {
		t.Fatalf("healthz = %d %s", rr.Code, rr.Body.String())
	}
	rr = env.do(httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("readyz = %d %s", rr.Code, rr.Body.String())
	}
}

func TestIndexUnknownCompanyAndQuarter(t *testing.T) {
	env := newTestEnv(t, demoStore(t), Options{})

	rr := env.do(httptest.NewRequest(http.MethodGet, "/?company=missing", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), msgCompanyNotFound) {
		t.Fatal("expected not found banner")
	}

	rr = env.do(httptest.NewRequest(http.MethodGet, "/?company="+env.romi.ID+"&quarter=2024-Q1", nil))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rr.Code)
	}
}

func TestDashboardPartial(t *testing.T) {
	env := newTestEnv(t, demoStore(t), Options{})

	rr := env.do(httptest.NewRequest(http.MethodGet, "/dashboard/"+env.romi.ID+"?quarter=2023-T4", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := rr.Body.String()
	if strings.Contains(body, "<html") {
		t.Fatal("partial should not include the layout")
	}
	if !strings.Contains(body, `id="dashboard"`) {
		t.Fatal("missing dashboard container")
	}

	rr = env.do(httptest.NewRequest(http.MethodGet, "/dashboard/"+env.petr.ID, nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Nenhum dado financeiro cadastrado") {
		t.Fatalf("company without records: %d", rr.Code)
	}

	rr = env.do(httptest.NewRequest(http.MethodGet, "/dashboard/"+env.romi.ID+"?quarter=T1-2024", nil))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad quarter status = %d", rr.Code)
	}
	rr = env.do(httptest.NewRequest(http.MethodGet, "/dashboard/missing", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown company status = %d", rr.Code)
	}
}

func TestCompanyMutations(t *testing.T) {
	env := newTestEnv(t, demoStore(t), Options{})

	rr := env.do(form(http.MethodPost, "/companies", url.Values{
		"nome":    {"WEG S.A."},
		"ticker":  {"wege3"},
		"link_ri": {"https://ri.weg.net"},
	}))
	if rr.Code != http.StatusOK {
		t.Fatalf("create status = %d %s", rr.Code, rr.Body.String())
	}
	trigger := rr.Header().Get("HX-Trigger")
	for _, want := range []string{"show-notification", msgCompanyCreated, "companies:changed", "form:reset"} {
		if !strings.Contains(trigger, want) {
			t.Fatalf("HX-Trigger %q missing %q", trigger, want)
		}
	}
	if !strings.Contains(rr.Body.String(), "WEG S.A.") || !strings.Contains(rr.Body.String(), "ROMI S.A.") {
		t.Fatal("response should carry the re-fetched list")
	}

	rr = env.do(form(http.MethodPost, "/companies", url.Values{"nome": {"  "}, "ticker": {"X"}, "link_ri": {"https://x.com"}}))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty name status = %d", rr.Code)
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), `"type":"error"`) {
		t.Fatal("validation failure should raise an error toast")
	}

	rr = env.do(form(http.MethodPut, "/companies/"+env.petr.ID, url.Values{
		"nome":    {"Petróleo Brasileiro"},
		"ticker":  {"PETR4"},
		"link_ri": {"https://ri.petrobras.com"},
	}))
	if rr.Code != http.StatusOK {
		t.Fatalf("update status = %d %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "Petróleo Brasileiro") {
		t.Fatal("updated name missing from list")
	}

	rr = env.do(httptest.NewRequest(http.MethodDelete, "/companies/"+env.petr.ID, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "Petróleo Brasileiro") {
		t.Fatal("deleted company still listed")
	}
	rr = env.do(httptest.NewRequest(http.MethodDelete, "/companies/"+env.petr.ID, nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d", rr.Code)
	}
}

func TestRecordMutations(t *testing.T) {
	env := newTestEnv(t, demoStore(t), Options{})
	target := "/companies/" + env.romi.ID + "/records"

	rr := env.do(httptest.NewRequest(http.MethodGet, target, nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "2024-T1") {
		t.Fatalf("records page = %d", rr.Code)
	}

	rr = env.do(form(http.MethodPost, target, url.Values{"quarter": {"2024-T2"}, "ebitda": {"30.000.000,00"}}))
	if rr.Code != http.StatusOK {
		t.Fatalf("create status = %d %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), "records:changed") {
		t.Fatalf("HX-Trigger = %q", rr.Header().Get("HX-Trigger"))
	}
	if !strings.Contains(rr.Body.String(), "2024-T2") {
		t.Fatal("new quarter missing from re-fetched list")
	}

	rr = env.do(form(http.MethodPost, target, url.Values{"quarter": {"2024-T2"}}))
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d", rr.Code)
	}
	rr = env.do(form(http.MethodPost, target, url.Values{"quarter": {"2024-T9"}}))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad quarter status = %d", rr.Code)
	}
	rr = env.do(form(http.MethodPost, target, url.Values{"quarter": {"2024-T3"}, "roe": {"doze"}}))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad number status = %d", rr.Code)
	}

	records, err := env.store.ListRecords(context.Background(), env.romi.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 5 || records[0].Quarter != "2024-T2" {
		t.Fatalf("records = %d, first %s", len(records), records[0].Quarter)
	}

	rr = env.do(httptest.NewRequest(http.MethodGet, "/records/"+records[0].ID+"/edit", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "hx-put") {
		t.Fatalf("edit form = %d", rr.Code)
	}

	rr = env.do(httptest.NewRequest(http.MethodDelete, "/records/"+records[0].ID, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rr.Code)
	}
	rr = env.do(httptest.NewRequest(http.MethodDelete, "/records/"+records[0].ID, nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d", rr.Code)
	}
}

func TestChart(t *testing.T) {
	env := newTestEnv(t, demoStore(t), Options{})

	rr := env.do(httptest.NewRequest(http.MethodGet, "/companies/"+env.romi.ID+"/charts/ebitda", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("chart status = %d", rr.Code)
	}
	if !strings.HasPrefix(rr.Header().Get("Content-Type"), "text/html") || !strings.Contains(rr.Body.String(), "echarts") {
		t.Fatal("chart should be an ECharts page")
	}

	rr = env.do(httptest.NewRequest(http.MethodGet, "/companies/"+env.romi.ID+"/charts/nope", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown field status = %d", rr.Code)
	}
	rr = env.do(httptest.NewRequest(http.MethodGet, "/companies/missing/charts/ebitda", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown company status = %d", rr.Code)
	}
}

func TestAPIComparisons(t *testing.T) {
	env := newTestEnv(t, demoStore(t), Options{})

	rr := env.do(httptest.NewRequest(http.MethodGet, "/api/companies/"+env.romi.ID+"/comparisons?field=ebitda&quarter=2024-T1", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d %s", rr.Code, rr.Body.String())
	}
	var got struct {
		Quarter    string   `json:"quarter"`
		Current    *float64 `json:"current"`
		Comparison struct {
			PreviousQuarter     *float64 `json:"previous_quarter"`
			SameQuarterLastYear *float64 `json:"same_quarter_last_year"`
		} `json:"comparison"`
		Trend string `json:"trend"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Quarter != "2024-T1" || got.Current == nil || *got.Current != 25e6 {
		t.Fatalf("current = %+v", got)
	}
	if got.Comparison.PreviousQuarter == nil || *got.Comparison.PreviousQuarter != 22e6 {
		t.Fatalf("previous = %v", got.Comparison.PreviousQuarter)
	}
	if got.Comparison.SameQuarterLastYear != nil {
		t.Fatal("2023-T1 is not in the demo data")
	}
	if got.Trend != "up" {
		t.Fatalf("trend = %q", got.Trend)
	}

	rr = env.do(httptest.NewRequest(http.MethodGet, "/api/companies/"+env.romi.ID+"/comparisons", nil))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("missing field status = %d", rr.Code)
	}
	rr = env.do(httptest.NewRequest(http.MethodGet, "/api/companies/"+env.romi.ID+"/comparisons?field=ebitda&quarter=2024", nil))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad quarter status = %d", rr.Code)
	}
	rr = env.do(httptest.NewRequest(http.MethodGet, "/api/companies/missing/records", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("unknown company status = %d", rr.Code)
	}

	rr = env.do(httptest.NewRequest(http.MethodGet, "/api/companies", nil))
	var companies []core.Company
	if err := json.Unmarshal(rr.Body.Bytes(), &companies); err != nil || len(companies) != 2 {
		t.Fatalf("companies = %v (%v)", companies, err)
	}
}

func TestAPICORSPreflight(t *testing.T) {
	env := newTestEnv(t, demoStore(t), Options{})

	req := httptest.NewRequest(http.MethodOptions, "/api/companies", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rr := env.do(req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("Access-Control-Allow-Origin = %q", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, demoStore(t), Options{})

	env.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	env.do(form(http.MethodPost, "/companies", url.Values{"nome": {""}}))

	rr := env.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{
		"painel_http_requests_total",
		`painel_mutations_total{action="create",entity="company",outcome="invalid"}`,
		"painel_cache_entries",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q", want)
		}
	}
}

func TestMutationsAreRateLimited(t *testing.T) {
	var logs bytes.Buffer
	env := newTestEnvWithLogger(t, demoStore(t), Options{RateLimitPerMinute: 2},
		applog.New(applog.Config{Level: slog.LevelWarn, Output: &logs}))

	for i := 0; i < 2; i++ {
		rr := env.do(form(http.MethodPost, "/companies", url.Values{"nome": {""}}))
		if rr.Code != http.StatusUnprocessableEntity {
			t.Fatalf("request %d status = %d", i, rr.Code)
		}
	}
	rr := env.do(form(http.MethodPost, "/companies", url.Values{"nome": {""}}))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After")
	}
	reqID := rr.Header().Get("X-Request-ID")
	var limitLine string
	for _, line := range strings.Split(logs.String(), "\n") {
		if strings.Contains(line, "Rate limit exceeded") {
			limitLine = line
		}
	}
	if reqID == "" || !strings.Contains(limitLine, "request_id="+reqID) {
		t.Errorf("rate limit log %q lacks request id %q", limitLine, reqID)
	}

	// reads are not limited
	rr = env.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rr.Code)
	}
}

// blockingStore holds ListRecords for one company until released.
type blockingStore struct {
	*memory.Store
	companyID string
	entered   chan struct{}
	release   chan struct{}
	once      sync.Once
}

func (s *blockingStore) ListRecords(ctx context.Context, companyID string) ([]core.QuarterlyRecord, error) {
	if companyID == s.companyID {
		s.once.Do(func() { close(s.entered) })
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.Store.ListRecords(ctx, companyID)
}

func TestStaleSelectionIsDiscarded(t *testing.T) {
	store := &blockingStore{
		Store:   demoStore(t),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	env := newTestEnv(t, store, Options{})
	store.companyID = env.romi.ID

	session := &http.Cookie{Name: sessionCookie, Value: "7c9e6679-7425-40de-944b-e07fc1f66afe"}

	slow := httptest.NewRequest(http.MethodGet, "/dashboard/"+env.romi.ID, nil)
	slow.AddCookie(session)
	slowRR := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		env.srv.Handler.ServeHTTP(slowRR, slow)
	}()

	select {
	case <-store.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("slow request never reached the store")
	}

	fast := httptest.NewRequest(http.MethodGet, "/dashboard/"+env.petr.ID, nil)
	fast.AddCookie(session)
	rr := env.do(fast)
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Petrobras") {
		t.Fatalf("latest selection status = %d", rr.Code)
	}

	close(store.release)
	<-done

	if slowRR.Code != http.StatusNoContent {
		t.Fatalf("stale response status = %d, want 204", slowRR.Code)
	}
	if slowRR.Header().Get("HX-Reswap") != "none" {
		t.Fatal("stale response must not swap")
	}

	sel, ok := env.srv.deps.Selections.Current(session.Value)
	if !ok || sel.CompanyID != env.petr.ID {
		t.Fatalf("applied selection = %+v", sel)
	}
}
