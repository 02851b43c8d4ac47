package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"painel/internal/amqp"
	"painel/internal/core"
	"painel/internal/storage/memory"
)

type fakeExporter struct {
	mu       sync.Mutex
	exported map[string]int
	deleted  []string
	fail     map[string]error
}

func newFakeExporter() *fakeExporter {
	return &fakeExporter{exported: map[string]int{}, fail: map[string]error{}}
}

func (e *fakeExporter) ExportCompany(_ context.Context, c core.Company, records []core.QuarterlyRecord) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.fail[c.Ticker]; err != nil {
		return err
	}
	e.exported[c.Ticker] = len(records)
	return nil
}

func (e *fakeExporter) DeleteCompany(_ context.Context, ticker string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.deleted = append(e.deleted, ticker)
	return nil
}

func (e *fakeExporter) rows(ticker string) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, ok := e.exported[ticker]
	return n, ok
}

func seeded(t *testing.T) (*memory.Store, []core.Company) {
	t.Helper()
	s, err := memory.NewWithDemoData(context.Background())
	require.NoError(t, err)
	companies, err := s.ListCompanies(context.Background())
	require.NoError(t, err)
	return s, companies
}

func TestHandleRecordChangeExportsCompany(t *testing.T) {
	store, companies := seeded(t)
	exp := newFakeExporter()
	w := NewSyncWorker(store, exp)

	romi := companies[1]
	msg := amqp.NewRecordChange(amqp.ActionUpsert, romi.ID, "r1", "2024-T1")
	require.NoError(t, w.HandleChange(context.Background(), msg))

	n, ok := exp.rows("ROMI3")
	require.True(t, ok)
	assert.Equal(t, 4, n)
}

func TestHandleCompanyDelete(t *testing.T) {
	store, _ := seeded(t)
	exp := newFakeExporter()
	w := NewSyncWorker(store, exp)

	msg := amqp.NewCompanyChange(amqp.ActionDelete, "gone", "OLD3")
	require.NoError(t, w.HandleChange(context.Background(), msg))
	assert.Equal(t, []string{"OLD3"}, exp.deleted)
}

func TestHandleChangeForMissingCompanyIsSkipped(t *testing.T) {
	store, _ := seeded(t)
	exp := newFakeExporter()
	w := NewSyncWorker(store, exp)

	msg := amqp.NewRecordChange(amqp.ActionUpsert, "missing", "r", "2024-T1")
	assert.NoError(t, w.HandleChange(context.Background(), msg))
	assert.Empty(t, exp.exported)
}

func TestHandleChangeExportFailureIsReturned(t *testing.T) {
	store, companies := seeded(t)
	exp := newFakeExporter()
	exp.fail["PETR4"] = errors.New("quota exceeded")
	w := NewSyncWorker(store, exp)

	msg := amqp.NewCompanyChange(amqp.ActionUpsert, companies[0].ID, "PETR4")
	err := w.HandleChange(context.Background(), msg)
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestExportAllContinuesPastFailures(t *testing.T) {
	store, _ := seeded(t)
	exp := newFakeExporter()
	exp.fail["PETR4"] = errors.New("quota exceeded")
	w := NewSyncWorker(store, exp)

	err := w.ExportAll(context.Background())
	assert.ErrorContains(t, err, "PETR4")

	n, ok := exp.rows("ROMI3")
	assert.True(t, ok)
	assert.Equal(t, 4, n)
}

func TestRunSchedule(t *testing.T) {
	store, _ := seeded(t)
	w := NewSyncWorker(store, newFakeExporter())

	assert.Error(t, w.RunSchedule(context.Background(), "not a schedule"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.NoError(t, w.RunSchedule(ctx, "@every 1h"))
}
