package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"painel/internal/amqp"
	"painel/internal/core"
	"painel/internal/storage/memory"
)

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*amqp.ChangeMessage
	err  error
}

func (p *recordingPublisher) PublishChange(_ context.Context, msg *amqp.ChangeMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func (p *recordingPublisher) messages() []*amqp.ChangeMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*amqp.ChangeMessage(nil), p.msgs...)
}

// countingStore counts list calls so cache behaviour can be asserted.
type countingStore struct {
	*memory.Store
	mu          sync.Mutex
	listRecords int
	failList    error
}

func (s *countingStore) ListRecords(ctx context.Context, companyID string) ([]core.QuarterlyRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.listRecords++
	fail := s.failList
	s.mu.Unlock()
	if fail != nil {
		return nil, fail
	}
	return s.Store.ListRecords(ctx, companyID)
}

func (s *countingStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listRecords
}

// gatedStore holds the next ListRecords after it has read the store, until
// release is closed.
type gatedStore struct {
	*memory.Store
	armed   atomic.Bool
	entered chan struct{}
	release chan struct{}
}

func newGatedStore() *gatedStore {
	return &gatedStore{
		Store:   memory.New(),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (s *gatedStore) ListRecords(ctx context.Context, companyID string) ([]core.QuarterlyRecord, error) {
	list, err := s.Store.ListRecords(ctx, companyID)
	if s.armed.CompareAndSwap(true, false) {
		close(s.entered)
		<-s.release
	}
	return list, err
}

var errStoreDown = errors.New("store down")

type fixture struct {
	store     *countingStore
	publisher *recordingPublisher
	dashboard *DashboardService
	companies *CompanyService
	records   *RecordService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := &countingStore{Store: memory.New()}
	pub := &recordingPublisher{}
	dash := NewDashboardService(store, 16, time.Minute)
	return &fixture{
		store:     store,
		publisher: pub,
		dashboard: dash,
		companies: NewCompanyService(store, pub, dash),
		records:   NewRecordService(store, pub, dash),
	}
}

func (f *fixture) company(t *testing.T, name, ticker string) core.Company {
	t.Helper()
	c, err := f.companies.Create(context.Background(), core.Company{
		Name:                 name,
		Ticker:               ticker,
		InvestorRelationsURL: "https://ri.example.com/" + ticker,
	})
	require.NoError(t, err)
	return c
}

func quarterRecord(companyID string, year, q int, values map[core.Field]float64) core.QuarterlyRecord {
	r := core.QuarterlyRecord{CompanyID: companyID}
	r.SetQuarter(core.Quarter{Year: year, Number: q})
	for f, v := range values {
		r.Set(f, core.Float(v))
	}
	return r
}
