package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"painel/internal/cache"
	"painel/internal/catalog"
	"painel/internal/comparison"
	"painel/internal/core"
	"painel/internal/ports"
)

const (
	companiesKey = "companies"

	// sharedLoadTimeout bounds a store read shared by concurrent callers.
	sharedLoadTimeout = 10 * time.Second
)

// DashboardService serves the read side: company lists, record lists and the
// assembled dashboard. Reads go through the LRU caches; concurrent misses
// for the same key share one store call.
//
// Every cache key carries an invalidation generation. A load only writes
// back when no invalidation happened since it started, and loads from
// different generations never share a flight.
type DashboardService struct {
	store     ports.Store
	companies *cache.LRUCache[[]core.Company]
	records   *cache.LRUCache[[]core.QuarterlyRecord]
	group     singleflight.Group

	mu   sync.Mutex
	gens map[string]uint64
}

func NewDashboardService(store ports.Store, size int, ttl time.Duration) *DashboardService {
	return &DashboardService{
		store:     store,
		companies: cache.NewLRUCache[[]core.Company](1, ttl),
		records:   cache.NewLRUCache[[]core.QuarterlyRecord](size, ttl),
		gens:      make(map[string]uint64),
	}
}

// RegisterCaches hands the service caches to a cleanup manager.
func (s *DashboardService) RegisterCaches(m *cache.Manager) {
	m.Register("companies", s.companies)
	m.Register("records", s.records)
}

// CacheStats reports the record cache, which is the one that grows.
func (s *DashboardService) CacheStats() cache.Stats {
	return s.records.Stats()
}

func (s *DashboardService) Companies(ctx context.Context) ([]core.Company, error) {
	list, _, err := load(ctx, s, s.companies, companiesKey, s.store.ListCompanies)
	if err != nil {
		return nil, fmt.Errorf("load companies: %w", err)
	}
	return list, nil
}

// Records returns the company's records, most recent quarter first.
// The returned slice is shared with the cache and must not be modified.
func (s *DashboardService) Records(ctx context.Context, companyID string) ([]core.QuarterlyRecord, error) {
	list, shared, err := load(ctx, s, s.records, recordsKey(companyID), func(ctx context.Context) ([]core.QuarterlyRecord, error) {
		return s.store.ListRecords(ctx, companyID)
	})
	if err != nil {
		return nil, fmt.Errorf("load records for company %s: %w", companyID, err)
	}
	if shared {
		slog.DebugContext(ctx, "Record load shared with concurrent request", "company_id", companyID)
	}
	return list, nil
}

// Refresh drops the cached records of companyID and loads them again. The
// result never comes from a load that started before the call.
func (s *DashboardService) Refresh(ctx context.Context, companyID string) ([]core.QuarterlyRecord, error) {
	s.InvalidateRecords(companyID)
	return s.Records(ctx, companyID)
}

func (s *DashboardService) InvalidateCompanies() {
	invalidate(s, s.companies, companiesKey)
}

func (s *DashboardService) InvalidateRecords(companyID string) {
	invalidate(s, s.records, recordsKey(companyID))
}

func (s *DashboardService) generation(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[key]
}

func invalidate[T any](s *DashboardService, c *cache.LRUCache[T], key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gens[key]++
	c.Delete(key)
}

// load reads key from c or fetches it. The fetch runs detached from the
// caller's cancellation because other callers may be waiting on it.
func load[T any](ctx context.Context, s *DashboardService, c *cache.LRUCache[T], key string, fetch func(context.Context) (T, error)) (T, bool, error) {
	if v, ok := c.Get(key); ok {
		return v, false, nil
	}

	gen := s.generation(key)
	v, err, shared := s.group.Do(fmt.Sprintf("%s@%d", key, gen), func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLoadTimeout)
		defer cancel()

		val, err := fetch(lctx)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		if s.gens[key] == gen {
			c.Set(key, val)
		}
		s.mu.Unlock()
		return val, nil
	})
	if err != nil {
		var zero T
		return zero, shared, err
	}
	return v.(T), shared, nil
}

func recordsKey(companyID string) string { return "records:" + companyID }

// Build loads what the dashboard for companyID needs and assembles it.
// An empty companyID selects the first company by name. An empty quarter
// key anchors the comparisons on the latest record.
func (s *DashboardService) Build(ctx context.Context, companyID, quarterKey string) (*Dashboard, error) {
	var at *core.Quarter
	if quarterKey != "" {
		q, err := core.ParseQuarterKey(quarterKey)
		if err != nil {
			return nil, err
		}
		at = &q
	}

	var (
		companies []core.Company
		records   []core.QuarterlyRecord
	)
	if companyID == "" {
		list, err := s.Companies(ctx)
		if err != nil {
			return nil, err
		}
		companies = list
		if len(list) > 0 {
			companyID = list[0].ID
			if records, err = s.Records(ctx, companyID); err != nil {
				return nil, err
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			companies, err = s.Companies(gctx)
			return err
		})
		g.Go(func() error {
			var err error
			records, err = s.Records(gctx, companyID)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	d := Assemble(companies, companyID, records, at)
	if companyID != "" && d.Company.ID == "" {
		return nil, fmt.Errorf("company %s: %w", companyID, core.ErrNotFound)
	}
	return d, nil
}

type (
	// Dashboard is everything the dashboard page renders.
	Dashboard struct {
		Companies []core.Company
		Company   core.Company
		Records   []core.QuarterlyRecord
		// Current is the record comparisons are anchored on; nil without records.
		Current  *core.QuarterlyRecord
		Cards    []Indicator
		Sections []SectionView
		Charts   []ChartRef
	}

	// Indicator is one field's value for the current quarter and its comparisons.
	Indicator struct {
		Field      core.Field
		Title      string
		Unit       catalog.Unit
		Value      *float64
		Comparison comparison.Result
		Trend      comparison.Trend
	}

	SectionView struct {
		Section catalog.Section
		Title   string
		Rows    []Indicator
	}

	// ChartRef points the page at one chart and carries its summary.
	ChartRef struct {
		Field core.Field
		Title string
		Unit  catalog.Unit
		Stats comparison.Stats
	}
)

// HasData reports whether a company is selected and has at least one record.
func (d *Dashboard) HasData() bool {
	return d.Current != nil
}

// Assemble builds a dashboard from already loaded data. records may be in
// any order. When at is nil or names a quarter with no record, the latest
// record is used.
func Assemble(companies []core.Company, companyID string, records []core.QuarterlyRecord, at *core.Quarter) *Dashboard {
	d := &Dashboard{Companies: companies}
	for _, c := range companies {
		if c.ID == companyID {
			d.Company = c
			break
		}
	}

	d.Records = comparison.SortDescending(records)
	if len(d.Records) == 0 {
		return d
	}

	current := d.Records[0]
	if at != nil {
		for _, r := range d.Records {
			if r.Period() == *at {
				current = r
				break
			}
		}
	}
	d.Current = &current

	for _, f := range catalog.Headline {
		d.Cards = append(d.Cards, indicator(d.Records, current, f))

		points := comparison.Series(d.Records, f)
		d.Charts = append(d.Charts, ChartRef{
			Field: f,
			Title: catalog.TitleOf(f),
			Unit:  catalog.UnitOf(f),
			Stats: comparison.Summarize(points),
		})
	}

	for _, g := range catalog.Sections() {
		sv := SectionView{Section: g.Section, Title: g.Title}
		for _, f := range g.Fields {
			sv.Rows = append(sv.Rows, indicator(d.Records, current, f))
		}
		d.Sections = append(d.Sections, sv)
	}
	return d
}

func indicator(records []core.QuarterlyRecord, current core.QuarterlyRecord, f core.Field) Indicator {
	res := comparison.CompareAt(records, f, current.Period())
	return Indicator{
		Field:      f,
		Title:      catalog.TitleOf(f),
		Unit:       catalog.UnitOf(f),
		Value:      current.Get(f),
		Comparison: res,
		Trend:      comparison.TrendOf(current.Get(f), res.PreviousQuarter),
	}
}
