package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"painel/internal/catalog"
	"painel/internal/comparison"
	"painel/internal/core"
)

func seedRomi(t *testing.T, f *fixture) core.Company {
	t.Helper()
	ctx := context.Background()
	c := f.company(t, "ROMI S.A.", "ROMI3")
	for _, r := range []core.QuarterlyRecord{
		quarterRecord(c.ID, 2023, 1, map[core.Field]float64{core.Ebitda: 15e6}),
		quarterRecord(c.ID, 2023, 4, map[core.Field]float64{core.Ebitda: 22e6, core.Roe: 11.2}),
		quarterRecord(c.ID, 2024, 1, map[core.Field]float64{core.Ebitda: 25e6, core.Roe: 12.5}),
	} {
		_, err := f.records.Create(ctx, r)
		require.NoError(t, err)
	}
	return c
}

func TestBuildDashboard(t *testing.T) {
	f := newFixture(t)
	c := seedRomi(t, f)
	f.company(t, "WEG", "WEGE3")

	d, err := f.dashboard.Build(context.Background(), c.ID, "")
	require.NoError(t, err)

	assert.Equal(t, c.ID, d.Company.ID)
	assert.Len(t, d.Companies, 2)
	require.True(t, d.HasData())
	assert.Equal(t, "2024-T1", d.Current.Quarter)

	require.Len(t, d.Cards, len(catalog.Headline))
	for i, card := range d.Cards {
		assert.Equal(t, catalog.Headline[i], card.Field)
	}

	var ebitda Indicator
	for _, card := range d.Cards {
		if card.Field == core.Ebitda {
			ebitda = card
		}
	}
	require.NotNil(t, ebitda.Comparison.PreviousQuarter)
	assert.Equal(t, 22e6, *ebitda.Comparison.PreviousQuarter)
	require.NotNil(t, ebitda.Comparison.SameQuarterLastYear)
	assert.Equal(t, 15e6, *ebitda.Comparison.SameQuarterLastYear)
	assert.Equal(t, comparison.TrendUp, ebitda.Trend)

	total := 0
	for _, s := range d.Sections {
		total += len(s.Rows)
	}
	assert.Equal(t, len(core.Fields()), total, "every field appears in one section")

	require.Len(t, d.Charts, len(catalog.Headline))
	assert.Equal(t, 3, d.Charts[2].Stats.Count)
}

func TestBuildDashboardAnchoredOnQuarter(t *testing.T) {
	f := newFixture(t)
	c := seedRomi(t, f)

	d, err := f.dashboard.Build(context.Background(), c.ID, "2023-T4")
	require.NoError(t, err)
	assert.Equal(t, "2023-T4", d.Current.Quarter)

	_, err = f.dashboard.Build(context.Background(), c.ID, "2023-Q4")
	assert.ErrorIs(t, err, core.ErrInvalidQuarterKey)
}

func TestBuildDashboardDefaultsToFirstCompany(t *testing.T) {
	f := newFixture(t)
	seedRomi(t, f)
	first := f.company(t, "Ambev", "ABEV3")

	d, err := f.dashboard.Build(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, d.Company.ID)
	assert.False(t, d.HasData())
}

func TestBuildDashboardEmpty(t *testing.T) {
	f := newFixture(t)
	d, err := f.dashboard.Build(context.Background(), "", "")
	require.NoError(t, err)
	assert.Empty(t, d.Companies)
	assert.False(t, d.HasData())
}

func TestBuildDashboardUnknownCompany(t *testing.T) {
	f := newFixture(t)
	seedRomi(t, f)
	_, err := f.dashboard.Build(context.Background(), "nope", "")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestBuildDashboardStoreFailure(t *testing.T) {
	f := newFixture(t)
	c := f.company(t, "ROMI S.A.", "ROMI3")
	f.store.failList = errStoreDown

	_, err := f.dashboard.Build(context.Background(), c.ID, "")
	assert.ErrorIs(t, err, errStoreDown)
}

func TestRecordsAreCachedAndShared(t *testing.T) {
	f := newFixture(t)
	c := seedRomi(t, f)
	f.dashboard.InvalidateRecords(c.ID)
	before := f.store.calls()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			list, err := f.dashboard.Records(context.Background(), c.ID)
			assert.NoError(t, err)
			assert.Len(t, list, 3)
		}()
	}
	wg.Wait()

	calls := f.store.calls() - before
	assert.GreaterOrEqual(t, calls, 1)
	assert.Less(t, calls, 20, "concurrent loads are collapsed or served from cache")

	_, err := f.dashboard.Records(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, calls, f.store.calls()-before, "served from cache")
	assert.Positive(t, f.dashboard.CacheStats().Hits)
}

func TestRecordsLoadIgnoresCallerCancellation(t *testing.T) {
	f := newFixture(t)
	c := seedRomi(t, f)
	f.dashboard.InvalidateRecords(c.ID)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	list, err := f.dashboard.Records(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, list, 3)
}

func TestInvalidateDuringLoadKeepsCacheEmpty(t *testing.T) {
	ctx := context.Background()
	store := newGatedStore()
	dash := NewDashboardService(store, 16, time.Minute)
	store.armed.Store(true)

	done := make(chan error, 1)
	go func() {
		_, err := dash.Records(ctx, "romi")
		done <- err
	}()
	<-store.entered
	dash.InvalidateRecords("romi")
	close(store.release)
	require.NoError(t, <-done)

	_, ok := dash.records.Get(recordsKey("romi"))
	assert.False(t, ok, "a load older than the invalidation is not cached")
}

func TestAssembleFallsBackToLatestForMissingQuarter(t *testing.T) {
	records := []core.QuarterlyRecord{
		quarterRecord("c", 2023, 3, map[core.Field]float64{core.Roe: 1}),
		quarterRecord("c", 2024, 2, map[core.Field]float64{core.Roe: 3}),
	}
	at := core.Quarter{Year: 2020, Number: 1}
	d := Assemble([]core.Company{{ID: "c", Name: "C"}}, "c", records, &at)

	require.NotNil(t, d.Current)
	assert.Equal(t, "2024-T2", d.Current.Quarter)
	assert.Equal(t, "2024-T2", d.Records[0].Quarter)
}
