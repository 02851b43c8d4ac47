package memory

import (
	"context"
	"fmt"

	"painel/internal/core"
)

type seedRecord struct {
	year, quarter                           int
	receitas, lucro, ebitda, margem, roe, lc float64
}

// NewWithDemoData returns a store holding two companies and four quarters of
// indicators for the first one.
func NewWithDemoData(ctx context.Context) (*Store, error) {
	s := New()
	romi, err := s.CreateCompany(ctx, core.Company{Name: "ROMI S.A.", Ticker: "ROMI3", InvestorRelationsURL: "https://ri.romi.com"})
	if err != nil {
		return nil, err
	}
	if _, err := s.CreateCompany(ctx, core.Company{Name: "Petrobras", Ticker: "PETR4", InvestorRelationsURL: "https://ri.petrobras.com"}); err != nil {
		return nil, err
	}

	seeds := []seedRecord{
		{2024, 1, 145e6, 15e6, 25e6, 17.24, 12.5, 2.17},
		{2023, 4, 132e6, 12e6, 22e6, 16.67, 11.2, 2.05},
		{2023, 3, 128e6, 10e6, 20e6, 15.63, 10.8, 1.98},
		{2023, 2, 118e6, 8e6, 18e6, 15.25, 9.5, 1.85},
	}
	for _, sd := range seeds {
		r := core.QuarterlyRecord{CompanyID: romi.ID}
		r.SetQuarter(core.Quarter{Year: sd.year, Number: sd.quarter})
		r.Set(core.ReceitasBensServicos, core.Float(sd.receitas))
		r.Set(core.LucroLiquidoAposImpostos, core.Float(sd.lucro))
		r.Set(core.Ebitda, core.Float(sd.ebitda))
		r.Set(core.MargemEbitdaPercent, core.Float(sd.margem))
		r.Set(core.Roe, core.Float(sd.roe))
		r.Set(core.LiquidezCorrente, core.Float(sd.lc))
		if _, err := s.CreateRecord(ctx, r); err != nil {
			return nil, fmt.Errorf("seed %s: %w", r.Quarter, err)
		}
	}
	return s, nil
}
