// Package catalog is the static table of indicator titles, units and sections.
package catalog

import "painel/internal/core"

type Unit string

const (
	Currency   Unit = "currency"
	Percentage Unit = "percentage"
	Ratio      Unit = "ratio"
)

type Section string

const (
	RevenueOperations  Section = "revenue_operations"
	CashFlow           Section = "cash_flow"
	WorkingCapitalDebt Section = "working_capital_debt"
	Liquidity          Section = "liquidity"
	Profitability      Section = "profitability"
	Returns            Section = "returns"
)

// Entry describes one known indicator field.
type Entry struct {
	Field   core.Field `json:"field"`
	Title   string     `json:"title"`
	Unit    Unit       `json:"unit"`
	Section Section    `json:"section"`
}

// Group is a section with its fields in display order.
type Group struct {
	Section Section      `json:"section"`
	Title   string       `json:"title"`
	Fields  []core.Field `json:"fields"`
}

var sectionTitles = map[Section]string{
	RevenueOperations:  "Receitas e Operações",
	CashFlow:           "Fluxo de Caixa",
	WorkingCapitalDebt: "Capital de Giro e Endividamento",
	Liquidity:          "Liquidez",
	Profitability:      "Rentabilidade",
	Returns:            "Retornos",
}

var sectionOrder = []Section{
	RevenueOperations,
	CashFlow,
	WorkingCapitalDebt,
	Liquidity,
	Profitability,
	Returns,
}

// entries is the display-ordered table; index is built from it in init.
var entries = []Entry{
	{core.ReceitasBensServicos, "Receitas de Bens e Serviços", Currency, RevenueOperations},
	{core.CustoReceitaOperacional, "Custo da Receita Operacional", Currency, RevenueOperations},
	{core.DespesasOperacionaisTotal, "Despesas Operacionais Totais", Currency, RevenueOperations},
	{core.LucroOperacionalAntesReceitaDespesaNaoRecor, "Lucro Operacional antes de Receitas/Despesas Não Recorrentes", Currency, RevenueOperations},
	{core.LucroLiquidoAposImpostos, "Lucro Líquido após Impostos", Currency, RevenueOperations},

	{core.CaixaEquivalentesCaixa, "Caixa e Equivalentes de Caixa", Currency, CashFlow},
	{core.FluxoCaixaLiquidoAtividadesOperacionais, "Fluxo de Caixa Líquido das Atividades Operacionais", Currency, CashFlow},
	{core.VariacaoLiquidaCaixaTotal, "Variação Líquida de Caixa Total", Currency, CashFlow},

	{core.CapitalGiro, "Capital de Giro", Currency, WorkingCapitalDebt},
	{core.EndividamentoTotal, "Endividamento Total", Currency, WorkingCapitalDebt},
	{core.PercentualDividaTotalAtivoTotal, "Dívida Total / Ativo Total", Currency, WorkingCapitalDebt},

	{core.LiquidezGeral, "Liquidez Geral", Ratio, Liquidity},
	{core.LiquidezCorrente, "Liquidez Corrente", Ratio, Liquidity},

	{core.Ebit, "EBIT", Currency, Profitability},
	{core.Ebitda, "EBITDA", Currency, Profitability},
	{core.MargemEbitdaPercent, "Margem EBITDA %", Percentage, Profitability},
	{core.MargemLucroBrutoPercent, "Margem de Lucro Bruto %", Percentage, Profitability},
	{core.MargemOperacionalPercent, "Margem Operacional %", Percentage, Profitability},
	{core.MargemLiquidaPercent, "Margem Líquida %", Percentage, Profitability},

	{core.Roic, "ROIC", Percentage, Returns},
	{core.Roe, "ROE", Percentage, Returns},
	{core.Roa, "ROA", Percentage, Returns},
	{core.DividendYield, "Dividend Yield", Percentage, Returns},
}

var (
	index  map[core.Field]Entry
	groups []Group
)

func init() {
	index = make(map[core.Field]Entry, len(entries))
	bySection := make(map[Section][]core.Field, len(sectionOrder))
	for _, e := range entries {
		index[e.Field] = e
		bySection[e.Section] = append(bySection[e.Section], e.Field)
	}
	groups = make([]Group, 0, len(sectionOrder))
	for _, s := range sectionOrder {
		groups = append(groups, Group{Section: s, Title: sectionTitles[s], Fields: bySection[s]})
	}
}

// TitleOf returns the display title of field, or the identifier itself when unknown.
func TitleOf(field core.Field) string {
	if e, ok := index[field]; ok {
		return e.Title
	}
	return string(field)
}

// UnitOf returns the unit of field. Unknown fields are currency.
func UnitOf(field core.Field) Unit {
	if e, ok := index[field]; ok {
		return e.Unit
	}
	return Currency
}

// SectionOf returns the section of field; ok is false for unknown fields.
func SectionOf(field core.Field) (Section, bool) {
	e, ok := index[field]
	return e.Section, ok
}

// Known reports whether field is in the catalog.
func Known(field core.Field) bool {
	_, ok := index[field]
	return ok
}

// Lookup returns the full entry for field.
func Lookup(field core.Field) (Entry, bool) {
	e, ok := index[field]
	return e, ok
}

// Entries returns every entry in display order.
func Entries() []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Sections returns the six sections in display order with their fields.
func Sections() []Group {
	out := make([]Group, len(groups))
	for i, g := range groups {
		fs := make([]core.Field, len(g.Fields))
		copy(fs, g.Fields)
		out[i] = Group{Section: g.Section, Title: g.Title, Fields: fs}
	}
	return out
}

// Title returns the display title of a section.
func (s Section) Title() string {
	if t, ok := sectionTitles[s]; ok {
		return t
	}
	return string(s)
}

// Headline lists the fields shown as dashboard cards and charts, in order.
var Headline = []core.Field{
	core.ReceitasBensServicos,
	core.LucroLiquidoAposImpostos,
	core.Ebitda,
	core.MargemEbitdaPercent,
	core.Roe,
	core.LiquidezCorrente,
}
