package core

// Field identifies one numeric indicator column of a quarterly record.
// Values outside the known set are allowed and simply have no storage.
type Field string

const (
	ReceitasBensServicos                        Field = "receitas_bens_servicos"
	CustoReceitaOperacional                     Field = "custo_receita_operacional"
	DespesasOperacionaisTotal                   Field = "despesas_operacionais_total"
	LucroOperacionalAntesReceitaDespesaNaoRecor Field = "lucro_operacional_antes_receita_despesa_nao_recorrente"
	LucroLiquidoAposImpostos                    Field = "lucro_liquido_apos_impostos"
	CaixaEquivalentesCaixa                      Field = "caixa_equivalentes_caixa"
	FluxoCaixaLiquidoAtividadesOperacionais     Field = "fluxo_caixa_liquido_atividades_operacionais"
	VariacaoLiquidaCaixaTotal                   Field = "variacao_liquida_caixa_total"
	CapitalGiro                                 Field = "capital_giro"
	EndividamentoTotal                          Field = "endividamento_total"
	PercentualDividaTotalAtivoTotal             Field = "percentual_divida_total_ativo_total"
	LiquidezGeral                               Field = "liquidez_geral"
	LiquidezCorrente                            Field = "liquidez_corrente"
	Ebit                                        Field = "ebit"
	Ebitda                                      Field = "ebitda"
	MargemEbitdaPercent                         Field = "margem_ebitda_percent"
	MargemLucroBrutoPercent                     Field = "margem_lucro_bruto_percent"
	MargemOperacionalPercent                    Field = "margem_operacional_percent"
	MargemLiquidaPercent                        Field = "margem_liquida_percent"
	Roic                                        Field = "roic"
	Roe                                         Field = "roe"
	Roa                                         Field = "roa"
	DividendYield                               Field = "dividend_yield"
)

var fields = []Field{
	ReceitasBensServicos,
	CustoReceitaOperacional,
	DespesasOperacionaisTotal,
	LucroOperacionalAntesReceitaDespesaNaoRecor,
	LucroLiquidoAposImpostos,
	CaixaEquivalentesCaixa,
	FluxoCaixaLiquidoAtividadesOperacionais,
	VariacaoLiquidaCaixaTotal,
	CapitalGiro,
	EndividamentoTotal,
	PercentualDividaTotalAtivoTotal,
	LiquidezGeral,
	LiquidezCorrente,
	Ebit,
	Ebitda,
	MargemEbitdaPercent,
	MargemLucroBrutoPercent,
	MargemOperacionalPercent,
	MargemLiquidaPercent,
	Roic,
	Roe,
	Roa,
	DividendYield,
}

// Fields returns every stored indicator field in column order.
func Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// IsStored reports whether f is one of the record columns.
func (f Field) IsStored() bool {
	var in Indicators
	return in.slot(f) != nil
}

func (f Field) String() string { return string(f) }

// Indicators holds the optional numeric fields of a quarterly record.
// A nil pointer means the value was not reported for the quarter.
type Indicators struct {
	ReceitasBensServicos                    *float64 `db:"receitas_bens_servicos" json:"receitas_bens_servicos,omitempty"`
	CustoReceitaOperacional                 *float64 `db:"custo_receita_operacional" json:"custo_receita_operacional,omitempty"`
	DespesasOperacionaisTotal               *float64 `db:"despesas_operacionais_total" json:"despesas_operacionais_total,omitempty"`
	LucroOperacionalAntesNaoRecorrente      *float64 `db:"lucro_operacional_antes_receita_despesa_nao_recorrente" json:"lucro_operacional_antes_receita_despesa_nao_recorrente,omitempty"`
	LucroLiquidoAposImpostos                *float64 `db:"lucro_liquido_apos_impostos" json:"lucro_liquido_apos_impostos,omitempty"`
	CaixaEquivalentesCaixa                  *float64 `db:"caixa_equivalentes_caixa" json:"caixa_equivalentes_caixa,omitempty"`
	FluxoCaixaLiquidoAtividadesOperacionais *float64 `db:"fluxo_caixa_liquido_atividades_operacionais" json:"fluxo_caixa_liquido_atividades_operacionais,omitempty"`
	VariacaoLiquidaCaixaTotal               *float64 `db:"variacao_liquida_caixa_total" json:"variacao_liquida_caixa_total,omitempty"`
	CapitalGiro                             *float64 `db:"capital_giro" json:"capital_giro,omitempty"`
	EndividamentoTotal                      *float64 `db:"endividamento_total" json:"endividamento_total,omitempty"`
	PercentualDividaTotalAtivoTotal         *float64 `db:"percentual_divida_total_ativo_total" json:"percentual_divida_total_ativo_total,omitempty"`
	LiquidezGeral                           *float64 `db:"liquidez_geral" json:"liquidez_geral,omitempty"`
	LiquidezCorrente                        *float64 `db:"liquidez_corrente" json:"liquidez_corrente,omitempty"`
	Ebit                                    *float64 `db:"ebit" json:"ebit,omitempty"`
	Ebitda                                  *float64 `db:"ebitda" json:"ebitda,omitempty"`
	MargemEbitdaPercent                     *float64 `db:"margem_ebitda_percent" json:"margem_ebitda_percent,omitempty"`
	MargemLucroBrutoPercent                 *float64 `db:"margem_lucro_bruto_percent" json:"margem_lucro_bruto_percent,omitempty"`
	MargemOperacionalPercent                *float64 `db:"margem_operacional_percent" json:"margem_operacional_percent,omitempty"`
	MargemLiquidaPercent                    *float64 `db:"margem_liquida_percent" json:"margem_liquida_percent,omitempty"`
	Roic                                    *float64 `db:"roic" json:"roic,omitempty"`
	Roe                                     *float64 `db:"roe" json:"roe,omitempty"`
	Roa                                     *float64 `db:"roa" json:"roa,omitempty"`
	DividendYield                           *float64 `db:"dividend_yield" json:"dividend_yield,omitempty"`
}

func (in *Indicators) slot(f Field) **float64 {
	switch f {
	case ReceitasBensServicos:
		return &in.ReceitasBensServicos
	case CustoReceitaOperacional:
		return &in.CustoReceitaOperacional
	case DespesasOperacionaisTotal:
		return &in.DespesasOperacionaisTotal
	case LucroOperacionalAntesReceitaDespesaNaoRecor:
		return &in.LucroOperacionalAntesNaoRecorrente
	case LucroLiquidoAposImpostos:
		return &in.LucroLiquidoAposImpostos
	case CaixaEquivalentesCaixa:
		return &in.CaixaEquivalentesCaixa
	case FluxoCaixaLiquidoAtividadesOperacionais:
		return &in.FluxoCaixaLiquidoAtividadesOperacionais
	case VariacaoLiquidaCaixaTotal:
		return &in.VariacaoLiquidaCaixaTotal
	case CapitalGiro:
		return &in.CapitalGiro
	case EndividamentoTotal:
		return &in.EndividamentoTotal
	case PercentualDividaTotalAtivoTotal:
		return &in.PercentualDividaTotalAtivoTotal
	case LiquidezGeral:
		return &in.LiquidezGeral
	case LiquidezCorrente:
		return &in.LiquidezCorrente
	case Ebit:
		return &in.Ebit
	case Ebitda:
		return &in.Ebitda
	case MargemEbitdaPercent:
		return &in.MargemEbitdaPercent
	case MargemLucroBrutoPercent:
		return &in.MargemLucroBrutoPercent
	case MargemOperacionalPercent:
		return &in.MargemOperacionalPercent
	case MargemLiquidaPercent:
		return &in.MargemLiquidaPercent
	case Roic:
		return &in.Roic
	case Roe:
		return &in.Roe
	case Roa:
		return &in.Roa
	case DividendYield:
		return &in.DividendYield
	}
	return nil
}

// Get returns the raw pointer for f, nil when absent or unknown.
func (in Indicators) Get(f Field) *float64 {
	if p := in.slot(f); p != nil {
		return *p
	}
	return nil
}

// Value returns the value of f and whether it was reported.
func (in Indicators) Value(f Field) (float64, bool) {
	p := in.Get(f)
	if p == nil {
		return 0, false
	}
	return *p, true
}

// Set stores v under f. Setting an unknown field is a no-op and returns false.
func (in *Indicators) Set(f Field, v *float64) bool {
	p := in.slot(f)
	if p == nil {
		return false
	}
	if v == nil {
		*p = nil
		return true
	}
	val := *v
	*p = &val
	return true
}

// Count returns how many fields carry a value.
func (in Indicators) Count() int {
	n := 0
	for _, f := range fields {
		if in.Get(f) != nil {
			n++
		}
	}
	return n
}

// Float is a helper for building optional values.
func Float(v float64) *float64 { return &v }
