package fundamentals

import (
	"sort"

	"github.com/rotisserie/eris"
)

// Canonical metric names. These are the column names of the normalized
// record, shared by the store schema and the CSV report.
const (
	MetricRevenue                  = "revenue"
	MetricCostOfRevenue            = "cost_of_revenue"
	MetricGrossProfit              = "gross_profit"
	MetricResearchAndDevelopment   = "research_and_development"
	MetricSellingGeneralAndAdmin   = "selling_general_and_admin"
	MetricOperatingExpenses        = "operating_expenses"
	MetricOperatingIncome          = "operating_income"
	MetricInterestExpense          = "interest_expense"
	MetricInterestIncome           = "interest_and_investment_income"
	MetricPretaxIncome             = "pretax_income"
	MetricIncomeTaxExpense         = "income_tax_expense"
	MetricNetIncome                = "net_income"
	MetricSharesOutstanding        = "shares_outstanding"
	MetricEPS                      = "eps"
	MetricDividendPerShare         = "dividend_per_share"
	MetricDividendsPaid            = "dividends_paid"
	MetricGrossMargin              = "gross_margin"
	MetricOperatingMargin          = "operating_margin"
	MetricProfitMargin             = "profit_margin"
	MetricCashAndEquivalents       = "cash_and_equivalents"
	MetricShortTermInvestments     = "short_term_investments"
	MetricCashAndShortTermInvest   = "cash_and_short_term_investments"
	MetricReceivables              = "receivables"
	MetricInventory                = "inventory"
	MetricTotalCurrentAssets       = "total_current_assets"
	MetricPropertyPlantEquipment   = "property_plant_and_equipment"
	MetricLongTermInvestments      = "long_term_investments"
	MetricGoodwill                 = "goodwill"
	MetricOtherIntangibleAssets    = "other_intangible_assets"
	MetricTotalAssets              = "total_assets"
	MetricAccountsPayable          = "accounts_payable"
	MetricAccruedExpenses          = "accrued_expenses"
	MetricCurrentLongTermDebt      = "current_portion_of_long_term_debt"
	MetricTotalCurrentLiabilities  = "total_current_liabilities"
	MetricLongTermDebt             = "long_term_debt"
	MetricTotalLiabilities         = "total_liabilities"
	MetricShareholdersEquity       = "shareholders_equity"
	MetricTotalLiabilitiesEquity   = "total_liabilities_and_equity"
	MetricDepreciationAmortization = "depreciation_and_amortization"
	MetricStockBasedCompensation   = "stock_based_compensation"
	MetricOperatingCashFlow        = "operating_cash_flow"
	MetricCapitalExpenditures      = "capital_expenditures"
	MetricInvestingCashFlow        = "investing_cash_flow"
	MetricFinancingCashFlow        = "financing_cash_flow"
	MetricNetCashFlow              = "net_cash_flow"
	MetricFreeCashFlow             = "free_cash_flow"
	MetricWorkingCapital           = "working_capital"
	MetricBookValuePerShare        = "book_value_per_share"
	MetricDividendPayoutRatio      = "dividend_payout_ratio"
	MetricDebtToEquity             = "debt_to_equity"
	MetricReturnOnEquity           = "roe"
	MetricInterestCoverage         = "interest_coverage"
	MetricPrice                    = "price"
	MetricMarketCap                = "market_cap"
	MetricEnterpriseValue          = "enterprise_value"
)

// Units for extraction.
const (
	unitUSD         = "USD"
	unitUSDPerShare = "USD/shares"
	unitShares      = "shares"
)

// ComputeFunc derives a metric from already resolved metrics. It looks
// dependencies up through get and returns unknown when the inputs do
// not support a result.
type ComputeFunc func(get func(name string) Value) Value

// Source describes how a canonical metric is resolved. A metric can be
// extracted from XBRL tags (tried in order), derived from other
// metrics, or both, in which case the tag chain wins and the compute
// function is the fallback. A Source with neither is externally
// supplied, such as the market price.
type Source struct {
	Tags    []string
	Unit    string
	Compute ComputeFunc
	Deps    []string
}

// Registry holds the canonical metric table in a dependency-respecting
// evaluation order. Construction fails on unknown dependencies and on
// cycles, so a bad table is caught at startup rather than mid-scan.
type Registry struct {
	sources map[string]Source
	order   []string
}

// NewRegistry validates and topologically orders the metric table.
func NewRegistry(sources map[string]Source) (*Registry, error) {
	for name, src := range sources {
		for _, dep := range src.Deps {
			if _, ok := sources[dep]; !ok {
				return nil, eris.Errorf("fundamentals: metric %q depends on undeclared metric %q", name, dep)
			}
		}
	}

	// Kahn's algorithm. Names are sorted before seeding so the order is
	// deterministic across runs.
	indegree := make(map[string]int, len(sources))
	dependents := make(map[string][]string, len(sources))
	for name, src := range sources {
		indegree[name] += 0
		for _, dep := range src.Deps {
			indegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	var ready []string
	for name, deg := range indegree {
		if deg == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(sources))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)

		next := dependents[name]
		sort.Strings(next)
		for _, dep := range next {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}
	if len(order) != len(sources) {
		var stuck []string
		for name, deg := range indegree {
			if deg > 0 {
				stuck = append(stuck, name)
			}
		}
		sort.Strings(stuck)
		return nil, eris.Errorf("fundamentals: metric dependency cycle involving %v", stuck)
	}

	return &Registry{sources: sources, order: order}, nil
}

// Source returns the definition for a metric name.
func (r *Registry) Source(name string) (Source, bool) {
	src, ok := r.sources[name]
	return src, ok
}

// Order returns metric names in evaluation order.
func (r *Registry) Order() []string {
	return r.order
}

// Names returns all metric names sorted alphabetically, for schemas
// and report headers.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ratio(num, den string) ComputeFunc {
	return func(get func(string) Value) Value {
		return get(num).Div(get(den))
	}
}

// DefaultRegistry returns the canonical metric table. The table is
// static, so a construction error here is a programming bug.
func DefaultRegistry() *Registry {
	reg, err := NewRegistry(defaultSources())
	if err != nil {
		panic(err)
	}
	return reg
}

func defaultSources() map[string]Source {
	return map[string]Source{
		MetricRevenue: {Tags: []string{
			"RevenueFromContractWithCustomerExcludingAssessedTax",
			"Revenues",
		}},
		MetricCostOfRevenue: {Tags: []string{
			"CostOfGoodsAndServicesSold",
			"CostOfRevenue",
		}},
		MetricGrossProfit: {
			Deps: []string{MetricRevenue, MetricCostOfRevenue},
			Compute: func(get func(string) Value) Value {
				return get(MetricRevenue).Sub(get(MetricCostOfRevenue))
			},
		},
		MetricResearchAndDevelopment: {Tags: []string{"ResearchAndDevelopmentExpense"}},
		MetricSellingGeneralAndAdmin: {Tags: []string{"SellingGeneralAndAdministrativeExpense"}},
		MetricOperatingExpenses:      {Tags: []string{"OperatingExpenses"}},
		MetricOperatingIncome: {Tags: []string{
			"OperatingIncomeLoss",
			"IncomeFromOperations",
		}},
		MetricInterestExpense: {Tags: []string{"InterestExpense"}},
		MetricInterestIncome:  {Tags: []string{"InvestmentIncomeInterest"}},
		MetricPretaxIncome: {Tags: []string{
			"IncomeLossFromContinuingOperationsBeforeIncomeTaxExtraordinaryItemsNoncontrollingInterest",
			"IncomeLossBeforeIncomeTaxes",
		}},
		MetricIncomeTaxExpense: {Tags: []string{"IncomeTaxExpenseBenefit"}},
		MetricNetIncome: {Tags: []string{
			"NetIncomeLoss",
			"ProfitLoss",
			"NetIncomeLossAvailableToCommonStockholdersBasic",
		}},
		MetricSharesOutstanding: {
			Unit: unitShares,
			Tags: []string{
				"WeightedAverageNumberOfDilutedSharesOutstanding",
				"WeightedAverageNumberOfSharesOutstandingDiluted",
				"WeightedAverageNumberOfSharesOutstandingBasic",
			},
		},
		MetricEPS: {
			Unit: unitUSDPerShare,
			Tags: []string{
				"EarningsPerShareDiluted",
				"EarningsPerShareBasic",
			},
		},
		MetricDividendsPaid: {Tags: []string{"PaymentsOfDividendsCommonStock"}},
		MetricDividendPerShare: {
			Unit: unitUSDPerShare,
			Tags: []string{"CommonStockDividendsPerShareDeclared"},
			Deps: []string{MetricDividendsPaid, MetricSharesOutstanding},
			Compute: func(get func(string) Value) Value {
				return get(MetricDividendsPaid).Div(get(MetricSharesOutstanding))
			},
		},
		MetricGrossMargin: {
			Deps:    []string{MetricGrossProfit, MetricRevenue},
			Compute: ratio(MetricGrossProfit, MetricRevenue),
		},
		MetricOperatingMargin: {
			Deps:    []string{MetricOperatingIncome, MetricRevenue},
			Compute: ratio(MetricOperatingIncome, MetricRevenue),
		},
		MetricProfitMargin: {
			Deps:    []string{MetricNetIncome, MetricRevenue},
			Compute: ratio(MetricNetIncome, MetricRevenue),
		},
		MetricCashAndEquivalents:   {Tags: []string{"CashAndCashEquivalentsAtCarryingValue"}},
		MetricShortTermInvestments: {Tags: []string{"MarketableSecuritiesCurrent"}},
		MetricCashAndShortTermInvest: {
			Deps: []string{MetricCashAndEquivalents, MetricShortTermInvestments},
			Compute: func(get func(string) Value) Value {
				// Many filers carry no short term investments at all;
				// known cash alone is still a known total.
				cash := get(MetricCashAndEquivalents)
				if !cash.Valid {
					return Unknown
				}
				return cash.Add(get(MetricShortTermInvestments).Or(0))
			},
		},
		MetricReceivables:            {Tags: []string{"AccountsReceivableNetCurrent"}},
		MetricInventory:              {Tags: []string{"InventoryNet"}},
		MetricTotalCurrentAssets:     {Tags: []string{"AssetsCurrent"}},
		MetricPropertyPlantEquipment: {Tags: []string{"PropertyPlantAndEquipmentNet"}},
		MetricLongTermInvestments:    {Tags: []string{"MarketableSecuritiesNoncurrent"}},
		MetricGoodwill:               {Tags: []string{"Goodwill"}},
		MetricOtherIntangibleAssets:  {Tags: []string{"IntangibleAssetsNetExcludingGoodwill"}},
		MetricTotalAssets:            {Tags: []string{"Assets"}},
		MetricAccountsPayable:        {Tags: []string{"AccountsPayableCurrent"}},
		MetricAccruedExpenses:        {Tags: []string{"AccruedLiabilitiesCurrent"}},
		MetricCurrentLongTermDebt:    {Tags: []string{"LongTermDebtAndCapitalLeaseObligationsCurrent"}},
		MetricTotalCurrentLiabilities: {Tags: []string{
			"LiabilitiesCurrent",
		}},
		MetricLongTermDebt:     {Tags: []string{"LongTermDebtNoncurrent"}},
		MetricTotalLiabilities: {Tags: []string{"Liabilities"}},
		MetricShareholdersEquity: {Tags: []string{
			"StockholdersEquity",
		}},
		MetricTotalLiabilitiesEquity: {
			Deps: []string{MetricTotalLiabilities, MetricShareholdersEquity},
			Compute: func(get func(string) Value) Value {
				return get(MetricTotalLiabilities).Add(get(MetricShareholdersEquity))
			},
		},
		MetricDepreciationAmortization: {Tags: []string{"DepreciationAndAmortization"}},
		MetricStockBasedCompensation:   {Tags: []string{"ShareBasedCompensation"}},
		MetricOperatingCashFlow:        {Tags: []string{"NetCashProvidedByUsedInOperatingActivities"}},
		MetricCapitalExpenditures: {Tags: []string{
			"PaymentsToAcquirePropertyPlantAndEquipment",
			"CapitalExpenditures",
		}},
		MetricInvestingCashFlow: {Tags: []string{"NetCashProvidedByUsedInInvestingActivities"}},
		MetricFinancingCashFlow: {Tags: []string{"NetCashProvidedByUsedInFinancingActivities"}},
		MetricNetCashFlow:       {Tags: []string{"NetIncreaseDecreaseInCashAndCashEquivalents"}},
		MetricFreeCashFlow: {
			Deps: []string{MetricOperatingCashFlow, MetricCapitalExpenditures},
			Compute: func(get func(string) Value) Value {
				// Capex is reported with inconsistent sign across
				// filers, so it is always subtracted in magnitude.
				return get(MetricOperatingCashFlow).Sub(get(MetricCapitalExpenditures).Abs())
			},
		},
		MetricWorkingCapital: {
			Deps: []string{MetricTotalCurrentAssets, MetricTotalCurrentLiabilities},
			Compute: func(get func(string) Value) Value {
				return get(MetricTotalCurrentAssets).Sub(get(MetricTotalCurrentLiabilities))
			},
		},
		MetricBookValuePerShare: {
			Deps:    []string{MetricShareholdersEquity, MetricSharesOutstanding},
			Compute: ratio(MetricShareholdersEquity, MetricSharesOutstanding),
		},
		MetricDividendPayoutRatio: {
			Deps:    []string{MetricDividendsPaid, MetricNetIncome},
			Compute: ratio(MetricDividendsPaid, MetricNetIncome),
		},
		MetricDebtToEquity: {
			Deps:    []string{MetricTotalLiabilities, MetricShareholdersEquity},
			Compute: ratio(MetricTotalLiabilities, MetricShareholdersEquity),
		},
		MetricReturnOnEquity: {
			Deps:    []string{MetricNetIncome, MetricShareholdersEquity},
			Compute: ratio(MetricNetIncome, MetricShareholdersEquity),
		},
		MetricInterestCoverage: {
			Deps:    []string{MetricOperatingIncome, MetricInterestExpense},
			Compute: ratio(MetricOperatingIncome, MetricInterestExpense),
		},

		// Market price is supplied by the quote provider before the
		// calculator runs, never extracted from filings.
		MetricPrice: {},
		MetricMarketCap: {
			Deps:    []string{MetricPrice, MetricSharesOutstanding},
			Compute: func(get func(string) Value) Value {
				return get(MetricPrice).Mul(get(MetricSharesOutstanding))
			},
		},
		MetricEnterpriseValue: {
			Deps: []string{MetricMarketCap, MetricTotalLiabilities, MetricCashAndShortTermInvest},
			Compute: func(get func(string) Value) Value {
				return get(MetricMarketCap).
					Add(get(MetricTotalLiabilities)).
					Sub(get(MetricCashAndShortTermInvest))
			},
		},
	}
}
