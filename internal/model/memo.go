package model

// MetricPoint is one extracted (year, value) observation for a financial
// metric. Year is "unknown" when the surrounding text carried no year.
type MetricPoint struct {
	Year  string  `json:"year"`
	Value float64 `json:"value"`
}

// Financials holds the metric series scanned out of a package's documents.
type Financials struct {
	Revenue   []MetricPoint `json:"revenue"`
	EBITDA    []MetricPoint `json:"ebitda"`
	NetIncome []MetricPoint `json:"net_income"`
}

// GrowthPoint is one year-over-year growth observation. GrowthPct is nil
// when the base value was zero.
type GrowthPoint struct {
	From      string   `json:"from"`
	To        string   `json:"to"`
	GrowthPct *float64 `json:"growth_pct"`
}

// MarginRatio is the EBITDA margin for one year.
type MarginRatio struct {
	Year            string  `json:"year"`
	EBITDAMarginPct float64 `json:"ebitda_margin_pct"`
}

// Trends holds derived growth and ratio series for the memo.
type Trends struct {
	RevenueGrowth []GrowthPoint `json:"revenue_growth"`
	EBITDAGrowth  []GrowthPoint `json:"ebitda_growth"`
	Ratios        []MarginRatio `json:"ratios"`
}

// Memo is the JSON credit-memo artifact written for an accepted package.
// MemoText repeats the rendered text document so the JSON is self-contained.
type Memo struct {
	PackageID      string               `json:"package_id"`
	Classification ClassificationReport `json:"classification"`
	Validation     ValidationReport     `json:"validation"`
	Financials     Financials           `json:"financials"`
	Trends         Trends               `json:"trends"`
	MemoText       string               `json:"memo_text"`
}
