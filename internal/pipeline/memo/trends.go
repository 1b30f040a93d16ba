package memo

import (
	"math"
	"sort"

	"finpack/internal/model"
)

// AnalyzeTrends derives year-over-year growth for the revenue and EBITDA
// series plus an EBITDA margin per year where both figures exist.
func AnalyzeTrends(fin model.Financials) model.Trends {
	return model.Trends{
		RevenueGrowth: computeGrowth(fin.Revenue),
		EBITDAGrowth:  computeGrowth(fin.EBITDA),
		Ratios:        computeRatios(fin.Revenue, fin.EBITDA),
	}
}

// computeGrowth folds a series to its latest value per year and reports the
// percent change between adjacent years. Years are strings and sort
// lexically, which keeps "unknown" after the real years.
func computeGrowth(series []model.MetricPoint) []model.GrowthPoint {
	yearly, years := latestPerYear(series)
	growth := []model.GrowthPoint{}
	for i := 1; i < len(years); i++ {
		prev, curr := years[i-1], years[i]
		prevVal, currVal := yearly[prev], yearly[curr]
		point := model.GrowthPoint{From: prev, To: curr}
		if prevVal != 0 {
			pct := round2((currVal - prevVal) / math.Abs(prevVal) * 100)
			point.GrowthPct = &pct
		}
		growth = append(growth, point)
	}
	return growth
}

func computeRatios(revenue, ebitda []model.MetricPoint) []model.MarginRatio {
	revByYear, years := latestPerYear(revenue)
	ebitdaByYear, _ := latestPerYear(ebitda)
	ratios := []model.MarginRatio{}
	for _, year := range years {
		rev := revByYear[year]
		ev, ok := ebitdaByYear[year]
		if !ok || rev == 0 {
			continue
		}
		ratios = append(ratios, model.MarginRatio{
			Year:            year,
			EBITDAMarginPct: round2(ev / rev * 100),
		})
	}
	return ratios
}

func latestPerYear(series []model.MetricPoint) (map[string]float64, []string) {
	yearly := make(map[string]float64, len(series))
	for _, p := range series {
		yearly[p.Year] = p.Value
	}
	years := make([]string, 0, len(yearly))
	for y := range yearly {
		years = append(years, y)
	}
	sort.Strings(years)
	return yearly, years
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
