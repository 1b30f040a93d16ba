// Package memo turns classified package text into the credit-memo
// artifacts: extracted metric series, derived trends, and the rendered
// text and JSON outputs.
package memo

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"finpack/internal/model"
)

// metricPattern matches a keyword followed by an optional year and a value.
// The value wants two or more characters so a stray digit near a keyword is
// not read as an amount.
const metricPattern = `(?i)(?:%s)[^\d]*(20\d{2})?[^\d]*(-?\d[\d,\.]+)`

var (
	revenueRe   = regexp.MustCompile(fmt.Sprintf(metricPattern, `revenue`))
	ebitdaRe    = regexp.MustCompile(fmt.Sprintf(metricPattern, `ebitda`))
	netIncomeRe = regexp.MustCompile(fmt.Sprintf(metricPattern, `net income|net\s+profit`))
)

// ExtractFinancials scans every document text for revenue, EBITDA and net
// income figures. Documents are visited in sorted path order so the series
// come out the same for any map iteration order. A figure with no nearby
// year is recorded under "unknown".
func ExtractFinancials(texts map[string]string) model.Financials {
	paths := make([]string, 0, len(texts))
	for p := range texts {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	fin := model.Financials{
		Revenue:   []model.MetricPoint{},
		EBITDA:    []model.MetricPoint{},
		NetIncome: []model.MetricPoint{},
	}
	for _, p := range paths {
		text := texts[p]
		fin.Revenue = append(fin.Revenue, extractMetric(revenueRe, text)...)
		fin.EBITDA = append(fin.EBITDA, extractMetric(ebitdaRe, text)...)
		fin.NetIncome = append(fin.NetIncome, extractMetric(netIncomeRe, text)...)
	}
	return fin
}

func extractMetric(re *regexp.Regexp, text string) []model.MetricPoint {
	var points []model.MetricPoint
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		year := m[1]
		if year == "" {
			year = "unknown"
		}
		value, err := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", ""), 64)
		if err != nil {
			continue
		}
		points = append(points, model.MetricPoint{Year: year, Value: value})
	}
	return points
}
