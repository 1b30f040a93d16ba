package memo

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"finpack/internal/model"
)

// Artifacts points at the rendered memo files. Content carries the text
// document so callers can log or store it without re-reading the file.
type Artifacts struct {
	TextPath string
	JSONPath string
	Content  string
}

// Format renders the credit memo for one package and writes credit_memo.txt
// and credit_memo.json under outputDir.
func Format(
	packageID string,
	classification model.ClassificationReport,
	validation model.ValidationReport,
	fin model.Financials,
	trends model.Trends,
	outputDir string,
) (Artifacts, error) {
	memoText := renderText(packageID, classification, validation, fin, trends)
	record := model.Memo{
		PackageID:      packageID,
		Classification: classification,
		Validation:     validation,
		Financials:     fin,
		Trends:         trends,
		MemoText:       memoText,
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Artifacts{}, fmt.Errorf("create memo dir: %w", err)
	}
	textPath := filepath.Join(outputDir, "credit_memo.txt")
	if err := os.WriteFile(textPath, []byte(memoText), 0o644); err != nil {
		return Artifacts{}, fmt.Errorf("write memo text: %w", err)
	}
	raw, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return Artifacts{}, fmt.Errorf("marshal memo: %w", err)
	}
	jsonPath := filepath.Join(outputDir, "credit_memo.json")
	if err := os.WriteFile(jsonPath, raw, 0o644); err != nil {
		return Artifacts{}, fmt.Errorf("write memo json: %w", err)
	}
	return Artifacts{TextPath: textPath, JSONPath: jsonPath, Content: memoText}, nil
}

func renderText(
	packageID string,
	classification model.ClassificationReport,
	validation model.ValidationReport,
	fin model.Financials,
	trends model.Trends,
) string {
	summary := classification.Summary
	vs := validation.Summary

	topLabel := summary.TopLabel
	if topLabel == "" {
		topLabel = "none"
	}

	lines := []string{
		"Credit Memo for " + packageID,
		strings.Repeat("=", 40),
		"",
		"Classification Summary:",
		fmt.Sprintf("- Documents processed: %d", summary.TotalDocuments),
		"- Top label: " + topLabel,
		"- Average confidence: " + formatFloat(summary.AverageConfidence) + "%",
		"",
		"Validation Summary:",
		"- Years detected: " + intList(vs.YearsDetected),
		"- Continuity breaks: " + strList(vs.ContinuityBreaks),
		"- Missing months: " + strList(vs.MissingMonths),
		"",
		"Financial Metrics:",
		"- Revenue points: " + pointList(fin.Revenue),
		"- EBITDA points: " + pointList(fin.EBITDA),
		"- Net income points: " + pointList(fin.NetIncome),
		"",
		"Trend Analysis:",
		"- Revenue growth: " + growthList(trends.RevenueGrowth),
		"- EBITDA growth: " + growthList(trends.EBITDAGrowth),
		"- Ratios: " + ratioList(trends.Ratios),
	}
	return strings.Join(lines, "\n")
}

func pointList(points []model.MetricPoint) string {
	if len(points) == 0 {
		return "none"
	}
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = p.Year + ": " + formatFloat(p.Value)
	}
	return strings.Join(parts, ", ")
}

func growthList(points []model.GrowthPoint) string {
	if len(points) == 0 {
		return "none"
	}
	parts := make([]string, len(points))
	for i, g := range points {
		pct := "n/a"
		if g.GrowthPct != nil {
			pct = formatFloat(*g.GrowthPct) + "%"
		}
		parts[i] = g.From + " to " + g.To + ": " + pct
	}
	return strings.Join(parts, ", ")
}

func ratioList(ratios []model.MarginRatio) string {
	if len(ratios) == 0 {
		return "none"
	}
	parts := make([]string, len(ratios))
	for i, r := range ratios {
		parts[i] = r.Year + ": " + formatFloat(r.EBITDAMarginPct) + "%"
	}
	return strings.Join(parts, ", ")
}

func intList(vals []int) string {
	if len(vals) == 0 {
		return "none"
	}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}

func strList(vals []string) string {
	if len(vals) == 0 {
		return "none"
	}
	return strings.Join(vals, ", ")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
