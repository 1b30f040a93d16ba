package classify

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"finpack/internal/model"
)

// Pattern is one case-insensitive label heuristic. Source is the bare
// expression as written in the rule table and is echoed verbatim in match
// reasons.
type Pattern struct {
	Source string
	Regexp *regexp.Regexp
}

func pat(source string) Pattern {
	return Pattern{Source: source, Regexp: regexp.MustCompile("(?i)" + source)}
}

// LabelRule binds a document archetype to its filename/body patterns. Order
// matters twice: earlier rules win score ties, and reasons are reported in
// pattern order.
type LabelRule struct {
	Label    model.DocumentType
	Patterns []Pattern
}

// DefaultRules returns the built-in archetype rule table. The result is
// freshly allocated; callers may extend it without affecting other
// classifiers.
func DefaultRules() []LabelRule {
	return []LabelRule{
		{Label: model.DocIncomeStatement, Patterns: []Pattern{
			pat(`income[_\s]?statement`), pat(`p&l`), pat(`profit[_\s]?loss`),
		}},
		{Label: model.DocBalanceSheet, Patterns: []Pattern{
			pat(`balance[_\s]?sheet`),
		}},
		{Label: model.DocCashFlow, Patterns: []Pattern{
			pat(`cash[_\s]?flow`),
		}},
		{Label: model.DocBankStatement, Patterns: []Pattern{
			pat(`bank[_\s]?statement`),
		}},
		{Label: model.DocARAging, Patterns: []Pattern{
			pat(`aging`), pat(`accounts[_\s]?receivable`),
		}},
		{Label: model.DocCapTable, Patterns: []Pattern{
			pat(`cap[_\s]?table`), pat(`capitalization`),
		}},
		{Label: model.DocContract, Patterns: []Pattern{
			pat(`contract`), pat(`agreement`),
		}},
	}
}

// LoadLabelMap reads a JSON object mapping label names to numeric ids.
// Classified records carry the id for labels present in the map.
func LoadLabelMap(path string) (map[string]int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read label map: %w", err)
	}
	labelIDs := make(map[string]int)
	if err := json.Unmarshal(raw, &labelIDs); err != nil {
		return nil, fmt.Errorf("parse label map: %w", err)
	}
	return labelIDs, nil
}
