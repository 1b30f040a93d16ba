package classify

import (
	"fmt"
	"math"
	"path"
	"sort"

	"finpack/internal/model"
)

// Classifier labels extracted document texts and runs the schema extractor
// for the winning archetype. It is stateless apart from its rule table and
// optional label-id map, so a single instance is safe for concurrent use.
type Classifier struct {
	rules    []LabelRule
	labelIDs map[string]int
}

// New builds a classifier from an archetype rule table. labelIDs may be nil;
// when present, classified records carry the numeric id of their label.
func New(rules []LabelRule, labelIDs map[string]int) *Classifier {
	return &Classifier{rules: rules, labelIDs: labelIDs}
}

// Classify labels a single document from its path and body text. The label
// is a pure function of the two inputs: each rule pattern scores 0.25 per
// filename hit plus 0.25 per body hit, capped at 1.0, and the strictly
// highest-scoring archetype wins with ties keeping table order. Zero hits
// across the table yield the unknown label with confidence 0.
func (c *Classifier) Classify(docPath, text string) model.ClassificationRecord {
	bestLabel := model.DocUnknown
	bestScore := 0.0
	reasons := []string{"No patterns matched"}
	filename := path.Base(docPath)
	for _, rule := range c.rules {
		score, explanation := scoreLabel(rule.Patterns, text, filename)
		if score > bestScore {
			bestLabel = rule.Label
			bestScore = score
			reasons = explanation
		}
	}

	record := model.ClassificationRecord{
		Path:       docPath,
		Label:      bestLabel,
		Confidence: round1(bestScore * 100),
		Reasons:    reasons,
		Structured: buildStructured(bestLabel, text),
	}
	if c.labelIDs != nil {
		if id, ok := c.labelIDs[string(bestLabel)]; ok {
			record.LabelID = &id
		}
	}
	return record
}

// ClassifyAll classifies every document in the text mapping and aggregates a
// package summary. Documents are processed in sorted path order so the
// report is deterministic for any map.
func (c *Classifier) ClassifyAll(texts map[string]string) model.ClassificationReport {
	paths := make([]string, 0, len(texts))
	for p := range texts {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	documents := make([]model.ClassificationRecord, 0, len(paths))
	counts := make(map[string]int)
	var firstSeen []string
	confidenceSum := 0.0
	for _, p := range paths {
		record := c.Classify(p, texts[p])
		documents = append(documents, record)
		label := string(record.Label)
		if _, ok := counts[label]; !ok {
			firstSeen = append(firstSeen, label)
		}
		counts[label]++
		confidenceSum += record.Confidence
	}

	summary := model.ClassificationSummary{
		TotalDocuments: len(documents),
		Labels:         counts,
	}
	topCount := 0
	for _, label := range firstSeen {
		if counts[label] > topCount {
			summary.TopLabel = label
			topCount = counts[label]
		}
	}
	if len(documents) > 0 {
		summary.AverageConfidence = round1(confidenceSum / float64(len(documents)))
	}

	return model.ClassificationReport{Documents: documents, Summary: summary}
}

// scoreLabel counts independent filename and body hits for each pattern of
// one archetype. Reasons are emitted in pattern order, filename before body.
func scoreLabel(patterns []Pattern, text, filename string) (float64, []string) {
	var reasons []string
	hits := 0
	for _, p := range patterns {
		if p.Regexp.MatchString(filename) {
			hits++
			reasons = append(reasons, fmt.Sprintf("Filename matches %s", p.Source))
		}
		if p.Regexp.MatchString(text) {
			hits++
			reasons = append(reasons, fmt.Sprintf("Text matches %s", p.Source))
		}
	}
	return math.Min(1.0, 0.25*float64(hits)), reasons
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
