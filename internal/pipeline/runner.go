// Package pipeline orchestrates the package decision flow: quality gate,
// text extraction, classification, cross-document validation and memo
// building. Banking and persistence are left to the caller so the same flow
// serves both the API service and the CLI runner.
package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"finpack/internal/archive"
	"finpack/internal/model"
	"finpack/internal/pipeline/classify"
	"finpack/internal/pipeline/gate"
	"finpack/internal/pipeline/memo"
	"finpack/internal/pipeline/validate"
	"finpack/internal/textextract"
)

// Result is the outcome of one pipeline run. Classification, Validation,
// Financials and Trends stay nil for stages the run never reached.
type Result struct {
	PackageName    string                      `json:"package_name"`
	Status         model.PackageStatus         `json:"status"`
	Route          model.RoutePath             `json:"route"`
	Workdir        string                      `json:"workdir"`
	Score          model.GateScoreResult       `json:"score"`
	Classification *model.ClassificationReport `json:"classification,omitempty"`
	Validation     *model.ValidationReport     `json:"validation,omitempty"`
	Financials     *model.Financials           `json:"financials,omitempty"`
	Trends         *model.Trends               `json:"trends,omitempty"`
	Artifacts      model.RunArtifacts          `json:"artifacts"`
	ElapsedSeconds float64                     `json:"elapsed_seconds"`
}

// Runner wires the pipeline stages together. Safe for concurrent use as
// long as each run gets its own workdir.
type Runner struct {
	scorer     *gate.Scorer
	classifier *classify.Classifier
	extractor  textextract.Extractor
	logw       io.Writer
	loc        *time.Location
}

func NewRunner(scorer *gate.Scorer, classifier *classify.Classifier, extractor textextract.Extractor) *Runner {
	return &Runner{
		scorer:     scorer,
		classifier: classifier,
		extractor:  extractor,
		logw:       os.Stdout,
		loc:        time.UTC,
	}
}

// WithLogWriter redirects stage logs, mainly for tests.
func (r *Runner) WithLogWriter(w io.Writer) *Runner {
	r.logw = w
	return r
}

// Run executes the decision pipeline for the ZIP at zipPath, writing all
// intermediate artifacts under workdir. A rejected package is a normal
// result, not an error; errors mean the pipeline itself could not proceed.
func (r *Runner) Run(zipPath, workdir string) (*Result, error) {
	start := time.Now()
	packageName := strings.TrimSuffix(filepath.Base(zipPath), filepath.Ext(zipPath))
	if err := os.MkdirAll(workdir, 0o755); err != nil {
		return nil, fmt.Errorf("create workdir: %w", err)
	}
	res := &Result{PackageName: packageName, Workdir: workdir, Artifacts: model.RunArtifacts{}}

	stageStart := time.Now()
	res.Score = r.scorer.Score(zipPath, workdir)
	res.Route = gate.Route(res.Score)
	if res.Score.ScoreJSON != "" {
		res.Artifacts[model.ArtifactScoreJSON] = res.Score.ScoreJSON
	}
	r.logStage("quality_gate", packageName, stageStart, map[string]any{
		"total_score": res.Score.TotalScore,
		"gate_status": string(res.Score.Status),
	})

	if res.Route == model.RouteException {
		res.Status = model.StatusRejectedGate
		res.ElapsedSeconds = round3(time.Since(start).Seconds())
		r.logStage("gate_rejected", packageName, start, nil)
		return res, nil
	}

	stageStart = time.Now()
	extractedDir := filepath.Join(workdir, "extracted")
	extracted, err := archive.ExtractAll(zipPath, extractedDir)
	if err != nil {
		return nil, fmt.Errorf("unzip: %w", err)
	}
	var pdfPaths []string
	for _, p := range extracted {
		if strings.EqualFold(filepath.Ext(p), ".pdf") {
			pdfPaths = append(pdfPaths, p)
		}
	}
	r.logStage("unzip", packageName, stageStart, map[string]any{
		"files": len(extracted),
		"pdfs":  len(pdfPaths),
	})

	stageStart = time.Now()
	texts := textextract.Texts(r.extractor, pdfPaths)
	textsPath := filepath.Join(workdir, "pdf_texts.json")
	if err := writeJSON(texts, textsPath); err != nil {
		return nil, fmt.Errorf("write pdf texts: %w", err)
	}
	res.Artifacts[model.ArtifactPDFTextsJSON] = textsPath
	r.logStage("text_extraction", packageName, stageStart, nil)

	stageStart = time.Now()
	classification := r.classifier.ClassifyAll(texts)
	res.Classification = &classification
	classificationPath := filepath.Join(workdir, "classification.json")
	if err := writeJSON(classification, classificationPath); err != nil {
		return nil, fmt.Errorf("write classification: %w", err)
	}
	res.Artifacts[model.ArtifactClassificationJSON] = classificationPath
	r.logStage("classification", packageName, stageStart, map[string]any{
		"top_label": classification.Summary.TopLabel,
	})

	stageStart = time.Now()
	validation := validate.Documents(texts, &classification)
	res.Validation = &validation
	validationPath := filepath.Join(workdir, "validation_report.json")
	if err := writeJSON(validation, validationPath); err != nil {
		return nil, fmt.Errorf("write validation report: %w", err)
	}
	res.Artifacts[model.ArtifactValidationJSON] = validationPath
	r.logStage("validation", packageName, stageStart, map[string]any{
		"passes": validation.Summary.Passes,
	})

	if !validation.Summary.Passes {
		res.Status = model.StatusRejectedValidation
		res.ElapsedSeconds = round3(time.Since(start).Seconds())
		r.logStage("validation_rejected", packageName, start, nil)
		return res, nil
	}

	stageStart = time.Now()
	fin := memo.ExtractFinancials(texts)
	trends := memo.AnalyzeTrends(fin)
	res.Financials = &fin
	res.Trends = &trends
	memoArtifacts, err := memo.Format(packageName, classification, validation, fin, trends, workdir)
	if err != nil {
		return nil, fmt.Errorf("build memo: %w", err)
	}
	res.Artifacts[model.ArtifactMemoText] = memoArtifacts.TextPath
	res.Artifacts[model.ArtifactMemoJSON] = memoArtifacts.JSONPath
	r.logStage("memo", packageName, stageStart, nil)

	res.Status = model.StatusAccepted
	res.ElapsedSeconds = round3(time.Since(start).Seconds())
	r.logStage("pipeline_completed", packageName, start, map[string]any{
		"status": string(res.Status),
	})
	return res, nil
}

func (r *Runner) logStage(event, packageName string, since time.Time, extra map[string]any) {
	entry := map[string]any{
		"ts":          time.Now().In(r.loc).Format(time.RFC3339Nano),
		"level":       "info",
		"component":   "pipeline",
		"event":       event,
		"package":     packageName,
		"duration_ms": time.Since(since).Milliseconds(),
	}
	for k, v := range extra {
		entry[k] = v
	}
	if b, err := json.Marshal(entry); err == nil {
		fmt.Fprintln(r.logw, string(b))
	}
}

func writeJSON(v any, path string) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
