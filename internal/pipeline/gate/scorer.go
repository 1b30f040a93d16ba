package gate

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"finpack/internal/archive"
	"finpack/internal/model"
	"finpack/internal/textextract"
)

// Penalty weights per issue category.
const (
	penaltyMissingRequired = 20
	penaltyFolderIssue     = 10
	penaltyNamingIssue     = 5
	penaltyCorruptPDF      = 25
	penaltySparsePDF       = 10
	penaltyMissingTerms    = 10

	goodScoreThreshold = 70
)

// financialTerms is the keyword vocabulary for the coverage check; the
// check fires only when most of the vocabulary is absent.
var financialTerms = []string{"revenue", "cash", "assets", "liabilities", "income", "balance", "flow"}

var sparseNumberRe = regexp.MustCompile(`-?\d[\d,\.]*`)

// Scorer admits or rejects a package before any expensive processing. It
// never returns an error: every failure mode degrades to a BAD result with
// itemized issues.
type Scorer struct {
	extractor textextract.Extractor
	required  []RequiredDoc
}

func NewScorer(extractor textextract.Extractor, required []RequiredDoc) *Scorer {
	return &Scorer{extractor: extractor, required: required}
}

// Score runs the quality-gate checks against the ZIP at zipPath. When
// workdir is non-empty the full result is persisted there as score.json and
// the scratch extraction lands under workdir/gate_scan.
func (s *Scorer) Score(zipPath, workdir string) model.GateScoreResult {
	start := time.Now()

	if !archive.IsArchive(zipPath) {
		return s.finish(invalidArchiveResult(), workdir, start)
	}
	files, err := archive.ListFiles(zipPath)
	if err != nil {
		return s.finish(invalidArchiveResult(), workdir, start)
	}

	missingRequired := findMissingRequired(s.required, files)
	folderIssues := detectFolderIssues(files)
	namingIssues := detectNamingIssues(files)

	scanDir := filepath.Join(filepath.Dir(zipPath), "gate_scan")
	if workdir != "" {
		scanDir = filepath.Join(workdir, "gate_scan")
	}
	// Partial extraction is fine: members that did not land on disk read
	// as empty text and degrade to corrupt below.
	_, _ = archive.ExtractAll(zipPath, scanDir)

	corrupt := []string{}
	sparse := []string{}
	var pdfTexts []string
	for _, name := range files {
		if !strings.EqualFold(filepath.Ext(name), ".pdf") {
			continue
		}
		extractedPath := filepath.Join(scanDir, filepath.FromSlash(name))
		text := s.extractor.Text(extractedPath)
		pdfTexts = append(pdfTexts, text)
		if strings.TrimSpace(text) == "" {
			corrupt = append(corrupt, extractedPath)
		}
		if len(sparseNumberRe.FindAllString(text, -1)) < 5 {
			sparse = append(sparse, extractedPath)
		}
	}
	missingTerms := s.detectMissingTerms(pdfTexts)

	penalty := penaltyMissingRequired*len(missingRequired) +
		penaltyFolderIssue*len(folderIssues) +
		penaltyNamingIssue*len(namingIssues) +
		penaltyCorruptPDF*len(corrupt) +
		penaltySparsePDF*len(sparse) +
		penaltyMissingTerms*len(missingTerms)
	totalScore := max(0, 100-penalty)

	status := model.GateBad
	if totalScore >= goodScoreThreshold && len(missingRequired) == 0 && len(corrupt) == 0 {
		status = model.GateGood
	}

	issues := []string{}
	if len(missingRequired) > 0 {
		issues = append(issues, "Missing required docs: "+strings.Join(missingRequired, ", "))
	}
	issues = append(issues, folderIssues...)
	issues = append(issues, namingIssues...)
	if len(corrupt) > 0 {
		issues = append(issues, "Corrupt PDFs: "+strings.Join(baseNames(corrupt), ", "))
	}
	if len(sparse) > 0 {
		issues = append(issues, "Sparse numeric content in: "+strings.Join(baseNames(sparse), ", "))
	}
	issues = append(issues, missingTerms...)

	result := model.GateScoreResult{
		Status:          status,
		TotalScore:      totalScore,
		Issues:          issues,
		MissingRequired: missingRequired,
		CorruptPDFs:     corrupt,
		SparsePDFs:      sparse,
		MissingTerms:    missingTerms,
		NamingIssues:    namingIssues,
		FolderIssues:    folderIssues,
		Files:           files,
		ScanDir:         scanDir,
	}
	return s.finish(result, workdir, start)
}

// detectMissingTerms checks keyword coverage across all PDF text. The check
// is skipped entirely when no text backend is available so packages are not
// penalized for the runtime environment.
func (s *Scorer) detectMissingTerms(pdfTexts []string) []string {
	if !s.extractor.Available() {
		return []string{}
	}
	aggregated := strings.ToLower(strings.Join(pdfTexts, " "))
	missing := []string{}
	for _, term := range financialTerms {
		if !strings.Contains(aggregated, term) {
			missing = append(missing, term)
		}
	}
	if len(missing) >= len(financialTerms)-2 {
		return []string{"Missing key financial terms: " + strings.Join(missing, ", ")}
	}
	return []string{}
}

// finish stamps the elapsed time and, when a workdir is present, persists
// the score record. ScoreJSON points at the persisted file; the persisted
// copy itself omits the pointer since it is written first.
func (s *Scorer) finish(result model.GateScoreResult, workdir string, start time.Time) model.GateScoreResult {
	result.ElapsedSeconds = round3(time.Since(start).Seconds())
	if workdir != "" {
		scorePath := filepath.Join(workdir, "score.json")
		if err := saveJSON(result, scorePath); err == nil {
			result.ScoreJSON = scorePath
		}
	}
	return result
}

// Route maps a gate verdict to the processing path.
func Route(result model.GateScoreResult) model.RoutePath {
	if result.Status == model.GateGood {
		return model.RouteStandard
	}
	return model.RouteException
}

func invalidArchiveResult() model.GateScoreResult {
	return model.GateScoreResult{
		Status:          model.GateBad,
		TotalScore:      0,
		Issues:          []string{"Not a valid zip archive"},
		MissingRequired: []string{},
		CorruptPDFs:     []string{},
		SparsePDFs:      []string{},
		MissingTerms:    []string{},
		NamingIssues:    []string{},
		FolderIssues:    []string{},
		Files:           []string{},
	}
}

func baseNames(paths []string) []string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	return names
}

func saveJSON(v any, path string) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
