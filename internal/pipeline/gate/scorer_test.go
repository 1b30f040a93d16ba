package gate

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finpack/internal/model"
)

const richText = "revenue cash assets liabilities income balance flow 100 200 300 400 500"

type stubExtractor struct {
	texts     map[string]string
	fallback  string
	available bool
}

func (s stubExtractor) Text(path string) string {
	if text, ok := s.texts[filepath.Base(path)]; ok {
		return text
	}
	return s.fallback
}

func (s stubExtractor) Available() bool { return s.available }

func writeTestZip(t *testing.T, path string, names []string) {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, name := range names {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte("placeholder body"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestScoreCleanPackage(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "acme_q1.zip")
	writeTestZip(t, zipPath, []string{"income_statement.pdf", "balance_sheet.pdf", "cash_flow.pdf"})
	workdir := filepath.Join(dir, "work")
	require.NoError(t, os.MkdirAll(workdir, 0o755))

	s := NewScorer(stubExtractor{fallback: richText, available: true}, DefaultRequiredDocs())
	result := s.Score(zipPath, workdir)

	assert.Equal(t, model.GateGood, result.Status)
	assert.Equal(t, 100, result.TotalScore)
	assert.Empty(t, result.Issues)
	assert.Equal(t, []string{"income_statement.pdf", "balance_sheet.pdf", "cash_flow.pdf"}, result.Files)
	assert.Equal(t, filepath.Join(workdir, "gate_scan"), result.ScanDir)
	assert.Equal(t, filepath.Join(workdir, "score.json"), result.ScoreJSON)
	assert.Equal(t, model.RouteStandard, Route(result))

	// The persisted record is written before the pointer is set, so it
	// never references itself.
	raw, err := os.ReadFile(result.ScoreJSON)
	require.NoError(t, err)
	var persisted map[string]any
	require.NoError(t, json.Unmarshal(raw, &persisted))
	assert.Equal(t, "GOOD", persisted["status"])
	_, hasPointer := persisted["score_json"]
	assert.False(t, hasPointer)
}

func TestScoreInvalidArchive(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "not_really.zip")
	require.NoError(t, os.WriteFile(zipPath, []byte("plain text"), 0o644))
	workdir := filepath.Join(dir, "work")
	require.NoError(t, os.MkdirAll(workdir, 0o755))

	s := NewScorer(stubExtractor{available: true}, DefaultRequiredDocs())
	result := s.Score(zipPath, workdir)

	assert.Equal(t, model.GateBad, result.Status)
	assert.Equal(t, 0, result.TotalScore)
	assert.Equal(t, []string{"Not a valid zip archive"}, result.Issues)
	assert.Empty(t, result.Files)
	assert.Equal(t, model.RouteException, Route(result))
	_, err := os.Stat(filepath.Join(workdir, "score.json"))
	assert.NoError(t, err)
}

func TestScoreCorruptAndSparse(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "weak.zip")
	writeTestZip(t, zipPath, []string{"balance_sheet.pdf"})

	s := NewScorer(stubExtractor{fallback: "", available: true}, DefaultRequiredDocs())
	result := s.Score(zipPath, "")

	// missing income_statement and cash_flow (40), one corrupt (25), one
	// sparse (10), all terms missing (10).
	assert.Equal(t, model.GateBad, result.Status)
	assert.Equal(t, 15, result.TotalScore)
	assert.Equal(t, []string{
		"Missing required docs: income_statement, cash_flow",
		"Corrupt PDFs: balance_sheet.pdf",
		"Sparse numeric content in: balance_sheet.pdf",
		"Missing key financial terms: revenue, cash, assets, liabilities, income, balance, flow",
	}, result.Issues)
	assert.Equal(t, []string{"income_statement", "cash_flow"}, result.MissingRequired)
	assert.Equal(t, filepath.Join(dir, "gate_scan"), result.ScanDir)
	assert.Equal(t, "", result.ScoreJSON)
}

func TestScoreSkipsKeywordCheckWithoutBackend(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "pkg.zip")
	writeTestZip(t, zipPath, []string{"income_statement.pdf", "balance_sheet.pdf", "cash_flow.pdf"})

	// No keyword appears in any text, but the backend is unavailable so
	// the coverage check must not penalize.
	s := NewScorer(stubExtractor{fallback: "1 2 3 4 5", available: false}, DefaultRequiredDocs())
	result := s.Score(zipPath, "")

	assert.Equal(t, model.GateGood, result.Status)
	assert.Equal(t, 100, result.TotalScore)
	assert.Empty(t, result.MissingTerms)
}

func TestScoreStructureAndNamingPenalties(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "messy.zip")
	writeTestZip(t, zipPath, []string{
		"a/b/c/deep.pdf",
		"t1/Dup.pdf",
		"t1/dup.PDF",
		"t2/x.pdf",
		"t3/x.pdf",
		"t4/x.pdf",
		"bad name!.pdf",
	})

	s := NewScorer(stubExtractor{fallback: richText, available: true}, DefaultRequiredDocs())
	result := s.Score(zipPath, "")

	// 3 missing required (60), 2 folder issues (20), 2 naming issues (10).
	assert.Equal(t, 10, result.TotalScore)
	assert.Equal(t, model.GateBad, result.Status)
	assert.Equal(t, []string{
		"Missing required docs: income_statement, balance_sheet, cash_flow",
		"Files nested more than 2 levels deep",
		"Multiple top-level folders detected",
		"Duplicate names: t1/dup.pdf",
		"Non-alphanumeric characters in file names",
	}, result.Issues)
}

func TestScoreGoodRequiresNoCorruptEvenWithHighScore(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "pkg.zip")
	writeTestZip(t, zipPath, []string{"income_statement.pdf", "balance_sheet.pdf", "cash_flow.pdf"})

	texts := map[string]string{
		"income_statement.pdf": richText,
		"balance_sheet.pdf":    richText,
		"cash_flow.pdf":        "",
	}
	s := NewScorer(stubExtractor{texts: texts, available: true}, DefaultRequiredDocs())
	result := s.Score(zipPath, "")

	// One corrupt PDF is also sparse: 100 - 25 - 10 = 65, but even a
	// passing score would stay BAD while a corrupt member is present.
	assert.Equal(t, 65, result.TotalScore)
	assert.Equal(t, model.GateBad, result.Status)
	assert.Equal(t, []string{"cash_flow.pdf"}, baseNames(result.CorruptPDFs))
	assert.Equal(t, []string{"cash_flow.pdf"}, baseNames(result.SparsePDFs))
}
