package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"finpack/internal/archive"
	"finpack/internal/bank"
	"finpack/internal/model"
	"finpack/internal/pipeline"
	"finpack/internal/pipeline/classify"
	"finpack/internal/pipeline/gate"
	"finpack/internal/service"
	"finpack/internal/textextract"
)

var (
	workdirFlag = &cli.StringFlag{
		Name:  "workdir",
		Value: "data/workdir",
		Usage: "base directory for per-package scratch space",
	}
	banksFlag = &cli.StringFlag{
		Name:  "banks",
		Value: "data/banks",
		Usage: "base directory for the local good/bad banks",
	}
	bankVersionFlag = &cli.IntFlag{
		Name:  "bank-version",
		Value: 1,
		Usage: "good-bank version folder for an accepted package",
	}
	labelMapFlag = &cli.StringFlag{
		Name:  "label-map",
		Usage: "path to a JSON label-to-id map",
	}
	textBackendFlag = &cli.StringFlag{
		Name:  "text-backend",
		Value: "pdf",
		Usage: "PDF text extractor: pdf or naive",
	}
	formatFlag = &cli.StringFlag{
		Name:  "format",
		Value: "yaml",
		Usage: "stdout report format: yaml or json",
	}
)

func main() {
	app := &cli.App{
		Name:  "finpackctl",
		Usage: "run the package decision pipeline against local ZIP files",
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "run the full pipeline on a ZIP and bank the outcome locally",
				ArgsUsage: "<package.zip>",
				Flags:     []cli.Flag{workdirFlag, banksFlag, bankVersionFlag, labelMapFlag, textBackendFlag, formatFlag},
				Action:    runAction,
			},
			{
				Name:      "score",
				Usage:     "run only the quality gate on a ZIP",
				ArgsUsage: "<package.zip>",
				Flags:     []cli.Flag{workdirFlag, textBackendFlag, formatFlag},
				Action:    scoreAction,
			},
			{
				Name:      "classify",
				Usage:     "extract text from a ZIP and classify each document",
				ArgsUsage: "<package.zip>",
				Flags:     []cli.Flag{workdirFlag, labelMapFlag, textBackendFlag, formatFlag},
				Action:    classifyAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runAction(c *cli.Context) error {
	zipPath := c.Args().First()
	if zipPath == "" {
		return cli.Exit("usage: finpackctl run <package.zip>", 2)
	}

	runner, err := buildRunner(c)
	if err != nil {
		return err
	}

	packageName := packageStem(zipPath)
	workdir := filepath.Join(c.String("workdir"), packageName)
	localZip, err := archive.SaveLocal(zipPath, workdir)
	if err != nil {
		return fmt.Errorf("copy zip: %w", err)
	}

	res, err := runner.Run(localZip, workdir)
	if err != nil {
		return err
	}

	banks := bank.NewLocal(c.String("banks"))
	switch res.Status {
	case model.StatusAccepted:
		stored, err := banks.Store(packageName, res.Artifacts, c.Int("bank-version"))
		if err != nil {
			return fmt.Errorf("store in good bank: %w", err)
		}
		res.Artifacts = stored
	case model.StatusRejectedGate:
		if _, err := banks.Quarantine(packageName, localZip, service.ReasonGateFailure, &res.Score, nil); err != nil {
			return fmt.Errorf("quarantine: %w", err)
		}
	case model.StatusRejectedValidation:
		if _, err := banks.Quarantine(packageName, localZip, service.ReasonValidationFailure, &res.Score, res.Classification); err != nil {
			return fmt.Errorf("quarantine: %w", err)
		}
	}

	if err := emit(c, res); err != nil {
		return err
	}
	if res.Status != model.StatusAccepted {
		return cli.Exit("", 1)
	}
	return nil
}

func scoreAction(c *cli.Context) error {
	zipPath := c.Args().First()
	if zipPath == "" {
		return cli.Exit("usage: finpackctl score <package.zip>", 2)
	}

	extractor := pickExtractor(c.String("text-backend"))
	scorer := gate.NewScorer(extractor, gate.DefaultRequiredDocs())

	workdir := filepath.Join(c.String("workdir"), packageStem(zipPath))
	score := scorer.Score(zipPath, workdir)
	return emit(c, score)
}

func classifyAction(c *cli.Context) error {
	zipPath := c.Args().First()
	if zipPath == "" {
		return cli.Exit("usage: finpackctl classify <package.zip>", 2)
	}

	extractor := pickExtractor(c.String("text-backend"))
	labelIDs, err := loadLabelIDs(c.String("label-map"))
	if err != nil {
		return err
	}
	classifier := classify.New(classify.DefaultRules(), labelIDs)

	workdir := filepath.Join(c.String("workdir"), packageStem(zipPath))
	extracted, err := archive.ExtractAll(zipPath, filepath.Join(workdir, "extracted"))
	if err != nil {
		return fmt.Errorf("unzip: %w", err)
	}
	var pdfPaths []string
	for _, p := range extracted {
		if strings.EqualFold(filepath.Ext(p), ".pdf") {
			pdfPaths = append(pdfPaths, p)
		}
	}

	texts := textextract.Texts(extractor, pdfPaths)
	report := classifier.ClassifyAll(texts)
	return emit(c, report)
}

func buildRunner(c *cli.Context) (*pipeline.Runner, error) {
	extractor := pickExtractor(c.String("text-backend"))
	labelIDs, err := loadLabelIDs(c.String("label-map"))
	if err != nil {
		return nil, err
	}
	scorer := gate.NewScorer(extractor, gate.DefaultRequiredDocs())
	classifier := classify.New(classify.DefaultRules(), labelIDs)
	// Stage logs go to stderr so stdout carries only the report.
	return pipeline.NewRunner(scorer, classifier, extractor).WithLogWriter(os.Stderr), nil
}

func pickExtractor(backend string) textextract.Extractor {
	if backend == "naive" {
		return textextract.NewNaive()
	}
	return textextract.NewPDF()
}

func loadLabelIDs(path string) (map[string]int, error) {
	if path == "" {
		return nil, nil
	}
	ids, err := classify.LoadLabelMap(path)
	if err != nil {
		return nil, fmt.Errorf("load label map: %w", err)
	}
	return ids, nil
}

func packageStem(zipPath string) string {
	return strings.TrimSuffix(filepath.Base(zipPath), filepath.Ext(zipPath))
}

// emit writes v to stdout in the requested format. YAML goes through a JSON
// round trip so its keys match the JSON artifact files.
func emit(c *cli.Context, v any) error {
	if c.String("format") == "json" {
		raw, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(raw))
		return nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}
