package model

// GateStatus is the pass/fail verdict of the quality gate.
type GateStatus string

const (
	GateGood GateStatus = "GOOD"
	GateBad  GateStatus = "BAD"
)

// RoutePath is the routing decision derived from a gate score.
type RoutePath string

const (
	// RouteStandard continues into classification, validation and memo build.
	RouteStandard RoutePath = "STANDARD_PATH"
	// RouteException sends the package straight to quarantine.
	RouteException RoutePath = "EXCEPTION_PATH"
)

// GateScoreResult is the complete quality-gate verdict for one package.
// It is produced once per package, is immutable after creation, and is always
// fully populated: failure cases carry a zero score and itemized issues
// rather than an error.
type GateScoreResult struct {
	Status          GateStatus `json:"status"`
	TotalScore      int        `json:"total_score"`
	Issues          []string   `json:"issues"`
	MissingRequired []string   `json:"missing_required"`
	CorruptPDFs     []string   `json:"corrupt_pdfs"`
	SparsePDFs      []string   `json:"sparse_pdfs"`
	MissingTerms    []string   `json:"missing_terms"`
	NamingIssues    []string   `json:"naming_issues"`
	FolderIssues    []string   `json:"folder_issues"`
	Files           []string   `json:"files"`
	ElapsedSeconds  float64    `json:"elapsed_seconds"`
	ScoreJSON       string     `json:"score_json,omitempty"`
	ScanDir         string     `json:"scan_dir,omitempty"`
}
