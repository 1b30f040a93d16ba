package model

// ValidationDetail is the per-document validation outcome. The flag slices
// are copies of the classifier's lists plus the validator's own findings;
// the originating ClassificationRecord is never mutated.
type ValidationDetail struct {
	Path                  string   `json:"path"`
	Periods               []string `json:"periods"`
	NumericValuesFound    int      `json:"numeric_values_found"`
	MissingMonths         []string `json:"missing_months"`
	PassesNumericPresence bool     `json:"passes_numeric_presence"`
	PassesPeriodDetection bool     `json:"passes_period_detection"`
	HasDates              bool     `json:"has_dates"`
	MissingFields         []string `json:"missing_fields"`
	SuspiciousValues      []string `json:"suspicious_values"`
	FormatErrors          []string `json:"format_errors"`
}

// ValidationSummary is the package-level validation aggregate.
type ValidationSummary struct {
	DocumentsValidated   int      `json:"documents_validated"`
	YearsDetected        []int    `json:"years_detected"`
	ContinuityBreaks     []string `json:"continuity_breaks"`
	MissingMonths        []string `json:"missing_months"`
	CompletenessFailures int      `json:"completeness_failures"`
	Passes               bool     `json:"passes"`
}

// ValidationReport pairs the summary with per-document details.
type ValidationReport struct {
	Summary ValidationSummary  `json:"summary"`
	Details []ValidationDetail `json:"details"`
}
