package validate

import (
	"fmt"
	"regexp"
	"sort"

	"finpack/internal/model"
)

// numberRe matches thousand-grouped or plain decimals, optionally negative.
var numberRe = regexp.MustCompile(`-?\d{1,3}(?:,\d{3})*(?:\.\d+)?`)

const (
	minAlphaChars   = 20
	minNumericCount = 5
)

// Documents cross-checks extracted texts against the classifier output and
// produces the validation report: per-document period and numeric presence
// checks plus a package-level summary of year continuity and completeness.
//
// Classifier flags are copied before the validator appends its own format
// errors, so the classification report is never mutated.
func Documents(texts map[string]string, classification *model.ClassificationReport) model.ValidationReport {
	flagsByPath := make(map[string]model.FieldFlags)
	if classification != nil {
		for _, d := range classification.Documents {
			flagsByPath[d.Path] = d.Structured.Flags
		}
	}

	paths := make([]string, 0, len(texts))
	for p := range texts {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	details := make([]model.ValidationDetail, 0, len(paths))
	var allPeriods []string
	allMissingMonths := make(map[string]struct{})
	completenessFailures := 0

	for _, path := range paths {
		text := texts[path]
		periods := DetectPeriods(text)
		allPeriods = append(allPeriods, periods...)

		numbers := numberRe.FindAllString(text, -1)
		missingMonths := DetectMissingMonths(periods)
		for _, m := range missingMonths {
			allMissingMonths[m] = struct{}{}
		}
		hasDates := DetectDates(text)

		alphaChars := 0
		for _, r := range text {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				alphaChars++
			}
		}
		sparse := alphaChars < minAlphaChars && len(numbers) < minNumericCount
		passesNumeric := len(numbers) > minNumericCount
		passesPeriods := len(periods) > 0

		flags := flagsByPath[path]
		missingFields := append([]string{}, flags.MissingFields...)
		suspicious := append([]string{}, flags.SuspiciousValues...)
		formatErrors := append([]string{}, flags.FormatErrors...)
		if !hasDates {
			formatErrors = append(formatErrors, "missing dates")
		}
		if sparse {
			formatErrors = append(formatErrors, "sparse content")
		}
		if len(missingFields) > 0 || len(formatErrors) > 0 || !passesNumeric {
			completenessFailures++
		}

		details = append(details, model.ValidationDetail{
			Path:                  path,
			Periods:               periods,
			NumericValuesFound:    len(numbers),
			MissingMonths:         missingMonths,
			PassesNumericPresence: passesNumeric,
			PassesPeriodDetection: passesPeriods,
			HasDates:              hasDates,
			MissingFields:         missingFields,
			SuspiciousValues:      suspicious,
			FormatErrors:          formatErrors,
		})
	}

	years := detectYears(allPeriods)
	continuityBreaks := []string{}
	for i := 1; i < len(years); i++ {
		if years[i]-years[i-1] > 1 {
			continuityBreaks = append(continuityBreaks, fmt.Sprintf("Gap between %d and %d", years[i-1], years[i]))
		}
	}

	missingMonths := make([]string, 0, len(allMissingMonths))
	for m := range allMissingMonths {
		missingMonths = append(missingMonths, m)
	}
	sort.Strings(missingMonths)

	return model.ValidationReport{
		Summary: model.ValidationSummary{
			DocumentsValidated:   len(details),
			YearsDetected:        years,
			ContinuityBreaks:     continuityBreaks,
			MissingMonths:        missingMonths,
			CompletenessFailures: completenessFailures,
			Passes:               len(continuityBreaks) == 0 && completenessFailures == 0,
		},
		Details: details,
	}
}

// detectYears pulls the leading four-digit year out of every period token and
// returns the sorted distinct set.
func detectYears(periods []string) []int {
	set := make(map[int]struct{})
	for _, p := range periods {
		if len(p) < 4 || !allDigits(p[:4]) {
			continue
		}
		set[atoiDigits(p[:4])] = struct{}{}
	}
	years := make([]int, 0, len(set))
	for y := range set {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

func allDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}
