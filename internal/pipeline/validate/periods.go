package validate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// monthNames in reporting order; also the alternation used by the month-word
// regex passes.
var monthNames = []string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}

var (
	bareYearRe  = regexp.MustCompile(`20\d{2}`)
	yearMonthRe = regexp.MustCompile(`(20\d{2})[-_/](0[1-9]|1[0-2])`)
	monthWordRe = regexp.MustCompile(`(?i)(?:` + strings.Join(monthNames, "|") + `)\s+20\d{2}`)
	ymTokenRe   = regexp.MustCompile(`^(20\d{2})-(0[1-9]|1[0-2])`)
	dateRe      = regexp.MustCompile(`20\d{2}[-/](0[1-9]|1[0-2])`)
)

// DetectPeriods extracts period markers from free text: bare years (YYYY),
// normalized year-month tokens (YYYY-MM, separators -, _ and / accepted) and
// lowercase month-word tokens ("jan 2024"). The three passes are unioned,
// deduplicated and sorted lexicographically.
func DetectPeriods(text string) []string {
	set := make(map[string]struct{})
	for _, y := range bareYearRe.FindAllString(text, -1) {
		set[y] = struct{}{}
	}
	for _, m := range yearMonthRe.FindAllStringSubmatch(text, -1) {
		set[m[1]+"-"+m[2]] = struct{}{}
	}
	for _, m := range monthWordRe.FindAllString(text, -1) {
		set[strings.ToLower(m)] = struct{}{}
	}
	periods := make([]string, 0, len(set))
	for p := range set {
		periods = append(periods, p)
	}
	sort.Strings(periods)
	return periods
}

// DetectMissingMonths flags month gaps in the year range covered by the given
// periods. Only YYYY-MM tokens participate. The months-present set is global
// across every covered year: a month observed in any year suppresses the
// missing flag for that month in all years.
func DetectMissingMonths(periods []string) []string {
	var years []int
	seenYear := make(map[int]struct{})
	monthsPresent := make(map[int]struct{})
	for _, p := range periods {
		m := ymTokenRe.FindStringSubmatch(p)
		if m == nil {
			continue
		}
		year := atoiDigits(m[1])
		month := atoiDigits(m[2])
		if _, ok := seenYear[year]; !ok {
			seenYear[year] = struct{}{}
			years = append(years, year)
		}
		monthsPresent[month] = struct{}{}
	}
	if len(years) == 0 {
		return []string{}
	}
	sort.Ints(years)

	missing := []string{}
	for _, year := range years {
		for month := 1; month <= 12; month++ {
			if _, ok := monthsPresent[month]; !ok {
				missing = append(missing, fmt.Sprintf("%d-%02d", year, month))
			}
		}
	}
	return missing
}

// DetectDates reports whether the text contains any date-like pattern
// (YYYY-MM, YYYY/MM or a month word followed by a year).
func DetectDates(text string) bool {
	if dateRe.MatchString(text) {
		return true
	}
	return monthWordRe.MatchString(text)
}

// atoiDigits converts a string of ASCII digits; inputs come from anchored
// regex captures so no error path is needed.
func atoiDigits(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}
