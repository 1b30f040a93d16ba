package gate

import (
	"regexp"
	"strings"
)

// RequiredDoc names a document archetype every package must contain, with
// the filename patterns that count as present. Patterns are matched against
// lowercased names.
type RequiredDoc struct {
	Type     string
	Patterns []*regexp.Regexp
}

func pats(sources ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(sources))
	for i, s := range sources {
		compiled[i] = regexp.MustCompile(s)
	}
	return compiled
}

// DefaultRequiredDocs returns the built-in required-archetype table.
func DefaultRequiredDocs() []RequiredDoc {
	return []RequiredDoc{
		{Type: "income_statement", Patterns: pats(`income[_\s]?statement`, `p&l`, `profit[_\s]?and[_\s]?loss`)},
		{Type: "balance_sheet", Patterns: pats(`balance[_\s]?sheet`)},
		{Type: "cash_flow", Patterns: pats(`cash[_\s]?flow`, `cashflow`)},
	}
}

var badNameCharRe = regexp.MustCompile(`[^a-zA-Z0-9_./\-]`)

// findMissingRequired returns the required archetypes, in table order, that
// no member filename accounts for.
func findMissingRequired(required []RequiredDoc, names []string) []string {
	lowered := make([]string, len(names))
	for i, n := range names {
		lowered[i] = strings.ToLower(n)
	}
	missing := []string{}
	for _, doc := range required {
		found := false
	scan:
		for _, name := range lowered {
			for _, p := range doc.Patterns {
				if p.MatchString(name) {
					found = true
					break scan
				}
			}
		}
		if !found {
			missing = append(missing, doc.Type)
		}
	}
	return missing
}

// detectFolderIssues flags deep nesting and sprawling top-level layouts.
func detectFolderIssues(names []string) []string {
	issues := []string{}
	deep := false
	topLevels := make(map[string]struct{})
	for _, name := range names {
		parts := pathParts(name)
		if len(parts) > 3 {
			deep = true
		}
		if len(parts) > 1 {
			topLevels[parts[0]] = struct{}{}
		}
	}
	if deep {
		issues = append(issues, "Files nested more than 2 levels deep")
	}
	if len(topLevels) > 3 {
		issues = append(issues, "Multiple top-level folders detected")
	}
	return issues
}

// detectNamingIssues flags case-insensitive duplicate names and characters
// outside the portable filename set.
func detectNamingIssues(names []string) []string {
	issues := []string{}
	counts := make(map[string]int)
	var order []string
	for _, name := range names {
		lower := strings.ToLower(name)
		if _, ok := counts[lower]; !ok {
			order = append(order, lower)
		}
		counts[lower]++
	}
	duplicates := []string{}
	for _, lower := range order {
		if counts[lower] > 1 {
			duplicates = append(duplicates, lower)
		}
	}
	if len(duplicates) > 0 {
		issues = append(issues, "Duplicate names: "+strings.Join(duplicates, ", "))
	}

	for _, name := range names {
		if badNameCharRe.MatchString(name) {
			issues = append(issues, "Non-alphanumeric characters in file names")
			break
		}
	}
	return issues
}

func pathParts(name string) []string {
	parts := []string{}
	for _, p := range strings.Split(name, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
