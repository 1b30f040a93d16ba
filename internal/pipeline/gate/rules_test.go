package gate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindMissingRequired(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  []string
	}{
		{
			name:  "all present",
			files: []string{"income_statement.pdf", "balance_sheet.pdf", "cash_flow.pdf"},
			want:  []string{},
		},
		{
			name:  "alternate spellings count",
			files: []string{"P&L_2023.pdf", "Balance Sheet.pdf", "cashflow.pdf"},
			want:  []string{},
		},
		{
			name:  "profit and loss covers income statement",
			files: []string{"profit_and_loss.pdf", "balance_sheet.pdf"},
			want:  []string{"cash_flow"},
		},
		{
			name:  "nothing matches",
			files: []string{"notes.txt", "misc.pdf"},
			want:  []string{"income_statement", "balance_sheet", "cash_flow"},
		},
		{
			name:  "empty package misses everything",
			files: []string{},
			want:  []string{"income_statement", "balance_sheet", "cash_flow"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, findMissingRequired(DefaultRequiredDocs(), tt.files))
		})
	}
}

func TestDetectFolderIssues(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  []string
	}{
		{
			name:  "flat layout is fine",
			files: []string{"a.pdf", "b.pdf"},
			want:  []string{},
		},
		{
			name:  "two levels are fine",
			files: []string{"docs/2023/a.pdf"},
			want:  []string{},
		},
		{
			name:  "three levels flagged",
			files: []string{"docs/2023/q1/a.pdf"},
			want:  []string{"Files nested more than 2 levels deep"},
		},
		{
			name:  "four top level folders flagged",
			files: []string{"t1/a.pdf", "t2/b.pdf", "t3/c.pdf", "t4/d.pdf"},
			want:  []string{"Multiple top-level folders detected"},
		},
		{
			name:  "root files do not count as top level folders",
			files: []string{"a.pdf", "b.pdf", "c.pdf", "d.pdf", "e.pdf"},
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectFolderIssues(tt.files))
		})
	}
}

func TestDetectNamingIssues(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  []string
	}{
		{
			name:  "clean names",
			files: []string{"income_statement.pdf", "docs/balance-sheet.pdf"},
			want:  []string{},
		},
		{
			name:  "case insensitive duplicates",
			files: []string{"t1/Dup.pdf", "t1/dup.PDF"},
			want:  []string{"Duplicate names: t1/dup.pdf"},
		},
		{
			name:  "bad characters",
			files: []string{"bad name!.pdf"},
			want:  []string{"Non-alphanumeric characters in file names"},
		},
		{
			name:  "both kinds reported in order",
			files: []string{"A.pdf", "a.pdf", "odd name.pdf"},
			want:  []string{"Duplicate names: a.pdf", "Non-alphanumeric characters in file names"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectNamingIssues(tt.files))
		})
	}
}
