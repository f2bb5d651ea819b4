package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intp(n int) *int { return &n }

func TestParseSeverity(t *testing.T) {
	cases := map[string]Severity{
		"critical":      SeverityCritical,
		" HIGH ":        SeverityHigh,
		"Medium":        SeverityMedium,
		"low":           SeverityLow,
		"unknown":       SeverityUnknown,
		"Informational": SeverityLow,
		"warning":       SeverityMedium,
		"major":         SeverityHigh,
		"blocker":       SeverityCritical,
	}
	for raw, want := range cases {
		got, ok := ParseSeverity(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}

	for _, raw := range []string{"", "severe", "p1", "crit"} {
		got, ok := ParseSeverity(raw)
		assert.False(t, ok, raw)
		assert.Equal(t, SeverityUnknown, got)
	}
}

func TestSeverityRank(t *testing.T) {
	for i, s := range Tiers {
		assert.Equal(t, i, s.Rank())
		assert.True(t, s.Valid())
	}
	assert.False(t, Severity("severe").Valid())
}

func TestClassifyExplicitSeverityWins(t *testing.T) {
	is := Classify(DraftIssue{ID: "1", Title: "Reentrancy in withdraw", Severity: "low"})
	assert.Equal(t, SeverityLow, is.Severity)
}

func TestClassifyKeywordPriority(t *testing.T) {
	cases := []struct {
		title, desc string
		want        Severity
	}{
		{"Reentrancy in withdraw", "", SeverityCritical},
		// critical keyword beats a high keyword in the same text
		{"Integer overflow enables reentrancy", "", SeverityCritical},
		{"Authorization via tx.origin", "", SeverityHigh},
		{"Timestamp dependence", "uses block.timestamp for lottery", SeverityMedium},
		{"Floating pragma", "", SeverityLow},
		{"Follow the allowance flow", "", SeverityUnknown},
		{"Something odd", "nothing recognizable here", SeverityUnknown},
		{"REENTRANCY", "", SeverityCritical},
	}
	for _, tc := range cases {
		is := Classify(DraftIssue{Title: tc.title, Description: tc.desc, Severity: "bogus"})
		assert.Equal(t, tc.want, is.Severity, tc.title)
		assert.True(t, is.Severity.Valid())
	}
}

func TestClassifyDefaults(t *testing.T) {
	is := Classify(DraftIssue{ID: "x", Title: "  ", Source: "", Line: intp(0), Description: "  d  "})
	assert.Equal(t, DefaultTitle, is.Title)
	assert.Equal(t, DefaultSource, is.Source)
	assert.Nil(t, is.Line)
	assert.Equal(t, "d", is.Description)

	line := intp(12)
	is = Classify(DraftIssue{Title: "t", Line: line})
	*line = 99
	assert.Equal(t, 12, *is.Line)
}

func TestCustomClassifier(t *testing.T) {
	c := NewClassifier(Keywords{Medium: []string{"gas"}})
	assert.Equal(t, SeverityMedium, c.Match("Gas griefing"))
	assert.Equal(t, SeverityUnknown, c.Match("reentrancy"))
	assert.Nil(t, CompileKeywords([]string{"", " "}))
}
