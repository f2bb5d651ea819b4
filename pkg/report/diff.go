package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/kaushalya4s5s7/Axiom/pkg/engine"
)

// Diff is the result of comparing a report against a baseline.
type Diff struct {
	New        []engine.AuditIssue
	Fixed      []engine.AuditIssue
	Unchanged  []engine.AuditIssue
	ScoreDelta int
}

// Compare classifies issues by id: present only in current (New), only in
// baseline (Fixed) or in both (Unchanged). Order follows the document each
// issue was taken from.
func Compare(baseline, current Document) Diff {
	d := Diff{
		New:        []engine.AuditIssue{},
		Fixed:      []engine.AuditIssue{},
		Unchanged:  []engine.AuditIssue{},
		ScoreDelta: current.AuditScore - baseline.AuditScore,
	}

	baseIDs := make(map[string]bool, len(baseline.Issues))
	for _, is := range baseline.Issues {
		baseIDs[is.ID] = true
	}
	currentIDs := make(map[string]bool, len(current.Issues))
	for _, is := range current.Issues {
		currentIDs[is.ID] = true
		if baseIDs[is.ID] {
			d.Unchanged = append(d.Unchanged, is)
		} else {
			d.New = append(d.New, is)
		}
	}
	for _, is := range baseline.Issues {
		if !currentIDs[is.ID] {
			d.Fixed = append(d.Fixed, is)
		}
	}
	return d
}

const maxUnchangedListed = 10

// WriteDiff prints the comparison in the CLI's plain-text layout.
func WriteDiff(w io.Writer, d Diff, baselineName string) error {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Report Comparison (vs %s):\n", baselineName))
	sb.WriteString("--------------------------------------------------\n")
	sb.WriteString(fmt.Sprintf("SCORE CHANGE: %+d\n\n", d.ScoreDelta))

	sb.WriteString(fmt.Sprintf("NEW ISSUES: %d\n", len(d.New)))
	for _, is := range d.New {
		sb.WriteString(fmt.Sprintf("  [+] %s\n", issueLine(is)))
	}
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("FIXED ISSUES: %d\n", len(d.Fixed)))
	for _, is := range d.Fixed {
		sb.WriteString(fmt.Sprintf("  [-] %s\n", issueLine(is)))
	}
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf("UNCHANGED ISSUES: %d\n", len(d.Unchanged)))
	for i, is := range d.Unchanged {
		if i == maxUnchangedListed {
			sb.WriteString(fmt.Sprintf("  ... and %d more.\n", len(d.Unchanged)-maxUnchangedListed))
			break
		}
		sb.WriteString(fmt.Sprintf("  [=] %s\n", issueLine(is)))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func issueLine(is engine.AuditIssue) string {
	loc := is.Source
	if is.Line != nil {
		loc = fmt.Sprintf("%s:%d", is.Source, *is.Line)
	}
	return fmt.Sprintf("[%s] %s (%s)", strings.ToUpper(is.Severity.String()), is.Title, loc)
}
