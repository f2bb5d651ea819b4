package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/kaushalya4s5s7/Axiom/pkg/engine"
)

// WriteSummary prints a human-readable view of a report. When no structured
// issues were parsed it falls back to a preview of the raw report text.
func WriteSummary(w io.Writer, r engine.AuditReport) error {
	var sb strings.Builder

	hash := r.ContractHash
	if hash == "" {
		hash = "unknown"
	}
	sb.WriteString(fmt.Sprintf("Audit Report for %s\n", hash))
	sb.WriteString("--------------------------------------------------\n")
	sb.WriteString(fmt.Sprintf("Score: %d/100 (%s)\n", r.AuditScore, engine.Grade(r.AuditScore)))
	if r.EngineScore != nil {
		sb.WriteString(fmt.Sprintf("Engine reported score: %d\n", *r.EngineScore))
	}

	counts := make([]string, 0, len(engine.Tiers))
	for _, t := range engine.Tiers {
		counts = append(counts, fmt.Sprintf("%s=%d", t, r.IssueCount.Get(t)))
	}
	sb.WriteString(fmt.Sprintf("Issues: %d (%s)\n\n", r.IssueCount.Total(), strings.Join(counts, " ")))

	if r.Empty() {
		if strings.TrimSpace(r.RawText) == "" {
			sb.WriteString("No audit report available. Run an audit first.\n")
		} else {
			sb.WriteString("No structured issues parsed. Raw report:\n\n")
			sb.WriteString(r.RawPreview())
			sb.WriteString("\n")
		}
		_, err := io.WriteString(w, sb.String())
		return err
	}

	for i, is := range r.Issues {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, issueLine(is)))
		if is.Description != "" {
			sb.WriteString(fmt.Sprintf("   %s\n", strings.ReplaceAll(is.Description, "\n", "\n   ")))
		}
		if is.Recommendation != "" {
			sb.WriteString(fmt.Sprintf("   Fix: %s\n", is.Recommendation))
		}
		sb.WriteString("\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
