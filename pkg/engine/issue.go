package engine

import (
	"strings"
	"time"
)

// Severity is one of the five tiers an issue can be ranked in.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityUnknown  Severity = "unknown"
)

// Tiers lists every severity in rank order, most severe first.
var Tiers = []Severity{
	SeverityCritical,
	SeverityHigh,
	SeverityMedium,
	SeverityLow,
	SeverityUnknown,
}

const (
	DefaultTitle  = "Untitled Issue"
	DefaultSource = "Unknown source"
)

var severityAliases = map[string]Severity{
	"critical":      SeverityCritical,
	"blocker":       SeverityCritical,
	"high":          SeverityHigh,
	"major":         SeverityHigh,
	"error":         SeverityHigh,
	"medium":        SeverityMedium,
	"moderate":      SeverityMedium,
	"warning":       SeverityMedium,
	"low":           SeverityLow,
	"minor":         SeverityLow,
	"info":          SeverityLow,
	"informational": SeverityLow,
	"note":          SeverityLow,
	"unknown":       SeverityUnknown,
}

// ParseSeverity normalizes an upstream severity string. The boolean is false
// when the string does not name a tier (or a known alias of one).
func ParseSeverity(raw string) (Severity, bool) {
	s, ok := severityAliases[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return SeverityUnknown, false
	}
	return s, true
}

// Rank returns 0 for critical through 4 for unknown.
func (s Severity) Rank() int {
	for i, t := range Tiers {
		if t == s {
			return i
		}
	}
	return len(Tiers) - 1
}

// Valid reports whether s is one of the five tiers.
func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityUnknown:
		return true
	}
	return false
}

func (s Severity) String() string {
	return string(s)
}

// AuditIssue is a single classified finding.
type AuditIssue struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Severity       Severity `json:"severity"`
	Source         string   `json:"source"`
	Line           *int     `json:"line"`
	Recommendation string   `json:"recommendation,omitempty"`
}

// DraftIssue is an extracted issue whose severity has not been classified yet.
type DraftIssue struct {
	ID             string
	Title          string
	Description    string
	Severity       string // raw upstream value, may be empty or arbitrary
	Source         string
	Line           *int
	Recommendation string
}

// IssueCount holds per-tier counts. Field order matches tier rank so the
// encoded JSON object lists critical first and unknown last.
type IssueCount struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Unknown  int `json:"unknown"`
}

// Get returns the count for a tier.
func (c IssueCount) Get(s Severity) int {
	switch s {
	case SeverityCritical:
		return c.Critical
	case SeverityHigh:
		return c.High
	case SeverityMedium:
		return c.Medium
	case SeverityLow:
		return c.Low
	default:
		return c.Unknown
	}
}

func (c *IssueCount) add(s Severity) {
	switch s {
	case SeverityCritical:
		c.Critical++
	case SeverityHigh:
		c.High++
	case SeverityMedium:
		c.Medium++
	case SeverityLow:
		c.Low++
	default:
		c.Unknown++
	}
}

// Total is the sum over all tiers.
func (c IssueCount) Total() int {
	return c.Critical + c.High + c.Medium + c.Low + c.Unknown
}

// AuditReport is one complete snapshot of an ingested report.
type AuditReport struct {
	RawText      string       `json:"auditReport"`
	Issues       []AuditIssue `json:"issues"`
	AuditScore   int          `json:"auditScore"`
	ContractHash string       `json:"contractHash,omitempty"`
	IssueCount   IssueCount   `json:"issueCount"`
	IngestedAt   time.Time    `json:"ingestedAt,omitempty"`
	EngineScore  *int         `json:"engineScore,omitempty"`
}

// EmptyReport is the state of a session before anything was ingested.
func EmptyReport() AuditReport {
	return AuditReport{Issues: []AuditIssue{}, AuditScore: MaxScore}
}

// Empty reports whether no structured issues were parsed.
func (r AuditReport) Empty() bool {
	return len(r.Issues) == 0
}

const rawPreviewLimit = 1000

// RawPreview returns the head of the raw report for fallback display.
func (r AuditReport) RawPreview() string {
	runes := []rune(r.RawText)
	if len(runes) <= rawPreviewLimit {
		return r.RawText
	}
	return string(runes[:rawPreviewLimit]) + "..."
}

// Clone returns a deep copy that shares no mutable state with r.
func (r AuditReport) Clone() AuditReport {
	out := r
	out.Issues = make([]AuditIssue, len(r.Issues))
	for i, is := range r.Issues {
		if is.Line != nil {
			l := *is.Line
			is.Line = &l
		}
		out.Issues[i] = is
	}
	if r.EngineScore != nil {
		s := *r.EngineScore
		out.EngineScore = &s
	}
	return out
}
