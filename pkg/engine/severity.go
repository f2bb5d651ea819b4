package engine

import (
	"regexp"
	"strings"
)

type tierMatcher struct {
	tier Severity
	re   *regexp.Regexp
}

// Classifier assigns a severity tier to draft issues.
type Classifier struct {
	matchers []tierMatcher
}

// NewClassifier compiles the keyword table. Tiers are matched in rank order
// and the first tier with a matching keyword wins.
func NewClassifier(k Keywords) *Classifier {
	c := &Classifier{}
	for _, t := range []struct {
		tier  Severity
		words []string
	}{
		{SeverityCritical, k.Critical},
		{SeverityHigh, k.High},
		{SeverityMedium, k.Medium},
		{SeverityLow, k.Low},
	} {
		if re := CompileKeywords(t.words); re != nil {
			c.matchers = append(c.matchers, tierMatcher{tier: t.tier, re: re})
		}
	}
	return c
}

var defaultClassifier = NewClassifier(DefaultKeywords)

// Classify runs the default classifier.
func Classify(d DraftIssue) AuditIssue {
	return defaultClassifier.Classify(d)
}

// Classify turns a draft into a final issue. An explicit, recognized severity
// on the draft is kept; otherwise the keyword table decides.
func (c *Classifier) Classify(d DraftIssue) AuditIssue {
	is := AuditIssue{
		ID:             d.ID,
		Title:          strings.TrimSpace(d.Title),
		Description:    strings.TrimSpace(d.Description),
		Source:         strings.TrimSpace(d.Source),
		Recommendation: strings.TrimSpace(d.Recommendation),
	}
	if is.Title == "" {
		is.Title = DefaultTitle
	}
	if is.Source == "" {
		is.Source = DefaultSource
	}
	if d.Line != nil && *d.Line > 0 {
		l := *d.Line
		is.Line = &l
	}

	if s, ok := ParseSeverity(d.Severity); ok {
		is.Severity = s
		return is
	}
	is.Severity = c.Match(d.Title + "\n" + d.Description)
	return is
}

// Match returns the first tier whose keywords occur in text, or unknown.
func (c *Classifier) Match(text string) Severity {
	for _, m := range c.matchers {
		if m.re.MatchString(text) {
			return m.tier
		}
	}
	return SeverityUnknown
}

// CompileKeywords builds one case-insensitive alternation with word
// boundaries so that "low" does not fire on "allow" or "follow".
func CompileKeywords(words []string) *regexp.Regexp {
	var parts []string
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		parts = append(parts, regexp.QuoteMeta(w))
	}
	if len(parts) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)(?:^|[^\w])(?:` + strings.Join(parts, "|") + `)(?:[^\w]|$)`)
}
