package engine

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditIssueJSONLine(t *testing.T) {
	data, err := json.Marshal(AuditIssue{ID: "a", Title: "t", Severity: SeverityLow, Source: "s"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"line":null`)
	assert.NotContains(t, string(data), "recommendation")
}

func TestRawPreview(t *testing.T) {
	r := AuditReport{RawText: strings.Repeat("é", 1500)}
	preview := r.RawPreview()
	assert.True(t, strings.HasSuffix(preview, "..."))
	assert.Equal(t, 1003, len([]rune(preview)))

	r.RawText = "short"
	assert.Equal(t, "short", r.RawPreview())
}

func TestCloneIsDeep(t *testing.T) {
	r := AuditReport{
		Issues:      []AuditIssue{{ID: "a", Line: intp(3)}},
		EngineScore: intp(90),
	}
	c := r.Clone()
	c.Issues[0].ID = "b"
	*c.Issues[0].Line = 4
	*c.EngineScore = 10

	assert.Equal(t, "a", r.Issues[0].ID)
	assert.Equal(t, 3, *r.Issues[0].Line)
	assert.Equal(t, 90, *r.EngineScore)
}

func TestIssueCountGetAndTotal(t *testing.T) {
	var c IssueCount
	for _, s := range []Severity{SeverityCritical, SeverityLow, SeverityLow, Severity("odd")} {
		c.add(s)
	}
	assert.Equal(t, 1, c.Get(SeverityCritical))
	assert.Equal(t, 2, c.Get(SeverityLow))
	assert.Equal(t, 1, c.Get(SeverityUnknown))
	assert.Equal(t, 4, c.Total())
	assert.True(t, EmptyReport().Empty())
}
