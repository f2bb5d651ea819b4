package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func issuesOf(sevs ...Severity) []AuditIssue {
	out := make([]AuditIssue, len(sevs))
	for i, s := range sevs {
		out[i] = AuditIssue{Severity: s}
	}
	return out
}

func TestAggregateEmpty(t *testing.T) {
	sum := Aggregate(nil)
	assert.Equal(t, MaxScore, sum.AuditScore)
	assert.Equal(t, IssueCount{}, sum.IssueCount)
}

func TestAggregateCriticalAndLow(t *testing.T) {
	sum := Aggregate(issuesOf(SeverityCritical, SeverityLow))
	assert.Equal(t, IssueCount{Critical: 1, Low: 1}, sum.IssueCount)
	assert.Equal(t, MaxScore-DefaultWeights.Critical-DefaultWeights.Low, sum.AuditScore)
}

func TestAggregateFloorsAtZero(t *testing.T) {
	sum := Aggregate(issuesOf(SeverityCritical, SeverityCritical, SeverityCritical, SeverityCritical, SeverityCritical))
	assert.Equal(t, MinScore, sum.AuditScore)
	assert.Equal(t, 5, sum.IssueCount.Critical)
}

func TestAggregateOrderIndependent(t *testing.T) {
	issues := issuesOf(SeverityHigh, SeverityLow, SeverityUnknown, SeverityMedium, SeverityHigh, SeverityCritical)
	want := Aggregate(issues)

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := append([]AuditIssue(nil), issues...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, Aggregate(shuffled))
	}
}

func TestAggregateMonotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	var issues []AuditIssue
	prev := Aggregate(issues).AuditScore
	for i := 0; i < 40; i++ {
		issues = append(issues, AuditIssue{Severity: Tiers[rng.Intn(len(Tiers))]})
		sum := Aggregate(issues)
		assert.LessOrEqual(t, sum.AuditScore, prev)
		assert.Equal(t, len(issues), sum.IssueCount.Total())
		prev = sum.AuditScore
	}
}

func TestAggregateCustomWeights(t *testing.T) {
	a := Aggregator{Weights: Weights{Critical: 40, High: 30, Medium: 20, Low: 10, Unknown: 0}}
	sum := a.Aggregate(issuesOf(SeverityHigh, SeverityUnknown, SeverityUnknown))
	assert.Equal(t, 70, sum.AuditScore)
	assert.Equal(t, 2, sum.IssueCount.Unknown)
}

func TestGrade(t *testing.T) {
	assert.Equal(t, "good", Grade(100))
	assert.Equal(t, "good", Grade(80))
	assert.Equal(t, "fair", Grade(79))
	assert.Equal(t, "fair", Grade(60))
	assert.Equal(t, "poor", Grade(59))
	assert.Equal(t, "poor", Grade(0))
}

func TestAggregateHugeWeightsSaturate(t *testing.T) {
	a := Aggregator{Weights: Weights{Critical: 1 << 62, High: 4, Medium: 3, Low: 2, Unknown: 1}}
	for n := 1; n <= 5; n++ {
		sevs := make([]Severity, n)
		for i := range sevs {
			sevs[i] = SeverityCritical
		}
		sum := a.Aggregate(issuesOf(sevs...))
		assert.Equal(t, MinScore, sum.AuditScore, "%d critical", n)
		assert.Equal(t, n, sum.IssueCount.Critical)
	}
}

func TestAggregateExactBudget(t *testing.T) {
	a := Aggregator{Weights: Weights{Critical: 50, High: 20, Medium: 10, Low: 5, Unknown: 1}}
	assert.Equal(t, 0, a.Aggregate(issuesOf(SeverityCritical, SeverityCritical)).AuditScore)
	assert.Equal(t, 0, a.Aggregate(issuesOf(SeverityCritical, SeverityCritical, SeverityLow)).AuditScore)
	assert.Equal(t, 30, a.Aggregate(issuesOf(SeverityCritical, SeverityHigh)).AuditScore)
}
