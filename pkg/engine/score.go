package engine

const (
	MaxScore = 100
	MinScore = 0
)

// Summary is the aggregate view of an issue set.
type Summary struct {
	AuditScore int
	IssueCount IssueCount
}

// Aggregator scores issue sets with a fixed set of weights.
type Aggregator struct {
	Weights Weights
}

// Aggregate scores issues with the default weights.
func Aggregate(issues []AuditIssue) Summary {
	return Aggregator{Weights: DefaultWeights}.Aggregate(issues)
}

// Aggregate counts issues per tier and subtracts one tier penalty per issue
// from MaxScore. Only the multiset of severities matters, so the result is
// independent of issue order.
func (a Aggregator) Aggregate(issues []AuditIssue) Summary {
	var sum Summary
	for _, is := range issues {
		sum.IssueCount.add(is.Severity)
	}
	penalty := 0
	for _, t := range Tiers {
		c, w := sum.IssueCount.Get(t), a.Weights.For(t)
		// saturate at MaxScore so count*w never overflows
		if w > 0 && c > (MaxScore-penalty)/w {
			penalty = MaxScore
			break
		}
		penalty += c * w
	}
	sum.AuditScore = clamp(MaxScore - penalty)
	return sum
}

func clamp(v int) int {
	if v < MinScore {
		return MinScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}

// Grade buckets a score the same way the dashboard colours it.
func Grade(score int) string {
	switch {
	case score >= 80:
		return "good"
	case score >= 60:
		return "fair"
	default:
		return "poor"
	}
}
