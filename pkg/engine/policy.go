package engine

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidPolicy is returned when a policy breaks the ordering rules.
var ErrInvalidPolicy = errors.New("invalid scoring policy")

// Weights is the score penalty applied per issue of each tier.
type Weights struct {
	Critical int `yaml:"critical"`
	High     int `yaml:"high"`
	Medium   int `yaml:"medium"`
	Low      int `yaml:"low"`
	Unknown  int `yaml:"unknown"`
}

// For returns the penalty for a tier.
func (w Weights) For(s Severity) int {
	switch s {
	case SeverityCritical:
		return w.Critical
	case SeverityHigh:
		return w.High
	case SeverityMedium:
		return w.Medium
	case SeverityLow:
		return w.Low
	default:
		return w.Unknown
	}
}

// Keywords maps each classifiable tier to the phrases that imply it.
// Unknown never has keywords: it is what remains when nothing matches.
type Keywords struct {
	Critical []string `yaml:"critical"`
	High     []string `yaml:"high"`
	Medium   []string `yaml:"medium"`
	Low      []string `yaml:"low"`
}

// Policy bundles the classifier keyword table and the score weights.
type Policy struct {
	Weights  Weights  `yaml:"weights"`
	Keywords Keywords `yaml:"keywords"`
}

// DefaultWeights are the penalties used when no policy file is configured.
var DefaultWeights = Weights{
	Critical: 25,
	High:     15,
	Medium:   8,
	Low:      3,
	Unknown:  1,
}

// DefaultKeywords is checked tier by tier, critical first.
var DefaultKeywords = Keywords{
	Critical: []string{
		"critical", "blocker", "reentrancy", "re-entrancy", "reentrant",
		"selfdestruct", "self-destruct", "suicide", "delegatecall to untrusted",
		"arbitrary storage", "drain", "drained", "steal", "loss of funds",
		"private key", "SWC-107", "SWC-106", "SWC-112",
	},
	High: []string{
		"high", "major", "integer overflow", "overflow", "underflow",
		"access control", "unprotected", "unauthorized", "tx.origin",
		"unchecked call", "unchecked external call", "front-running",
		"frontrunning", "denial of service", "dos", "price manipulation",
		"oracle manipulation", "signature replay", "SWC-101", "SWC-104", "SWC-115",
	},
	Medium: []string{
		"medium", "moderate", "warning", "timestamp dependence", "block.timestamp",
		"unchecked return", "weak randomness", "randomness", "block gas limit",
		"gas limit", "race condition", "locked ether", "shadowing", "deprecated",
		"SWC-116", "SWC-120",
	},
	Low: []string{
		"low", "minor", "info", "informational", "note", "gas optimization",
		"gas optimisation", "optimization", "unused", "naming convention",
		"code style", "floating pragma", "pragma", "missing event", "typo",
		"SWC-103", "SWC-131",
	},
}

// DefaultPolicy returns a copy of the built-in policy.
func DefaultPolicy() Policy {
	return Policy{
		Weights: DefaultWeights,
		Keywords: Keywords{
			Critical: append([]string(nil), DefaultKeywords.Critical...),
			High:     append([]string(nil), DefaultKeywords.High...),
			Medium:   append([]string(nil), DefaultKeywords.Medium...),
			Low:      append([]string(nil), DefaultKeywords.Low...),
		},
	}
}

// LoadPolicy reads a YAML policy file. Sections missing from the file keep
// their default values.
func LoadPolicy(path string) (Policy, error) {
	p := DefaultPolicy()
	data, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}

	var file struct {
		Weights  *Weights  `yaml:"weights"`
		Keywords *Keywords `yaml:"keywords"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return p, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if file.Weights != nil {
		p.Weights = *file.Weights
	}
	if file.Keywords != nil {
		if len(file.Keywords.Critical) > 0 {
			p.Keywords.Critical = file.Keywords.Critical
		}
		if len(file.Keywords.High) > 0 {
			p.Keywords.High = file.Keywords.High
		}
		if len(file.Keywords.Medium) > 0 {
			p.Keywords.Medium = file.Keywords.Medium
		}
		if len(file.Keywords.Low) > 0 {
			p.Keywords.Low = file.Keywords.Low
		}
	}
	if err := p.Validate(); err != nil {
		return DefaultPolicy(), fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Validate enforces strictly decreasing weights between 0 and MaxScore so
// that a worse issue always costs more than a milder one.
func (p Policy) Validate() error {
	if p.Weights.Unknown < 0 {
		return fmt.Errorf("%w: unknown weight %d is negative", ErrInvalidPolicy, p.Weights.Unknown)
	}
	if p.Weights.Critical > MaxScore {
		return fmt.Errorf("%w: critical weight %d exceeds %d", ErrInvalidPolicy, p.Weights.Critical, MaxScore)
	}
	for i := 0; i < len(Tiers)-1; i++ {
		hi, lo := Tiers[i], Tiers[i+1]
		if p.Weights.For(hi) <= p.Weights.For(lo) {
			return fmt.Errorf("%w: %s weight (%d) must exceed %s weight (%d)",
				ErrInvalidPolicy, hi, p.Weights.For(hi), lo, p.Weights.For(lo))
		}
	}
	return nil
}
