package engine

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// RemediationTemplate is a recommendation that applies to issues mentioning
// any of its keywords.
type RemediationTemplate struct {
	ID             string   `yaml:"id"`
	Name           string   `yaml:"name"`
	Standard       string   `yaml:"standard"`
	Keywords       []string `yaml:"keywords"`
	Recommendation string   `yaml:"recommendation"`
}

type compiledTemplate struct {
	RemediationTemplate
	match *regexp.Regexp
	text  *template.Template
}

// RemediationEngine fills in recommendations for issues that arrive without one.
type RemediationEngine struct {
	Templates map[string]RemediationTemplate
	compiled  []*compiledTemplate
}

// NewRemediationEngine creates an engine with no templates.
func NewRemediationEngine() *RemediationEngine {
	return &RemediationEngine{
		Templates: make(map[string]RemediationTemplate),
	}
}

// DefaultRemediationEngine creates an engine preloaded with the built-in
// smart-contract templates.
func DefaultRemediationEngine() *RemediationEngine {
	e := NewRemediationEngine()
	for _, t := range builtinTemplates {
		if err := e.Add(t); err != nil {
			panic(err)
		}
	}
	return e
}

var builtinTemplates = []RemediationTemplate{
	{
		ID:             "reentrancy",
		Name:           "Reentrancy",
		Standard:       "SWC-107",
		Keywords:       []string{"reentrancy", "re-entrancy", "reentrant"},
		Recommendation: "Apply the checks-effects-interactions pattern in {{.Source}}: update state before external calls and consider a reentrancy guard.",
	},
	{
		ID:             "tx-origin",
		Name:           "Authorization through tx.origin",
		Standard:       "SWC-115",
		Keywords:       []string{"tx.origin"},
		Recommendation: "Use msg.sender instead of tx.origin for authorization checks.",
	},
	{
		ID:             "integer-overflow",
		Name:           "Integer overflow and underflow",
		Standard:       "SWC-101",
		Keywords:       []string{"overflow", "underflow"},
		Recommendation: "Compile with Solidity >=0.8 checked arithmetic or use a vetted SafeMath library.",
	},
	{
		ID:             "unchecked-call",
		Name:           "Unchecked call return value",
		Standard:       "SWC-104",
		Keywords:       []string{"unchecked call", "unchecked return", "unchecked external call"},
		Recommendation: "Check the return value of low-level calls and revert on failure.",
	},
	{
		ID:             "delegatecall",
		Name:           "Delegatecall to untrusted callee",
		Standard:       "SWC-112",
		Keywords:       []string{"delegatecall"},
		Recommendation: "Only delegatecall into trusted, immutable implementation addresses.",
	},
	{
		ID:             "timestamp",
		Name:           "Block timestamp dependence",
		Standard:       "SWC-116",
		Keywords:       []string{"block.timestamp", "timestamp dependence"},
		Recommendation: "Avoid using block.timestamp for randomness or tight timing constraints.",
	},
	{
		ID:             "access-control",
		Name:           "Missing access control",
		Standard:       "SWC-105",
		Keywords:       []string{"access control", "unprotected", "unauthorized"},
		Recommendation: "Restrict privileged functions with explicit ownership or role checks.",
	},
	{
		ID:             "floating-pragma",
		Name:           "Floating pragma",
		Standard:       "SWC-103",
		Keywords:       []string{"floating pragma"},
		Recommendation: "Lock the pragma to the compiler version the contract was tested with.",
	},
}

// Add registers or replaces a template.
func (e *RemediationEngine) Add(t RemediationTemplate) error {
	if t.ID == "" {
		return fmt.Errorf("remediation template has no id")
	}
	re := CompileKeywords(t.Keywords)
	if re == nil {
		return fmt.Errorf("template %s: no keywords", t.ID)
	}
	text, err := template.New(t.ID).Parse(t.Recommendation)
	if err != nil {
		return fmt.Errorf("failed to parse template %s: %w", t.ID, err)
	}

	ct := &compiledTemplate{RemediationTemplate: t, match: re, text: text}
	if _, ok := e.Templates[t.ID]; ok {
		for i, c := range e.compiled {
			if c.ID == t.ID {
				e.compiled[i] = ct
			}
		}
	} else {
		e.compiled = append(e.compiled, ct)
	}
	e.Templates[t.ID] = t
	return nil
}

// LoadTemplates reads YAML templates from a directory
func (e *RemediationEngine) LoadTemplates(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ext := filepath.Ext(entry.Name()); ext != ".yaml" && ext != ".yml" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return err
		}

		var t RemediationTemplate
		if err := yaml.Unmarshal(data, &t); err != nil {
			return fmt.Errorf("failed to parse %s: %w", entry.Name(), err)
		}
		if err := e.Add(t); err != nil {
			return fmt.Errorf("%s: %w", entry.Name(), err)
		}
	}
	return nil
}

// ListTemplates returns "id: name" for every template in match order.
func (e *RemediationEngine) ListTemplates() []string {
	list := make([]string, 0, len(e.compiled))
	for _, t := range e.compiled {
		list = append(list, fmt.Sprintf("%s: %s", t.ID, t.Name))
	}
	return list
}

type templateData struct {
	ID       string
	Title    string
	Severity string
	Source   string
	Line     int
	Standard string
}

// Recommend renders the first template whose keywords appear in the issue's
// title or description.
func (e *RemediationEngine) Recommend(is AuditIssue) (string, bool) {
	text := is.Title + "\n" + is.Description
	for _, t := range e.compiled {
		if !t.match.MatchString(text) {
			continue
		}
		data := templateData{
			ID:       is.ID,
			Title:    is.Title,
			Severity: is.Severity.String(),
			Source:   is.Source,
			Standard: t.Standard,
		}
		if is.Line != nil {
			data.Line = *is.Line
		}
		var buf bytes.Buffer
		if err := t.text.Execute(&buf, data); err != nil {
			continue
		}
		return strings.TrimSpace(buf.String()), true
	}
	return "", false
}

// Apply fills empty recommendations in place and returns how many were set.
func (e *RemediationEngine) Apply(issues []AuditIssue) int {
	n := 0
	for i := range issues {
		if issues[i].Recommendation != "" {
			continue
		}
		if rec, ok := e.Recommend(issues[i]); ok {
			issues[i].Recommendation = rec
			n++
		}
	}
	return n
}
