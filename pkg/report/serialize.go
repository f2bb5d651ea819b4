package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/kaushalya4s5s7/Axiom/pkg/engine"
)

const (
	DefaultVersion = "1.0.0"
	DefaultTool    = "Smart Contract Auditor"

	generatedAtLayout = "2006-01-02T15:04:05.000Z07:00"
)

// Metadata describes when and by what an export was produced.
type Metadata struct {
	GeneratedAt string `json:"generatedAt"`
	Version     string `json:"version"`
	AuditTool   string `json:"auditTool"`
}

// Document is the portable export of one audit report.
type Document struct {
	AuditScore   int                 `json:"auditScore"`
	ContractHash *string             `json:"contractHash"`
	IssueCount   engine.IssueCount   `json:"issueCount"`
	Issues       []engine.AuditIssue `json:"issues"`
	AuditReport  string              `json:"auditReport"`
	Metadata     Metadata            `json:"metadata"`
}

// Serializer renders store snapshots into export documents.
type Serializer struct {
	Version string
	Tool    string
	Clock   func() time.Time
}

// NewSerializer returns a serializer with the default version and tool name.
func NewSerializer() *Serializer {
	return &Serializer{Version: DefaultVersion, Tool: DefaultTool, Clock: time.Now}
}

func (s *Serializer) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock()
}

// Serialize builds the export document. The result depends only on state
// and the serializer's clock.
func (s *Serializer) Serialize(state engine.AuditReport) Document {
	state = state.Clone()

	doc := Document{
		AuditScore:  state.AuditScore,
		IssueCount:  state.IssueCount,
		Issues:      state.Issues,
		AuditReport: state.RawText,
		Metadata: Metadata{
			GeneratedAt: s.now().UTC().Format(generatedAtLayout),
			Version:     s.Version,
			AuditTool:   s.Tool,
		},
	}
	if doc.Issues == nil {
		doc.Issues = []engine.AuditIssue{}
	}
	if state.ContractHash != "" {
		h := state.ContractHash
		doc.ContractHash = &h
	}
	if doc.Metadata.Version == "" {
		doc.Metadata.Version = DefaultVersion
	}
	if doc.Metadata.AuditTool == "" {
		doc.Metadata.AuditTool = DefaultTool
	}
	return doc
}

// JSON encodes the document with two-space indentation.
func (d Document) JSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var (
	unsafeNameRe = regexp.MustCompile(`[^A-Za-z0-9._-]`)
	dotRunRe     = regexp.MustCompile(`\.{2,}`)
)

// FileName is the download name for an export. The hash is reduced to
// [A-Za-z0-9._-] so the name never contains a path separator or "..".
func FileName(contractHash string, now time.Time) string {
	hash := unsafeNameRe.ReplaceAllString(contractHash, "_")
	hash = dotRunRe.ReplaceAllString(hash, ".")
	if hash == "" {
		hash = "unknown"
	}
	return fmt.Sprintf("audit-report-%s-%d.json", hash, now.UnixMilli())
}

// WriteFile writes doc into dir and returns the path it was written to. The
// timestamp in the name is the document's generatedAt.
func (s *Serializer) WriteFile(dir string, doc Document) (string, error) {
	data, err := doc.JSON()
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	hash := ""
	if doc.ContractHash != nil {
		hash = *doc.ContractHash
	}
	at, err := time.Parse(generatedAtLayout, doc.Metadata.GeneratedAt)
	if err != nil {
		at = s.now()
	}
	path := filepath.Join(dir, FileName(hash, at))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// LoadFile reads an export written by WriteFile.
func LoadFile(path string) (Document, error) {
	var doc Document
	data, err := os.ReadFile(path)
	if err != nil {
		return doc, err
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if doc.Issues == nil {
		doc.Issues = []engine.AuditIssue{}
	}
	return doc, nil
}
