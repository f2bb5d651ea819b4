package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Kind tells the extractor how to read an Input.
type Kind int

const (
	KindText Kind = iota
	KindStructured
)

func (k Kind) String() string {
	if k == KindStructured {
		return "structured"
	}
	return "text"
}

// Block is one paragraph-like chunk of a free-text report.
type Block struct {
	Text   string
	Offset int // byte offset of the block in the raw text
	Line   int // 1-based line the block starts on
}

// Record is one issue-like object from a structured report.
type Record map[string]any

// Input is the normalized form of a raw report.
type Input struct {
	Kind         Kind
	Raw          string
	Blocks       []Block
	Records      []Record
	ContractHash string
	Score        *int
	Warnings     []string
}

// RawIssue is the typed form of a structured report entry.
type RawIssue struct {
	ID             string `json:"id,omitempty"`
	Title          string `json:"title,omitempty"`
	Description    string `json:"description,omitempty"`
	Severity       string `json:"severity,omitempty"`
	Source         string `json:"source,omitempty"`
	Line           *int   `json:"line,omitempty"`
	Recommendation string `json:"recommendation,omitempty"`
}

// Payload is the typed form of a structured report.
type Payload struct {
	Issues       []RawIssue `json:"issues"`
	Score        *int       `json:"score,omitempty"`
	ContractHash string     `json:"contractHash,omitempty"`
}

var (
	issueArrayKeys   = []string{"issues", "findings"}
	wrappedTextKeys  = []string{"auditReport", "report", "text"}
	contractHashKeys = []string{"contractHash", "contract_hash", "hash"}
)

// Normalize detects the shape of a raw payload. Accepted inputs are string,
// []byte, json.RawMessage, decoded JSON (map[string]any or []any) and Payload.
func Normalize(raw any) (*Input, error) {
	switch v := raw.(type) {
	case nil:
		return nil, malformed("no payload")
	case string:
		return normalizeString(v)
	case []byte:
		return normalizeString(string(v))
	case json.RawMessage:
		return normalizeString(string(v))
	case map[string]any:
		return normalizeObject(v, encodeRaw(v))
	case []any:
		return normalizeArray(v, encodeRaw(v)), nil
	case Payload:
		return normalizePayload(&v)
	case *Payload:
		if v == nil {
			return nil, malformed("no payload")
		}
		return normalizePayload(v)
	default:
		return nil, malformed("unsupported payload type %T", raw)
	}
}

func normalizePayload(p *Payload) (*Input, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, malformed("payload cannot be encoded: %v", err)
	}
	return normalizeString(string(b))
}

func normalizeString(s string) (*Input, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil, malformed("empty payload")
	}

	if trimmed[0] == '{' || trimmed[0] == '[' {
		dec := json.NewDecoder(strings.NewReader(trimmed))
		dec.UseNumber()
		var decoded any
		if err := dec.Decode(&decoded); err == nil && !dec.More() {
			switch v := decoded.(type) {
			case map[string]any:
				return normalizeObject(v, s)
			case []any:
				return normalizeArray(v, s), nil
			}
		}
	}
	return &Input{Kind: KindText, Raw: s, Blocks: SplitBlocks(s)}, nil
}

func normalizeObject(obj map[string]any, raw string) (*Input, error) {
	in := &Input{Kind: KindStructured, Raw: raw}
	in.ContractHash = firstString(Record(obj), contractHashKeys...)
	if n, ok := intValue(obj["score"]); ok {
		in.Score = &n
	}

	for _, key := range issueArrayKeys {
		if arr, ok := obj[key].([]any); ok {
			in.Records, in.Warnings = collectRecords(key, arr)
			return in, nil
		}
	}
	for _, key := range wrappedTextKeys {
		if text, ok := obj[key].(string); ok && strings.TrimSpace(text) != "" {
			in.Kind = KindText
			in.Blocks = SplitBlocks(text)
			return in, nil
		}
	}
	in.Records = []Record{}
	in.Warnings = append(in.Warnings, "object has no issues array")
	return in, nil
}

func normalizeArray(arr []any, raw string) *Input {
	in := &Input{Kind: KindStructured, Raw: raw}
	in.Records, in.Warnings = collectRecords("issues", arr)
	return in
}

func collectRecords(key string, arr []any) ([]Record, []string) {
	records := make([]Record, 0, len(arr))
	var warnings []string
	for i, entry := range arr {
		obj, ok := entry.(map[string]any)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("%s[%d]: expected object, got %s", key, i, jsonKind(entry)))
			continue
		}
		records = append(records, Record(obj))
	}
	return records, warnings
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case json.Number, float64, int:
		return "number"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func encodeRaw(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Sprintf("%v", v)
	}
	return strings.TrimRight(buf.String(), "\n")
}

var (
	separatorRe = regexp.MustCompile(`^(?:-{3,}|={3,}|\*{3,}|_{3,})$`)
	headingRe   = regexp.MustCompile(`(?i)^(?:` +
		`#{1,6}\s+\S` + // markdown heading
		`|(?:finding|issue|vulnerability|bug)\s*#?\d+\b` + // "Finding 1", "Issue #2"
		`|[-*•]?\s*\[(?:critical|high|medium|low|info|informational)\]` + // "[High] ..."
		`|[-*•]?\s*\(?(?:critical|high|medium|low|informational)\)?\s*[:–-]\s+\S` + // "Critical: ..."
		`)`)
)

// SplitBlocks cuts free text into paragraph-like blocks at blank lines,
// separator rules and heading markers. A heading starts a new block and
// stays as its first line.
func SplitBlocks(text string) []Block {
	var (
		blocks []Block
		cur    []string
		start  Block
		offset int
	)
	flush := func() {
		if len(cur) > 0 {
			start.Text = strings.Join(cur, "\n")
			blocks = append(blocks, start)
		}
		cur = nil
	}

	for i, line := range strings.SplitAfter(text, "\n") {
		lineOffset := offset
		offset += len(line)
		content := strings.TrimRight(line, "\r\n")
		trimmed := strings.TrimSpace(content)

		switch {
		case trimmed == "":
			flush()
			continue
		case separatorRe.MatchString(trimmed):
			flush()
			continue
		case headingRe.MatchString(trimmed):
			flush()
		}
		if len(cur) == 0 {
			start = Block{Offset: lineOffset + strings.Index(content, trimmed), Line: i + 1}
		}
		cur = append(cur, strings.TrimRight(content, " \t"))
	}
	flush()
	return blocks
}
