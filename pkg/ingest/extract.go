package ingest

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/kaushalya4s5s7/Axiom/pkg/engine"
)

// MaxTitleLen is the display length titles taken from free text are cut to.
const MaxTitleLen = 120

var issueNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/kaushalya4s5s7/Axiom/issue"))

var (
	idKeys          = []string{"id", "issueId", "_id"}
	titleKeys       = []string{"title", "name", "check"}
	descriptionKeys = []string{"description", "details", "message"}
	severityKeys    = []string{"severity", "impact", "level"}
	sourceKeys      = []string{"source", "file", "filename", "contract"}
	lineKeys        = []string{"line", "lineno", "startLine"}
	recommendKeys   = []string{"recommendation", "remediation", "fix"}
)

// Extract turns normalized input into draft issues in input order. It never
// fails: input without anything issue-like yields an empty slice.
func Extract(in *Input) []engine.DraftIssue {
	drafts := []engine.DraftIssue{}
	if in == nil {
		return drafts
	}

	switch in.Kind {
	case KindStructured:
		for i, rec := range in.Records {
			drafts = append(drafts, draftFromRecord(rec, i))
		}
	default:
		for i, b := range in.Blocks {
			if d, ok := draftFromBlock(b, i); ok {
				drafts = append(drafts, d)
			}
		}
	}
	ensureUniqueIDs(drafts)
	return drafts
}

func draftFromRecord(rec Record, index int) engine.DraftIssue {
	d := engine.DraftIssue{
		ID:             firstString(rec, idKeys...),
		Title:          firstString(rec, titleKeys...),
		Description:    firstString(rec, descriptionKeys...),
		Severity:       firstString(rec, severityKeys...),
		Source:         firstString(rec, sourceKeys...),
		Recommendation: firstString(rec, recommendKeys...),
	}
	for _, key := range lineKeys {
		if n, ok := intValue(rec[key]); ok && n > 0 {
			d.Line = &n
			break
		}
	}
	if d.Line == nil && d.Source != "" {
		d.Line = findLine(d.Source)
	}
	if d.ID == "" {
		d.ID = synthesizeID(d.Title, d.Source, d.Line, index)
	}
	return d
}

var (
	severityWordRe = regexp.MustCompile(`(?i)\b(?:critical|high|medium|low|informational|severity)\b`)
	issueHeadRe    = regexp.MustCompile(`(?i)\b(?:finding|issue|vulnerability|bug)\s*(?:#?\d+|:)`)
	fileRefRe      = regexp.MustCompile(`[\w./\\-]*[\w-]\.(?:sol|vy|rs|move|cairo|fe)\b`)
	swcRe          = regexp.MustCompile(`(?i)\bSWC-\d{3}\b`)
	categoryRe     = engine.CompileKeywords([]string{
		"reentrancy", "re-entrancy", "overflow", "underflow", "tx.origin",
		"delegatecall", "selfdestruct", "front-running", "frontrunning",
		"access control", "denial of service", "timestamp dependence",
		"unchecked call", "uninitialized storage", "price manipulation",
	})
)

// Qualifies reports whether a free-text block looks like a finding: it must
// carry a severity word, an issue heading, a source file reference, an SWC id
// or a known vulnerability category. Everything else is discarded.
func Qualifies(text string) bool {
	return severityWordRe.MatchString(text) ||
		issueHeadRe.MatchString(text) ||
		fileRefRe.MatchString(text) ||
		swcRe.MatchString(text) ||
		categoryRe.MatchString(text)
}

var (
	labelRe = regexp.MustCompile(`(?i)^[-*•]?\s*\**\s*(severity|impact|risk|recommendations?|fix|mitigation|remediation|source|file|contract|location)\s*\**\s*[:=]\s*\**\s*(.*?)\s*$`)

	hashPrefixRe   = regexp.MustCompile(`^#+\s*`)
	bulletPrefixRe = regexp.MustCompile(`^[-*•]\s+`)
	numberPrefixRe = regexp.MustCompile(`^\d+[.)]\s+`)
	titleSevRe     = regexp.MustCompile(`(?i)^(?:[\[(](critical|high|medium|low|info|informational)[\])]\s*[:–-]?|(critical|high|medium|low|info|informational)\s*[:–-]\s)\s*(.*)$`)
)

func draftFromBlock(b Block, index int) (engine.DraftIssue, bool) {
	if !Qualifies(b.Text) {
		return engine.DraftIssue{}, false
	}

	var (
		d         engine.DraftIssue
		haveTitle bool
		inRec     bool
		desc      []string
		recs      []string
	)
	for _, raw := range strings.Split(b.Text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if m := labelRe.FindStringSubmatch(line); m != nil {
			label, value := strings.ToLower(m[1]), strings.TrimRight(m[2], "*")
			switch label {
			case "severity", "impact", "risk":
				if s, ok := engine.ParseSeverity(firstWord(value)); ok {
					d.Severity = string(s)
					inRec = false
					continue
				}
			case "recommendation", "recommendations", "fix", "mitigation", "remediation":
				inRec = true
				if value != "" {
					recs = append(recs, value)
				}
				continue
			default:
				if d.Source == "" && value != "" {
					if ref := fileRefRe.FindString(value); ref != "" {
						d.Source = ref
					} else {
						d.Source = value
					}
				}
				inRec = false
				continue
			}
		}

		switch {
		case inRec:
			recs = append(recs, line)
		case !haveTitle:
			d.Title = line
			haveTitle = true
		default:
			desc = append(desc, line)
		}
	}

	title := cleanTitle(d.Title)
	if m := titleSevRe.FindStringSubmatch(title); m != nil {
		label := m[1]
		if label == "" {
			label = m[2]
		}
		if d.Severity == "" {
			d.Severity = strings.ToLower(label)
		}
		title = strings.TrimSpace(m[3])
	}
	d.Title = truncate(title, MaxTitleLen)
	d.Description = strings.Join(desc, "\n")
	d.Recommendation = strings.Join(recs, " ")

	if d.Source == "" {
		d.Source = fileRefRe.FindString(b.Text)
	}
	d.Line = findLine(b.Text)
	d.ID = synthesizeID(d.Title, d.Source, d.Line, index)
	return d, true
}

func cleanTitle(s string) string {
	s = strings.TrimSpace(s)
	s = hashPrefixRe.ReplaceAllString(s, "")
	s = bulletPrefixRe.ReplaceAllString(s, "")
	s = numberPrefixRe.ReplaceAllString(s, "")
	s = strings.NewReplacer("**", "", "__", "").Replace(s)
	s = strings.Trim(s, "*_` ")
	s = strings.TrimSuffix(s, ":")
	return strings.TrimSpace(s)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:max-3])) + "..."
}

func firstWord(s string) string {
	fs := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '(' || r == ',' || r == '/' || r == '*'
	})
	if len(fs) > 0 {
		return fs[0]
	}
	return ""
}

var (
	fileLineRe = regexp.MustCompile(`[\w-]\.(?:sol|vy|rs|move|cairo|fe):(\d+)`)
	lineWordRe = regexp.MustCompile(`(?i)\blines?\s*(?:#|no\.?|number)?\s*:?\s*(\d+)`)
	colonRe    = regexp.MustCompile(`:(\d+):`)
	lPrefixRe  = regexp.MustCompile(`\bL(\d+)\b`)
)

// findLine picks the first positive line number mentioned in text.
func findLine(text string) *int {
	for _, re := range []*regexp.Regexp{fileLineRe, lineWordRe, colonRe, lPrefixRe} {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return &n
		}
	}
	return nil
}

// synthesizeID derives an id from the issue's identity so that re-ingesting
// the same payload reproduces the same ids.
func synthesizeID(title, source string, line *int, index int) string {
	title, source = strings.TrimSpace(title), strings.TrimSpace(source)
	if title == "" && source == "" && line == nil {
		return fmt.Sprintf("issue-%d", index+1)
	}
	l := ""
	if line != nil {
		l = strconv.Itoa(*line)
	}
	key := title + "\x1f" + source + "\x1f" + l
	return uuid.NewSHA1(issueNamespace, []byte(key)).String()
}

// ensureUniqueIDs suffixes repeated ids with -2, -3, ... in input order.
func ensureUniqueIDs(drafts []engine.DraftIssue) {
	seen := make(map[string]int, len(drafts))
	for i := range drafts {
		id := drafts[i].ID
		if _, dup := seen[id]; !dup {
			seen[id] = 1
			continue
		}
		for n := seen[id] + 1; ; n++ {
			candidate := fmt.Sprintf("%s-%d", id, n)
			if _, taken := seen[candidate]; !taken {
				seen[id] = n
				seen[candidate] = 1
				drafts[i].ID = candidate
				break
			}
		}
	}
}

func firstString(rec Record, keys ...string) string {
	for _, key := range keys {
		switch v := rec[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			return v.String()
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			return strconv.Itoa(v)
		}
	}
	return ""
}

var leadingDigitsRe = regexp.MustCompile(`^\s*(\d+)`)

func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		if f, err := n.Float64(); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			return int(f), true
		}
	case float64:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	case string:
		if m := leadingDigitsRe.FindStringSubmatch(n); m != nil {
			if i, err := strconv.Atoi(m[1]); err == nil {
				return i, true
			}
		}
	}
	return 0, false
}
