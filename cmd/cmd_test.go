package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaushalya4s5s7/Axiom/pkg/config"
	"github.com/kaushalya4s5s7/Axiom/pkg/engine"
	"github.com/kaushalya4s5s7/Axiom/pkg/report"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	ingestFlags = pipelineFlags{}
	cfgFile = ""
	DebugMode = false
	_ = listTemplatesCmd.Flags().Set("templates", "")

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(bytes.NewBufferString(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestContractHash(t *testing.T) {
	assert.Equal(t, "0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470", contractHash(nil))
	assert.Len(t, contractHash([]byte("contract A {}")), 66)
}

func TestIngestCommandJSON(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	reportPath := filepath.Join(dir, "raw.json")
	require.NoError(t, os.WriteFile(reportPath,
		[]byte(`{"issues":[{"title":"Reentrancy","severity":"critical"},{"title":"Unused var","severity":"low"}]}`), 0644))

	out, err := runCLI(t, "", "--config", cfgPath, "ingest", reportPath, "--json", "--no-events", "--contract-hash", "0xabc")
	require.NoError(t, err)

	var doc report.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, 100-25-3, doc.AuditScore)
	assert.Equal(t, engine.IssueCount{Critical: 1, Low: 1}, doc.IssueCount)
	require.NotNil(t, doc.ContractHash)
	assert.Equal(t, "0xabc", *doc.ContractHash)
}

func TestIngestCommandStdinSummaryAndExport(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	exportDir := filepath.Join(dir, "exports")

	out, err := runCLI(t, "Critical: Reentrancy on line 42 in Vault.sol",
		"--config", cfgPath, "ingest", "-", "--no-events", "--export", "--out", exportDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Score: 75/100 (fair)")
	assert.Contains(t, out, "[CRITICAL] Reentrancy on line 42 in Vault.sol (Vault.sol:42)")

	entries, err := os.ReadDir(exportDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Regexp(t, `^audit-report-unknown-\d+\.json$`, entries[0].Name())
}

func TestIngestCommandRejectsEmptyInput(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	_, err := runCLI(t, "   ", "--config", cfgPath, "ingest", "--no-events")
	assert.ErrorContains(t, err, "unexpected report format")
}

func TestDiffCommand(t *testing.T) {
	dir := t.TempDir()
	ser := &report.Serializer{Version: report.DefaultVersion, Tool: report.DefaultTool, Clock: func() time.Time {
		return time.UnixMilli(1700000000000)
	}}
	write := func(name string, issues ...engine.AuditIssue) string {
		state := engine.EmptyReport()
		state.Issues = issues
		data, err := ser.Serialize(state).JSON()
		require.NoError(t, err)
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, data, 0644))
		return path
	}
	a := engine.AuditIssue{ID: "a", Title: "A", Severity: engine.SeverityHigh, Source: "A.sol"}
	b := engine.AuditIssue{ID: "b", Title: "B", Severity: engine.SeverityLow, Source: "B.sol"}
	c := engine.AuditIssue{ID: "c", Title: "C", Severity: engine.SeverityMedium, Source: "C.sol"}

	base := write("base.json", a, b)
	cur := write("cur.json", a, c)

	out, err := runCLI(t, "", "--config", filepath.Join(dir, "config.yaml"), "diff", base, cur)
	require.NoError(t, err)
	assert.Contains(t, out, "Report Comparison (vs base.json)")
	assert.Contains(t, out, "[+] [MEDIUM] C (C.sol)")
	assert.Contains(t, out, "[-] [LOW] B (B.sol)")
	assert.Contains(t, out, "[=] [HIGH] A (A.sol)")
}

func TestConfigSetKeyAndModel(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")

	_, err := runCLI(t, "", "--config", cfgPath, "config", "set-key", "-p", "OpenAI", "-k", "sk-test")
	require.NoError(t, err)
	_, err = runCLI(t, "", "--config", cfgPath, "config", "set-model", "-p", "openai", "-m", "gpt-4o")
	require.NoError(t, err)

	cfg, err := config.LoadConfigFrom(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.GetAPIKey("openai"))
	assert.Equal(t, "openai", cfg.SelectedProvider)
	assert.Equal(t, "gpt-4o", cfg.SelectedModel)
}

func TestConfigSetPolicyRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	policy := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(policy, []byte("weights:\n  critical: 5\n  high: 10\n  medium: 3\n  low: 2\n  unknown: 1\n"), 0644))

	_, err := runCLI(t, "", "--config", filepath.Join(dir, "config.yaml"), "config", "set-policy", policy)
	assert.ErrorIs(t, err, engine.ErrInvalidPolicy)
}

func TestConfigListTemplates(t *testing.T) {
	dir := t.TempDir()
	tmplDir := filepath.Join(dir, "templates")
	require.NoError(t, os.MkdirAll(tmplDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(tmplDir, "gas.yaml"),
		[]byte("id: gas-loop\nname: Unbounded loop\nkeywords: [unbounded loop]\nrecommendation: Bound the loop.\n"), 0644))

	out, err := runCLI(t, "", "--config", filepath.Join(dir, "config.yaml"), "config", "list-templates", "--templates", tmplDir)
	require.NoError(t, err)
	assert.Contains(t, out, "- reentrancy: Reentrancy")
	assert.Contains(t, out, "- gas-loop: Unbounded loop")

	_, err = runCLI(t, "", "--config", filepath.Join(dir, "config.yaml"), "config", "list-templates", "--templates", filepath.Join(dir, "missing"))
	assert.ErrorContains(t, err, "failed to load remediation templates")
}
