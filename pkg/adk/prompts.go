package adk

import (
	_ "embed"
	"fmt"
)

//go:embed prompts/audit_prompt.md
var systemPrompt string

// GetSystemPrompt returns the instructions sent with every audit request.
func GetSystemPrompt() string {
	return systemPrompt
}

// UserPrompt wraps the contract source for the model.
func UserPrompt(req AuditRequest) string {
	name := req.ContractName
	if name == "" {
		name = "Contract.sol"
	}
	return fmt.Sprintf("Audit the following smart contract (%s):\n\n```\n%s\n```", name, req.Source)
}
