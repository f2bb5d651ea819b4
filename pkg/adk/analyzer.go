package adk

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when a provider answers without any text.
var ErrEmptyResponse = errors.New("analyzer returned an empty response")

// AuditRequest is one contract submitted for analysis.
type AuditRequest struct {
	ContractName string
	Source       string
}

// Analyzer is the external analysis engine. Analyze returns the raw report
// exactly as the engine produced it; turning it into issues is the job of
// the ingest pipeline.
type Analyzer interface {
	Analyze(ctx context.Context, req AuditRequest) (string, error)
	ListModels(ctx context.Context) ([]string, error)
}
