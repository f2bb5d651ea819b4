package eventbus

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kaushalya4s5s7/Axiom/pkg/engine"
	"github.com/kaushalya4s5s7/Axiom/pkg/store"
)

// ReportEvent is the summary published after every completed ingest.
type ReportEvent struct {
	ContractHash string            `json:"contractHash"`
	AuditScore   int               `json:"auditScore"`
	IssueCount   engine.IssueCount `json:"issueCount"`
	TotalIssues  int               `json:"totalIssues"`
	IngestedAt   time.Time         `json:"ingestedAt"`
	Error        string            `json:"error,omitempty"`
}

// NewReportEvent summarizes a store event.
func NewReportEvent(e store.Event) ReportEvent {
	ev := ReportEvent{
		ContractHash: e.Report.ContractHash,
		AuditScore:   e.Report.AuditScore,
		IssueCount:   e.Report.IssueCount,
		TotalIssues:  len(e.Report.Issues),
		IngestedAt:   e.Report.IngestedAt,
	}
	if e.Err != nil {
		ev.Error = e.Err.Error()
	}
	return ev
}

// FlushTimeout bounds how long Flush waits for the server at exit.
const FlushTimeout = 2 * time.Second

type Publisher struct {
	conn    *nats.Conn
	subject string
	logger  *slog.Logger
	publish func(subject string, data []byte) error
}

func NewPublisher(natsURL, subject string, logger *slog.Logger) (*Publisher, error) {
	conn, err := nats.Connect(natsURL,
		nats.Name("axiom"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", natsURL, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	// RetryOnFailedConnect hands back a reconnecting conn instead of an error
	if conn.IsConnected() {
		logger.Info("connected to NATS", "url", natsURL, "subject", subject)
	} else {
		logger.Warn("NATS not reachable yet, events are buffered while reconnecting", "url", natsURL)
	}

	return &Publisher{
		conn:    conn,
		subject: subject,
		logger:  logger,
		publish: conn.Publish,
	}, nil
}

func (p *Publisher) Publish(ev ReportEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := p.publish(p.subject, data); err != nil {
		return err
	}
	p.logger.Debug("published report event", "subject", p.subject, "contract", ev.ContractHash)
	return nil
}

// Listener adapts the publisher to store.Subscribe. Publish failures are
// logged and never reach the ingesting caller.
func (p *Publisher) Listener() store.Listener {
	return func(e store.Event) {
		if err := p.Publish(NewReportEvent(e)); err != nil {
			p.logger.Warn("failed to publish report event", "subject", p.subject, "error", err)
		}
	}
}

// Flush waits up to FlushTimeout until buffered events reached the server.
// Without a live connection there is nothing to wait for and events still
// buffered are dropped on Close.
func (p *Publisher) Flush() error {
	if p.conn == nil {
		return nil
	}
	if !p.conn.IsConnected() {
		p.logger.Warn("skipping flush, not connected to NATS", "subject", p.subject)
		return nil
	}
	return p.conn.FlushTimeout(FlushTimeout)
}

func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
		p.logger.Info("disconnected from NATS")
	}
}

func (p *Publisher) IsConnected() bool {
	return p.conn != nil && p.conn.IsConnected()
}
