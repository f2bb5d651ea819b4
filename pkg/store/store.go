package store

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kaushalya4s5s7/Axiom/pkg/engine"
	"github.com/kaushalya4s5s7/Axiom/pkg/ingest"
)

// Event is delivered to subscribers once per completed Ingest call. On
// failure Err is set and Report is the snapshot that was kept.
type Event struct {
	Report engine.AuditReport
	Err    error
}

// Listener receives ingest events. Listeners run synchronously on the
// ingesting goroutine and must not call Ingest themselves.
type Listener func(Event)

type subscription struct {
	id int
	fn Listener
}

// Store holds the audit report of the current session. Ingest is the only
// way to change it and always swaps in a complete snapshot.
type Store struct {
	writeMu sync.Mutex // serializes Ingest calls

	mu      sync.RWMutex
	state   engine.AuditReport
	lastErr error

	subMu  sync.Mutex
	subs   []subscription
	nextID int

	classifier  *engine.Classifier
	aggregator  engine.Aggregator
	recommender *engine.RemediationEngine
	now         func() time.Time
	logger      *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for IngestedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithPolicy replaces the keyword table and score weights. The policy should
// already be validated, see engine.LoadPolicy.
func WithPolicy(p engine.Policy) Option {
	return func(s *Store) {
		s.classifier = engine.NewClassifier(p.Keywords)
		s.aggregator = engine.Aggregator{Weights: p.Weights}
	}
}

// WithRecommender sets the engine that fills missing recommendations.
// Passing nil disables it.
func WithRecommender(r *engine.RemediationEngine) Option {
	return func(s *Store) {
		s.recommender = r
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a store holding an empty report.
func New(opts ...Option) *Store {
	s := &Store{
		state:       engine.EmptyReport(),
		classifier:  engine.NewClassifier(engine.DefaultKeywords),
		aggregator:  engine.Aggregator{Weights: engine.DefaultWeights},
		recommender: engine.DefaultRemediationEngine(),
		now:         time.Now,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type ingestOptions struct {
	contractHash string
}

// IngestOption adjusts a single Ingest call.
type IngestOption func(*ingestOptions)

// WithContractHash overrides any contract hash carried in the payload.
func WithContractHash(hash string) IngestOption {
	return func(o *ingestOptions) {
		o.contractHash = hash
	}
}

// Ingest runs the raw report through the pipeline and replaces the current
// snapshot. If the payload is malformed the previous snapshot is kept, the
// error is recorded in LastError and returned. Concurrent calls are queued.
func (s *Store) Ingest(raw any, opts ...IngestOption) error {
	var o ingestOptions
	for _, opt := range opts {
		opt(&o)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	report, err := s.build(raw, o)

	s.mu.Lock()
	if err != nil {
		s.lastErr = err
	} else {
		s.state = report
		s.lastErr = nil
	}
	current := s.state
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("ingest rejected, keeping previous report", "error", err)
	}
	s.notify(current, err)
	return err
}

func (s *Store) build(raw any, o ingestOptions) (engine.AuditReport, error) {
	in, err := ingest.Normalize(raw)
	if err != nil {
		return engine.AuditReport{}, fmt.Errorf("ingest: %w", err)
	}
	for _, w := range in.Warnings {
		s.logger.Warn("skipped report entry", "reason", w)
	}

	drafts := ingest.Extract(in)
	issues := make([]engine.AuditIssue, 0, len(drafts))
	for _, d := range drafts {
		issues = append(issues, s.classifier.Classify(d))
	}
	if s.recommender != nil {
		if n := s.recommender.Apply(issues); n > 0 {
			s.logger.Debug("filled recommendations", "count", n)
		}
	}
	sum := s.aggregator.Aggregate(issues)

	hash := in.ContractHash
	if o.contractHash != "" {
		hash = o.contractHash
	}
	report := engine.AuditReport{
		RawText:      in.Raw,
		Issues:       issues,
		AuditScore:   sum.AuditScore,
		ContractHash: hash,
		IssueCount:   sum.IssueCount,
		IngestedAt:   s.now().UTC(),
		EngineScore:  in.Score,
	}

	s.logger.Info("report ingested",
		"kind", in.Kind.String(),
		"issues", len(issues),
		"score", report.AuditScore,
		"contract", hash,
	)
	if report.Empty() {
		s.logger.Info("no structured issues parsed, raw text kept for display")
	}
	return report, nil
}

// State returns a copy of the current snapshot.
func (s *Store) State() engine.AuditReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// LastError returns the error of the most recent Ingest, or nil if it
// succeeded.
func (s *Store) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Subscribe registers fn for ingest events and returns a func that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					break
				}
			}
		})
	}
}

func (s *Store) notify(report engine.AuditReport, err error) {
	s.subMu.Lock()
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.fn(Event{Report: report.Clone(), Err: err})
	}
}
