package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/kaushalya4s5s7/Axiom/pkg/config"
	"github.com/kaushalya4s5s7/Axiom/pkg/engine"
	"github.com/kaushalya4s5s7/Axiom/pkg/eventbus"
	"github.com/kaushalya4s5s7/Axiom/pkg/report"
	"github.com/kaushalya4s5s7/Axiom/pkg/store"
)

// pipelineFlags are shared by the commands that ingest a report.
type pipelineFlags struct {
	contractHash string
	policyFile   string
	templatesDir string
	exportDir    string
	export       bool
	printJSON    bool
	noEvents     bool
}

// newStore builds a store from config and flags. The returned func releases
// the event publisher, if one was connected.
func newStore(cfg *config.Config, f *pipelineFlags) (*store.Store, func(), error) {
	opts := []store.Option{store.WithLogger(logger)}

	policyFile := firstNonEmpty(f.policyFile, cfg.PolicyFile)
	if policyFile != "" {
		p, err := engine.LoadPolicy(policyFile)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, store.WithPolicy(p))
		logger.Debug("loaded scoring policy", "path", policyFile)
	}

	rec := engine.DefaultRemediationEngine()
	if dir := firstNonEmpty(f.templatesDir, cfg.TemplatesDir); dir != "" {
		if err := rec.LoadTemplates(dir); err != nil {
			return nil, nil, fmt.Errorf("failed to load remediation templates: %w", err)
		}
	}
	opts = append(opts, store.WithRecommender(rec))

	s := store.New(opts...)
	release := func() {}

	if cfg.Events.NatsURL != "" && !f.noEvents {
		pub, err := eventbus.NewPublisher(cfg.Events.NatsURL, cfg.Events.Subject, logger)
		if err != nil {
			logger.Warn("event publishing disabled", "error", err)
		} else {
			unsubscribe := s.Subscribe(pub.Listener())
			release = func() {
				unsubscribe()
				if err := pub.Flush(); err != nil {
					logger.Warn("failed to flush events", "error", err)
				}
				pub.Close()
			}
		}
	}
	return s, release, nil
}

// emit prints the summary or JSON document and writes the export file when
// requested.
func emit(w, errW io.Writer, cfg *config.Config, f *pipelineFlags, state engine.AuditReport) error {
	ser := report.NewSerializer()
	doc := ser.Serialize(state)

	if f.printJSON {
		data, err := doc.JSON()
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
	} else if err := report.WriteSummary(w, state); err != nil {
		return err
	}

	if f.export {
		dir := firstNonEmpty(f.exportDir, cfg.ExportDir, ".")
		path, err := ser.WriteFile(dir, doc)
		if err != nil {
			return fmt.Errorf("failed to export report: %w", err)
		}
		fmt.Fprintf(errW, "Report exported to %s\n", filepath.Clean(path))
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func withTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), d)
}
