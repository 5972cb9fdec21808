package scanner

import (
	"context"
	"fmt"

	"github.com/oddslab/scratch-analyzer/internal/analysis"
	"github.com/oddslab/scratch-analyzer/internal/events"
	"github.com/oddslab/scratch-analyzer/internal/sources"
	"github.com/oddslab/scratch-analyzer/pkg/common/config"
	"github.com/oddslab/scratch-analyzer/pkg/common/logger"
)

// Manager owns the emitter and one worker per watched source.
type Manager struct {
	ctx     context.Context
	cfg     *config.Config
	emitter events.Emitter
	workers []Worker
}

func NewManager(ctx context.Context, cfg *config.Config) (*Manager, error) {
	var emitter events.Emitter = events.NoopEmitter{}
	if cfg.NATS.Enabled {
		natsEmitter, err := events.NewNATSEmitter(cfg.NATS, cfg.Environment)
		if err != nil {
			return nil, fmt.Errorf("emitter init: %w", err)
		}
		emitter = natsEmitter
	}

	return &Manager{
		ctx:     ctx,
		cfg:     cfg,
		emitter: emitter,
	}, nil
}

// Start kicks off one worker per named source.
func (m *Manager) Start(sourceNames []string) error {
	opts := AnalysisOptions(m.cfg.Analysis)
	for _, name := range sourceNames {
		srcCfg, err := m.cfg.Sources.GetSource(name)
		if err != nil {
			return fmt.Errorf("get source %s: %w", name, err)
		}
		src, err := sources.New(srcCfg)
		if err != nil {
			return fmt.Errorf("create source %s: %w", srcCfg.Name, err)
		}
		w := NewSourceWorker(m.ctx, src, srcCfg, m.emitter, opts)
		w.Start()
		m.workers = append(m.workers, w)
		logger.Info("Started source worker", "source", srcCfg.Name, "type", srcCfg.Type)
	}
	return nil
}

// Stop shuts down all workers and the emitter.
func (m *Manager) Stop() {
	for _, w := range m.workers {
		w.Stop()
	}
	m.emitter.Close()
	logger.Info("Scanner stopped")
}

// AnalysisOptions maps config defaults onto engine options.
func AnalysisOptions(cfg config.AnalysisConfig) analysis.Options {
	opts := analysis.DefaultOptions()
	opts.IgnoreUnder500 = cfg.IgnoreUnder500
	opts.ApplyTax = cfg.ApplyTax
	if cfg.TaxRate > 0 {
		opts.TaxRate = cfg.TaxRate
	}
	return opts
}
