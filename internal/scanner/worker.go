package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/oddslab/scratch-analyzer/internal/analysis"
	"github.com/oddslab/scratch-analyzer/internal/events"
	"github.com/oddslab/scratch-analyzer/internal/sources"
	"github.com/oddslab/scratch-analyzer/pkg/common/config"
	"github.com/oddslab/scratch-analyzer/pkg/common/logger"
	"github.com/oddslab/scratch-analyzer/pkg/common/types"
)

const (
	defaultPollInterval  = 5 * time.Minute
	maxConsecutiveErrors = 5

	// netChangeEpsilon is the net EV movement below which a game is
	// considered unchanged and no report event goes out.
	netChangeEpsilon = 0.001
)

type Worker interface {
	Start()
	Stop()
}

// ScanSummary is the per-cycle digest, logged and published after every scan.
type ScanSummary struct {
	Source       string `json:"source"`
	Games        int    `json:"games"`
	Analyzed     int    `json:"analyzed"`
	Skipped      int    `json:"skipped"`
	DroppedTiers int    `json:"dropped_tiers"`
	Comparisons  int    `json:"comparisons"`
	Reports      int    `json:"reports"`
	ElapsedMS    int64  `json:"elapsed_ms"`
}

// SourceWorker polls one source and pushes fresh analysis through the
// emitter. State between cycles is the last net EV per game, in memory only.
type SourceWorker struct {
	cfg     config.SourceConfig
	source  sources.Source
	emitter events.Emitter
	opts    analysis.Options
	lastNet map[string]float64
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *slog.Logger
}

func NewSourceWorker(
	ctx context.Context,
	src sources.Source,
	cfg config.SourceConfig,
	emitter events.Emitter,
	opts analysis.Options,
) *SourceWorker {
	ctx, cancel := context.WithCancel(ctx)
	return &SourceWorker{
		cfg:     cfg,
		source:  src,
		emitter: emitter,
		opts:    opts,
		lastNet: make(map[string]float64),
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger.With(slog.String("source", src.Name())),
	}
}

func (w *SourceWorker) Start() {
	w.logger.Info("Starting source worker", "poll_interval", w.pollInterval())
	go w.run(w.scanOnce)
}

func (w *SourceWorker) Stop() {
	w.cancel()
	_ = w.source.Close()
}

func (w *SourceWorker) pollInterval() time.Duration {
	if w.cfg.PollInterval > 0 {
		return w.cfg.PollInterval
	}
	return defaultPollInterval
}

// run executes job immediately and then on every tick. Consecutive failures
// slow the loop down for one interval instead of hammering a broken source.
func (w *SourceWorker) run(job func() error) {
	interval := w.pollInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	errorCount := 0
	for {
		if err := job(); err != nil {
			errorCount++
			w.logger.Error("Scan cycle failed", "err", err, "consecutive_errors", errorCount)
			_ = w.emitter.EmitError(w.source.Name(), err)
			if errorCount >= maxConsecutiveErrors {
				w.logger.Warn("Too many consecutive errors, slowing down")
				time.Sleep(interval)
				errorCount = 0
			}
		} else {
			errorCount = 0
		}

		select {
		case <-w.ctx.Done():
			w.logger.Info("Worker stopped")
			return
		case <-ticker.C:
		}
	}
}

// scanOnce runs one full cycle: fetch, normalize, analyze and compare every
// game, then publish what moved plus the cycle summary.
func (w *SourceWorker) scanOnce() error {
	start := time.Now()

	raws, err := w.source.Fetch(w.ctx)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	games := make([]types.Game, 0, len(raws))
	droppedTiers := 0
	for _, raw := range raws {
		game, dropped := analysis.NormalizeGame(raw)
		droppedTiers += dropped
		games = append(games, game)
	}

	comparisons := analysis.CompareAll(games, w.opts)
	byGame := make(map[string]*types.Comparison, len(comparisons))
	for i := range comparisons {
		byGame[comparisonKey(comparisons[i])] = &comparisons[i]
	}

	summary := ScanSummary{
		Source:       w.source.Name(),
		Games:        len(games),
		DroppedTiers: droppedTiers,
		Comparisons:  len(comparisons),
	}
	for i := range games {
		report, err := analysis.Analyze(&games[i], w.opts)
		if err != nil {
			summary.Skipped++
			w.logger.Debug("Game not analyzable", "game", games[i].Name, "err", err)
			continue
		}
		summary.Analyzed++

		if !w.movedSinceLastScan(games[i], report.NetEV) {
			continue
		}
		summary.Reports++
		if err := w.emitter.EmitReport(w.source.Name(), &report); err != nil {
			w.logger.Error("Failed to emit report", "game", games[i].Name, "err", err)
		}
		if cmp, ok := byGame[gameKey(games[i])]; ok {
			if err := w.emitter.EmitComparison(w.source.Name(), cmp); err != nil {
				w.logger.Error("Failed to emit comparison", "game", games[i].Name, "err", err)
			}
		}
	}

	summary.ElapsedMS = time.Since(start).Milliseconds()
	w.logger.Info("Scan complete",
		"games", summary.Games,
		"analyzed", summary.Analyzed,
		"skipped", summary.Skipped,
		"reports", summary.Reports,
		"elapsed", time.Since(start))

	return w.emitter.Emit(events.AnalyzerEvent{
		Type:   events.TypeScan,
		Source: w.source.Name(),
		Data:   summary,
	})
}

// movedSinceLastScan records the latest net EV and reports whether the game
// is new or drifted past the epsilon since the previous cycle.
func (w *SourceWorker) movedSinceLastScan(game types.Game, netEV float64) bool {
	key := gameKey(game)
	last, seen := w.lastNet[key]
	w.lastNet[key] = netEV
	if !seen {
		return true
	}
	return math.Abs(netEV-last) > netChangeEpsilon
}

func gameKey(game types.Game) string {
	if game.Number != "" {
		return game.Number
	}
	return game.Name
}

func comparisonKey(cmp types.Comparison) string {
	if cmp.Number != "" {
		return cmp.Number
	}
	return cmp.Name
}
