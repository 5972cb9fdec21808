package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/oddslab/scratch-analyzer/pkg/common/config"
	"github.com/oddslab/scratch-analyzer/pkg/common/logger"
	"github.com/oddslab/scratch-analyzer/pkg/common/types"
	"github.com/oddslab/scratch-analyzer/pkg/retry"
)

const (
	defaultTimeout    = 15 * time.Second
	defaultMaxRetries = 3
	defaultRetryDelay = 2 * time.Second
)

// Feed pulls game documents from a set of HTTP mirrors.
type Feed struct {
	name       string
	mirrors    *mirrorPool
	client     *client
	maxRetries int
	retryDelay time.Duration
}

func New(cfg config.SourceConfig) (*Feed, error) {
	if len(cfg.Mirrors) == 0 {
		return nil, fmt.Errorf("feed source %s has no mirrors", cfg.Name)
	}

	maxRetries := cfg.Client.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	retryDelay := cfg.Client.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}

	urls := lo.Map(cfg.Mirrors, func(m config.Mirror, _ int) string { return m.URL })
	return &Feed{
		name:       cfg.Name,
		mirrors:    newMirrorPool(urls),
		client:     newClient(cfg.Mirrors, cfg.Client),
		maxRetries: maxRetries,
		retryDelay: retryDelay,
	}, nil
}

func (f *Feed) Name() string { return f.name }

func (f *Feed) Close() error { return nil }

// Stats reports the mirror rotation state.
func (f *Feed) Stats() (total, healthy, failed int) {
	return f.mirrors.stats()
}

// Fetch pulls one snapshot. Attempts rotate through the mirror pool under
// exponential backoff, so a dead mirror costs one attempt rather than the
// whole poll.
func (f *Feed) Fetch(ctx context.Context) ([]types.RawGame, error) {
	var games []types.RawGame
	err := retry.Exponential(func() error {
		if ctx.Err() != nil {
			return nil
		}

		url := f.mirrors.next()
		data, err := f.client.get(ctx, url)
		if err != nil {
			f.mirrors.markFailed(url)
			return err
		}

		parsed, err := types.DecodeRawGames(data)
		if err != nil {
			f.mirrors.markFailed(url)
			return fmt.Errorf("decode payload from %s: %w", url, err)
		}

		f.mirrors.markHealthy(url)
		games = parsed
		return nil
	}, retry.ExponentialConfig{
		InitialInterval: f.retryDelay,
		MaxRetries:      uint64(f.maxRetries),
		OnRetry: func(err error, next time.Duration) {
			logger.Debug("Retrying feed fetch",
				"source", f.name, "err", err, "next_retry_in", next)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", f.name, err)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return games, nil
}
