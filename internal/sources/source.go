package sources

import (
	"context"
	"fmt"

	"github.com/oddslab/scratch-analyzer/internal/sources/feed"
	"github.com/oddslab/scratch-analyzer/internal/sources/fileset"
	"github.com/oddslab/scratch-analyzer/pkg/common/config"
	"github.com/oddslab/scratch-analyzer/pkg/common/enum"
	"github.com/oddslab/scratch-analyzer/pkg/common/types"
)

// Source hands back one snapshot of raw game documents per Fetch call.
// Implementations own their transport; callers own normalization.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]types.RawGame, error)
	Close() error
}

// New builds the source a config entry describes.
func New(cfg config.SourceConfig) (Source, error) {
	switch cfg.Type {
	case enum.SourceTypeFile:
		return fileset.New(cfg)
	case enum.SourceTypeFeed:
		return feed.New(cfg)
	default:
		return nil, fmt.Errorf("source %s has unknown type %q", cfg.Name, cfg.Type)
	}
}
