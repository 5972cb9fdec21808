package fileset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/oddslab/scratch-analyzer/pkg/common/config"
	"github.com/oddslab/scratch-analyzer/pkg/common/logger"
	"github.com/oddslab/scratch-analyzer/pkg/common/types"
)

// FileSet reads game documents from a JSON file, or from every .json file in
// a directory. Directory entries load in name order so repeated fetches see
// the same sequence.
type FileSet struct {
	name string
	path string
}

func New(cfg config.SourceConfig) (*FileSet, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("file source %s has no path", cfg.Name)
	}
	return &FileSet{name: cfg.Name, path: cfg.Path}, nil
}

func (f *FileSet) Name() string { return f.name }

func (f *FileSet) Close() error { return nil }

// Fetch re-reads the path on every call so a watch loop picks up edits. In
// directory mode a file that fails to parse is skipped and counted; the fetch
// only fails when nothing at all loads.
func (f *FileSet) Fetch(ctx context.Context) ([]types.RawGame, error) {
	info, err := os.Stat(f.path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", f.path, err)
	}
	if !info.IsDir() {
		return readGames(f.path)
	}

	entries, err := os.ReadDir(f.path)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", f.path, err)
	}

	var games []types.RawGame
	merr := &types.MultiError{}
	for _, entry := range entries {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}
		batch, err := readGames(filepath.Join(f.path, entry.Name()))
		if err != nil {
			merr.Add(err)
			continue
		}
		games = append(games, batch...)
	}

	if len(games) == 0 && !merr.IsEmpty() {
		return nil, fmt.Errorf("no loadable games under %s: %w", f.path, merr.ErrorOrNil())
	}
	if !merr.IsEmpty() {
		logger.Warn("Skipped unreadable game files",
			"source", f.name, "skipped", merr.Len(), "loaded", len(games))
	}
	return games, nil
}

func readGames(path string) ([]types.RawGame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	games, err := types.DecodeRawGames(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return games, nil
}
