package events

import "github.com/oddslab/scratch-analyzer/pkg/common/types"

// NoopEmitter swallows everything. Used when event publishing is disabled.
type NoopEmitter struct{}

func (NoopEmitter) EmitReport(string, *types.Report) error         { return nil }
func (NoopEmitter) EmitComparison(string, *types.Comparison) error { return nil }
func (NoopEmitter) EmitError(string, error) error                  { return nil }
func (NoopEmitter) Emit(AnalyzerEvent) error                       { return nil }
func (NoopEmitter) Close()                                         {}
