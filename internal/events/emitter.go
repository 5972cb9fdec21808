package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/oddslab/scratch-analyzer/pkg/common/config"
	"github.com/oddslab/scratch-analyzer/pkg/common/types"
	"github.com/oddslab/scratch-analyzer/pkg/infra"
	"github.com/oddslab/scratch-analyzer/pkg/retry"
)

// Event types carried on the analysis subject.
const (
	TypeReport     = "report"
	TypeComparison = "comparison"
	TypeScan       = "scan"
	TypeError      = "error"
)

// AnalyzerEvent is the envelope every published message uses. Data carries
// the typed payload; subscribers switch on Type.
type AnalyzerEvent struct {
	Type      string `json:"type"`
	Source    string `json:"source"`
	Data      any    `json:"data"`
	Timestamp int64  `json:"timestamp"`
}

// Emitter publishes analysis output. Implementations must be safe for
// concurrent use across scanner workers.
type Emitter interface {
	EmitReport(source string, report *types.Report) error
	EmitComparison(source string, cmp *types.Comparison) error
	EmitError(source string, err error) error
	Emit(event AnalyzerEvent) error
	Close()
}

// NATSEmitter publishes events JSON-encoded to <prefix>.<source>.
type NATSEmitter struct {
	conn          *nats.Conn
	subjectPrefix string
}

func NewNATSEmitter(cfg config.NATSConfig, environment string) (*NATSEmitter, error) {
	var conn *nats.Conn
	err := retry.Constant(func() error {
		var connErr error
		conn, connErr = infra.GetNATSConnection(cfg, environment)
		return connErr
	}, 2*time.Second, 3)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &NATSEmitter{
		conn:          conn,
		subjectPrefix: cfg.SubjectPrefix,
	}, nil
}

func (e *NATSEmitter) EmitReport(source string, report *types.Report) error {
	return e.Emit(AnalyzerEvent{Type: TypeReport, Source: source, Data: report})
}

func (e *NATSEmitter) EmitComparison(source string, cmp *types.Comparison) error {
	return e.Emit(AnalyzerEvent{Type: TypeComparison, Source: source, Data: cmp})
}

func (e *NATSEmitter) EmitError(source string, emitErr error) error {
	return e.Emit(AnalyzerEvent{
		Type:   TypeError,
		Source: source,
		Data:   map[string]string{"error": emitErr.Error()},
	})
}

func (e *NATSEmitter) Emit(event AnalyzerEvent) error {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UTC().Unix()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	subject := e.subjectPrefix
	if event.Source != "" {
		subject += "." + event.Source
	}
	return e.conn.Publish(subject, data)
}

func (e *NATSEmitter) Close() {
	if e.conn != nil {
		e.conn.Close()
	}
}
