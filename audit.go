package tokenauth

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Audit event types.
const (
	AuditTokenCreated   = "token_created"
	AuditTokenRenewed   = "token_renewed"
	AuditSignFailed     = "token_sign_failed"
	AuditTokenValidated = "token_validated"
	AuditTokenRejected  = "token_rejected"
)

// AuditEvent describes one token lifecycle step. Events never carry the
// token string or the secret.
type AuditEvent struct {
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
	Subject   string    `json:"subject,omitempty"`
	TokenID   string    `json:"token_id,omitempty"`
	Count     int64     `json:"count"`
	Expiry    int64     `json:"expiry,omitempty"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}

// AuditSink receives audit events from the dispatcher goroutine.
type AuditSink interface {
	Emit(ctx context.Context, event AuditEvent)
}

// AuditConfig controls audit buffering. Audit is off unless Enabled.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull makes emission non-blocking; events that do not fit the
	// buffer are counted by Authority.AuditDropped.
	DropIfFull bool
}

type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, AuditEvent) {}

// ChannelSink forwards events to a buffered channel.
type ChannelSink struct {
	events chan AuditEvent
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{events: make(chan AuditEvent, buffer)}
}

func (s *ChannelSink) Emit(ctx context.Context, event AuditEvent) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan AuditEvent { return s.events }

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{writer: w}
}

func (s *JSONWriterSink) Emit(_ context.Context, event AuditEvent) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = s.writer.Write(data)
}

// ZapSink logs each event at info level, or warn for failures.
type ZapSink struct {
	logger *zap.Logger
}

func NewZapSink(logger *zap.Logger) *ZapSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapSink{logger: logger}
}

func (s *ZapSink) Emit(_ context.Context, event AuditEvent) {
	fields := []zap.Field{
		zap.Time("timestamp", event.Timestamp),
		zap.Int64("count", event.Count),
	}
	if event.Subject != "" {
		fields = append(fields, zap.String("subject", event.Subject))
	}
	if event.TokenID != "" {
		fields = append(fields, zap.String("token_id", event.TokenID))
	}
	if event.Expiry != 0 {
		fields = append(fields, zap.Int64("expiry", event.Expiry))
	}
	if event.Success {
		s.logger.Info(event.EventType, fields...)
		return
	}
	s.logger.Warn(event.EventType, append(fields, zap.String("error", event.Error))...)
}

func (a *Authority) emitAudit(ctx context.Context, eventType string, p Payload, err error) {
	if a.audit == nil {
		return
	}
	event := AuditEvent{
		Timestamp: a.now().UTC(),
		EventType: eventType,
		Success:   err == nil,
	}
	if p != nil {
		event.Subject = p.String("sub")
		if event.Subject == "" {
			event.Subject = p.String("uid")
		}
		event.TokenID = p.String("jti")
		event.Count = p.Count()
		event.Expiry, _ = p.Expiry()
	}
	if err != nil {
		event.Error = err.Error()
	}
	a.audit.Emit(ctx, event)
}
