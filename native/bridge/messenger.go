// Package bridge carries teleport payloads to remote chains. The engine
// treats delivery as fire-and-forget: game state is fully persisted before a
// message is handed to a Messenger, and a failed send never rolls state back.
package bridge

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Message is one outbound cross-chain notification. Payload is opaque to the
// engine and forwarded untouched.
type Message struct {
	ID          uuid.UUID
	SourceChain uint32
	TargetChain uint32
	TokenID     uint64
	Payload     []byte
}

// NewMessage stamps a fresh message id and copies the payload.
func NewMessage(source, target uint32, tokenID uint64, payload []byte) Message {
	buf := make([]byte, len(payload))
	copy(buf, payload)
	return Message{
		ID:          uuid.New(),
		SourceChain: source,
		TargetChain: target,
		TokenID:     tokenID,
		Payload:     buf,
	}
}

// Messenger dispatches messages to a remote transport.
type Messenger interface {
	Send(ctx context.Context, msg Message) error
}

// Noop discards every message. It is the default when no transport is wired.
type Noop struct{}

func (Noop) Send(context.Context, Message) error { return nil }

// Memory records every message in order. Intended for tests.
type Memory struct {
	mu   sync.Mutex
	sent []Message
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

// Sent returns a snapshot of every recorded message.
func (m *Memory) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.sent))
	copy(out, m.sent)
	return out
}

// Logging wraps a Messenger and logs failed sends instead of surfacing them,
// matching the engine's fire-and-forget contract.
type Logging struct {
	inner  Messenger
	logger *slog.Logger
}

func NewLogging(inner Messenger, logger *slog.Logger) *Logging {
	if inner == nil {
		inner = Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Logging{inner: inner, logger: logger}
}

func (l *Logging) Send(ctx context.Context, msg Message) error {
	if err := l.inner.Send(ctx, msg); err != nil {
		l.logger.Warn("cross-chain send failed",
			slog.String("messageId", msg.ID.String()),
			slog.Uint64("tokenId", msg.TokenID),
			slog.Uint64("targetChain", uint64(msg.TargetChain)),
			slog.Any("error", err),
		)
	}
	return nil
}
