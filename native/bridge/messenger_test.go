package bridge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewMessageCopiesPayload(t *testing.T) {
	payload := []byte{0x01, 0x02}
	msg := NewMessage(0, 7, 42, payload)

	payload[0] = 0xFF
	require.Equal(t, []byte{0x01, 0x02}, msg.Payload)
	require.Equal(t, uint32(7), msg.TargetChain)
	require.Equal(t, uint64(42), msg.TokenID)
	require.NotEqual(t, msg.ID.String(), "00000000-0000-0000-0000-000000000000")
}

func TestMemoryRecordsInOrder(t *testing.T) {
	m := NewMemory()
	first := NewMessage(0, 1, 1, nil)
	second := NewMessage(1, 2, 1, nil)

	require.NoError(t, m.Send(context.Background(), first))
	require.NoError(t, m.Send(context.Background(), second))

	sent := m.Sent()
	require.Len(t, sent, 2)
	require.Equal(t, first.ID, sent[0].ID)
	require.Equal(t, second.ID, sent[1].ID)
}

type failingMessenger struct{}

func (failingMessenger) Send(context.Context, Message) error {
	return errors.New("transport down")
}

func TestLoggingSwallowsSendErrors(t *testing.T) {
	l := NewLogging(failingMessenger{}, nil)
	err := l.Send(context.Background(), NewMessage(0, 1, 1, nil))
	require.NoError(t, err, "delivery failures must not surface to the engine")
}
