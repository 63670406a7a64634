package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	subject string
	data    []byte
	err     error
}

func (f *fakeConn) Publish(subject string, data []byte) error {
	f.subject = subject
	f.data = data
	return f.err
}

func TestNATS_Notify(t *testing.T) {
	conn := &fakeConn{}
	n := &NATS{conn: conn, subject: "forecast.validated"}

	err := n.Notify(context.Background(), Message{RunID: "r1", Owner: "alice", Destination: "alice/report.csv", Rows: 3})
	require.NoError(t, err)

	assert.Equal(t, "forecast.validated", conn.subject)
	var got Message
	require.NoError(t, json.Unmarshal(conn.data, &got))
	assert.Equal(t, "alice", got.Owner)
	assert.Equal(t, "alice/report.csv", got.Destination)
	assert.Equal(t, 3, got.Rows)
}

func TestNATS_NotifyErrors(t *testing.T) {
	conn := &fakeConn{err: errors.New("nats: connection closed")}
	n := &NATS{conn: conn, subject: "s"}

	err := n.Notify(context.Background(), Message{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish to s")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	conn.data = nil
	assert.ErrorIs(t, n.Notify(ctx, Message{}), context.Canceled)
	assert.Nil(t, conn.data, "cancelled notify must not publish")
}
