package events

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/pistemind/internal/domain"
)

func TestRecorder_KeepsOrderAndCopies(t *testing.T) {
	r := &Recorder{}
	ctx := context.Background()
	require.NoError(t, r.Publish(ctx, Transition{SessionID: "s1", To: domain.StateScenarioGenerated}))
	require.NoError(t, r.Publish(ctx, Transition{SessionID: "s1", To: domain.StateOptionSelected}))

	got := r.Transitions()
	require.Len(t, got, 2)
	assert.Equal(t, domain.StateScenarioGenerated, got[0].To)
	assert.Equal(t, domain.StateOptionSelected, got[1].To)

	got[0].SessionID = "mutated"
	assert.Equal(t, "s1", r.Transitions()[0].SessionID)
}

func TestRecorder_Err(t *testing.T) {
	boom := errors.New("boom")
	r := &Recorder{Err: boom}
	assert.ErrorIs(t, r.Publish(context.Background(), Transition{SessionID: "s1"}), boom)
	assert.Empty(t, r.Transitions())
}

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}
	assert.NoError(t, p.Publish(context.Background(), Transition{}))
	assert.NoError(t, p.Close())
}

func TestTransition_WireFormat(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	raw, err := json.Marshal(Transition{
		SessionID: "s1",
		From:      domain.StateCreated,
		To:        domain.StateScenarioGenerated,
		Op:        "generate_scenario",
		Version:   1,
		At:        at,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"session_id":"s1","from":"created","to":"scenario_generated","op":"generate_scenario","version":1,"at":"2026-03-01T12:00:00Z"}`, string(raw))

	back, err := decodeTransition(string(raw))
	require.NoError(t, err)
	assert.Equal(t, "s1", back.SessionID)
	assert.True(t, back.At.Equal(at))
}

func TestDecodeTransition_Rejects(t *testing.T) {
	_, err := decodeTransition("not json")
	assert.Error(t, err)
	_, err = decodeTransition(`{"to":"created"}`)
	assert.Error(t, err)
}

func TestNewRedisPublisher_RequiresAddr(t *testing.T) {
	_, err := NewRedisPublisher(context.Background(), "  ", "", nil)
	assert.Error(t, err)
}

func TestNewRedisPublisher_PingFailure(t *testing.T) {
	// Grab a free port and close it so nothing listens there.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = NewRedisPublisher(context.Background(), addr, "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping")
}

func TestRedisPublisher_NilSafe(t *testing.T) {
	var p *RedisPublisher
	assert.Error(t, p.Publish(context.Background(), Transition{}))
	assert.Error(t, p.Subscribe(context.Background(), func(Transition) {}))
	assert.NoError(t, p.Close())
}
