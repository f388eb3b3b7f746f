package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type funcJob struct {
	typ    string
	handle func(ctx context.Context, payload json.RawMessage) error
}

func (j funcJob) Name() string { return j.typ + "-job" }
func (j funcJob) Type() string { return j.typ }
func (j funcJob) Handle(ctx context.Context, payload json.RawMessage) error {
	return j.handle(ctx, payload)
}

type horizonPayload struct {
	Horizons []int `json:"horizons"`
}

func TestDispatchDecodesPayload(t *testing.T) {
	d := NewDispatcher(2, 0)
	var got *horizonPayload
	require.True(t, d.Register(funcJob{typ: "refresh", handle: func(_ context.Context, p json.RawMessage) error {
		var err error
		got, err = ParsePayload[horizonPayload](p)
		return err
	}}))

	msg, err := NewMessage("refresh", horizonPayload{Horizons: []int{7, 14}})
	require.NoError(t, err)
	assert.NotEmpty(t, msg.ID)

	outcome, err := d.Dispatch(context.Background(), &msg)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDone, outcome)
	assert.Equal(t, []int{7, 14}, got.Horizons)
}

func TestDispatchRetriesThenDeadLetters(t *testing.T) {
	d := NewDispatcher(2, 0)
	boom := errors.New("db down")
	d.Register(funcJob{typ: "check", handle: func(context.Context, json.RawMessage) error { return boom }})

	msg, _ := NewMessage("check", nil)
	for attempt := 1; attempt <= 2; attempt++ {
		outcome, err := d.Dispatch(context.Background(), &msg)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, OutcomeRetry, outcome)
		assert.Equal(t, attempt, msg.Attempts)
	}
	outcome, _ := d.Dispatch(context.Background(), &msg)
	assert.Equal(t, OutcomeDead, outcome)
}

func TestDispatchUnknownAndCancelled(t *testing.T) {
	d := NewDispatcher(3, 0)
	d.Register(funcJob{typ: "slow", handle: func(ctx context.Context, _ json.RawMessage) error {
		<-ctx.Done()
		return ctx.Err()
	}})
	assert.False(t, d.Register(funcJob{typ: "slow"}))

	msg, _ := NewMessage("missing", nil)
	outcome, err := d.Dispatch(context.Background(), &msg)
	assert.Equal(t, OutcomeDead, outcome)
	assert.ErrorIs(t, err, ErrUnknownJob)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	msg, _ = NewMessage("slow", nil)
	outcome, _ = d.Dispatch(ctx, &msg)
	assert.Equal(t, OutcomeCancelled, outcome)
	assert.Zero(t, msg.Attempts)
}

func TestParsePayloadEmpty(t *testing.T) {
	p, err := ParsePayload[horizonPayload](nil)
	require.NoError(t, err)
	assert.Nil(t, p.Horizons)

	_, err = ParsePayload[horizonPayload](json.RawMessage(`{"horizons":"x"}`))
	assert.Error(t, err)
}
