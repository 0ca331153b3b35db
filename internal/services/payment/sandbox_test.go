package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSandboxProcessor(t *testing.T) {
	ctx := context.Background()
	p := NewSandboxProcessor()

	hold, err := p.Hold(ctx, HoldRequest{AmountCents: 10000, Currency: "USD"})
	require.NoError(t, err)
	assert.NotEmpty(t, hold.Ref)
	assert.Equal(t, int64(10000), p.Holds[hold.Ref])

	_, err = p.Capture(ctx, hold.Ref, 8500, "k1")
	require.NoError(t, err)
	assert.Equal(t, int64(8500), p.CapturedFor(hold.Ref))

	_, err = p.Hold(ctx, HoldRequest{AmountCents: 0, Currency: "USD"})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = p.Refund(ctx, "", 10, "k2")
	assert.ErrorIs(t, err, ErrMissingRef)

	boom := errors.New("processor down")
	p.FailNext = boom
	_, err = p.Capture(ctx, hold.Ref, 1, "k3")
	assert.ErrorIs(t, err, boom)

	_, err = p.Capture(ctx, hold.Ref, 1, "k4")
	assert.NoError(t, err)
}

func TestSandboxProcessor_ManualCaptureLifecycle(t *testing.T) {
	ctx := context.Background()
	p := NewSandboxProcessor()

	held, err := p.Hold(ctx, HoldRequest{AmountCents: 5000, Currency: "USD"})
	require.NoError(t, err)

	_, err = p.Refund(ctx, held.Ref, 5000, "r1")
	assert.ErrorIs(t, err, ErrNotCaptured)
	assert.Empty(t, p.Refunds)

	res, err := p.Void(ctx, held.Ref, "v1")
	require.NoError(t, err)
	assert.Equal(t, "canceled", res.Status)
	assert.True(t, p.VoidedFor(held.Ref))

	_, err = p.Capture(ctx, held.Ref, 5000, "c1")
	assert.ErrorIs(t, err, ErrHoldVoided)

	captured, err := p.Hold(ctx, HoldRequest{AmountCents: 3000, Currency: "USD"})
	require.NoError(t, err)
	_, err = p.Capture(ctx, captured.Ref, 3000, "c2")
	require.NoError(t, err)

	_, err = p.Void(ctx, captured.Ref, "v2")
	assert.ErrorIs(t, err, ErrHoldCaptured)

	_, err = p.Refund(ctx, captured.Ref, 2000, "r2")
	require.NoError(t, err)
	_, err = p.Refund(ctx, captured.Ref, 2000, "r3")
	assert.ErrorIs(t, err, ErrNotCaptured)
	assert.Equal(t, int64(2000), p.Refunds[captured.Ref])
}

func TestSandboxProcessor_ZeroCaptureVoids(t *testing.T) {
	ctx := context.Background()
	p := NewSandboxProcessor()

	held, err := p.Hold(ctx, HoldRequest{AmountCents: 700, Currency: "USD"})
	require.NoError(t, err)
	_, err = p.Capture(ctx, held.Ref, 0, "c0")
	require.NoError(t, err)
	assert.True(t, p.VoidedFor(held.Ref))
	assert.Zero(t, p.CapturedFor(held.Ref))
}
