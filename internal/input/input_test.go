package input

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeSender struct {
	name  string
	err   error
	calls int
}

func (f *fakeSender) Name() string { return f.name }

func (f *fakeSender) SendNextKey(context.Context) error {
	f.calls++
	return f.err
}

func newTestFallback(primary, secondary KeySender) *Fallback {
	fb := NewFallback(primary, secondary, nil)
	fb.Settle = 0
	return fb
}

func TestFallbackPrimarySucceeds(t *testing.T) {
	primary := &fakeSender{name: "primary"}
	secondary := &fakeSender{name: "secondary"}

	assert.True(t, newTestFallback(primary, secondary).SendNext(context.Background()))
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 0, secondary.calls)
}

func TestFallbackUsesSecondary(t *testing.T) {
	primary := &fakeSender{name: "primary", err: errors.New("not authorised")}
	secondary := &fakeSender{name: "secondary"}

	assert.True(t, newTestFallback(primary, secondary).SendNext(context.Background()))
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
}

func TestFallbackBothFail(t *testing.T) {
	primary := &fakeSender{name: "primary", err: errors.New("denied")}
	secondary := &fakeSender{name: "secondary", err: errors.New("denied")}

	assert.False(t, newTestFallback(primary, secondary).SendNext(context.Background()))
	assert.Equal(t, 1, secondary.calls)
}

func TestFallbackWithoutSecondary(t *testing.T) {
	primary := &fakeSender{name: "primary", err: errors.New("denied")}

	assert.False(t, newTestFallback(primary, nil).SendNext(context.Background()))
}

func TestFallbackStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	primary := &fakeSender{name: "primary", err: context.Canceled}
	secondary := &fakeSender{name: "secondary"}

	assert.False(t, newTestFallback(primary, secondary).SendNext(ctx))
	assert.Equal(t, 0, secondary.calls)
}

func TestFuncAdapters(t *testing.T) {
	adv := AdvancerFunc(func(context.Context) bool { return true })
	assert.True(t, adv.SendNext(context.Background()))

	obs := ObserverFunc(func(context.Context) (string, bool) { return "com.example.reader", true })
	id, ok := obs.CurrentForeground(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "com.example.reader", id)
}
