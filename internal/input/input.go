// Package input delivers "next page" signals to the target app and observes
// which app currently has the foreground.
package input

import (
	"context"
	"time"

	"jordanella.com/pagecapture-go/internal/logging"
)

// PageAdvancer sends a "next page" input. It reports overall success after
// trying every delivery path it has.
type PageAdvancer interface {
	SendNext(ctx context.Context) bool
}

// FocusObserver reports the identifier of the foreground app. The second
// return value is false when the foreground app cannot be determined.
type FocusObserver interface {
	CurrentForeground(ctx context.Context) (string, bool)
}

// KeySender is a single delivery path for the next-page input
type KeySender interface {
	Name() string
	SendNextKey(ctx context.Context) error
}

// DefaultSettle is the pause after a delivered key event
const DefaultSettle = 50 * time.Millisecond

// Fallback tries Primary, then Secondary when Primary fails
type Fallback struct {
	Primary   KeySender
	Secondary KeySender

	// Settle is waited after a successful send so the key event is consumed
	// before anything else happens
	Settle time.Duration
	Logger *logging.Logger
}

// NewFallback creates a Fallback advancer
func NewFallback(primary, secondary KeySender, logger *logging.Logger) *Fallback {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Fallback{
		Primary:   primary,
		Secondary: secondary,
		Settle:    DefaultSettle,
		Logger:    logger,
	}
}

// SendNext implements PageAdvancer
func (f *Fallback) SendNext(ctx context.Context) bool {
	for i, sender := range []KeySender{f.Primary, f.Secondary} {
		if sender == nil {
			continue
		}

		err := sender.SendNextKey(ctx)
		if err == nil {
			if i > 0 {
				f.Logger.InfoWithContext("Next page sent via fallback", map[string]interface{}{"path": sender.Name()})
			}
			f.settle(ctx)
			return true
		}

		f.Logger.WarnWithContext("Next page delivery failed", map[string]interface{}{
			"path":  sender.Name(),
			"error": err.Error(),
		})
		if ctx.Err() != nil {
			return false
		}
	}
	return false
}

func (f *Fallback) settle(ctx context.Context) {
	if f.Settle <= 0 {
		return
	}
	t := time.NewTimer(f.Settle)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// AdvancerFunc adapts a function to PageAdvancer
type AdvancerFunc func(ctx context.Context) bool

// SendNext implements PageAdvancer
func (f AdvancerFunc) SendNext(ctx context.Context) bool {
	return f(ctx)
}

// ObserverFunc adapts a function to FocusObserver
type ObserverFunc func(ctx context.Context) (string, bool)

// CurrentForeground implements FocusObserver
func (f ObserverFunc) CurrentForeground(ctx context.Context) (string, bool) {
	return f(ctx)
}
