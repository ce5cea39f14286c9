// Package pager drives the capture loop: capture the target window,
// fingerprint it, save it when it is a new page and send the next-page input
// until the document stops changing.
package pager

import (
	"context"
	"image"

	"github.com/google/uuid"

	"jordanella.com/pagecapture-go/internal/cv"
	"jordanella.com/pagecapture-go/internal/events"
	"jordanella.com/pagecapture-go/internal/input"
	"jordanella.com/pagecapture-go/internal/logging"
	"jordanella.com/pagecapture-go/internal/pagestore"
)

// PageStore is the persistence the controller needs
type PageStore interface {
	Append(frame image.Image, fp cv.Fingerprint) (pagestore.PageRecord, error)
}

// Controller runs capture loops. A Controller may run many times but never
// concurrently with itself.
type Controller struct {
	source   cv.FrameSource
	advancer input.PageAdvancer
	focus    input.FocusObserver
	store    PageStore
	config   Config

	waiter   Waiter
	bus      events.EventBus
	logger   *logging.Logger
	newRunID func() string
}

// Option customises a Controller
type Option func(*Controller)

// WithWaiter replaces the wall-clock waiter
func WithWaiter(w Waiter) Option {
	return func(c *Controller) { c.waiter = w }
}

// WithEventBus publishes run events to bus
func WithEventBus(bus events.EventBus) Option {
	return func(c *Controller) { c.bus = bus }
}

// WithLogger sets the logger
func WithLogger(l *logging.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithRunIDs overrides run id generation
func WithRunIDs(fn func() string) Option {
	return func(c *Controller) { c.newRunID = fn }
}

// NewController creates a controller over its collaborators
func NewController(source cv.FrameSource, advancer input.PageAdvancer, focus input.FocusObserver, store PageStore, config Config, opts ...Option) *Controller {
	c := &Controller{
		source:   source,
		advancer: advancer,
		focus:    focus,
		store:    store,
		config:   config.normalize(),
		waiter:   SleepWaiter{},
		logger:   logging.NewLogger("pager"),
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the effective configuration
func (c *Controller) Config() Config {
	return c.config
}

// Run captures target page by page until the document ends, focus moves
// away, ctx is cancelled or a collaborator fails. It always returns a result;
// failures are reported through RunResult.Err.
func (c *Controller) Run(ctx context.Context, target cv.Target) RunResult {
	runID := c.newRunID()
	state := &LoopState{State: StateAwaitingCapture}
	result := RunResult{RunID: runID}
	log := c.logger.WithContext(map[string]interface{}{
		"run_id": runID,
		"target": target.String(),
	})

	c.publish(events.NewRunStartedEvent(runID, target.String()))
	log.Info("Capture run started")

	finish := func(outcome Outcome, reason Reason, err error) RunResult {
		if outcome == OutcomeAborted {
			state.State = StateAborted
		} else {
			state.State = StateCompleted
		}
		state.Terminal = true

		result.Outcome = outcome
		result.Reason = reason
		result.Err = err

		c.publish(events.NewRunFinishedEvent(runID, outcome == OutcomeAborted, string(reason), len(result.Pages), err))
		c.logger.InfoWithContext("Capture run finished", map[string]interface{}{
			"run_id":  runID,
			"outcome": string(outcome),
			"reason":  string(reason),
			"pages":   len(result.Pages),
		})
		return result
	}

	if err := c.waiter.Wait(ctx, c.config.FocusSettleDelay); err != nil {
		return finish(OutcomeCompleted, ReasonCancelled, nil)
	}

	for {
		state.State = StateAwaitingCapture

		if ctx.Err() != nil {
			return finish(OutcomeCompleted, ReasonCancelled, nil)
		}
		if c.focusLost(ctx, target) {
			return finish(OutcomeCompleted, ReasonFocusChanged, nil)
		}

		if err := c.waiter.Wait(ctx, c.config.PageLoadDelay); err != nil {
			return finish(OutcomeCompleted, ReasonCancelled, nil)
		}

		if c.config.ProbeBeforeCapture {
			c.probeStep(ctx, runID, target, state)
		}

		frame, err := c.source.CaptureWindow(ctx, target)
		if err != nil {
			if ctx.Err() != nil {
				return finish(OutcomeCompleted, ReasonCancelled, nil)
			}

			state.captureFailures++
			c.publish(events.NewCaptureFailedEvent(runID, target.String(), state.captureFailures, err))
			log.Warn("Capture failed: " + err.Error())

			if c.config.MaxCaptureRetries > 0 && state.captureFailures > c.config.MaxCaptureRetries {
				return finish(OutcomeAborted, ReasonCaptureFailure, &CaptureError{
					Step:     "capture window",
					Target:   target.String(),
					Attempts: state.captureFailures,
					Err:      err,
				})
			}

			if err := c.waiter.Wait(ctx, c.config.RetryDelay); err != nil {
				return finish(OutcomeCompleted, ReasonCancelled, nil)
			}
			continue
		}
		state.captureFailures = 0
		state.State = StateCaptured

		fp, verdict, ferr := c.classify(target, frame, state.Baseline)
		state.State = StateClassified
		if ferr != nil {
			result.FingerprintFailures++
			result.Unreadable = ferr
			c.publish(events.NewFingerprintFailedEvent(runID, target.String(), ferr))
		}

		if verdict.IsNew() {
			rec, err := c.store.Append(frame, fp)
			if err != nil {
				return finish(OutcomeAborted, ReasonStoreFailure, &StoreError{
					Step:   "save page",
					Target: target.String(),
					Index:  len(result.Pages) + 1,
					Err:    err,
				})
			}

			state.Baseline = fp.Ptr()
			state.Duplicates = 0
			result.Pages = append(result.Pages, rec)

			c.publish(events.NewPageSavedEvent(runID, rec.Index, rec.Path, fp.String(), verdict.Distance))
			c.logger.InfoWithContext("Page saved", map[string]interface{}{
				"run_id":      runID,
				"index":       rec.Index,
				"distance":    verdict.Distance,
				"fingerprint": fp.String(),
			})

			if c.config.MaxPages > 0 && len(result.Pages) >= c.config.MaxPages {
				return finish(OutcomeCompleted, ReasonPageLimit, nil)
			}
		} else {
			state.Duplicates++
			c.publish(events.NewPageDuplicateEvent(runID, verdict.Distance, state.Duplicates, c.config.MaxDuplicates, ferr != nil))
			c.logger.DebugWithContext("Duplicate page", map[string]interface{}{
				"run_id":      runID,
				"distance":    verdict.Distance,
				"consecutive": state.Duplicates,
			})

			if state.Duplicates >= c.config.MaxDuplicates {
				return finish(OutcomeCompleted, ReasonEndOfDocument, nil)
			}
		}

		if !c.advancer.SendNext(ctx) {
			if ctx.Err() != nil {
				return finish(OutcomeCompleted, ReasonCancelled, nil)
			}
			c.publish(events.NewAdvanceFailedEvent(runID, target.String()))
			return finish(OutcomeAborted, ReasonAdvanceFailure, &AdvanceError{
				Step:   "send next page",
				Target: target.String(),
			})
		}
		state.State = StateAdvanced

		if err := c.waiter.Wait(ctx, c.config.PostAdvanceDelay); err != nil {
			return finish(OutcomeCompleted, ReasonCancelled, nil)
		}
	}
}

// focusLost reports a known foreground app other than target. An unknown
// foreground is not a mismatch.
func (c *Controller) focusLost(ctx context.Context, target cv.Target) bool {
	if c.focus == nil || target.ID == "" {
		return false
	}
	current, ok := c.focus.CurrentForeground(ctx)
	if !ok || current == target.ID {
		return false
	}
	c.logger.InfoWithContext("Target lost focus", map[string]interface{}{
		"target":     target.ID,
		"foreground": current,
	})
	return true
}

// classify fingerprints frame and compares it with the baseline. The first
// page of a run has no baseline and is always new. A frame that cannot be
// fingerprinted is a duplicate so it is never saved; the error is returned
// alongside that verdict.
func (c *Controller) classify(target cv.Target, frame image.Image, baseline *cv.Fingerprint) (cv.Fingerprint, cv.Verdict, *FingerprintError) {
	fp, err := cv.ComputeFingerprint(frame, c.config.HashRegion)
	if err != nil {
		ferr := &FingerprintError{Step: "fingerprint frame", Target: target.String(), Err: err}
		c.logger.Warn(ferr.Error())
		return 0, cv.Verdict{Kind: cv.VerdictDuplicate, Distance: 0}, ferr
	}

	if baseline == nil {
		return fp, cv.Verdict{Kind: cv.VerdictNew, Distance: 0}, nil
	}
	return fp, cv.Compare(&fp, baseline, c.config.Threshold), nil
}

// Probe fingerprints the probe region of target and compares it with
// previous. It never touches the page store.
func (c *Controller) Probe(ctx context.Context, target cv.Target, previous *cv.Fingerprint) (cv.Fingerprint, cv.Verdict, error) {
	frame, err := c.source.CaptureProbe(ctx, target, c.config.ProbeRegion)
	if err != nil {
		return 0, cv.Verdict{}, &CaptureError{Step: "capture probe", Target: target.String(), Attempts: 1, Err: err}
	}

	fp, err := cv.ComputeFingerprint(frame, cv.FullFrame)
	if err != nil {
		return 0, cv.Verdict{}, &FingerprintError{Step: "fingerprint probe", Target: target.String(), Err: err}
	}

	if previous == nil {
		return fp, cv.Verdict{Kind: cv.VerdictNew}, nil
	}
	return fp, cv.Compare(&fp, previous, c.config.Threshold), nil
}

// probeStep runs the pre-check and only records what it saw
func (c *Controller) probeStep(ctx context.Context, runID string, target cv.Target, state *LoopState) {
	fp, verdict, err := c.Probe(ctx, target, state.probeBaseline)
	if err != nil {
		c.logger.DebugWithContext("Probe skipped", map[string]interface{}{"error": err.Error()})
		return
	}
	state.probeBaseline = fp.Ptr()

	c.publish(events.NewProbeCheckedEvent(runID, verdict.Distance, verdict.IsNew()))
	c.logger.DebugWithContext("Probe checked", map[string]interface{}{
		"distance": verdict.Distance,
		"new":      verdict.IsNew(),
	})
}

func (c *Controller) publish(event events.Event) {
	if c.bus != nil {
		c.bus.Publish(event)
	}
}
