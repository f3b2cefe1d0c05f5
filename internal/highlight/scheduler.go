package highlight

import "time"

// Scheduler defers a function call. The engine uses it for the
// self-expiring effects: removing the pulse class from the first marker
// and dismissing the no-match toast.
//
// The contract is fire-and-forget: no cancellation token is required,
// and a callback may fire after the state it targeted has already been
// replaced by a newer highlight cycle. Callbacks are scoped to specific
// nodes, so a stale firing is harmless: removing a class from a detached
// marker or an already-removed toast is a no-op.
type Scheduler interface {
	// Schedule runs fn after d elapses. Implementations must not block.
	Schedule(d time.Duration, fn func())
}

// TimerScheduler schedules callbacks on real timers. This is the
// default for long-lived hosts where the in-memory document outlives
// the highlight call and should return to steady state.
type TimerScheduler struct{}

// Schedule runs fn on its own goroutine after d.
func (TimerScheduler) Schedule(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}

// NopScheduler discards scheduled callbacks. One-shot flows (CLI runs,
// HTTP requests) serialize the document immediately after highlighting;
// the transient effects are carried into the output as CSS animations
// that expire client-side, so in-memory expiry would only race the
// render.
type NopScheduler struct{}

// Schedule drops the callback.
func (NopScheduler) Schedule(time.Duration, func()) {}
