package engine

import "time"

// Scheduler schedules a cancellable continuation. The engine never blocks
// on a delay; it schedules the follow-up and stays responsive to close and
// reset while the delay is pending.
type Scheduler interface {
	// Schedule runs fn after d. The returned cancel function stops fn from
	// running if it has not fired yet.
	Schedule(d time.Duration, fn func()) (cancel func())
}

// TimerScheduler is the production Scheduler, backed by time.AfterFunc.
type TimerScheduler struct{}

// Schedule implements Scheduler.
func (TimerScheduler) Schedule(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}
