// Package workers contains the coordinator's periodic background
// tasks: the full-registry redeploy sweep and the image prune.
package workers

import "time"

// Ticker is the repeating timer both periodic tasks wait on. It wraps
// time.Ticker, whose one-slot channel gives the policy these tasks
// need: when a cycle overruns the interval, at most one pending tick
// is kept and fires once afterwards. Missed ticks are absorbed, never
// queued up into a burst.
type Ticker struct {
	C <-chan time.Time

	t *time.Ticker
}

// NewTicker creates a Ticker firing every d. d must be positive.
func NewTicker(d time.Duration) *Ticker {
	t := time.NewTicker(d)
	return &Ticker{C: t.C, t: t}
}

// Stop turns the ticker off. No further ticks are delivered.
func (t *Ticker) Stop() {
	t.t.Stop()
}
