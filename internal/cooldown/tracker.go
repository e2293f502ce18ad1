// Package cooldown gates how often an actor may repeat an action.
//
// State is process-local and intentionally not persisted: a restart resets
// every cooldown.
package cooldown

import (
	"sync"
	"time"

	"github.com/dmitrijs2005/lootledger/internal/common"
)

type key struct {
	actor  string
	action string
}

// Tracker records the last successful check per (actor, action).
type Tracker struct {
	mu   sync.Mutex
	last map[key]time.Time
	now  func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func New(opts ...Option) *Tracker {
	t := &Tracker{last: make(map[key]time.Time), now: time.Now}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Check succeeds on the first call for (actor, action) or once window has
// elapsed since the last success, recording the current time. Otherwise it
// records nothing and returns the remaining wait rounded up to whole seconds.
func (t *Tracker) Check(actorID, action string, window time.Duration) (remaining int64, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	k := key{actor: actorID, action: action}
	if prev, seen := t.last[k]; seen {
		if elapsed := now.Sub(prev); elapsed < window {
			return ceilSeconds(window - elapsed), false
		}
	}
	t.last[k] = now
	return 0, true
}

// Require is Check reporting failure as a *common.CooldownError.
func (t *Tracker) Require(actorID, action string, window time.Duration) error {
	if remaining, ok := t.Check(actorID, action, window); !ok {
		return &common.CooldownError{Action: action, Remaining: remaining}
	}
	return nil
}

// Reset forgets the recorded time for (actor, action).
func (t *Tracker) Reset(actorID, action string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.last, key{actor: actorID, action: action})
}

// Prune drops records older than maxAge and returns how many were removed.
func (t *Tracker) Prune(maxAge time.Duration) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := t.now().Add(-maxAge)
	n := 0
	for k, ts := range t.last {
		if ts.Before(cutoff) {
			delete(t.last, k)
			n++
		}
	}
	return n
}

func ceilSeconds(d time.Duration) int64 {
	s := int64(d / time.Second)
	if d%time.Second != 0 {
		s++
	}
	return s
}
