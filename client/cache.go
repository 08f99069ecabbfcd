package client

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// ErrNoContact is returned by SessionCache.GetSession before the first
// successful fetch.
var ErrNoContact = errors.New("no contact with server")

// DefaultCadence is the interval between automatic refreshes.
const DefaultCadence = 30 * time.Second

// SessionGetter fetches the current session state. Satisfied by *Client.
type SessionGetter interface {
	GetSession(ctx context.Context) (*Session, error)
}

// cacheTimer is the slice of *time.Timer the cache actually uses. Narrowed
// to an interface so tests can count scheduling and cancellation calls.
type cacheTimer interface {
	Stop() bool
}

// SessionCache maintains the freshest known Session snapshot, refreshed on
// a fixed cadence, for any number of readers.
//
// The cache is either STOPPED or RUNNING. Start and Stop are both
// idempotent, so at most one refresh timer is ever pending. A fetch that is
// in flight when Stop is called is not interrupted; its result is discarded
// instead - every fetch is tagged with the generation current at its start,
// and results from a stale generation never touch the snapshot.
type SessionCache struct {
	Cadence time.Duration

	fetcher SessionGetter

	mu         sync.Mutex
	running    bool
	stopped    bool // set by the first Stop since the last Start
	generation uint64
	timer      cacheTimer
	session    *Session

	// Timer seams, overridable in tests.
	schedule func(d time.Duration, f func()) cacheTimer
	cancel   func(t cacheTimer)
}

// NewSessionCache returns a stopped cache polling via the given fetcher at
// the default cadence.
func NewSessionCache(fetcher SessionGetter) *SessionCache {
	return &SessionCache{
		Cadence: DefaultCadence,
		fetcher: fetcher,
		schedule: func(d time.Duration, f func()) cacheTimer {
			return time.AfterFunc(d, f)
		},
		cancel: func(t cacheTimer) {
			if t != nil {
				t.Stop()
			}
		},
	}
}

// Start performs one immediate fetch and begins the refresh timer chain.
// Calling Start while already running is a no-op.
func (c *SessionCache) Start() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.stopped = false
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	c.refresh(gen)
	c.scheduleNext(gen)
}

// Stop cancels the pending refresh timer, if any. Safe to call at any time,
// including before Start and repeatedly; only the first Stop since the last
// Start performs a cancellation.
func (c *SessionCache) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	c.running = false
	c.generation++
	t := c.timer
	c.timer = nil
	c.mu.Unlock()

	c.cancel(t)
}

// GetSession returns a copy of the latest fetched snapshot, or ErrNoContact
// if no fetch has succeeded yet. The snapshot survives Stop; a stopped
// cache keeps serving the last state it saw.
func (c *SessionCache) GetSession() (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil, ErrNoContact
	}

	snapshot := *c.session
	snapshot.ListOfAttendees = append([]string{}, c.session.ListOfAttendees...)
	return &snapshot, nil
}

// refresh performs one fetch. A failed fetch is not retried here; the next
// timer tick will try again.
func (c *SessionCache) refresh(gen uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), c.Cadence)
	defer cancel()

	session, err := c.fetcher.GetSession(ctx)
	if err != nil {
		log.Warnf("Session refresh failed: %v", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		// The cache was stopped (or restarted) while this fetch was in
		// flight. Discard the result.
		return
	}
	c.session = session
}

func (c *SessionCache) scheduleNext(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running || c.generation != gen {
		return
	}
	c.timer = c.schedule(c.Cadence, func() {
		c.refresh(gen)
		c.scheduleNext(gen)
	})
}
