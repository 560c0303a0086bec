package server

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// actor is the single goroutine that owns the state that must never be
// shared across threads: the connection registry, the close-graveyard,
// and the monotonic id counter. Every other goroutine (accept,
// per-connection read, per-connection write) only ever touches its own
// local state and hands completions to the actor by posting closures
// onto tasks — the channel *is* the lock.
//
// Send*/Close are deliberately NOT posted through tasks: there are
// exactly three suspension points worth a round trip through the
// channel (accept, read, write), and Send/Close is not one of them —
// it runs synchronously wherever it's called. Server's exported
// Send*/Close methods are therefore plain method calls that assume
// they run on this goroutine already, which holds whenever they're
// called from within a Delegate callback (the sanctioned, and only
// documented, calling convention — see server.go). tasks only ever
// carries accept/read/write completions, so a re-entrant Send from
// inside OnHTTPRequest never touches this channel at all.
type actor struct {
	tasks chan func()

	// closeMu guards tasks against the send-on-closed-channel panic that
	// would otherwise follow from post and stop racing: a connection's
	// read/write loop can still be mid-post when Server.Close tears down
	// the listener and stops the actor. post holds a read lock around its
	// send; stop takes the write lock before closing, which waits out any
	// sends already in flight instead of racing them.
	closeMu sync.RWMutex
	closed  bool

	idToConnection    map[int]*Connection
	closedConnections []*Connection
	lastID            int

	delegate Delegate
	logger   logrus.FieldLogger
}

const actorTaskBuffer = 256

func newActor(delegate Delegate, logger logrus.FieldLogger) *actor {
	return &actor{
		tasks:          make(chan func(), actorTaskBuffer),
		idToConnection: make(map[int]*Connection),
		delegate:       delegate,
		logger:         logger,
	}
}

// run drains tasks until the channel is closed. Each task runs to
// completion before the next is received, so delegate callbacks never
// interleave with each other.
func (a *actor) run() {
	for task := range a.tasks {
		task()
		a.drainGraveyard()
	}
}

// post enqueues fn to run on the actor goroutine. Callers on any other
// goroutine (accept/read/write loops) should use this; code already
// running as a task (including re-entrant Delegate calls) may also use
// it, relying on actorTaskBuffer to avoid self-deadlock. Returns false
// without running fn once stop has been called — callers that post a
// closure whose only job is to fill a reply channel must check this and
// bail out themselves rather than block forever waiting on a reply that
// will now never come.
func (a *actor) post(fn func()) bool {
	a.closeMu.RLock()
	defer a.closeMu.RUnlock()
	if a.closed {
		return false
	}
	a.tasks <- fn
	return true
}

// stop closes tasks, ending run's loop. Idempotent and safe to call
// concurrently with in-flight posts from other connections' read/write
// loops: it waits for them to finish their send (or see closed and bail)
// before closing the channel underneath them.
func (a *actor) stop() {
	a.closeMu.Lock()
	defer a.closeMu.Unlock()
	if a.closed {
		return
	}
	a.closed = true
	close(a.tasks)
}

// nextID returns the next monotonically increasing connection id.
// Only ever called from within a task.
func (a *actor) nextID() int {
	a.lastID++
	return a.lastID
}

// drainGraveyard clears closedConnections. A closed Connection needs to
// stay reachable until the task that closed it finishes unwinding (a
// Delegate callback further down the same call stack might still look
// it up), so every task's execution ends with this instead of deleting
// eagerly inside closeLocked.
func (a *actor) drainGraveyard() {
	for i := range a.closedConnections {
		a.closedConnections[i] = nil
	}
	a.closedConnections = a.closedConnections[:0]
}
