package server

import (
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

// TestActorStopConcurrentWithPostDoesNotPanic drives post and stop from
// separate goroutines the way a connection's read/write loop and
// Server.Close race in production: stop must never close tasks out from
// under a send already in flight.
func TestActorStopConcurrentWithPostDoesNotPanic(t *testing.T) {
	a := newActor(&fakeDelegate{}, logrus.New())
	go a.run()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.post(func() {})
		}()
	}

	time.Sleep(time.Millisecond)
	a.stop()
	wg.Wait()
}

func TestActorStopIsIdempotent(t *testing.T) {
	a := newActor(&fakeDelegate{}, logrus.New())
	go a.run()
	a.stop()
	assert.NotPanics(t, a.stop)
}

// TestPostAfterStopReturnsFalse guards the contract every reply-channel
// call site in readLoop/writeLoop/wsReadLoop depends on: once stop has
// run, post must report that fn never ran instead of leaving a caller
// blocked forever on a reply that will now never arrive.
func TestPostAfterStopReturnsFalse(t *testing.T) {
	a := newActor(&fakeDelegate{}, logrus.New())
	go a.run()
	a.stop()

	ran := false
	posted := a.post(func() { ran = true })

	assert.False(t, posted)
	assert.False(t, ran)
}
