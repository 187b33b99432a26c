package engine

import (
	"sync"
	"testing"
	"time"
)

func TestSessionLocks_SerialisesSameKey(t *testing.T) {
	l := newSessionLocks()

	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.lock("wfs_a")
			defer unlock()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Errorf("max concurrent holders = %d, want 1", maxSeen)
	}
	if n := l.size(); n != 0 {
		t.Errorf("locks left behind: %d", n)
	}
}

func TestSessionLocks_IndependentKeys(t *testing.T) {
	l := newSessionLocks()

	unlockA := l.lock("wfs_a")
	done := make(chan struct{})
	go func() {
		unlockB := l.lock("wfs_b")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on another key blocked")
	}
	if n := l.size(); n != 1 {
		t.Errorf("tracked keys = %d, want 1", n)
	}
	unlockA()
}
