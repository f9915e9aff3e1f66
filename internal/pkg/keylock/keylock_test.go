package keylock

import (
	"sync"
	"testing"
)

func TestSerializesSameKey(t *testing.T) {
	k := New()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			k.Lock("user-1")
			defer k.Unlock("user-1")
			counter++
		}()
	}
	wg.Wait()

	if counter != 100 {
		t.Errorf("counter = %d, want 100", counter)
	}
}

func TestIndependentKeysDoNotBlock(t *testing.T) {
	k := New()
	k.Lock("a")
	defer k.Unlock("a")

	done := make(chan struct{})
	go func() {
		k.Lock("b")
		k.Unlock("b")
		close(done)
	}()

	<-done // would deadlock if "b" waited on "a"
}

func TestEntryIsReleased(t *testing.T) {
	k := New()
	k.Lock("a")
	k.Unlock("a")

	k.mu.Lock()
	defer k.mu.Unlock()
	if len(k.locks) != 0 {
		t.Errorf("locks map still holds %d entries", len(k.locks))
	}
}
