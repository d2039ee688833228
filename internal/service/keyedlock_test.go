package service

import (
	"sync"
	"testing"
)

func TestKeyedMutex_TryLock(t *testing.T) {
	km := newKeyedMutex()

	if !km.TryLock("a") {
		t.Fatal("first TryLock should succeed")
	}
	if km.TryLock("a") {
		t.Fatal("second TryLock on a held key should fail")
	}
	// Other keys are independent.
	if !km.TryLock("b") {
		t.Fatal("TryLock on an unrelated key should succeed")
	}
	km.Unlock("b")

	km.Unlock("a")
	if !km.TryLock("a") {
		t.Fatal("TryLock should succeed again after Unlock")
	}
	km.Unlock("a")
}

func TestKeyedMutex_Serializes(t *testing.T) {
	km := newKeyedMutex()

	const goroutines = 20
	const iterations = 50
	counter := 0

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				km.Lock("shared")
				counter++
				km.Unlock("shared")
			}
		}()
	}
	wg.Wait()

	if counter != goroutines*iterations {
		t.Fatalf("expected %d increments, got %d", goroutines*iterations, counter)
	}
}

func TestKeyedMutex_UnlockUnheldPanics(t *testing.T) {
	km := newKeyedMutex()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic when unlocking an unheld key")
		}
	}()
	km.Unlock("never-locked")
}
