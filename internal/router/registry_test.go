package router

import (
	"sync"
	"testing"
	"time"
)

func TestBreakerRegistry_LazyCreation(t *testing.T) {
	reg := NewBreakerRegistry(5, time.Minute)

	cb := reg.Get("openai")
	if cb == nil {
		t.Fatal("expected breaker to be created")
	}
	if reg.Get("openai") != cb {
		t.Error("expected same breaker instance on second Get")
	}
}

func TestBreakerRegistry_IsAvailable(t *testing.T) {
	reg := NewBreakerRegistry(2, time.Minute)

	if !reg.IsAvailable("anthropic") {
		t.Error("expected new provider to be available")
	}

	reg.RecordFailure("anthropic")
	reg.RecordFailure("anthropic")
	if reg.IsAvailable("anthropic") {
		t.Error("expected provider unavailable after threshold failures")
	}

	// Other providers are unaffected
	if !reg.IsAvailable("openai") {
		t.Error("expected openai to remain available")
	}
}

func TestBreakerRegistry_RecordSuccessResets(t *testing.T) {
	reg := NewBreakerRegistry(2, time.Minute)

	reg.RecordFailure("stability")
	reg.RecordSuccess("stability")
	reg.RecordFailure("stability")

	if !reg.IsAvailable("stability") {
		t.Error("expected provider available (failures not consecutive)")
	}
}

func TestBreakerRegistry_States(t *testing.T) {
	reg := NewBreakerRegistry(1, time.Minute)

	reg.Get("openai")
	reg.RecordFailure("anthropic")

	states := reg.States()
	if states["openai"] != "closed" {
		t.Errorf("expected openai closed, got %s", states["openai"])
	}
	if states["anthropic"] != "open" {
		t.Errorf("expected anthropic open, got %s", states["anthropic"])
	}
}

func TestBreakerRegistry_ConcurrentAccess(t *testing.T) {
	reg := NewBreakerRegistry(100, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				reg.RecordFailure("shared")
				reg.IsAvailable("shared")
				reg.RecordSuccess("shared")
			}
		}()
	}
	wg.Wait()

	if !reg.IsAvailable("shared") {
		// threshold 100 consecutive failures should never be hit with
		// interleaved successes
		t.Error("expected provider to remain available")
	}
}
