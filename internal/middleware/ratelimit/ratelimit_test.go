package ratelimit

import (
	"testing"
	"time"
)

func TestBurstThenThrottle(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 60, Burst: 3})
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d denied within burst", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("request above burst allowed")
	}
}

func TestBurstDefaultsToRate(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 2})
	defer rl.Stop()

	if !rl.Allow("1.2.3.4") || !rl.Allow("1.2.3.4") {
		t.Fatal("requests within rate denied")
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("third request allowed with burst 2")
	}
}

func TestTokensRefillOverTime(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 60, Burst: 1})
	defer rl.Stop()

	if !rl.Allow("1.2.3.4") {
		t.Fatal("first request denied")
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("empty bucket allowed a request")
	}

	// 60 rpm refills one token per second. Backdate the client instead of
	// sleeping.
	rl.mu.Lock()
	rl.clients["1.2.3.4"].lastSeen = time.Now().Add(-2 * time.Second)
	rl.mu.Unlock()

	if !rl.Allow("1.2.3.4") {
		t.Fatal("refilled bucket denied a request")
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("refill exceeded burst capacity")
	}
}

func TestClientsAreIndependent(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 60, Burst: 1})
	defer rl.Stop()

	if !rl.Allow("1.2.3.4") {
		t.Fatal("first client denied")
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("first client not throttled")
	}
	if !rl.Allow("5.6.7.8") {
		t.Fatal("second client throttled by the first's bucket")
	}
}

func TestCleanupDropsStaleClients(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 60, Burst: 1})
	defer rl.Stop()

	rl.Allow("1.2.3.4")
	if got := rl.ActiveClients(); got != 1 {
		t.Fatalf("active clients = %d, want 1", got)
	}

	rl.mu.Lock()
	rl.clients["1.2.3.4"].lastSeen = time.Now().Add(-time.Hour)
	rl.mu.Unlock()

	rl.cleanupStaleEntries()
	if got := rl.ActiveClients(); got != 0 {
		t.Fatalf("active clients after cleanup = %d, want 0", got)
	}
}
