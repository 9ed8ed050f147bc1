package fleet_test

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"liyu1981.xyz/robot-fleet-service/pkg/fleet"
)

func TestRateLimiterStore_Basic(t *testing.T) {
	store := fleet.NewRateLimiterStore(1, 2)

	limiter := store.GetLimiter("robot1")
	if limiter == nil {
		t.Fatal("expected limiter, got nil")
	}
	if limiter.Limit() != 1 {
		t.Errorf("expected limit 1, got %v", limiter.Limit())
	}
}

func TestRateLimiterStore_CustomLimit(t *testing.T) {
	store := fleet.NewRateLimiterStore(1, 2)

	store.SetLimiter("robot2", 5, 10)
	limiter := store.GetLimiter("robot2")

	if limiter.Limit() != 5 {
		t.Errorf("expected limit 5, got %v", limiter.Limit())
	}
	if limiter.Burst() != 10 {
		t.Errorf("expected burst 10, got %v", limiter.Burst())
	}
}

func TestRateLimiterStore_Concurrency(t *testing.T) {
	store := fleet.NewRateLimiterStore(10, 5)
	key := uuid.NewString()

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if store.GetLimiter(key) == nil {
				t.Error("expected limiter, got nil")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, store.Len())
}

func TestRateLimiter_Enforcement(t *testing.T) {
	store := fleet.NewRateLimiterStore(2, 2)
	key := uuid.NewString()

	assert.True(t, store.Allow(key))
	assert.True(t, store.Allow(key))
	assert.False(t, store.Allow(key), "expected third call to be rate limited")

	time.Sleep(600 * time.Millisecond)
	assert.True(t, store.Allow(key), "expected one token to be available after refill")
}

func TestRateLimiterStore_ForgetAndNil(t *testing.T) {
	store := fleet.NewRateLimiterStore(0, 0)
	key := uuid.NewString()

	assert.False(t, store.Allow(key))
	store.Forget(key)
	assert.Equal(t, 0, store.Len())

	var missing *fleet.RateLimiterStore
	assert.True(t, missing.Allow(key), "a nil store never limits")
	missing.Forget(key)
}
