package policy_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/byteness/travelgate/policy"
)

// mockLoader is a test double for PolicyLoader that tracks call counts.
type mockLoader struct {
	policy    *policy.TravelPolicy
	err       error
	callCount atomic.Int32
}

func (m *mockLoader) Load(ctx context.Context, name string) (*policy.TravelPolicy, error) {
	m.callCount.Add(1)
	return m.policy, m.err
}

func TestCachedLoader_CacheHit(t *testing.T) {
	mock := &mockLoader{policy: policy.DefaultPolicy()}
	cached := policy.NewCachedLoader(mock, time.Minute)
	ctx := context.Background()

	p1, err := cached.Load(ctx, "/travel/policy")
	if err != nil {
		t.Fatalf("first Load: unexpected error: %v", err)
	}
	p2, err := cached.Load(ctx, "/travel/policy")
	if err != nil {
		t.Fatalf("second Load: unexpected error: %v", err)
	}

	if n := mock.callCount.Load(); n != 1 {
		t.Errorf("callCount = %d, want 1 (cache hit)", n)
	}
	if p1 != p2 {
		t.Error("cache hit should return same policy pointer")
	}
}

func TestCachedLoader_CacheExpiry(t *testing.T) {
	mock := &mockLoader{policy: policy.DefaultPolicy()}
	cached := policy.NewCachedLoader(mock, time.Millisecond)
	ctx := context.Background()

	if _, err := cached.Load(ctx, "/travel/policy"); err != nil {
		t.Fatalf("first Load: unexpected error: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := cached.Load(ctx, "/travel/policy"); err != nil {
		t.Fatalf("second Load: unexpected error: %v", err)
	}

	if n := mock.callCount.Load(); n != 2 {
		t.Errorf("callCount = %d, want 2 (expired)", n)
	}
}

func TestCachedLoader_ErrorsNotCached(t *testing.T) {
	mock := &mockLoader{err: errors.New("ssm unavailable")}
	cached := policy.NewCachedLoader(mock, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := cached.Load(ctx, "/travel/policy"); err == nil {
			t.Fatal("Load() should return loader error")
		}
	}
	if n := mock.callCount.Load(); n != 2 {
		t.Errorf("callCount = %d, want 2 (errors not cached)", n)
	}
}

func TestCachedLoader_Concurrent(t *testing.T) {
	mock := &mockLoader{policy: policy.DefaultPolicy()}
	cached := policy.NewCachedLoader(mock, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cached.Load(context.Background(), "/travel/policy"); err != nil {
				t.Errorf("Load() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if n := mock.callCount.Load(); n != 1 {
		t.Errorf("callCount = %d, want 1", n)
	}
}
