package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sean-esk/auto-claude/pkg/models"
)

func TestRun_PreservesOrder(t *testing.T) {
	items := make([]Work, 5)
	for i := 0; i < 5; i++ {
		i := i
		items[i] = func(ctx context.Context, permits chan struct{}) models.MergeResult {
			return models.MergeResult{Path: string(rune('a' + i))}
		}
	}

	results := Run(context.Background(), 2, items)
	for i, r := range results {
		if r.Path != string(rune('a'+i)) {
			t.Errorf("result[%d].Path = %q, want %q", i, r.Path, string(rune('a'+i)))
		}
	}
}

func TestRun_BoundsConcurrentPermits(t *testing.T) {
	const concurrency = 3
	var active int32
	var maxActive int32

	items := make([]Work, 10)
	for i := range items {
		items[i] = func(ctx context.Context, permits chan struct{}) models.MergeResult {
			release, err := Acquire(ctx, permits)
			if err != nil {
				return models.MergeResult{Outcome: models.OutcomeFailed, Error: err.Error()}
			}
			defer release()

			n := atomic.AddInt32(&active, 1)
			for {
				old := atomic.LoadInt32(&maxActive)
				if n <= old || atomic.CompareAndSwapInt32(&maxActive, old, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&active, -1)
			return models.MergeResult{Outcome: models.OutcomeClean}
		}
	}

	Run(context.Background(), concurrency, items)

	if maxActive > concurrency {
		t.Errorf("max concurrent permits = %d, want <= %d", maxActive, concurrency)
	}
}

func TestRun_DefaultsConcurrencyWhenNonPositive(t *testing.T) {
	items := []Work{
		func(ctx context.Context, permits chan struct{}) models.MergeResult {
			return models.MergeResult{Outcome: models.OutcomeClean}
		},
	}
	results := Run(context.Background(), 0, items)
	if len(results) != 1 || results[0].Outcome != models.OutcomeClean {
		t.Errorf("unexpected results: %+v", results)
	}
}

func TestAcquire_RespectsCancellation(t *testing.T) {
	permits := make(chan struct{}, 1)
	permits <- struct{}{} // fill the only slot

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Acquire(ctx, permits)
	if err == nil {
		t.Error("expected error from cancelled context")
	}
}
