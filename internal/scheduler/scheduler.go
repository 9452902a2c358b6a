// Package scheduler dispatches a batch of file merge tasks across a
// bounded number of concurrent model calls. Workers never contend on
// files — each task owns one path — so the permit count gates the model
// transport alone, not the whole worker; cheap tasks that resolve
// without a model call never wait on a permit.
package scheduler

import (
	"context"
	"sync"

	"github.com/sean-esk/auto-claude/pkg/models"
)

// Concurrency is the default number of simultaneous model calls allowed,
// matching this engine's bounded-parallelism contract.
const Concurrency = 5

// Work is one unit dispatched by Run: resolve produces the MergeResult
// for the task, and is expected to acquire the given semaphore channel
// only around its own model call(s), not its entire execution.
type Work func(ctx context.Context, permits chan struct{}) models.MergeResult

// Run dispatches work items across a shared semaphore of permits
// permits, preserving input order in the returned slice. If ctx is
// cancelled, in-flight items still report whatever result they produce
// (a cancelled model call typically yields a Failed or heuristic
// outcome via the caller's own ctx handling) and already-completed
// results are retained.
func Run(ctx context.Context, concurrency int, items []Work) []models.MergeResult {
	if concurrency <= 0 {
		concurrency = Concurrency
	}

	results := make([]models.MergeResult, len(items))
	permits := make(chan struct{}, concurrency)

	var wg sync.WaitGroup
	for i, work := range items {
		wg.Add(1)
		go func(i int, work Work) {
			defer wg.Done()
			results[i] = work(ctx, permits)
		}(i, work)
	}
	wg.Wait()

	return results
}

// Acquire takes a permit from permits, respecting ctx cancellation, and
// returns a release function. Workers should wrap only their model call
// in Acquire/release, not their entire Resolve invocation.
func Acquire(ctx context.Context, permits chan struct{}) (release func(), err error) {
	select {
	case permits <- struct{}{}:
		return func() { <-permits }, nil
	case <-ctx.Done():
		return func() {}, ctx.Err()
	}
}
