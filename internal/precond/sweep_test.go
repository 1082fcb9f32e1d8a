package precond

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingCheck returns a check that counts its invocations and delegates
// the result to fn.
func countingCheck(count *atomic.Int32, fn CheckFunc) CheckFunc {
	return func(ctx context.Context) Status {
		count.Add(1)
		return fn(ctx)
	}
}

func TestZeroTTLAlwaysReinvokes(t *testing.T) {
	r := NewRepository()
	var calls atomic.Int32
	_, err := r.Register("a", countingCheck(&calls, alwaysSatisfied))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		st, err := r.Evaluate(context.Background(), "a")
		require.NoError(t, err)
		assert.True(t, st.IsSatisfied())
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestSatisfiedTTLCachesUntilExpiry(t *testing.T) {
	r := NewRepository()
	var calls atomic.Int32
	_, err := r.Register("a", countingCheck(&calls, alwaysSatisfied),
		WithSatisfiedTTL(150*time.Millisecond))
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := r.Evaluate(ctx, "a")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), calls.Load(), "calls within the TTL must reuse the result")

	time.Sleep(200 * time.Millisecond)
	_, err = r.Evaluate(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "first call after expiry must re-invoke")
}

func TestFailedTTLCachesFailures(t *testing.T) {
	r := NewRepository()
	var calls atomic.Int32
	_, err := r.Register("a", countingCheck(&calls, alwaysFailed),
		WithFailedTTL(CacheForever))
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		st, err := r.Evaluate(ctx, "a")
		require.NoError(t, err)
		assert.True(t, st.IsFailed())
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestIgnoreCacheBypassesTTL(t *testing.T) {
	r := NewRepository()
	var calls atomic.Int32
	_, err := r.Register("a", countingCheck(&calls, alwaysSatisfied),
		WithSatisfiedTTL(CacheForever))
	require.NoError(t, err)

	ctx := context.Background()
	_, err = r.Evaluate(ctx, "a")
	require.NoError(t, err)
	_, err = r.EvaluateIgnoringCache(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFailedDependencySkipsCheck(t *testing.T) {
	// Spec scenario: A always fails, B depends tightly on A. After a full
	// sweep both are failed and B's check never ran.
	r := NewRepository()
	_, err := r.Register("A", alwaysFailed)
	require.NoError(t, err)

	var bCalls atomic.Int32
	_, err = r.Register("B", countingCheck(&bCalls, alwaysSatisfied), WithDeps(Tight("A")))
	require.NoError(t, err)

	r.EvaluateAll(context.Background())

	a, err := r.Get("A")
	require.NoError(t, err)
	b, err := r.Get("B")
	require.NoError(t, err)
	assert.True(t, a.Status().IsFailed())
	assert.True(t, b.Status().IsFailed())
	assert.Equal(t, "nope", b.Status().Data(), "B inherits A's failure payload")
	assert.Equal(t, int32(0), bCalls.Load())
	assert.False(t, b.LastEvaluatedAt().IsZero(), "short-circuit still counts as an evaluation")
}

func TestFirstDeclaredUnsatisfiedDependencyWins(t *testing.T) {
	r := NewRepository()
	_, err := r.Register("f1", func(ctx context.Context) Status { return Failed("first") })
	require.NoError(t, err)
	_, err = r.Register("f2", func(ctx context.Context) Status { return Failed("second") })
	require.NoError(t, err)
	_, err = r.Register("dep", alwaysSatisfied, WithDeps(Lazy("f1"), Lazy("f2")))
	require.NoError(t, err)

	st, err := r.Evaluate(context.Background(), "dep")
	require.NoError(t, err)
	require.True(t, st.IsFailed())
	assert.Equal(t, "first", st.Data())
}

func TestTightDependentReflectsFailureWithoutEvaluation(t *testing.T) {
	r := NewRepository()
	var fail atomic.Bool
	_, err := r.Register("target", func(ctx context.Context) Status {
		if fail.Load() {
			return Failed("down")
		}
		return Satisfied(nil)
	})
	require.NoError(t, err)

	var depCalls atomic.Int32
	_, err = r.Register("dependent", countingCheck(&depCalls, alwaysSatisfied),
		WithDeps(Tight("target")))
	require.NoError(t, err)

	ctx := context.Background()
	r.EvaluateAll(ctx)
	dep, err := r.Get("dependent")
	require.NoError(t, err)
	require.True(t, dep.Status().IsSatisfied())
	require.Equal(t, int32(1), depCalls.Load())

	// Re-evaluate only the target after it starts failing. The dependent
	// is not part of that sweep yet mirrors the failure immediately.
	fail.Store(true)
	st, err := r.Evaluate(ctx, "target")
	require.NoError(t, err)
	require.True(t, st.IsFailed())

	assert.True(t, dep.Status().IsFailed())
	assert.Equal(t, "down", dep.Status().Data())
	assert.Equal(t, int32(1), depCalls.Load(), "propagation must not re-invoke the dependent")
}

func TestTightFailureCascades(t *testing.T) {
	r := NewRepository()
	var fail atomic.Bool
	_, err := r.Register("root", func(ctx context.Context) Status {
		if fail.Load() {
			return Failed("root down")
		}
		return Satisfied(nil)
	})
	require.NoError(t, err)
	_, err = r.Register("mid", alwaysSatisfied, WithDeps(Tight("root")))
	require.NoError(t, err)
	_, err = r.Register("leaf", alwaysSatisfied, WithDeps(Tight("mid")))
	require.NoError(t, err)

	ctx := context.Background()
	r.EvaluateAll(ctx)

	fail.Store(true)
	_, err = r.Evaluate(ctx, "root")
	require.NoError(t, err)

	leaf, err := r.Get("leaf")
	require.NoError(t, err)
	assert.True(t, leaf.Status().IsFailed())
	assert.Equal(t, "root down", leaf.Status().Data())
}

func TestLazyDependentDoesNotReflectUntilReevaluated(t *testing.T) {
	r := NewRepository()
	var fail atomic.Bool
	_, err := r.Register("target", func(ctx context.Context) Status {
		if fail.Load() {
			return Failed("down")
		}
		return Satisfied(nil)
	})
	require.NoError(t, err)
	_, err = r.Register("dependent", alwaysSatisfied, WithDeps(Lazy("target")))
	require.NoError(t, err)

	ctx := context.Background()
	r.EvaluateAll(ctx)
	dep, err := r.Get("dependent")
	require.NoError(t, err)
	require.True(t, dep.Status().IsSatisfied())

	fail.Store(true)
	_, err = r.Evaluate(ctx, "target")
	require.NoError(t, err)
	assert.True(t, dep.Status().IsSatisfied(), "lazy edge must not propagate eagerly")

	_, err = r.Evaluate(ctx, "dependent")
	require.NoError(t, err)
	assert.True(t, dep.Status().IsFailed(), "re-evaluation observes the failure")
}

func TestOneTimeDependencyInvokedAtMostOnce(t *testing.T) {
	// Spec scenario: a shared counter with an eternal satisfied TTL and two
	// independent one-time dependents. Across any number of sweeps the
	// counter runs exactly once.
	r := NewRepository()
	var counter atomic.Int32
	_, err := r.Register("counter", countingCheck(&counter, alwaysSatisfied),
		WithSatisfiedTTL(CacheForever))
	require.NoError(t, err)
	_, err = r.Register("one", alwaysSatisfied, WithDeps(Once("counter")))
	require.NoError(t, err)
	_, err = r.Register("two", alwaysSatisfied, WithDeps(Once("counter")))
	require.NoError(t, err)

	ctx := context.Background()
	_, err = r.EvaluateIgnoringCache(ctx, "one")
	require.NoError(t, err)
	_, err = r.EvaluateIgnoringCache(ctx, "two")
	require.NoError(t, err)
	_, err = r.EvaluateIgnoringCache(ctx, "one")
	require.NoError(t, err)

	assert.Equal(t, int32(1), counter.Load())

	one, err := r.Get("one")
	require.NoError(t, err)
	require.Len(t, one.Deps(), 1)
	assert.True(t, one.Deps()[0].WasSatisfiedOnce())
}

func TestOneTimeEdgeSurvivesTargetFailure(t *testing.T) {
	r := NewRepository()
	var fail atomic.Bool
	_, err := r.Register("flaky", func(ctx context.Context) Status {
		if fail.Load() {
			return Failed("down")
		}
		return Satisfied(nil)
	})
	require.NoError(t, err)
	_, err = r.Register("dependent", alwaysSatisfied, WithDeps(Once("flaky")))
	require.NoError(t, err)

	ctx := context.Background()
	st, err := r.Evaluate(ctx, "dependent")
	require.NoError(t, err)
	require.True(t, st.IsSatisfied())

	// The edge stays resolved even though the target now fails.
	fail.Store(true)
	_, err = r.Evaluate(ctx, "flaky")
	require.NoError(t, err)

	st, err = r.EvaluateIgnoringCache(ctx, "dependent")
	require.NoError(t, err)
	assert.True(t, st.IsSatisfied())
}

func TestCheckTimeout(t *testing.T) {
	// Spec scenario: a 500ms timeout against an 800ms check fails within
	// roughly the timeout, carrying a timeout indicator.
	r := NewRepository()
	_, err := r.Register("slow", func(ctx context.Context) Status {
		time.Sleep(800 * time.Millisecond)
		return Satisfied(nil)
	}, WithTimeout(500*time.Millisecond))
	require.NoError(t, err)

	start := time.Now()
	st, err := r.Evaluate(context.Background(), "slow")
	require.NoError(t, err)
	elapsed := time.Since(start)

	assert.True(t, st.IsFailed())
	assert.ErrorIs(t, st.Err(), ErrCheckTimeout)
	assert.Less(t, elapsed, 750*time.Millisecond, "timeout must win the race")
}

func TestLateResultAfterTimeoutIsDiscarded(t *testing.T) {
	r := NewRepository()
	release := make(chan struct{})
	_, err := r.Register("slow", func(ctx context.Context) Status {
		<-release
		return Satisfied(nil)
	}, WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	ctx := context.Background()
	st, err := r.Evaluate(ctx, "slow")
	require.NoError(t, err)
	require.ErrorIs(t, st.Err(), ErrCheckTimeout)

	close(release)
	time.Sleep(20 * time.Millisecond)

	n, err := r.Get("slow")
	require.NoError(t, err)
	assert.True(t, n.Status().IsFailed(), "late success must not overwrite the timeout")
}

func TestCheckPanicIsRecovered(t *testing.T) {
	r := NewRepository()
	_, err := r.Register("boom", func(ctx context.Context) Status {
		panic("kaboom")
	})
	require.NoError(t, err)

	st, err := r.Evaluate(context.Background(), "boom")
	require.NoError(t, err)
	assert.True(t, st.IsFailed())
	assert.ErrorIs(t, st.Err(), ErrCheckPanic)
}

func TestEngineInternalReturnIsContractViolation(t *testing.T) {
	r := NewRepository()
	_, err := r.Register("bad", func(ctx context.Context) Status {
		return Running()
	})
	require.NoError(t, err)

	st, err := r.Evaluate(context.Background(), "bad")
	require.NoError(t, err)
	assert.True(t, st.IsFailed())
	assert.ErrorIs(t, st.Err(), ErrBadCheckResult)
}

func TestInitRunsOnceAndRetriesAfterFailure(t *testing.T) {
	r := NewRepository()
	var initCalls, checkCalls atomic.Int32
	failFirst := errors.New("init not ready")
	_, err := r.Register("node", countingCheck(&checkCalls, alwaysSatisfied),
		WithInit(func(ctx context.Context) error {
			if initCalls.Add(1) == 1 {
				return failFirst
			}
			return nil
		}))
	require.NoError(t, err)

	ctx := context.Background()

	// First attempt: init fails, the node fails, the check never runs.
	st, err := r.Evaluate(ctx, "node")
	require.NoError(t, err)
	assert.True(t, st.IsFailed())
	assert.ErrorIs(t, st.Err(), failFirst)
	assert.Equal(t, int32(0), checkCalls.Load())

	// Second attempt: init retried and succeeds, check runs.
	st, err = r.Evaluate(ctx, "node")
	require.NoError(t, err)
	assert.True(t, st.IsSatisfied())

	// Third attempt: init is done for good.
	_, err = r.Evaluate(ctx, "node")
	require.NoError(t, err)
	assert.Equal(t, int32(2), initCalls.Load())
	assert.Equal(t, int32(2), checkCalls.Load())
}

func TestEvaluateUnknownID(t *testing.T) {
	r := NewRepository()
	_, err := r.Evaluate(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUnknownID)
}

func TestSharedDependencyEvaluatedOncePerSweep(t *testing.T) {
	r := NewRepository()
	var calls atomic.Int32
	_, err := r.Register("shared", countingCheck(&calls, alwaysSatisfied))
	require.NoError(t, err)
	_, err = r.Register("left", alwaysSatisfied, WithDeps(Lazy("shared")))
	require.NoError(t, err)
	_, err = r.Register("right", alwaysSatisfied, WithDeps(Lazy("shared")))
	require.NoError(t, err)

	r.EvaluateAll(context.Background())
	assert.Equal(t, int32(1), calls.Load(), "one sweep, one invocation of the shared target")
}

func TestConcurrentEvaluatorsShareOneFlight(t *testing.T) {
	r := NewRepository()
	var calls atomic.Int32
	_, err := r.Register("slow", countingCheck(&calls, func(ctx context.Context) Status {
		time.Sleep(100 * time.Millisecond)
		return Satisfied("shared result")
	}))
	require.NoError(t, err)

	ctx := context.Background()
	var wg sync.WaitGroup
	results := make([]Status, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			st, err := r.Evaluate(ctx, "slow")
			require.NoError(t, err)
			results[i] = st
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load(), "concurrent callers must share one invocation")
	for _, st := range results {
		assert.Equal(t, "shared result", st.Data())
	}
}

func TestConcurrentEvaluateAllSerializesSweeps(t *testing.T) {
	r := NewRepository()
	var calls atomic.Int32
	_, err := r.Register("a", countingCheck(&calls, func(ctx context.Context) Status {
		time.Sleep(50 * time.Millisecond)
		return Satisfied(nil)
	}), WithSatisfiedTTL(CacheForever))
	require.NoError(t, err)

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.EvaluateAll(ctx)
		}()
	}
	wg.Wait()

	// The queued sweep runs after the first and hits the TTL cache, so the
	// invocation count never doubles.
	assert.Equal(t, int32(1), calls.Load())
}

func TestEvaluateAllRunsIndependentNodesConcurrently(t *testing.T) {
	r := NewRepository()
	const nodes = 4
	var running, peak atomic.Int32
	for i := 0; i < nodes; i++ {
		id := ID(rune('a' + i))
		_, err := r.Register(id, func(ctx context.Context) Status {
			cur := running.Add(1)
			for {
				p := peak.Load()
				if cur <= p || peak.CompareAndSwap(p, cur) {
					break
				}
			}
			time.Sleep(50 * time.Millisecond)
			running.Add(-1)
			return Satisfied(nil)
		})
		require.NoError(t, err)
	}

	r.EvaluateAll(context.Background())
	assert.Greater(t, peak.Load(), int32(1), "independent roots must overlap")
}

func TestEvaluateAllReturnsSweepResults(t *testing.T) {
	r := NewRepository()
	_, err := r.Register("good", alwaysSatisfied)
	require.NoError(t, err)
	_, err = r.Register("bad", alwaysFailed)
	require.NoError(t, err)

	results := r.EvaluateAll(context.Background())
	require.Len(t, results, 2)
	assert.True(t, results["good"].IsSatisfied())
	assert.True(t, results["bad"].IsFailed())
}

func TestWorkerLimitStillCompletes(t *testing.T) {
	r := NewRepository(WithWorkers(2))
	_, err := r.Register("base", alwaysSatisfied)
	require.NoError(t, err)
	for _, id := range []ID{"d1", "d2", "d3", "d4", "d5"} {
		_, err := r.Register(id, alwaysSatisfied, WithDeps(Tight("base")))
		require.NoError(t, err)
	}

	results := r.EvaluateAll(context.Background())
	assert.Len(t, results, 6)
	for id, st := range results {
		assert.True(t, st.IsSatisfied(), "node %s", id)
	}
}
