package edinet

import (
	"fmt"
	"testing"
	"time"
)

func TestRetryMachine_TransientFailureThenSuccess(t *testing.T) {
	t.Parallel()

	machine := newRetryMachine(3, time.Second)
	if machine.State() != retryAttempting {
		t.Fatalf("expected initial state attempting, got=%s", machine.State())
	}
	if machine.Attempt() != 1 {
		t.Fatalf("expected first attempt, got=%d", machine.Attempt())
	}

	transient := fmt.Errorf("%w: status=503", ErrTransientNetwork)
	if state := machine.Observe(transient); state != retryBackoff {
		t.Fatalf("expected backoff after transient failure, got=%s", state)
	}

	machine.Resume()
	if machine.State() != retryAttempting {
		t.Fatalf("expected attempting after resume, got=%s", machine.State())
	}
	if machine.Attempt() != 2 {
		t.Fatalf("expected second attempt, got=%d", machine.Attempt())
	}

	if state := machine.Observe(nil); state != retrySucceeded {
		t.Fatalf("expected succeeded, got=%s", state)
	}
}

func TestRetryMachine_ExhaustsAtMaxAttempts(t *testing.T) {
	t.Parallel()

	machine := newRetryMachine(2, time.Second)
	rateLimited := fmt.Errorf("%w: status=429", ErrRateLimit)

	if state := machine.Observe(rateLimited); state != retryBackoff {
		t.Fatalf("expected backoff, got=%s", state)
	}
	machine.Resume()

	if state := machine.Observe(rateLimited); state != retryExhausted {
		t.Fatalf("expected exhausted on final attempt, got=%s", state)
	}
	if machine.Attempt() != 2 {
		t.Fatalf("expected attempt count 2, got=%d", machine.Attempt())
	}
	if machine.LastErr() == nil {
		t.Fatalf("expected last error to be recorded")
	}
}

func TestRetryMachine_FatalFailureStopsImmediately(t *testing.T) {
	t.Parallel()

	machine := newRetryMachine(5, time.Second)
	authErr := fmt.Errorf("%w: status=401", ErrAuth)

	if state := machine.Observe(authErr); state != retryFailedFatal {
		t.Fatalf("expected failed_fatal for auth error, got=%s", state)
	}
	if machine.Attempt() != 1 {
		t.Fatalf("expected no further attempts, got=%d", machine.Attempt())
	}

	// Terminal states are sticky.
	if state := machine.Observe(nil); state != retryFailedFatal {
		t.Fatalf("expected terminal state to hold, got=%s", state)
	}
}

func TestRetryMachine_BackoffGrowsExponentiallyAndCaps(t *testing.T) {
	t.Parallel()

	machine := newRetryMachine(8, time.Second)
	machine.jitter = func(time.Duration) time.Duration { return 0 }

	transient := fmt.Errorf("%w: connection reset", ErrTransientNetwork)
	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second,
		30 * time.Second,
	}

	for i, expected := range want {
		if state := machine.Observe(transient); state != retryBackoff {
			t.Fatalf("step %d: expected backoff, got=%s", i, state)
		}
		if delay := machine.BackoffDelay(); delay != expected {
			t.Fatalf("step %d: expected delay=%s, got=%s", i, expected, delay)
		}
		machine.Resume()
	}
}

func TestRetryMachine_JitterStaysWithinHalfStep(t *testing.T) {
	t.Parallel()

	step := 8 * time.Second
	for i := 0; i < 200; i++ {
		jittered := defaultJitter(step)
		if jittered < 0 || jittered > step/2 {
			t.Fatalf("jitter out of range: %s", jittered)
		}
	}
}
