package edinet

import (
	"math/rand/v2"
	"time"
)

type retryState string

const (
	retryAttempting  retryState = "attempting"
	retryBackoff     retryState = "backoff"
	retrySucceeded   retryState = "succeeded"
	retryExhausted   retryState = "exhausted"
	retryFailedFatal retryState = "failed_fatal"
)

const backoffCap = 30 * time.Second

// retryMachine drives one logical request through its attempts. Observe
// classifies the attempt outcome and transitions; Resume re-arms after a
// backoff. Succeeded, Exhausted and FailedFatal are terminal.
type retryMachine struct {
	maxAttempts int
	baseDelay   time.Duration
	jitter      func(step time.Duration) time.Duration

	attempt int
	state   retryState
	lastErr error
}

func newRetryMachine(maxAttempts int, baseDelay time.Duration) *retryMachine {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	return &retryMachine{
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		jitter:      defaultJitter,
		attempt:     1,
		state:       retryAttempting,
	}
}

func defaultJitter(step time.Duration) time.Duration {
	if step <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(step)/2 + 1))
}

func (m *retryMachine) State() retryState { return m.state }

// Attempt is the 1-based number of the attempt currently in flight (or just
// observed).
func (m *retryMachine) Attempt() int { return m.attempt }

func (m *retryMachine) LastErr() error { return m.lastErr }

// Observe records the outcome of the current attempt and returns the next
// state.
func (m *retryMachine) Observe(err error) retryState {
	if m.state != retryAttempting {
		return m.state
	}

	if err == nil {
		m.state = retrySucceeded
		return m.state
	}

	m.lastErr = err
	if !retryableKind(Classify(err)) {
		m.state = retryFailedFatal
		return m.state
	}
	if m.attempt >= m.maxAttempts {
		m.state = retryExhausted
		return m.state
	}

	m.state = retryBackoff
	return m.state
}

// BackoffDelay is the wait before the next attempt: exponential in the
// attempt number with random jitter, capped.
func (m *retryMachine) BackoffDelay() time.Duration {
	step := m.baseDelay << (m.attempt - 1)
	if step > backoffCap || step <= 0 {
		step = backoffCap
	}
	delay := step + m.jitter(step)
	if delay > backoffCap {
		delay = backoffCap
	}
	return delay
}

// Resume transitions Backoff back to Attempting for the next attempt.
func (m *retryMachine) Resume() {
	if m.state != retryBackoff {
		return
	}
	m.attempt++
	m.state = retryAttempting
}
