// internal/wait/wait.go
package wait

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Defaults used when Options leaves a field at zero.
const (
	DefaultTimeout      = 5 * time.Second
	DefaultPollInterval = 100 * time.Millisecond
)

// ErrPollTimeout is matched by every *PollTimeoutError via errors.Is.
var ErrPollTimeout = errors.New("poll timed out")

// Options bounds one polling call. Non-positive values fall back to the defaults.
// A PollInterval longer than Timeout results in a single attempt.
type Options struct {
	Timeout      time.Duration
	PollInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	return o
}

// Predicate reports whether a condition currently holds. A returned error is
// treated the same as false.
type Predicate func(ctx context.Context) (bool, error)

// Operation produces a value. The bool reports whether the value is present;
// an absent value or an error means "try again".
type Operation[T any] func(ctx context.Context) (T, bool, error)

// PollTimeoutError is returned when the timeout elapsed without the probe
// succeeding. LastErr is the most recent probe error, if any.
type PollTimeoutError struct {
	Timeout  time.Duration
	Elapsed  time.Duration
	Attempts int
	LastErr  error
}

func (e *PollTimeoutError) Error() string {
	msg := fmt.Sprintf("condition not met within %dms (%d attempts)", e.Timeout.Milliseconds(), e.Attempts)
	if e.LastErr != nil {
		msg += ": last error: " + e.LastErr.Error()
	}
	return msg
}

func (e *PollTimeoutError) Unwrap() error { return e.LastErr }

func (e *PollTimeoutError) Is(target error) bool { return target == ErrPollTimeout }

// IsTimeout reports whether err is, or wraps, a polling timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrPollTimeout)
}

// Until evaluates predicate until it returns true or opts.Timeout elapses.
func Until(ctx context.Context, predicate Predicate, opts Options) error {
	_, err := poll(ctx, func(ctx context.Context) outcome[struct{}] {
		ok, err := predicate(ctx)
		if err != nil {
			return notReady[struct{}](err)
		}
		if !ok {
			return notReady[struct{}](nil)
		}
		return ready(struct{}{})
	}, opts)
	return err
}

// ForResult evaluates operation until it yields a present value or
// opts.Timeout elapses. The first present value is returned immediately.
func ForResult[T any](ctx context.Context, operation Operation[T], opts Options) (T, error) {
	return poll(ctx, func(ctx context.Context) outcome[T] {
		v, present, err := operation(ctx)
		if err != nil {
			return notReady[T](err)
		}
		if !present {
			return notReady[T](nil)
		}
		return ready(v)
	}, opts)
}

// outcome is the result of one probe: either a value, or not-yet-ready with
// the error (possibly nil) that caused it.
type outcome[T any] struct {
	value T
	ok    bool
	err   error
}

func ready[T any](v T) outcome[T] { return outcome[T]{value: v, ok: true} }

func notReady[T any](err error) outcome[T] { return outcome[T]{err: err} }

// poll is the loop shared by Until and ForResult. Elapsed time, not the number
// of attempts, bounds it. Probes receive a context that expires at the
// overall deadline so a blocking probe cannot outlive the poll.
func poll[T any](ctx context.Context, probe func(context.Context) outcome[T], opts Options) (T, error) {
	opts = opts.withDefaults()

	var (
		zero     T
		lastErr  error
		attempts int
	)

	start := time.Now()
	probeCtx, cancel := context.WithDeadline(ctx, start.Add(opts.Timeout))
	defer cancel()

	timeout := func() (T, error) {
		return zero, &PollTimeoutError{
			Timeout:  opts.Timeout,
			Elapsed:  time.Since(start),
			Attempts: attempts,
			LastErr:  lastErr,
		}
	}

	for {
		attempts++
		res := probe(probeCtx)
		if res.ok {
			return res.value, nil
		}
		if res.err != nil {
			lastErr = res.err
		}

		remaining := opts.Timeout - time.Since(start)
		if remaining <= 0 {
			return timeout()
		}

		if err := sleep(ctx, min(opts.PollInterval, remaining)); err != nil {
			return zero, fmt.Errorf("polling aborted after %d attempts: %w", attempts, err)
		}

		if time.Since(start) >= opts.Timeout {
			return timeout()
		}
	}
}

// sleep blocks for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
