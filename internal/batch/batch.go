// Package batch runs an operation over fixed-size slices of a sequence,
// pausing between slices to stay under an upstream rate limit.
package batch

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Sleeper pauses for d or until ctx is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to Sleeper.
type SleeperFunc func(ctx context.Context, d time.Duration) error

// Sleep calls f(ctx, d).
func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}

// RealSleeper waits on a timer.
var RealSleeper Sleeper = SleeperFunc(func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
})

// Config controls batching.
type Config struct {
	// Size is the number of items per batch. Must be positive.
	Size int

	// Interval is the pause between consecutive batches. No pause
	// follows the last batch.
	Interval time.Duration

	// Sleeper defaults to RealSleeper.
	Sleeper Sleeper
}

// Batch is one slice of the input handed to the operation.
type Batch[T any] struct {
	Index  int // zero-based
	Total  int
	Offset int // position of Items[0] in the input
	Items  []T
}

// Result summarizes a run.
type Result struct {
	Batches  int
	Failures []error
}

// AllFailed reports whether at least one batch ran and every batch failed.
func (r Result) AllFailed() bool {
	return r.Batches > 0 && len(r.Failures) == r.Batches
}

// ErrInvalidSize is returned when Config.Size is not positive.
var ErrInvalidSize = errors.New("batch size must be positive")

// Each calls fn for every batch of items in order. A failing batch is
// recorded in Result.Failures and does not stop the run. The returned
// error is non-nil only for an invalid config or when ctx is cancelled,
// in which case Result covers the batches that ran.
func Each[T any](
	ctx context.Context,
	cfg Config,
	items []T,
	fn func(ctx context.Context, b Batch[T]) error,
) (Result, error) {
	if cfg.Size <= 0 {
		return Result{}, ErrInvalidSize
	}
	sleeper := cfg.Sleeper
	if sleeper == nil {
		sleeper = RealSleeper
	}

	total := (len(items) + cfg.Size - 1) / cfg.Size
	var res Result

	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		start := i * cfg.Size
		end := min(start+cfg.Size, len(items))

		res.Batches++
		err := fn(ctx, Batch[T]{
			Index:  i,
			Total:  total,
			Offset: start,
			Items:  items[start:end],
		})
		if err != nil {
			res.Failures = append(res.Failures, fmt.Errorf("batch %d/%d: %w", i+1, total, err))
		}

		if i < total-1 {
			if err := sleeper.Sleep(ctx, cfg.Interval); err != nil {
				return res, err
			}
		}
	}

	return res, nil
}
