package shared

import (
	"context"
	"errors"
	"time"

	"github.com/sourcegraph/conc"
)

const defaultPollInterval = time.Second

// PollTask fetches one snapshot on every tick.
type PollTask[T any] struct {
	Name     string
	Interval time.Duration
	Fetch    func(ctx context.Context) (T, error)
}

// Snapshot is one successful fetch.
type Snapshot[T any] struct {
	Name  string
	Value T
	At    time.Time
}

// PollError reports a failed fetch. Polling of the task continues.
type PollError struct {
	Name string
	Err  error
}

func (e *PollError) Error() string { return e.Name + ": " + e.Err.Error() }

func (e *PollError) Unwrap() error { return e.Err }

// Poller runs fetch tasks on their own intervals.
type Poller[T any] struct {
	clock Clock
}

// NewPoller builds a poller. A nil clock uses time.Now.
func NewPoller[T any](clock Clock) *Poller[T] {
	if clock == nil {
		clock = time.Now
	}
	return &Poller[T]{clock: clock}
}

// Poll fetches every task once immediately and then once per interval until
// ctx is done. Both channels are closed after every task goroutine returns.
// Errors are dropped when the error channel is full.
func (p *Poller[T]) Poll(ctx context.Context, tasks []PollTask[T]) (<-chan Snapshot[T], <-chan error) {
	snapshots := make(chan Snapshot[T])
	errs := make(chan error, len(tasks))

	if len(tasks) == 0 {
		close(snapshots)
		close(errs)
		return snapshots, errs
	}

	var wg conc.WaitGroup
	for _, task := range tasks {
		if task.Interval <= 0 {
			task.Interval = defaultPollInterval
		}
		wg.Go(func() {
			ticker := time.NewTicker(task.Interval)
			defer ticker.Stop()
			for {
				value, err := task.Fetch(ctx)
				if err != nil {
					if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
						return
					}
					select {
					case errs <- &PollError{Name: task.Name, Err: err}:
					default:
					}
				} else {
					select {
					case <-ctx.Done():
						return
					case snapshots <- Snapshot[T]{Name: task.Name, Value: value, At: p.clock().UTC()}:
					}
				}
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
			}
		})
	}

	go func() {
		wg.Wait()
		close(snapshots)
		close(errs)
	}()

	return snapshots, errs
}
