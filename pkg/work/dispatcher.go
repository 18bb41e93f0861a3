package work

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/texneat/texneat/pkg/logger"
)

// Strategy selects how work items are executed
type Strategy string

const (
	StrategySequential Strategy = "sequential"
	StrategyParallel   Strategy = "parallel"
)

// ParseStrategy validates a strategy flag value
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategySequential, StrategyParallel:
		return Strategy(s), nil
	case "":
		return StrategySequential, nil
	default:
		return "", fmt.Errorf("unknown strategy %q (want sequential or parallel)", s)
	}
}

// Processor handles a single work item. Implementations must be safe for
// concurrent use when dispatched with the parallel strategy.
type Processor func(ctx context.Context, item WorkItem) error

// Dispatcher executes a set of work items with a chosen strategy
type Dispatcher struct {
	Strategy Strategy
	Workers  int // parallel strategy only; 0 means NumCPU
}

// NewDispatcher creates a dispatcher for the given strategy
func NewDispatcher(strategy Strategy) *Dispatcher {
	return &Dispatcher{Strategy: strategy}
}

// ItemError pairs a failed work item with its error
type ItemError struct {
	Item WorkItem
	Err  error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("%s: %v", e.Item.Path, e.Err)
}

func (e ItemError) Unwrap() error { return e.Err }

// Execute runs fn over every item. Per-item failures are collected rather
// than aborting the batch; the returned slice preserves item order. Only a
// canceled context stops execution early.
func (d *Dispatcher) Execute(ctx context.Context, items []WorkItem, fn Processor) ([]ItemError, error) {
	if d.Strategy == StrategyParallel {
		return d.executeParallel(ctx, items, fn)
	}
	return d.executeSequential(ctx, items, fn)
}

func (d *Dispatcher) executeSequential(ctx context.Context, items []WorkItem, fn Processor) ([]ItemError, error) {
	var failures []ItemError
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return failures, err
		}
		if err := fn(ctx, item); err != nil {
			logger.Warn(fmt.Sprintf("processing failed: %s: %v", item.Path, err))
			failures = append(failures, ItemError{Item: item, Err: err})
		}
	}
	return failures, nil
}

func (d *Dispatcher) executeParallel(ctx context.Context, items []WorkItem, fn Processor) ([]ItemError, error) {
	workers := d.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	errs := make([]error, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			errs[i] = fn(gctx, item)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var failures []ItemError
	for i, err := range errs {
		if err != nil {
			logger.Warn(fmt.Sprintf("processing failed: %s: %v", items[i].Path, err))
			failures = append(failures, ItemError{Item: items[i], Err: err})
		}
	}
	return failures, nil
}
