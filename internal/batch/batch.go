// Package batch runs a set of independent per-node operations and reports
// which of them succeeded. A failing item never stops or undoes the others.
package batch

import (
	"context"
	"fmt"
	"log/slog"

	"droply/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"
)

var itemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "droply_batch_items_total",
	Help: "Items processed by bulk operations, by operation and outcome.",
}, []string{"operation", "outcome"})

type Failure struct {
	ID     string `json:"id"`
	Code   string `json:"code" example:"not_found"`
	Reason string `json:"reason"`
}

type Result struct {
	Succeeded []string  `json:"succeeded"`
	Failed    []Failure `json:"failed"`
}

func (r Result) Total() int {
	return len(r.Succeeded) + len(r.Failed)
}

type Item struct {
	ID  string
	Run func(ctx context.Context) error
}

type Coordinator struct {
	limit  int
	logger *slog.Logger
}

// New returns a coordinator. limit caps concurrently running items; zero means no cap.
func New(limit int, logger *slog.Logger) *Coordinator {
	return &Coordinator{limit: limit, logger: logger}
}

// Run executes every item and waits for all of them. Items run on a context
// that is not cancelled with ctx: once a batch starts, every item is attempted.
// Succeeded and Failed keep the input order.
func (c *Coordinator) Run(ctx context.Context, operation string, items []Item) Result {
	runCtx := context.WithoutCancel(ctx)
	errs := make([]error, len(items))

	var g errgroup.Group
	if c.limit > 0 {
		g.SetLimit(c.limit)
	}

	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			errs[i] = safeRun(runCtx, item)
			return nil
		})
	}
	g.Wait()

	result := Result{Succeeded: []string{}, Failed: []Failure{}}
	for i, item := range items {
		err := errs[i]
		if err == nil {
			result.Succeeded = append(result.Succeeded, item.ID)
			itemsTotal.WithLabelValues(operation, "success").Inc()
			continue
		}

		code := models.Code(err)
		reason := err.Error()
		if code == "internal" {
			c.logger.ErrorContext(ctx, "batch item failed", "operation", operation, "id", item.ID, "error", err)
			reason = "internal error"
		}
		result.Failed = append(result.Failed, Failure{ID: item.ID, Code: code, Reason: reason})
		itemsTotal.WithLabelValues(operation, code).Inc()
	}

	return result
}

func safeRun(ctx context.Context, item Item) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return item.Run(ctx)
}
