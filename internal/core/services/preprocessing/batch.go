package preprocessing

import (
	"context"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/alejandroruanova/preprocessing-service/internal/pkg/errors"
)

// ItemResult is the outcome of one batch element
type ItemResult struct {
	Index  int
	Result Result
	Err    error
}

// BatchResult holds one ItemResult per input, in input order
type BatchResult struct {
	Items     []ItemResult
	Processed int
	Filtered  int
	Failed    int
}

// Texts returns the normalized texts in input order. Filtered and failed
// items yield an empty string.
func (b *BatchResult) Texts() []string {
	out := make([]string, len(b.Items))
	for i, item := range b.Items {
		if item.Err == nil {
			out[i] = item.Result.Text
		}
	}
	return out
}

// FailedIndices returns the indices of items that failed
func (b *BatchResult) FailedIndices() []int {
	var out []int
	for _, item := range b.Items {
		if item.Err != nil {
			out = append(out, item.Index)
		}
	}
	return out
}

// NormalizeBatch runs the pipeline on every text with one shared configuration.
// Invalid options fail the whole batch before any item runs. Item failures
// are recorded on the item and never affect siblings.
func (p *Pipeline) NormalizeBatch(ctx context.Context, texts []string, opts Options) (*BatchResult, error) {
	plan, err := p.Compile(opts)
	if err != nil {
		return nil, err
	}
	return plan.RunBatch(ctx, texts, p.workers), nil
}

// RunBatch applies the plan to each text with at most workers items in flight
func (pl *Plan) RunBatch(ctx context.Context, texts []string, workers int) *BatchResult {
	items := make([]ItemResult, len(texts))

	// The group only bounds concurrency. Item errors are recorded on items,
	// so no goroutine returns one and Wait always yields nil.
	var g errgroup.Group
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i, text := range texts {
		g.Go(func() error {
			items[i] = pl.runItem(ctx, i, text)
			return nil
		})
	}
	_ = g.Wait()

	res := &BatchResult{Items: items}
	for _, item := range items {
		switch {
		case item.Err != nil:
			res.Failed++
		case item.Result.Filtered:
			res.Filtered++
		default:
			res.Processed++
		}
	}

	return res
}

func (pl *Plan) runItem(ctx context.Context, index int, text string) ItemResult {
	item := ItemResult{Index: index}

	if err := ctx.Err(); err != nil {
		item.Err = apperrors.ItemFailed(err, index)
		return item
	}

	result, err := pl.Run(text)
	if err != nil {
		item.Err = apperrors.ItemFailed(err, index)
		return item
	}

	item.Result = result
	return item
}
