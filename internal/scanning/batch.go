package scanning

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Input is one receipt of a batch
type Input struct {
	Name        string
	Data        []byte
	ContentType string
}

// Result is the outcome of one batch input
type Result struct {
	Name string       `json:"name"`
	Data *ReceiptData `json:"data,omitempty"`
	Err  error        `json:"-"`
}

// ExtractBatch extracts every input independently, running at most
// concurrency extractions at once (unbounded when concurrency <= 0).
// Results are in input order; a failed input does not stop the others.
func ExtractBatch(ctx context.Context, extractor Extractor, inputs []Input, concurrency int) []Result {
	results := make([]Result, len(inputs))

	var g errgroup.Group
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, in := range inputs {
		g.Go(func() error {
			data, err := extractor.Extract(ctx, in.Data, in.ContentType)
			results[i] = Result{Name: in.Name, Data: data, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
