package sleepy

import (
	"context"
	"encoding/json"
	"iter"
)

// Documents runs a find and follows the cursor with more until the gateway
// returns an empty batch or a zero id. Iteration stops at the first error,
// including a reply with ok = 0.
func (c *Client) Documents(ctx context.Context, db, coll string, opts *FindOptions) iter.Seq2[json.RawMessage, error] {
	return func(yield func(json.RawMessage, error) bool) {
		res, err := c.Find(ctx, db, coll, opts)
		batchSize := 0
		if opts != nil {
			batchSize = opts.BatchSize
		}
		for {
			if err == nil {
				err = res.Err()
			}
			if err != nil {
				yield(nil, err)
				return
			}
			for _, doc := range res.Results {
				if !yield(doc, nil) {
					return
				}
			}
			if res.ID == 0 || len(res.Results) == 0 {
				return
			}
			res, err = c.More(ctx, db, coll, MoreOptions{ID: res.ID, BatchSize: batchSize})
		}
	}
}
