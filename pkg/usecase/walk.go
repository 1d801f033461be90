package usecase

import (
	"context"
	"iter"
)

// pageFetcher fetches the page of edges that ends right before cursor. An
// empty cursor fetches the newest page. Edges in a page are in ascending
// order.
type pageFetcher[E any] func(ctx context.Context, cursor string) ([]E, error)

// walkNewestFirst lazily walks a GitHub connection from its newest edge to its
// oldest one. Within a page edges are visited in reverse; the cursor of the
// last visited (oldest) edge requests the next, older page. An empty page ends
// the walk. A fetch error is yielded once and ends the walk.
func walkNewestFirst[E any](ctx context.Context, fetch pageFetcher[E], cursorOf func(E) string) iter.Seq2[E, error] {
	return func(yield func(E, error) bool) {
		cursor := ""
		for {
			page, err := fetch(ctx, cursor)
			if err != nil {
				var zero E
				yield(zero, err)
				return
			}
			if len(page) == 0 {
				return
			}

			for i := len(page) - 1; i >= 0; i-- {
				cursor = cursorOf(page[i])
				if !yield(page[i], nil) {
					return
				}
			}
		}
	}
}
