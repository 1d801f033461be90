package usecase

import (
	"context"
	"iter"
)

func WalkNewestFirst[E any](ctx context.Context, fetch func(ctx context.Context, cursor string) ([]E, error), cursorOf func(E) string) iter.Seq2[E, error] {
	return walkNewestFirst(ctx, fetch, cursorOf)
}
