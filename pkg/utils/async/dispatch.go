package async

import (
	"context"
	"runtime/debug"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/releasebot/pkg/utils/errutil"
)

// Dispatch runs handler in a new goroutine and returns a channel closed when
// it has finished. The handler keeps ctx values (such as the logger) but not
// its cancellation, so a side notification outlives the cycle that sent it.
// Errors are handed to errutil.Handle and panics are recovered and logged.
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) <-chan struct{} {
	newCtx := context.WithoutCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				ctxlog.From(newCtx).Error("panic in async handler",
					"recover", r,
					"stack", string(debug.Stack()))
			}
		}()

		if err := handler(newCtx); err != nil {
			errutil.Handle(newCtx, "error in async handler", err)
		}
	}()

	return done
}
