package errutil

import (
	"context"
	"errors"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
)

// Handle logs err and, when a Sentry client is configured, reports it. It is
// used where an error cannot be returned to a caller any more.
func Handle(ctx context.Context, msg string, err error) {
	if err == nil {
		return
	}

	logger := ctxlog.From(ctx)

	attrs := []any{"error", err}
	var goErr *goerr.Error
	if errors.As(err, &goErr) {
		for k, v := range goErr.Values() {
			attrs = append(attrs, k, v)
		}
	}
	logger.Error(msg, attrs...)

	hub := sentry.CurrentHub()
	if hub.Client() == nil {
		return
	}

	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("message", msg)
		if values := errorContext(err); len(values) > 0 {
			scope.SetContext("goerr", values)
		}
		evID := hub.CaptureException(err)
		if evID != nil {
			logger.Debug("Sent error to sentry", "event_id", *evID)
		}
	})
}

// errorContext collects the values attached to err for a Sentry event
func errorContext(err error) sentry.Context {
	var goErr *goerr.Error
	if !errors.As(err, &goErr) {
		return nil
	}

	values := sentry.Context{}
	for k, v := range goErr.Values() {
		values[k] = v
	}
	return values
}
