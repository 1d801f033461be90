package errutil_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/releasebot/pkg/utils/errutil"
)

func TestHandle(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	ctx := ctxlog.With(context.Background(), logger)

	err := goerr.New("broken", goerr.V("version", "1.2.3"))
	errutil.Handle(ctx, "release step failed", err)

	out := buf.String()
	gt.String(t, out).Contains("release step failed")
	gt.String(t, out).Contains("broken")
	gt.String(t, out).Contains(`"version":"1.2.3"`)
}

func TestHandleNil(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	ctx := ctxlog.With(context.Background(), logger)

	errutil.Handle(ctx, "nothing", nil)
	gt.Value(t, buf.Len()).Equal(0)
}

func TestErrorContext(t *testing.T) {
	err := goerr.Wrap(errors.New("upload failed"), "failed to make PyPI release",
		goerr.V("version", "1.1.0"),
		goerr.V("attempt", 2),
	)

	values := errutil.ErrorContext(err)
	gt.Value(t, values["version"]).Equal("1.1.0")
	gt.Value(t, values["attempt"]).Equal(2)

	gt.Number(t, len(errutil.ErrorContext(errors.New("plain")))).Equal(0)
}
