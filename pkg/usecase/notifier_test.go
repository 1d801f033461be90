package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/releasebot/pkg/usecase"
)

func TestNotifier_Flush(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing to flush", func(t *testing.T) {
		hosting := newFakeHosting("")
		n := usecase.NewNotifier(hosting)

		gt.NoError(t, n.Flush(ctx, 42))
		gt.Number(t, len(hosting.comments)).Equal(0)
	})

	t.Run("posts all lines as one comment", func(t *testing.T) {
		hosting := newFakeHosting("")
		n := usecase.NewNotifier(hosting)
		n.Append("first")
		n.Append("second")
		gt.Value(t, n.Len()).Equal(2)

		gt.NoError(t, n.Flush(ctx, 42))
		gt.Number(t, len(hosting.comments)).Equal(1)
		gt.Value(t, hosting.comments[0].number).Equal(42)
		gt.Value(t, hosting.comments[0].messages).Equal([]string{"first", "second"})
		gt.Value(t, n.Len()).Equal(0)

		// Flushing again must not repeat the comment
		gt.NoError(t, n.Flush(ctx, 42))
		gt.Number(t, len(hosting.comments)).Equal(1)
	})

	t.Run("no target drops lines", func(t *testing.T) {
		hosting := newFakeHosting("")
		n := usecase.NewNotifier(hosting)
		n.Append("orphan")

		gt.NoError(t, n.Flush(ctx, 0))
		gt.Number(t, len(hosting.comments)).Equal(0)
		gt.Value(t, n.Len()).Equal(0)
	})

	t.Run("clears on failure", func(t *testing.T) {
		hosting := newFakeHosting("")
		hosting.commentErr = errors.New("forbidden")
		n := usecase.NewNotifier(hosting)
		n.Append("line")

		gt.Error(t, n.Flush(ctx, 42))
		gt.Value(t, n.Len()).Equal(0)
	})

	t.Run("messages returns a copy", func(t *testing.T) {
		n := usecase.NewNotifier(newFakeHosting(""))
		n.Append("line")
		msgs := n.Messages()
		msgs[0] = "changed"
		gt.Value(t, n.Messages()).Equal([]string{"line"})
	})
}

func TestNotifier_Post(t *testing.T) {
	ctx := context.Background()
	hosting := newFakeHosting("")
	chat := &fakeChat{posted: make(chan []string, 1)}
	n := usecase.NewNotifier(hosting, chat)
	n.Append("pending")

	gt.NoError(t, n.Post(ctx, 5, "immediate"))
	gt.Number(t, len(hosting.comments)).Equal(1)
	gt.Value(t, hosting.comments[0].messages).Equal([]string{"immediate"})

	// The pending log is untouched by Post
	gt.Value(t, n.Messages()).Equal([]string{"pending"})

	select {
	case msgs := <-chat.posted:
		gt.Value(t, msgs).Equal([]string{"immediate"})
	case <-time.After(time.Second):
		t.Fatal("chat was not notified")
	}
}
