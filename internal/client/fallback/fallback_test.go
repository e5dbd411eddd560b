package fallback

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/contactbook/backend/internal/client/ledger"
	"github.com/contactbook/backend/internal/client/platform"
)

type recorder struct {
	mu       sync.Mutex
	shown    []platform.LocalNotification
	channels int
	err      error
}

func (r *recorder) EnsureChannels(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels++
	return nil
}

func (r *recorder) ScheduleLocal(ctx context.Context, n platform.LocalNotification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.shown = append(r.shown, n)
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.shown)
}

func setup() (*Fallback, *ledger.Ledger, *recorder) {
	l := ledger.New(100)
	rec := &recorder{}
	return New(l, rec, rec, zap.NewNop()), l, rec
}

func TestMaybeNotify_SuppressedAfterPush(t *testing.T) {
	f, l, rec := setup()
	l.MarkSeen("M1")

	for i := 0; i < 3; i++ {
		assert.False(t, f.MaybeNotify(context.Background(), Message{ChatID: "C1", MessageID: "M1"}))
	}
	assert.Zero(t, rec.count())
	assert.Zero(t, rec.channels)
}

func TestMaybeNotify_SchedulesOncePerMessage(t *testing.T) {
	f, l, rec := setup()
	msg := Message{ChatID: "C1", MessageID: "M1", ChatName: "Class 5A", Sender: "Ms. Lan", Body: "hello"}

	require.True(t, f.MaybeNotify(context.Background(), msg))
	assert.False(t, f.MaybeNotify(context.Background(), msg))
	assert.Equal(t, 1, rec.count())
	assert.True(t, l.HasSeen("M1"))

	n := rec.shown[0]
	assert.Equal(t, "Class 5A • Ms. Lan", n.Title)
	assert.Equal(t, "hello", n.Body)
	assert.Equal(t, map[string]string{
		"chat_id":    "C1",
		"message_id": "M1",
		"chat_name":  "Class 5A",
		"sender":     "Ms. Lan",
		"type":       "chat",
	}, n.Data)
}

func TestMaybeNotify_ConcurrentEventsScheduleOnce(t *testing.T) {
	f, _, rec := setup()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.MaybeNotify(context.Background(), Message{ChatID: "C1", MessageID: "M1"})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, rec.count())
}

func TestMaybeNotify_DropsMissingIDs(t *testing.T) {
	f, l, rec := setup()
	assert.False(t, f.MaybeNotify(context.Background(), Message{MessageID: "M1"}))
	assert.False(t, f.MaybeNotify(context.Background(), Message{ChatID: "C1"}))
	assert.Zero(t, rec.count())
	assert.False(t, l.HasSeen("M1"), "dropped events must not claim their id")
}

func TestMaybeNotify_ExtraDataCannotRerouteTap(t *testing.T) {
	f, _, rec := setup()
	f.MaybeNotify(context.Background(), Message{
		ChatID:    "C1",
		MessageID: "M1",
		Data:      map[string]string{"chat_id": "C9", "priority": "high"},
	})
	require.Equal(t, 1, rec.count())
	assert.Equal(t, "C1", rec.shown[0].Data["chat_id"])
	assert.Equal(t, "high", rec.shown[0].Data["priority"])
}

func TestMaybeNotify_ScheduleFailureReleasesClaim(t *testing.T) {
	f, l, rec := setup()
	msg := Message{ChatID: "C1", MessageID: "M1"}

	rec.mu.Lock()
	rec.err = errors.New("notifications disabled")
	rec.mu.Unlock()
	assert.False(t, f.MaybeNotify(context.Background(), msg))
	assert.False(t, l.HasSeen("M1"))

	rec.mu.Lock()
	rec.err = nil
	rec.mu.Unlock()
	assert.True(t, f.MaybeNotify(context.Background(), msg))
	assert.Equal(t, 1, rec.count())
	assert.False(t, f.MaybeNotify(context.Background(), msg))
}

func TestTitle(t *testing.T) {
	tests := []struct {
		name string
		msg  Message
		want string
	}{
		{"explicit", Message{Title: "Custom", ChatName: "A", Sender: "B"}, "Custom"},
		{"chat and sender", Message{ChatName: "A", Sender: "B"}, "A • B"},
		{"sender only", Message{Sender: "B"}, "B"},
		{"chat only", Message{ChatName: "A"}, "New message"},
		{"nothing", Message{}, "New message"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Title(tt.msg))
		})
	}
}
