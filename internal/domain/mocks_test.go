package domain

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/contactbook/backend/internal/worker"
)

type mockTokenRepo struct{ mock.Mock }

func (m *mockTokenRepo) UpsertDeviceToken(ctx context.Context, userID uuid.UUID, token string, platform Platform) (*DeviceToken, error) {
	args := m.Called(ctx, userID, token, platform)
	if dt := args.Get(0); dt != nil {
		return dt.(*DeviceToken), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTokenRepo) GetDeviceToken(ctx context.Context, userID uuid.UUID) (*DeviceToken, error) {
	args := m.Called(ctx, userID)
	if dt := args.Get(0); dt != nil {
		return dt.(*DeviceToken), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockAlertRepo struct{ mock.Mock }

func (m *mockAlertRepo) CreateAlert(ctx context.Context, userID uuid.UUID, kind AlertKind, title, body string, data map[string]interface{}) (*Alert, error) {
	args := m.Called(ctx, userID, kind, title, body, data)
	if a := args.Get(0); a != nil {
		return a.(*Alert), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAlertRepo) ListAlerts(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Alert, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]*Alert), args.Error(1)
}

func (m *mockAlertRepo) MarkAlertRead(ctx context.Context, userID, alertID uuid.UUID) error {
	return m.Called(ctx, userID, alertID).Error(0)
}

type mockChatRepo struct{ mock.Mock }

func (m *mockChatRepo) GetChat(ctx context.Context, chatID uuid.UUID) (*Chat, error) {
	args := m.Called(ctx, chatID)
	if c := args.Get(0); c != nil {
		return c.(*Chat), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockChatRepo) CreateMessage(ctx context.Context, chatID, senderID uuid.UUID, content string) (*Message, error) {
	args := m.Called(ctx, chatID, senderID, content)
	if msg := args.Get(0); msg != nil {
		return msg.(*Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// memGuard claims each (user, message) pair once
type memGuard struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func newMemGuard() *memGuard { return &memGuard{seen: map[string]bool{}} }

func (g *memGuard) Claim(ctx context.Context, userID uuid.UUID, messageID string) (bool, error) {
	if g.err != nil {
		return false, g.err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	k := userID.String() + ":" + messageID
	if g.seen[k] {
		return false, nil
	}
	g.seen[k] = true
	return true, nil
}

func (g *memGuard) Release(ctx context.Context, userID uuid.UUID, messageID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.seen, userID.String()+":"+messageID)
	return nil
}

type sentPush struct {
	token string
	msg   PushMessage
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentPush
	err  error
}

func (s *fakeSender) Send(ctx context.Context, token string, msg PushMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentPush{token: token, msg: msg})
	return nil
}

func (s *fakeSender) Provider(string) string { return "fake" }

type socketCall struct {
	userID uuid.UUID
	event  interface{}
}

type fakeSocket struct{ calls []socketCall }

func (f *fakeSocket) SendToUser(userID uuid.UUID, message interface{}) {
	f.calls = append(f.calls, socketCall{userID: userID, event: message})
}

// inlineSubmitter runs jobs on the calling goroutine
type inlineSubmitter struct{ jobs []string }

func (s *inlineSubmitter) Submit(job worker.Job) bool {
	s.jobs = append(s.jobs, job.Name)
	_ = job.Execute(context.Background())
	return true
}
