package push

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/contactbook/backend/internal/domain"
)

var testMsg = domain.PushMessage{
	Title: "3B • Ana",
	Body:  "hello",
	Data:  map[string]string{"chat_id": "C1", "message_id": "M1"},
}

func TestExpo_Send(t *testing.T) {
	var got []expoMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"data":[{"status":"ok","id":"ticket-1"}]}`))
	}))
	defer srv.Close()

	e := NewExpo(srv.URL, "secret", zap.NewNop())
	err := e.Send(context.Background(), "ExponentPushToken[abc]", testMsg)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ExponentPushToken[abc]", got[0].To)
	assert.Equal(t, "M1", got[0].Data["message_id"])
	assert.Equal(t, AndroidChannelID, got[0].ChannelID)
}

func TestExpo_DeviceNotRegistered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"status":"error","message":"gone","details":{"error":"DeviceNotRegistered"}}]}`))
	}))
	defer srv.Close()

	err := NewExpo(srv.URL, "", zap.NewNop()).Send(context.Background(), "ExponentPushToken[abc]", testMsg)
	assert.ErrorIs(t, err, ErrDeviceNotRegistered)
}

func TestExpo_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewExpo(srv.URL, "", zap.NewNop()).Send(context.Background(), "ExponentPushToken[abc]", testMsg)
	assert.ErrorContains(t, err, "status 502")
}

type fakeMessenger struct {
	got *messaging.Message
	err error
}

func (f *fakeMessenger) Send(ctx context.Context, m *messaging.Message) (string, error) {
	f.got = m
	return "projects/x/messages/1", f.err
}

func TestFCM_Send(t *testing.T) {
	fm := &fakeMessenger{}
	c := &FCM{msgClient: fm, logger: zap.NewNop()}

	require.NoError(t, c.Send(context.Background(), "fcm-token-123456", testMsg))
	require.NotNil(t, fm.got)
	assert.Equal(t, "fcm-token-123456", fm.got.Token)
	assert.Equal(t, "C1", fm.got.Data["chat_id"])
	assert.Equal(t, AndroidChannelID, fm.got.Android.Notification.ChannelID)

	assert.ErrorIs(t, c.Send(context.Background(), "", testMsg), ErrEmptyToken)
}

type recordingSender struct {
	tokens []string
}

func (r *recordingSender) Send(ctx context.Context, token string, msg domain.PushMessage) error {
	r.tokens = append(r.tokens, token)
	return nil
}

func TestRouter(t *testing.T) {
	fcm, expo := &recordingSender{}, &recordingSender{}
	r := NewRouter(fcm, expo)

	require.NoError(t, r.Send(context.Background(), "ExponentPushToken[x]", testMsg))
	require.NoError(t, r.Send(context.Background(), "fcm-raw-token", testMsg))

	assert.Equal(t, []string{"ExponentPushToken[x]"}, expo.tokens)
	assert.Equal(t, []string{"fcm-raw-token"}, fcm.tokens)
	assert.Equal(t, "expo", r.Provider("ExponentPushToken[x]"))
	assert.Equal(t, "fcm", r.Provider("fcm-raw-token"))
}

func TestRouter_MissingProvider(t *testing.T) {
	r := NewRouter(nil, &recordingSender{})
	err := r.Send(context.Background(), "fcm-raw-token", testMsg)
	assert.True(t, errors.Is(err, ErrNoProvider))
}
