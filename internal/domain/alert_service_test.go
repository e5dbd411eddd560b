package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chatAlert(messageID string) OutgoingAlert {
	return OutgoingAlert{
		Title:   "3B • Ana",
		Body:    "hello",
		Payload: AlertPayload{ChatID: "C1", MessageID: messageID, ChatName: "3B", Sender: "Ana"},
	}
}

func TestAlertService_NotifyPushesOnce(t *testing.T) {
	userID := uuid.New()
	alerts := new(mockAlertRepo)
	alerts.On("CreateAlert", mock.Anything, userID, AlertKindChat, "3B • Ana", "hello", mock.Anything).
		Return(&Alert{ID: uuid.New()}, nil).Once()
	tokens := new(mockTokenRepo)
	tokens.On("GetDeviceToken", mock.Anything, userID).Return(&DeviceToken{Token: "tok-1"}, nil).Once()
	sender := &fakeSender{}

	svc := NewAlertService(alerts, tokens, newMemGuard(), sender, zap.NewNop())

	require.NoError(t, svc.Notify(context.Background(), userID, chatAlert("M1")))
	err := svc.Notify(context.Background(), userID, chatAlert("M1"))

	assert.ErrorIs(t, err, ErrAlreadyDispatched)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "tok-1", sender.sent[0].token)
	assert.Equal(t, "M1", sender.sent[0].msg.Data[KeyMessageID])
	assert.Equal(t, "C1", sender.sent[0].msg.Data[KeyChatID])
	alerts.AssertExpectations(t)
	tokens.AssertExpectations(t)
}

func TestAlertService_NotifyWithoutTokenStillStores(t *testing.T) {
	userID := uuid.New()
	alerts := new(mockAlertRepo)
	alerts.On("CreateAlert", mock.Anything, userID, AlertKindChat, mock.Anything, mock.Anything, mock.Anything).
		Return(&Alert{}, nil)
	tokens := new(mockTokenRepo)
	tokens.On("GetDeviceToken", mock.Anything, userID).Return(nil, ErrNoDeviceToken)
	sender := &fakeSender{}

	svc := NewAlertService(alerts, tokens, newMemGuard(), sender, zap.NewNop())

	require.NoError(t, svc.Notify(context.Background(), userID, chatAlert("M1")))
	assert.Empty(t, sender.sent)
	alerts.AssertExpectations(t)
}

func TestAlertService_PushFailureIsSwallowed(t *testing.T) {
	userID := uuid.New()
	alerts := new(mockAlertRepo)
	alerts.On("CreateAlert", mock.Anything, userID, AlertKindChat, mock.Anything, mock.Anything, mock.Anything).
		Return(&Alert{}, nil)
	tokens := new(mockTokenRepo)
	tokens.On("GetDeviceToken", mock.Anything, userID).Return(&DeviceToken{Token: "tok"}, nil)

	svc := NewAlertService(alerts, tokens, newMemGuard(), &fakeSender{err: errors.New("unavailable")}, zap.NewNop())

	assert.NoError(t, svc.Notify(context.Background(), userID, chatAlert("M1")))
}

func TestAlertService_GuardErrorFailsOpen(t *testing.T) {
	userID := uuid.New()
	alerts := new(mockAlertRepo)
	alerts.On("CreateAlert", mock.Anything, userID, AlertKindChat, mock.Anything, mock.Anything, mock.Anything).
		Return(&Alert{}, nil)
	tokens := new(mockTokenRepo)
	tokens.On("GetDeviceToken", mock.Anything, userID).Return(&DeviceToken{Token: "tok"}, nil)
	sender := &fakeSender{}
	guard := newMemGuard()
	guard.err = errors.New("redis down")

	svc := NewAlertService(alerts, tokens, guard, sender, zap.NewNop())

	require.NoError(t, svc.Notify(context.Background(), userID, chatAlert("M1")))
	assert.Len(t, sender.sent, 1)
}

func TestAlertService_StoreFailureIsReturned(t *testing.T) {
	userID := uuid.New()
	alerts := new(mockAlertRepo)
	alerts.On("CreateAlert", mock.Anything, userID, AlertKindChat, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("db down"))

	svc := NewAlertService(alerts, new(mockTokenRepo), newMemGuard(), &fakeSender{}, zap.NewNop())

	err := svc.Notify(context.Background(), userID, chatAlert("M1"))
	assert.ErrorContains(t, err, "store alert")
}

func TestAlertService_RequiresMessageID(t *testing.T) {
	svc := NewAlertService(new(mockAlertRepo), new(mockTokenRepo), newMemGuard(), &fakeSender{}, zap.NewNop())
	err := svc.Notify(context.Background(), uuid.New(), chatAlert(""))
	assert.ErrorIs(t, err, ErrMissingMessageID)
}

func TestAlertService_Broadcast(t *testing.T) {
	u1, u2 := uuid.New(), uuid.New()
	alerts := new(mockAlertRepo)
	alerts.On("CreateAlert", mock.Anything, mock.Anything, AlertKindGeneric, "Trip", "Bring lunch", mock.Anything).
		Return(&Alert{}, nil).Twice()
	tokens := new(mockTokenRepo)
	tokens.On("GetDeviceToken", mock.Anything, u1).Return(&DeviceToken{Token: "a"}, nil)
	tokens.On("GetDeviceToken", mock.Anything, u2).Return(&DeviceToken{Token: "b"}, nil)
	sender := &fakeSender{}

	svc := NewAlertService(alerts, tokens, newMemGuard(), sender, zap.NewNop())
	messageID, n := svc.Broadcast(context.Background(), []uuid.UUID{u1, u2}, "Trip", "Bring lunch")

	assert.Equal(t, 2, n)
	assert.NotEmpty(t, messageID)
	require.Len(t, sender.sent, 2)
	for _, p := range sender.sent {
		assert.Equal(t, "alert", p.msg.Data[KeyType])
		assert.Equal(t, messageID, p.msg.Data[KeyMessageID])
	}
}

func TestAlertService_ListDefaultsLimit(t *testing.T) {
	userID := uuid.New()
	alerts := new(mockAlertRepo)
	alerts.On("ListAlerts", mock.Anything, userID, 20, 0).Return([]*Alert{}, nil)

	svc := NewAlertService(alerts, new(mockTokenRepo), nil, nil, zap.NewNop())
	_, err := svc.List(context.Background(), userID, 0, 0)

	require.NoError(t, err)
	alerts.AssertExpectations(t)
}

func TestAlertService_StoreFailureReleasesClaim(t *testing.T) {
	userID := uuid.New()
	alerts := new(mockAlertRepo)
	alerts.On("CreateAlert", mock.Anything, userID, AlertKindChat, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("db down")).Once()
	alerts.On("CreateAlert", mock.Anything, userID, AlertKindChat, mock.Anything, mock.Anything, mock.Anything).
		Return(&Alert{}, nil).Once()
	tokens := new(mockTokenRepo)
	tokens.On("GetDeviceToken", mock.Anything, userID).Return(&DeviceToken{Token: "tok"}, nil)
	sender := &fakeSender{}

	svc := NewAlertService(alerts, tokens, newMemGuard(), sender, zap.NewNop())

	require.Error(t, svc.Notify(context.Background(), userID, chatAlert("M1")))
	require.NoError(t, svc.Notify(context.Background(), userID, chatAlert("M1")))
	assert.Len(t, sender.sent, 1)
}
