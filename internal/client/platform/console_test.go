package platform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConsole_NavigationNoopsUntilReady(t *testing.T) {
	c := NewConsole(ConsoleOptions{}, zap.NewNop())

	c.NavigateTo(RouteChat, map[string]string{"chatId": "C1"})
	route, _ := c.Current()
	assert.Empty(t, route)

	c.SetReady()
	c.NavigateTo(RouteChat, map[string]string{"chatId": "C1"})
	route, params := c.Current()
	assert.Equal(t, RouteChat, route)
	assert.Equal(t, "C1", params["chatId"])
}

func TestConsole_Permissions(t *testing.T) {
	ctx := context.Background()

	c := NewConsole(ConsoleOptions{}, zap.NewNop())
	p, err := c.PermissionStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, PermissionDenied, p)
	p, _ = c.RequestPermission(ctx)
	assert.Equal(t, PermissionGranted, p)
	p, _ = c.PermissionStatus(ctx)
	assert.Equal(t, PermissionGranted, p)

	denied := NewConsole(ConsoleOptions{DenyPermission: true}, zap.NewNop())
	p, _ = denied.RequestPermission(ctx)
	assert.Equal(t, PermissionDenied, p)
}

func TestConsole_LaunchDataIsOneShot(t *testing.T) {
	c := NewConsole(ConsoleOptions{LaunchData: map[string]string{"chat_id": "C1"}}, zap.NewNop())

	data, ok := c.LastTapResponse(context.Background())
	require.True(t, ok)
	assert.Equal(t, "C1", data["chat_id"])

	_, ok = c.LastTapResponse(context.Background())
	assert.False(t, ok)
}

func TestConsole_Token(t *testing.T) {
	_, err := NewConsole(ConsoleOptions{}, zap.NewNop()).DevicePushToken(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)

	tok, err := NewConsole(ConsoleOptions{PushToken: "fcm-1"}, zap.NewNop()).DevicePushToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fcm-1", tok)
}

func TestConsole_ShownRecordsLocalNotifications(t *testing.T) {
	c := NewConsole(ConsoleOptions{}, zap.NewNop())
	require.NoError(t, c.ScheduleLocal(context.Background(), LocalNotification{Title: "Lan", Data: map[string]string{"message_id": "M1"}}))

	shown := c.Shown()
	require.Len(t, shown, 1)
	assert.Equal(t, "Lan", shown[0].Title)

	shown[0].Title = "changed"
	assert.Equal(t, "Lan", c.Shown()[0].Title)
}
