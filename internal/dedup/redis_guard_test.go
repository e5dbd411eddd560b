package dedup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisGuard_Claim(t *testing.T) {
	db, mock := redismock.NewClientMock()
	guard := NewRedisGuard(db, time.Hour)
	userID := uuid.New()
	k := key(userID, "M1")

	mock.ExpectSetNX(k, 1, time.Hour).SetVal(true)
	mock.ExpectSetNX(k, 1, time.Hour).SetVal(false)

	first, err := guard.Claim(context.Background(), userID, "M1")
	require.NoError(t, err)
	second, err := guard.Claim(context.Background(), userID, "M1")
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisGuard_ClaimError(t *testing.T) {
	db, mock := redismock.NewClientMock()
	guard := NewRedisGuard(db, 0)
	userID := uuid.New()

	mock.ExpectSetNX(key(userID, "M1"), 1, 24*time.Hour).SetErr(errors.New("connection refused"))

	ok, err := guard.Claim(context.Background(), userID, "M1")
	assert.False(t, ok)
	assert.ErrorContains(t, err, "connection refused")
}

func TestRedisGuard_Release(t *testing.T) {
	db, mock := redismock.NewClientMock()
	guard := NewRedisGuard(db, time.Hour)
	userID := uuid.New()

	mock.ExpectDel(key(userID, "M1")).SetVal(1)

	assert.NoError(t, guard.Release(context.Background(), userID, "M1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisGuard_Ping(t *testing.T) {
	db, mock := redismock.NewClientMock()
	guard := NewRedisGuard(db, 0)

	mock.ExpectPing().SetVal("PONG")
	assert.NoError(t, guard.Ping(context.Background()))

	mock.ExpectPing().SetErr(errors.New("dial tcp: connection refused"))
	assert.Error(t, guard.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
