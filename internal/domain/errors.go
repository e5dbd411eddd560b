package domain

import "errors"

var (
	ErrInvalidPlatform   = errors.New("invalid platform")
	ErrEmptyToken        = errors.New("device token is empty")
	ErrNoDeviceToken     = errors.New("no device token registered")
	ErrMissingChatID     = errors.New("payload has no chat_id")
	ErrMissingMessageID  = errors.New("payload has no message_id")
	ErrAlertNotFound     = errors.New("alert not found")
	ErrChatNotFound      = errors.New("chat not found")
	ErrNotChatMember     = errors.New("user is not a member of this chat")
	ErrEmptyMessage      = errors.New("message content is empty")
	ErrAlreadyDispatched = errors.New("alert already dispatched")
)
