package domain

import "errors"

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrChannelNotFound = errors.New("channel not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrEmailTaken      = errors.New("email already registered")
	ErrHandleTaken     = errors.New("handle already taken")
)
