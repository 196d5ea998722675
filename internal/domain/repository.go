package domain

import (
	"context"

	"pairchat/internal/protocol"
)

// UserDirectory defines the identity checks and persistence the connection
// layer delegates to.
type UserDirectory interface {
	// LoginUser reports whether the given user id is registered.
	LoginUser(ctx context.Context, userID string) (bool, error)
	CheckForUserName(ctx context.Context, username string) (bool, error)
	CheckForEmail(ctx context.Context, email string) (bool, error)
	// SignUp persists a new account and returns its generated user id.
	SignUp(ctx context.Context, info protocol.SignupInfo) (string, error)
	CheckForUserID(ctx context.Context, userID string) (bool, error)
}

// MessageStore is the durable append-only log backing the general chat
// channel, with offset-based replay for reconnection recovery.
type MessageStore interface {
	// SaveMessage appends a record and returns its id. A replayed
	// clientOffset fails with ErrDuplicateOffset.
	SaveMessage(ctx context.Context, content, clientOffset string) (int64, error)
	// RetrieveMessages emits every record with id greater than afterOffset,
	// in id order.
	RetrieveMessages(ctx context.Context, afterOffset int64, emit func(content string, id int64)) error
}
