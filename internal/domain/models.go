package domain

import "time"

// User represents a registered chat user. UserID is the opaque identifier
// clients authenticate with; the numeric ID is storage-internal.
type User struct {
	ID        int64     `db:"id"`
	UserID    string    `db:"user_id"`
	Username  string    `db:"username"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
}

// LogRecord is one durable record of the append-only general message log.
// ID doubles as the replay offset.
type LogRecord struct {
	ID           int64     `db:"id"`
	ClientOffset string    `db:"client_offset"`
	Content      string    `db:"content"`
	CreatedAt    time.Time `db:"created_at"`
}
