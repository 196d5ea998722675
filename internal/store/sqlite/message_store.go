package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"pairchat/internal/domain"
)

// MessageStore is the SQLite-backed append-only message log.
type MessageStore struct {
	db *sql.DB
}

func NewMessageStore(db *sql.DB) *MessageStore {
	return &MessageStore{db: db}
}

var _ domain.MessageStore = (*MessageStore)(nil)

// SaveMessage appends one record. A clientOffset that was already stored
// violates the unique constraint and maps to domain.ErrDuplicateOffset.
func (s *MessageStore) SaveMessage(ctx context.Context, content, clientOffset string) (int64, error) {
	query := `INSERT INTO messages (content, client_offset) VALUES (?, ?)`
	res, err := s.db.ExecContext(ctx, query, content, clientOffset)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, domain.ErrDuplicateOffset
		}
		return 0, fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// RetrieveMessages emits every record after the given offset in id order.
func (s *MessageStore) RetrieveMessages(ctx context.Context, afterOffset int64, emit func(content string, id int64)) error {
	query := `SELECT id, content FROM messages WHERE id > ? ORDER BY id ASC`
	rows, err := s.db.QueryContext(ctx, query, afterOffset)
	if err != nil {
		return fmt.Errorf("select messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec domain.LogRecord
		if err := rows.Scan(&rec.ID, &rec.Content); err != nil {
			return fmt.Errorf("scan message: %w", err)
		}
		emit(rec.Content, rec.ID)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate messages: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var se *sqlitedrv.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT || se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}
