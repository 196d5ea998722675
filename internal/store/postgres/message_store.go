package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"pairchat/internal/domain"
)

// MessageStore is the PostgreSQL-backed append-only message log.
type MessageStore struct {
	db *sql.DB
}

func NewMessageStore(db *sql.DB) *MessageStore {
	return &MessageStore{db: db}
}

var _ domain.MessageStore = (*MessageStore)(nil)

func (s *MessageStore) SaveMessage(ctx context.Context, content, clientOffset string) (int64, error) {
	query := `INSERT INTO messages (content, client_offset) VALUES ($1, $2) RETURNING id`
	var id int64
	if err := s.db.QueryRowContext(ctx, query, content, clientOffset).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return 0, domain.ErrDuplicateOffset
		}
		return 0, fmt.Errorf("insert message: %w", err)
	}
	return id, nil
}

func (s *MessageStore) RetrieveMessages(ctx context.Context, afterOffset int64, emit func(content string, id int64)) error {
	query := `SELECT id, content FROM messages WHERE id > $1 ORDER BY id ASC`
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
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
