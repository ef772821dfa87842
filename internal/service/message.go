package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cafehub/internal/apperr"
	"cafehub/internal/model"
)

type MessageService struct {
	db *sql.DB
}

func NewMessageService(db *sql.DB) *MessageService {
	return &MessageService{db: db}
}

func (s *MessageService) Send(ctx context.Context, sender, recipient, body string) (*model.AdminMessage, error) {
	if recipient == "" {
		return nil, apperr.Validation("recipient", "recipient is required")
	}
	if body == "" {
		return nil, apperr.Validation("body", "message body is required")
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO admin_messages (sender, recipient, body)
		VALUES ($1, $2, $3)
		RETURNING id, sender, recipient, body, created_at
	`, sender, recipient, body)

	var m model.AdminMessage
	if err := row.Scan(&m.ID, &m.Sender, &m.Recipient, &m.Body, &m.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return &m, nil
}

// Inbox lists messages addressed to the recipient, unread first.
func (s *MessageService) Inbox(ctx context.Context, recipient string) ([]model.AdminMessage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sender, recipient, body, read_at, created_at
		FROM admin_messages WHERE recipient = $1
		ORDER BY read_at NULLS FIRST, created_at DESC
	`, recipient)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var msgs []model.AdminMessage
	for rows.Next() {
		var m model.AdminMessage
		var readAt sql.NullTime
		if err := rows.Scan(&m.ID, &m.Sender, &m.Recipient, &m.Body, &readAt, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if readAt.Valid {
			m.ReadAt = &readAt.Time
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return msgs, nil
}

func (s *MessageService) MarkRead(ctx context.Context, messageID, recipient string) (*model.AdminMessage, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE admin_messages SET read_at = COALESCE(read_at, NOW())
		WHERE id = $1 AND recipient = $2
		RETURNING id, sender, recipient, body, read_at, created_at
	`, messageID, recipient)

	var m model.AdminMessage
	var readAt sql.NullTime
	if err := row.Scan(&m.ID, &m.Sender, &m.Recipient, &m.Body, &readAt, &m.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("mark message read: %w", err)
	}
	if readAt.Valid {
		m.ReadAt = &readAt.Time
	}
	return &m, nil
}
