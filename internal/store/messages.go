package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/carid/carid/internal/model"
)

// CreateMessage appends a chat message to a transfer's message log.
func CreateMessage(ctx context.Context, db *sql.DB, transferID, senderID int64, body string) (*model.Message, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO messages (transfer_id, sender_id, body) VALUES (?, ?, ?)`,
		transferID, senderID, body,
	)
	if err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting message id: %w", err)
	}

	m := &model.Message{}
	err = db.QueryRowContext(ctx,
		`SELECT m.id, m.transfer_id, m.sender_id, m.body, m.sent_at, u.name
		 FROM messages m JOIN users u ON u.id = m.sender_id
		 WHERE m.id = ?`, id,
	).Scan(&m.ID, &m.TransferID, &m.SenderID, &m.Body, &m.SentAt, &m.SenderName)
	if err != nil {
		return nil, fmt.Errorf("getting message: %w", err)
	}
	return m, nil
}

// ListMessages returns a transfer's messages with an ID greater than after,
// oldest first. Clients poll with the last ID they have seen.
func ListMessages(ctx context.Context, db *sql.DB, transferID, after int64) ([]model.Message, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT m.id, m.transfer_id, m.sender_id, m.body, m.sent_at, u.name
		 FROM messages m JOIN users u ON u.id = m.sender_id
		 WHERE m.transfer_id = ? AND m.id > ?
		 ORDER BY m.id`, transferID, after,
	)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.TransferID, &m.SenderID, &m.Body, &m.SentAt, &m.SenderName); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
