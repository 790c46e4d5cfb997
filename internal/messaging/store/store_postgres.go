package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"dealroom/internal/messaging/models"
	id "dealroom/pkg/domain"
	"dealroom/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, m *models.Message) error {
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO messages (id, listing_id, sender_id, recipient_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.UUID(m.ID), uuid.UUID(m.ListingID), uuid.UUID(m.SenderID), uuid.UUID(m.RecipientID), m.Body, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListForUser(ctx context.Context, listingID id.ListingID, userID id.UserID) ([]*models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, listing_id, sender_id, recipient_id, body, created_at
		FROM messages
		WHERE listing_id = $1 AND (sender_id = $2 OR recipient_id = $2)
		ORDER BY created_at, id
	`, uuid.UUID(listingID), uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Message, 0)
	for rows.Next() {
		var (
			m                                 models.Message
			msgID, lid, senderID, recipientID uuid.UUID
		)
		if err := rows.Scan(&msgID, &lid, &senderID, &recipientID, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.ID = id.MessageID(msgID)
		m.ListingID = id.ListingID(lid)
		m.SenderID = id.UserID(senderID)
		m.RecipientID = id.UserID(recipientID)
		out = append(out, &m)
	}
	return out, rows.Err()
}
