package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"dealroom/internal/deal/models"
	id "dealroom/pkg/domain"
	"dealroom/pkg/platform/tx"
)

// PostgresActivityLog is the append-only activity log. Rows are only ever
// inserted; seq gives a stable order for entries written in the same instant.
type PostgresActivityLog struct {
	db *sql.DB
}

func NewPostgresActivityLog(db *sql.DB) *PostgresActivityLog {
	return &PostgresActivityLog{db: db}
}

func (l *PostgresActivityLog) Append(ctx context.Context, a *models.Activity) error {
	metadata, err := json.Marshal(cloneMetadata(a.Metadata))
	if err != nil {
		return fmt.Errorf("encode activity metadata: %w", err)
	}
	_, err = tx.Exec(ctx, l.db).ExecContext(ctx, `
		INSERT INTO activities (id, transaction_id, type, title, description, actor_id, actor_name, actor_role, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		uuid.UUID(a.ID), uuid.UUID(a.TransactionID), string(a.Type), a.Title, a.Description,
		uuid.UUID(a.ActorID), a.ActorName, a.ActorRole, metadata, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append activity: %w", err)
	}
	return nil
}

func (l *PostgresActivityLog) List(ctx context.Context, transactionID id.TransactionID) ([]*models.Activity, error) {
	rows, err := tx.Exec(ctx, l.db).QueryContext(ctx, `
		SELECT id, type, title, description, actor_id, actor_name, actor_role, metadata, created_at
		FROM activities
		WHERE transaction_id = $1
		ORDER BY seq
	`, uuid.UUID(transactionID))
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Activity, 0)
	for rows.Next() {
		var (
			a            models.Activity
			aid, actorID uuid.UUID
			typ          string
			metadata     []byte
		)
		if err := rows.Scan(&aid, &typ, &a.Title, &a.Description, &actorID, &a.ActorName, &a.ActorRole, &metadata, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		if err := json.Unmarshal(metadata, &a.Metadata); err != nil {
			return nil, fmt.Errorf("decode activity metadata: %w", err)
		}
		a.ID = id.ActivityID(aid)
		a.TransactionID = transactionID
		a.ActorID = id.UserID(actorID)
		a.Type = models.ActivityType(typ)
		out = append(out, &a)
	}
	return out, rows.Err()
}
