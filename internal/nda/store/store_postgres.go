package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"dealroom/internal/nda/models"
	"dealroom/internal/platform/postgres"
	id "dealroom/pkg/domain"
	"dealroom/pkg/platform/sentinel"
	"dealroom/pkg/platform/tx"
)

// PostgresStore persists NDA requests. Transitions are single conditional
// updates so concurrent attempts on one request serialize in the database.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const requestColumns = `id, listing_id, buyer_id, seller_id, status, message, rejection_reason,
	created_at, viewed_at, approved_at, rejected_at, signed_at`

func (s *PostgresStore) Create(ctx context.Context, req *models.Request) error {
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		INSERT INTO nda_requests (`+requestColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		uuid.UUID(req.ID), uuid.UUID(req.ListingID), uuid.UUID(req.BuyerID), uuid.UUID(req.SellerID),
		string(req.Status), req.Message, req.RejectionReason,
		req.CreatedAt, req.ViewedAt, req.ApprovedAt, req.RejectedAt, req.SignedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyExists
		}
		return fmt.Errorf("create nda request: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, requestID id.NDARequestID) (*models.Request, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx, `SELECT `+requestColumns+` FROM nda_requests WHERE id = $1`, uuid.UUID(requestID))
	return scanOne(row, "find nda request")
}

func (s *PostgresStore) FindActive(ctx context.Context, listingID id.ListingID, buyerID id.UserID) (*models.Request, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx, `
		SELECT `+requestColumns+` FROM nda_requests
		WHERE listing_id = $1 AND buyer_id = $2 AND status = ANY($3)
	`, uuid.UUID(listingID), uuid.UUID(buyerID), pq.Array(statusStrings(models.ActiveStatuses)))
	return scanOne(row, "find active nda request")
}

func (s *PostgresStore) UpdateIfStatus(ctx context.Context, req *models.Request, expected models.Status) error {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx, `
		UPDATE nda_requests SET
			status = $3,
			rejection_reason = $4,
			viewed_at = $5,
			approved_at = $6,
			rejected_at = $7,
			signed_at = $8
		WHERE id = $1 AND status = $2
		RETURNING id
	`,
		uuid.UUID(req.ID), string(expected), string(req.Status), req.RejectionReason,
		req.ViewedAt, req.ApprovedAt, req.RejectedAt, req.SignedAt,
	)
	var updated uuid.UUID
	if err := row.Scan(&updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.missOrStale(ctx, req.ID)
		}
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyExists
		}
		return fmt.Errorf("update nda request: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteIfStatusIn(ctx context.Context, requestID id.NDARequestID, buyerID id.UserID, statuses []models.Status) error {
	res, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		DELETE FROM nda_requests
		WHERE id = $1 AND buyer_id = $2 AND status = ANY($3)
	`, uuid.UUID(requestID), uuid.UUID(buyerID), pq.Array(statusStrings(statuses)))
	if err != nil {
		return fmt.Errorf("delete nda request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete nda request: %w", err)
	}
	if n == 0 {
		return s.missOrStale(ctx, requestID)
	}
	return nil
}

// missOrStale distinguishes a missing row from one that moved on.
func (s *PostgresStore) missOrStale(ctx context.Context, requestID id.NDARequestID) error {
	var exists bool
	err := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM nda_requests WHERE id = $1)`, uuid.UUID(requestID),
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check nda request: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrStaleState
}

func (s *PostgresStore) ListByBuyer(ctx context.Context, buyerID id.UserID) ([]*models.Request, error) {
	return s.list(ctx, `buyer_id = $1`, uuid.UUID(buyerID))
}

func (s *PostgresStore) ListBySeller(ctx context.Context, sellerID id.UserID) ([]*models.Request, error) {
	return s.list(ctx, `seller_id = $1`, uuid.UUID(sellerID))
}

func (s *PostgresStore) list(ctx context.Context, where string, arg any) ([]*models.Request, error) {
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, `
		SELECT `+requestColumns+` FROM nda_requests
		WHERE `+where+`
		ORDER BY created_at DESC
	`, arg)
	if err != nil {
		return nil, fmt.Errorf("list nda requests: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Request, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan nda request: %w", err)
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (s *PostgresStore) HasVisibility(ctx context.Context, listingID id.ListingID, buyerID id.UserID) (bool, error) {
	var ok bool
	err := tx.Exec(ctx, s.db).QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM nda_requests
			WHERE listing_id = $1 AND buyer_id = $2 AND status IN ('approved', 'signed')
		)
	`, uuid.UUID(listingID), uuid.UUID(buyerID)).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check nda visibility: %w", err)
	}
	return ok, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOne(row scanner, op string) (*models.Request, error) {
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return req, nil
}

func scanRequest(row scanner) (*models.Request, error) {
	var req models.Request
	var reqID, listingID, buyerID, sellerID uuid.UUID
	var status string
	err := row.Scan(
		&reqID, &listingID, &buyerID, &sellerID, &status, &req.Message, &req.RejectionReason,
		&req.CreatedAt, &req.ViewedAt, &req.ApprovedAt, &req.RejectedAt, &req.SignedAt,
	)
	if err != nil {
		return nil, err
	}
	req.ID = id.NDARequestID(reqID)
	req.ListingID = id.ListingID(listingID)
	req.BuyerID = id.UserID(buyerID)
	req.SellerID = id.UserID(sellerID)
	req.Status = models.Status(status)
	return &req, nil
}

func statusStrings(statuses []models.Status) []string {
	out := make([]string, len(statuses))
	for i, st := range statuses {
		out[i] = string(st)
	}
	return out
}
