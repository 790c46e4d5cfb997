package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"dealroom/internal/listing/models"
	"dealroom/internal/platform/postgres"
	id "dealroom/pkg/domain"
	"dealroom/pkg/platform/sentinel"
)

// PostgresStore persists listings in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const listingColumns = `id, owner_id, title, category, region, price_min, price_max, status, view_count, created_at,
	legal_name, registration_number, address, revenue, ebitda, profit, employees, key_customers,
	risk_narrative, description`

func (s *PostgresStore) Create(ctx context.Context, l *models.Listing) error {
	keyCustomers := l.KeyCustomers
	if keyCustomers == nil {
		keyCustomers = []string{}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO listings (`+listingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`,
		uuid.UUID(l.ID), uuid.UUID(l.OwnerID), l.Title, l.Category, l.Region, l.PriceMin, l.PriceMax,
		string(l.Status), l.ViewCount, l.CreatedAt,
		l.LegalName, l.RegistrationNumber, l.Address, l.Revenue, l.EBITDA, l.Profit, l.Employees,
		pq.Array(keyCustomers), l.RiskNarrative, l.Description,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyExists
		}
		return fmt.Errorf("create listing: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, listingID id.ListingID) (*models.Listing, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, uuid.UUID(listingID))
	l, err := scanListing(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find listing: %w", err)
	}
	return l, nil
}

func (s *PostgresStore) ListActive(ctx context.Context) ([]*models.Listing, error) {
	return s.list(ctx, `SELECT `+listingColumns+` FROM listings WHERE status = $1 ORDER BY id`, string(models.StatusActive))
}

func (s *PostgresStore) ListByOwner(ctx context.Context, ownerID id.UserID) ([]*models.Listing, error) {
	return s.list(ctx, `SELECT `+listingColumns+` FROM listings WHERE owner_id = $1 ORDER BY id`, uuid.UUID(ownerID))
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]*models.Listing, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Listing, 0)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanListing(row scanner) (*models.Listing, error) {
	var (
		l              models.Listing
		listingID, own uuid.UUID
		status         string
	)
	err := row.Scan(&listingID, &own, &l.Title, &l.Category, &l.Region, &l.PriceMin, &l.PriceMax,
		&status, &l.ViewCount, &l.CreatedAt,
		&l.LegalName, &l.RegistrationNumber, &l.Address, &l.Revenue, &l.EBITDA, &l.Profit, &l.Employees,
		pq.Array(&l.KeyCustomers), &l.RiskNarrative, &l.Description)
	if err != nil {
		return nil, err
	}
	l.ID = id.ListingID(listingID)
	l.OwnerID = id.UserID(own)
	l.Status = models.Status(status)
	return &l, nil
}
