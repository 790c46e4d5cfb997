package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"dealroom/internal/matching/models"
	id "dealroom/pkg/domain"
	"dealroom/pkg/platform/sentinel"
)

// PostgresStore persists buyer profiles in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const profileColumns = `user_id, regions, industries, revenue_min, revenue_max, price_min, price_max,
	ebitda_min, ebitda_max, employees_min, employees_max, updated_at`

func (s *PostgresStore) Get(ctx context.Context, userID id.UserID) (*models.BuyerProfile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM buyer_profiles WHERE user_id = $1`, uuid.UUID(userID))
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get buyer profile: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, p *models.BuyerProfile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO buyer_profiles (`+profileColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (user_id) DO UPDATE SET
			regions = EXCLUDED.regions,
			industries = EXCLUDED.industries,
			revenue_min = EXCLUDED.revenue_min,
			revenue_max = EXCLUDED.revenue_max,
			price_min = EXCLUDED.price_min,
			price_max = EXCLUDED.price_max,
			ebitda_min = EXCLUDED.ebitda_min,
			ebitda_max = EXCLUDED.ebitda_max,
			employees_min = EXCLUDED.employees_min,
			employees_max = EXCLUDED.employees_max,
			updated_at = EXCLUDED.updated_at
	`,
		uuid.UUID(p.UserID), pq.Array(nonNil(p.Regions)), pq.Array(nonNil(p.Industries)),
		p.RevenueMin, p.RevenueMax, p.PriceMin, p.PriceMax,
		p.EBITDAMin, p.EBITDAMax, p.EmployeesMin, p.EmployeesMax, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert buyer profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.BuyerProfile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+profileColumns+` FROM buyer_profiles ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list buyer profiles: %w", err)
	}
	defer rows.Close()

	var out []*models.BuyerProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan buyer profile: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(row scanner) (*models.BuyerProfile, error) {
	var (
		p      models.BuyerProfile
		userID uuid.UUID
	)
	err := row.Scan(&userID, pq.Array(&p.Regions), pq.Array(&p.Industries),
		&p.RevenueMin, &p.RevenueMax, &p.PriceMin, &p.PriceMax,
		&p.EBITDAMin, &p.EBITDAMax, &p.EmployeesMin, &p.EmployeesMax, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.UserID = id.UserID(userID)
	return &p, nil
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
