package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dealroom/internal/deal/models"
	"dealroom/internal/platform/postgres"
	id "dealroom/pkg/domain"
	"dealroom/pkg/platform/sentinel"
	"dealroom/pkg/platform/tx"
)

// PostgresStore persists transactions, milestones and DD projects. Every
// method joins the transaction carried in ctx, if any.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const transactionColumns = `id, listing_id, buyer_id, seller_id, loi_id, stage, agreed_price,
	cancelled_at, cancel_reason, created_at, updated_at`

const milestoneColumns = `id, transaction_id, title, stage, completed, completed_at, completed_by, sort_order`

func (s *PostgresStore) CreateTransaction(ctx context.Context, t *models.Transaction, milestones []*models.Milestone) error {
	q := tx.Exec(ctx, s.db)
	var loiID *uuid.UUID
	if t.LOIID != nil {
		u := uuid.UUID(*t.LOIID)
		loiID = &u
	}
	_, err := q.ExecContext(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		uuid.UUID(t.ID), uuid.UUID(t.ListingID), uuid.UUID(t.BuyerID), uuid.UUID(t.SellerID), loiID,
		string(t.Stage), t.AgreedPrice, t.CancelledAt, t.CancelReason, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyExists
		}
		return fmt.Errorf("create transaction: %w", err)
	}

	for _, m := range milestones {
		var completedBy *uuid.UUID
		if m.CompletedBy != nil {
			u := uuid.UUID(*m.CompletedBy)
			completedBy = &u
		}
		_, err := q.ExecContext(ctx, `
			INSERT INTO milestones (`+milestoneColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`,
			uuid.UUID(m.ID), uuid.UUID(m.TransactionID), m.Title, string(m.Stage),
			m.Completed, m.CompletedAt, completedBy, m.SortOrder,
		)
		if err != nil {
			return fmt.Errorf("create milestone: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) FindTransaction(ctx context.Context, transactionID id.TransactionID) (*models.Transaction, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, uuid.UUID(transactionID))
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find transaction: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) ListTransactionsForUser(ctx context.Context, userID id.UserID) ([]*models.Transaction, error) {
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE buyer_id = $1 OR seller_id = $1
		ORDER BY created_at DESC
	`, uuid.UUID(userID))
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpdateStageIfCurrent moves an active transaction from expected to next in
// a single conditional update.
func (s *PostgresStore) UpdateStageIfCurrent(ctx context.Context, transactionID id.TransactionID, expected, next models.Stage, at time.Time) error {
	res, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		UPDATE transactions SET stage = $3, updated_at = $4
		WHERE id = $1 AND stage = $2 AND cancelled_at IS NULL
	`, uuid.UUID(transactionID), string(expected), string(next), at)
	if err != nil {
		return fmt.Errorf("update transaction stage: %w", err)
	}
	return s.expectOneRow(ctx, res, transactionID)
}

func (s *PostgresStore) CancelIfActive(ctx context.Context, transactionID id.TransactionID, reason string, at time.Time) error {
	res, err := tx.Exec(ctx, s.db).ExecContext(ctx, `
		UPDATE transactions SET cancelled_at = $2, cancel_reason = $3, updated_at = $2
		WHERE id = $1 AND cancelled_at IS NULL
	`, uuid.UUID(transactionID), at, reason)
	if err != nil {
		return fmt.Errorf("cancel transaction: %w", err)
	}
	return s.expectOneRow(ctx, res, transactionID)
}

func (s *PostgresStore) expectOneRow(ctx context.Context, res sql.Result, transactionID id.TransactionID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}
	var exists bool
	err = tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM transactions WHERE id = $1)`, uuid.UUID(transactionID),
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check transaction: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrStaleState
}

func (s *PostgresStore) ListMilestones(ctx context.Context, transactionID id.TransactionID) ([]*models.Milestone, error) {
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, `
		SELECT `+milestoneColumns+` FROM milestones
		WHERE transaction_id = $1
		ORDER BY sort_order
	`, uuid.UUID(transactionID))
	if err != nil {
		return nil, fmt.Errorf("list milestones: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Milestone, 0)
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, fmt.Errorf("scan milestone: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CompleteMilestoneIfOpen(ctx context.Context, transactionID id.TransactionID, milestoneID id.MilestoneID, by id.UserID, at time.Time) (*models.Milestone, error) {
	q := tx.Exec(ctx, s.db)
	row := q.QueryRowContext(ctx, `
		UPDATE milestones SET completed = TRUE, completed_at = $3, completed_by = $4
		WHERE id = $1 AND transaction_id = $2 AND NOT completed
		RETURNING `+milestoneColumns,
		uuid.UUID(milestoneID), uuid.UUID(transactionID), at, uuid.UUID(by),
	)
	m, err := scanMilestone(row)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("complete milestone: %w", err)
	}

	var exists bool
	err = q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM milestones WHERE id = $1 AND transaction_id = $2)`,
		uuid.UUID(milestoneID), uuid.UUID(transactionID),
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check milestone: %w", err)
	}
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	return nil, sentinel.ErrStaleState
}

func (s *PostgresStore) CompleteOpenMilestoneByTitle(ctx context.Context, transactionID id.TransactionID, title string, by id.UserID, at time.Time) (*models.Milestone, error) {
	row := tx.Exec(ctx, s.db).QueryRowContext(ctx, `
		UPDATE milestones SET completed = TRUE, completed_at = $3, completed_by = $4
		WHERE id = (
			SELECT id FROM milestones
			WHERE transaction_id = $1 AND title = $2 AND NOT completed
			ORDER BY sort_order
			LIMIT 1
		) AND NOT completed
		RETURNING `+milestoneColumns,
		uuid.UUID(transactionID), title, at, uuid.UUID(by),
	)
	m, err := scanMilestone(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("complete milestone by title: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) CreateDDProject(ctx context.Context, p *models.DDProject, tasks []*models.DDTask) error {
	q := tx.Exec(ctx, s.db)
	_, err := q.ExecContext(ctx, `
		INSERT INTO dd_projects (id, transaction_id, name, target_complete_date, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.UUID(p.ID), uuid.UUID(p.TransactionID), p.Name, p.TargetCompleteDate, uuid.UUID(p.CreatedBy), p.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrAlreadyExists
		}
		return fmt.Errorf("create dd project: %w", err)
	}
	for _, t := range tasks {
		_, err := q.ExecContext(ctx, `
			INSERT INTO dd_tasks (id, project_id, category, title, due_date, status, sort_order)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, uuid.UUID(t.ID), uuid.UUID(t.ProjectID), t.Category, t.Title, t.DueDate, string(t.Status), t.SortOrder)
		if err != nil {
			return fmt.Errorf("create dd task: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) FindDDProject(ctx context.Context, transactionID id.TransactionID) (*models.DDProject, []*models.DDTask, error) {
	q := tx.Exec(ctx, s.db)
	var (
		p                    models.DDProject
		pid, txID, createdBy uuid.UUID
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, transaction_id, name, target_complete_date, created_by, created_at
		FROM dd_projects WHERE transaction_id = $1
	`, uuid.UUID(transactionID)).Scan(&pid, &txID, &p.Name, &p.TargetCompleteDate, &createdBy, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, sentinel.ErrNotFound
		}
		return nil, nil, fmt.Errorf("find dd project: %w", err)
	}
	p.ID = id.DDProjectID(pid)
	p.TransactionID = id.TransactionID(txID)
	p.CreatedBy = id.UserID(createdBy)

	rows, err := q.QueryContext(ctx, `
		SELECT id, category, title, due_date, status, sort_order
		FROM dd_tasks WHERE project_id = $1
		ORDER BY sort_order
	`, pid)
	if err != nil {
		return nil, nil, fmt.Errorf("list dd tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*models.DDTask, 0)
	for rows.Next() {
		var (
			t      models.DDTask
			taskID uuid.UUID
			status string
		)
		if err := rows.Scan(&taskID, &t.Category, &t.Title, &t.DueDate, &status, &t.SortOrder); err != nil {
			return nil, nil, fmt.Errorf("scan dd task: %w", err)
		}
		t.ID = id.DDTaskID(taskID)
		t.ProjectID = p.ID
		t.Status = models.TaskStatus(status)
		tasks = append(tasks, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return &p, tasks, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (*models.Transaction, error) {
	var (
		t                                  models.Transaction
		txID, listingID, buyerID, sellerID uuid.UUID
		loiID                              uuid.NullUUID
		stage                              string
	)
	err := row.Scan(
		&txID, &listingID, &buyerID, &sellerID, &loiID, &stage, &t.AgreedPrice,
		&t.CancelledAt, &t.CancelReason, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.ID = id.TransactionID(txID)
	t.ListingID = id.ListingID(listingID)
	t.BuyerID = id.UserID(buyerID)
	t.SellerID = id.UserID(sellerID)
	t.Stage = models.Stage(stage)
	if loiID.Valid {
		loi := id.LOIID(loiID.UUID)
		t.LOIID = &loi
	}
	return &t, nil
}

func scanMilestone(row scanner) (*models.Milestone, error) {
	var (
		m           models.Milestone
		mid, txID   uuid.UUID
		stage       string
		completedBy uuid.NullUUID
	)
	err := row.Scan(&mid, &txID, &m.Title, &stage, &m.Completed, &m.CompletedAt, &completedBy, &m.SortOrder)
	if err != nil {
		return nil, err
	}
	m.ID = id.MilestoneID(mid)
	m.TransactionID = id.TransactionID(txID)
	m.Stage = models.Stage(stage)
	if completedBy.Valid {
		by := id.UserID(completedBy.UUID)
		m.CompletedBy = &by
	}
	return &m, nil
}
