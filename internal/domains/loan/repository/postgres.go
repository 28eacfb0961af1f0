package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"library-backend/internal/domains/loan/model"
)

const loanColumns = `
	id, title_id, member_id, loan_date, due_date, returned_date, created_at, updated_at`

// uniqueActiveLoanIndex is the partial unique index on (member_id, title_id) WHERE returned_date IS NULL
const uniqueActiveLoanIndex = "loans_one_active_per_member_title"

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) RepositoryInterface {
	return &postgresRepository{pool: pool}
}

func scanLoan(row pgx.Row) (*model.Loan, error) {
	var l model.Loan
	if err := row.Scan(
		&l.ID,
		&l.TitleID,
		&l.MemberID,
		&l.LoanDate,
		&l.DueDate,
		&l.ReturnedDate,
		&l.CreatedAt,
		&l.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *postgresRepository) Create(ctx context.Context, loan *model.Loan) error {
	query := `
		INSERT INTO loans (id, title_id, member_id, loan_date, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		loan.ID,
		loan.TitleID,
		loan.MemberID,
		loan.LoanDate,
		loan.DueDate,
		loan.CreatedAt,
		loan.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == uniqueActiveLoanIndex {
			return model.NewDuplicateActiveLoanError(loan.MemberID, loan.TitleID)
		}
		return fmt.Errorf("failed to insert loan: %w", err)
	}

	return nil
}

func (r *postgresRepository) HasActive(ctx context.Context, memberID, titleID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM loans
			WHERE member_id = $1 AND title_id = $2 AND returned_date IS NULL
		)
	`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, memberID, titleID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check active loan: %w", err)
	}
	return exists, nil
}

func (r *postgresRepository) MarkReturned(ctx context.Context, loanID, memberID uuid.UUID, at time.Time) (*model.Loan, error) {
	query := `
		UPDATE loans
		SET returned_date = $3, updated_at = $3
		WHERE id = $1 AND member_id = $2 AND returned_date IS NULL
		RETURNING` + loanColumns

	loan, err := scanLoan(r.pool.QueryRow(ctx, query, loanID, memberID, at))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NewActiveLoanNotFoundError(loanID)
		}
		return nil, fmt.Errorf("failed to mark loan returned: %w", err)
	}
	return loan, nil
}

func (r *postgresRepository) ListByMember(ctx context.Context, memberID uuid.UUID) ([]model.Loan, error) {
	query := `SELECT` + loanColumns + `
		FROM loans
		WHERE member_id = $1
		ORDER BY returned_date IS NOT NULL, created_at DESC, id`

	return r.list(ctx, query, memberID)
}

func (r *postgresRepository) ListActiveByTitle(ctx context.Context, titleID uuid.UUID) ([]model.Loan, error) {
	query := `SELECT` + loanColumns + `
		FROM loans
		WHERE title_id = $1 AND returned_date IS NULL
		ORDER BY loan_date ASC, id`

	return r.list(ctx, query, titleID)
}

func (r *postgresRepository) list(ctx context.Context, query string, args ...interface{}) ([]model.Loan, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	defer rows.Close()

	loans := make([]model.Loan, 0)
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		loans = append(loans, *l)
	}
	return loans, rows.Err()
}

func (r *postgresRepository) CountActiveByTitle(ctx context.Context, titleID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM loans WHERE title_id = $1 AND returned_date IS NULL`, titleID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count active loans: %w", err)
	}
	return n, nil
}

func (r *postgresRepository) ActiveCounts(ctx context.Context) (map[uuid.UUID]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT title_id, COUNT(*)
		FROM loans
		WHERE returned_date IS NULL
		GROUP BY title_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate active loans: %w", err)
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var titleID uuid.UUID
		var n int
		if err := rows.Scan(&titleID, &n); err != nil {
			return nil, fmt.Errorf("failed to scan active count: %w", err)
		}
		counts[titleID] = n
	}
	return counts, rows.Err()
}
