package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"

	"library-backend/internal/domains/title/model"
	"library-backend/internal/shared/utils"
	"library-backend/pkg/database"
)

const titleColumns = `
	id, isbn, name, author, categories, description, cover_image_url,
	copies_total, copies_available, version, created_at, updated_at`

type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL title repository
func NewPostgresRepository(pool *pgxpool.Pool) RepositoryInterface {
	return &postgresRepository{pool: pool}
}

func scanTitle(row pgx.Row) (*model.Title, error) {
	var t model.Title
	err := row.Scan(
		&t.ID,
		&t.ISBN,
		&t.Name,
		&t.Author,
		pq.Array(&t.Categories),
		&t.Description,
		&t.CoverImageURL,
		&t.CopiesTotal,
		&t.CopiesAvailable,
		&t.Version,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// AdjustAvailable is a single conditional UPDATE. Row-level locking in Postgres
// serializes concurrent mutations of the same title; other titles are unaffected.
func (r *postgresRepository) AdjustAvailable(ctx context.Context, titleID uuid.UUID, delta int) (*model.Title, error) {
	query := `
		UPDATE titles
		SET copies_available = copies_available + $2,
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $1
		  AND copies_available + $2 >= 0
		  AND copies_available + $2 <= copies_total
		RETURNING` + titleColumns

	t, err := scanTitle(r.pool.QueryRow(ctx, query, titleID, delta))
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to adjust availability: %w", err)
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM titles WHERE id = $1)`, titleID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check title existence: %w", err)
	}

	switch {
	case !exists:
		return nil, model.NewTitleNotFoundError(titleID)
	case delta < 0:
		return nil, model.NewExhaustedError(titleID)
	default:
		return nil, model.NewInventoryFullError(titleID)
	}
}

func (r *postgresRepository) Create(ctx context.Context, t *model.Title) error {
	query := `
		INSERT INTO titles (
			id, isbn, name, author, categories, description, cover_image_url,
			copies_total, copies_available, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		t.ID,
		t.ISBN,
		t.Name,
		t.Author,
		pq.Array(categoriesOrEmpty(t.Categories)),
		t.Description,
		t.CoverImageURL,
		t.CopiesTotal,
		t.CopiesAvailable,
		t.Version,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return mapWriteError(err, "failed to insert title")
	}

	return nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Title, error) {
	query := `SELECT` + titleColumns + ` FROM titles WHERE id = $1`

	t, err := scanTitle(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.NewTitleNotFoundError(id)
		}
		return nil, fmt.Errorf("failed to get title by id: %w", err)
	}

	return t, nil
}

func (r *postgresRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Title, error) {
	result := make(map[uuid.UUID]*model.Title, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT` + titleColumns + ` FROM titles WHERE id = ANY($1)`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get titles by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		t, err := scanTitle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan title: %w", err)
		}
		result[t.ID] = t
	}

	return result, rows.Err()
}

func (r *postgresRepository) List(ctx context.Context, filter model.ListTitlesRequest) ([]model.Title, int, error) {
	filter.SetDefaults()

	whereClause, args := buildListFilter(filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM titles WHERE ` + whereClause
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count query failed: %w", err)
	}

	argIndex := len(args) + 1
	query := fmt.Sprintf(`SELECT`+titleColumns+`
		FROM titles
		WHERE %s
		ORDER BY name ASC, id ASC
		LIMIT $%d OFFSET $%d`, whereClause, argIndex, argIndex+1)
	args = append(args, filter.Limit, filter.Offset())

	titles, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}

	return titles, total, nil
}

func (r *postgresRepository) ListAll(ctx context.Context) ([]model.Title, error) {
	return r.query(ctx, `SELECT`+titleColumns+` FROM titles ORDER BY id`)
}

func (r *postgresRepository) query(ctx context.Context, query string, args ...interface{}) ([]model.Title, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list titles: %w", err)
	}
	defer rows.Close()

	titles := make([]model.Title, 0)
	for rows.Next() {
		t, err := scanTitle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan title: %w", err)
		}
		titles = append(titles, *t)
	}

	return titles, rows.Err()
}

func buildListFilter(filter model.ListTitlesRequest) (string, []interface{}) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	argIndex := 1

	if filter.Search != "" {
		conditions = append(conditions, utils.JoinWithOr([]string{
			fmt.Sprintf("name ILIKE $%d", argIndex),
			fmt.Sprintf("author ILIKE $%d", argIndex),
			fmt.Sprintf("isbn ILIKE $%d", argIndex),
		}))
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(categories)", argIndex))
		args = append(args, filter.Category)
		argIndex++
	}

	if filter.AvailableOnly {
		conditions = append(conditions, "copies_available > 0")
	}

	return utils.JoinWithAnd(conditions), args
}

func (r *postgresRepository) Update(ctx context.Context, t *model.Title, expectedVersion int) error {
	query := `
		UPDATE titles
		SET isbn = $2, name = $3, author = $4, categories = $5, description = $6,
		    cover_image_url = $7, copies_total = $8, copies_available = $9,
		    version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $10
		RETURNING version, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		t.ID,
		t.ISBN,
		t.Name,
		t.Author,
		pq.Array(categoriesOrEmpty(t.Categories)),
		t.Description,
		t.CoverImageURL,
		t.CopiesTotal,
		t.CopiesAvailable,
		expectedVersion,
	).Scan(&t.Version, &t.UpdatedAt)
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := r.GetByID(ctx, t.ID); getErr != nil {
			return getErr
		}
		return model.NewOptimisticLockError(t.ID, expectedVersion)
	}

	return mapWriteError(err, "failed to update title")
}

// Delete locks the row, checks that nothing is lent out and removes it in one transaction
func (r *postgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		var total, available int
		err := tx.QueryRow(ctx,
			`SELECT copies_total, copies_available FROM titles WHERE id = $1 FOR UPDATE`, id,
		).Scan(&total, &available)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.NewTitleNotFoundError(id)
			}
			return fmt.Errorf("failed to lock title: %w", err)
		}

		var activeLoans bool
		err = tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM loans WHERE title_id = $1 AND returned_date IS NULL)`, id,
		).Scan(&activeLoans)
		if err != nil {
			return fmt.Errorf("failed to check active loans: %w", err)
		}

		if activeLoans || available != total {
			return fmt.Errorf("%w: id=%s", model.ErrTitleHasActiveLoans, id)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM titles WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete title: %w", err)
		}
		return nil
	})
}

func mapWriteError(err error, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return model.ErrISBNExists
		case "23514": // check_violation
			return model.ErrAvailableExceedsTotal
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func categoriesOrEmpty(c []string) []string {
	if c == nil {
		return []string{}
	}
	return c
}
