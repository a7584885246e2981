package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/webforge-labs/webforge-backend/internal/apperr"
	"github.com/webforge-labs/webforge-backend/internal/projects/domain"
)

const projectColumns = `id, user_id::text, name, description, sandbox_id, status, created_at, updated_at`

// Repo provides persistence for projects. Every read and write is scoped
// to the owning user in the WHERE clause, so an absent row and a row
// owned by someone else are indistinguishable.
type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var p domain.Project
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.SandboxID,
		&p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a project in the creating state with no sandbox attached.
func (r *Repo) Create(ctx context.Context, userID, name string, description *string) (*domain.Project, error) {
	for i := 0; i < 5; i++ {
		id, err := domain.NewID()
		if err != nil {
			return nil, err
		}

		q := `
insert into projects (id, user_id, name, description, status)
values ($1, $2::uuid, $3, $4, '` + domain.StatusCreating + `')
returning ` + projectColumns + `;
`
		p, err := scanProject(r.db.QueryRow(ctx, q, id, userID, name, description))
		if err == nil {
			return p, nil
		}

		// unique violation on id → retry with a fresh one
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			continue
		}
		return nil, err
	}

	return nil, fmt.Errorf("failed to generate unique project id")
}

func (r *Repo) GetByID(ctx context.Context, userID, id string) (*domain.Project, error) {
	q := `select ` + projectColumns + ` from projects where id = $1 and user_id = $2::uuid;`

	p, err := scanProject(r.db.QueryRow(ctx, q, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("project")
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repo) List(ctx context.Context, userID string) ([]domain.Project, error) {
	q := `select ` + projectColumns + ` from projects where user_id = $1::uuid order by updated_at desc;`

	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Project, 0, 16)
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.SandboxID,
			&p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateMeta merges name/description into the row; nil fields keep their
// prior value. updated_at is bumped even when both fields are nil.
func (r *Repo) UpdateMeta(ctx context.Context, userID, id string, name, description *string) (*domain.Project, error) {
	q := `
update projects
set name = coalesce($3, name),
    description = coalesce($4, description),
    updated_at = now()
where id = $1 and user_id = $2::uuid
returning ` + projectColumns + `;
`
	p, err := scanProject(r.db.QueryRow(ctx, q, id, userID, name, description))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("project")
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Activate attaches the sandbox and flips the status in one statement, so
// sandbox_id is never visible without status = active.
func (r *Repo) Activate(ctx context.Context, id, sandboxID string) (*domain.Project, error) {
	q := `
update projects
set sandbox_id = $2, status = '` + domain.StatusActive + `', updated_at = now()
where id = $1
returning ` + projectColumns + `;
`
	p, err := scanProject(r.db.QueryRow(ctx, q, id, sandboxID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("project")
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// MarkError records a failed provisioning attempt. sandbox_id stays null.
func (r *Repo) MarkError(ctx context.Context, id string) error {
	q := `update projects set status = '` + domain.StatusError + `', updated_at = now() where id = $1;`
	_, err := r.db.Exec(ctx, q, id)
	return err
}

// MarkStopped detaches the sandbox and parks the project.
func (r *Repo) MarkStopped(ctx context.Context, userID, id string) (*domain.Project, error) {
	q := `
update projects
set sandbox_id = null, status = '` + domain.StatusStopped + `', updated_at = now()
where id = $1 and user_id = $2::uuid
returning ` + projectColumns + `;
`
	p, err := scanProject(r.db.QueryRow(ctx, q, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("project")
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repo) Delete(ctx context.Context, userID, id string) (bool, error) {
	q := `delete from projects where id = $1 and user_id = $2::uuid;`
	ct, err := r.db.Exec(ctx, q, id, userID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}
