package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/webforge-labs/webforge-backend/internal/apperr"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
}

type UpsertUser struct {
	FirebaseUID string
	Email       string
	DisplayName string
}

// EnsureUser inserts the user on first sign-in and refreshes identity
// fields on subsequent ones.
func (r *Repo) EnsureUser(ctx context.Context, u UpsertUser) (*User, error) {
	if u.FirebaseUID == "" {
		return nil, fmt.Errorf("firebase_uid required")
	}

	const q = `
insert into users (firebase_uid, email, display_name, updated_at)
values ($1, nullif($2,''), nullif($3,''), now())
on conflict (firebase_uid) do update
set
  email = coalesce(excluded.email, users.email),
  display_name = coalesce(excluded.display_name, users.display_name),
  updated_at = now()
returning id::text, coalesce(email,''), coalesce(display_name,''), created_at;
`
	var out User
	err := r.db.QueryRow(ctx, q, u.FirebaseUID, u.Email, u.DisplayName).
		Scan(&out.ID, &out.Email, &out.DisplayName, &out.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*User, error) {
	const q = `
select id::text, coalesce(email,''), coalesce(display_name,''), created_at
from users
where id = $1::uuid;
`
	var out User
	err := r.db.QueryRow(ctx, q, id).
		Scan(&out.ID, &out.Email, &out.DisplayName, &out.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("user")
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
