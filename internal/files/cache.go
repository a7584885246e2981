package files

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// CacheRepo mirrors remote file contents in project_files. The mirror is
// not authoritative; the sandbox is the source of truth while a session
// is active.
type CacheRepo struct {
	db *pgxpool.Pool
}

func NewCacheRepo(db *pgxpool.Pool) *CacheRepo {
	return &CacheRepo{db: db}
}

func (r *CacheRepo) Upsert(ctx context.Context, projectID, filePath, content string) error {
	const q = `
insert into project_files (project_id, file_path, content, updated_at)
values ($1, $2, $3, now())
on conflict (project_id, file_path) do update
set content = excluded.content, updated_at = now();
`
	_, err := r.db.Exec(ctx, q, projectID, filePath, content)
	return err
}

func (r *CacheRepo) Delete(ctx context.Context, projectID, filePath string) error {
	const q = `delete from project_files where project_id = $1 and file_path = $2;`
	_, err := r.db.Exec(ctx, q, projectID, filePath)
	return err
}

// PruneOlderThan removes mirror rows not refreshed within the retention
// window and reports how many were dropped.
func (r *CacheRepo) PruneOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	const q = `delete from project_files where updated_at < now() - make_interval(secs => $1);`
	ct, err := r.db.Exec(ctx, q, retention.Seconds())
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}
