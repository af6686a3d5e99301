// Queries from queries/import_runs.sql.

package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const insertImportRun = `-- name: InsertImportRun :exec
INSERT INTO import_runs (
    id, file_name, entity, total, successful, failed, skipped, fatal_error, started_at, duration_ms
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10
)
`

type InsertImportRunParams struct {
	ID         pgtype.UUID
	FileName   string
	Entity     string
	Total      int32
	Successful int32
	Failed     int32
	Skipped    int32
	FatalError pgtype.Text
	StartedAt  pgtype.Timestamptz
	DurationMs int64
}

func (q *Queries) InsertImportRun(ctx context.Context, arg InsertImportRunParams) error {
	_, err := q.db.Exec(ctx, insertImportRun,
		arg.ID,
		arg.FileName,
		arg.Entity,
		arg.Total,
		arg.Successful,
		arg.Failed,
		arg.Skipped,
		arg.FatalError,
		arg.StartedAt,
		arg.DurationMs,
	)
	return err
}

const listImportRuns = `-- name: ListImportRuns :many
SELECT id, file_name, entity, total, successful, failed, skipped, fatal_error, started_at, duration_ms FROM import_runs
ORDER BY started_at DESC
LIMIT $1
`

func (q *Queries) ListImportRuns(ctx context.Context, limit int32) ([]ImportRun, error) {
	rows, err := q.db.Query(ctx, listImportRuns, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ImportRun
	for rows.Next() {
		var i ImportRun
		if err := rows.Scan(
			&i.ID,
			&i.FileName,
			&i.Entity,
			&i.Total,
			&i.Successful,
			&i.Failed,
			&i.Skipped,
			&i.FatalError,
			&i.StartedAt,
			&i.DurationMs,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
