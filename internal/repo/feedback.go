package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// Feedbacks returns every feedback row newest first, optionally restricted to
// one feedback type.
func (r *PostgresRepository) Feedbacks(ctx context.Context, feedbackType string) (out []Feedback, err error) {
	defer func(start time.Time) { err = r.observe("feedbacks", start, err) }(time.Now())

	const (
		all = `
SELECT id::text, user_phone, feedback_type, feedback_content, feedback_rating::float8, created_at
FROM user_feedback
ORDER BY created_at DESC, id DESC;
`
		byType = `
SELECT id::text, user_phone, feedback_type, feedback_content, feedback_rating::float8, created_at
FROM user_feedback
WHERE feedback_type = $1
ORDER BY created_at DESC, id DESC;
`
	)

	var rows pgx.Rows
	if feedbackType == "" {
		rows, err = r.pool.Query(ctx, all)
	} else {
		rows, err = r.pool.Query(ctx, byType, feedbackType)
	}
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanFeedback)
}

// Tables lists the relations in the public schema of the dashboard store.
func (r *PostgresRepository) Tables(ctx context.Context) (out []Table, err error) {
	defer func(start time.Time) { err = r.observe("tables", start, err) }(time.Now())

	const q = `
SELECT table_name, table_schema
FROM information_schema.tables
WHERE table_schema = 'public'
ORDER BY table_name;
`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Table, error) {
		var t Table
		err := row.Scan(&t.Name, &t.Schema)
		return t, err
	})
}
