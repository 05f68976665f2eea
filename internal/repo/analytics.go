package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ActivityWindow selects the messages a daily activity report covers: either
// an inclusive range of local dates or everything since an instant.
type ActivityWindow struct {
	StartDate string
	EndDate   string
	Since     time.Time
}

// Ranged reports whether the window is an explicit date range.
func (w ActivityWindow) Ranged() bool {
	return w.StartDate != "" && w.EndDate != ""
}

func (w ActivityWindow) predicate(a *args) string {
	if w.Ranged() {
		return fmt.Sprintf("%s BETWEEN %s::date AND %s::date", a.localDate("created_at"), a.bind(w.StartDate), a.bind(w.EndDate))
	}
	return "created_at >= " + a.bind(w.Since)
}

// ActivityReport runs the daily series, the period distinct count, the
// day-over-day retention for today and the new/returning split for lastDay
// concurrently. Dates are local YYYY-MM-DD strings.
func (r *PostgresRepository) ActivityReport(ctx context.Context, w ActivityWindow, today, lastDay string) (*ActivityReport, error) {
	var out ActivityReport
	err := fanOut(ctx,
		func(ctx context.Context) (err error) {
			out.Daily, err = r.dailyActivity(ctx, w)
			return err
		},
		func(ctx context.Context) (err error) {
			out.PeriodActive, err = r.periodActiveUsers(ctx, w)
			return err
		},
		func(ctx context.Context) (err error) {
			out.Retention, err = r.dayOverDayRetention(ctx, today)
			return err
		},
		func(ctx context.Context) (err error) {
			out.LastDay, err = r.dayUsers(ctx, lastDay)
			return err
		},
	)
	if err != nil {
		return nil, fmt.Errorf("activity report: %w", err)
	}
	return &out, nil
}

func (r *PostgresRepository) dailyActivity(ctx context.Context, w ActivityWindow) (out []DailyActivity, err error) {
	defer func(start time.Time) { err = r.observe("daily_activity", start, err) }(time.Now())

	a := newArgs(r.offset)
	day := a.localDate("created_at")
	q := fmt.Sprintf(`
SELECT %s AS activity_date, COUNT(DISTINCT user_id) AS dau, COUNT(*) AS messages
FROM whatsapp_messages
WHERE %s
GROUP BY activity_date
ORDER BY activity_date
`, day, w.predicate(a))

	rows, err := r.pool.Query(ctx, q, a.values...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (DailyActivity, error) {
		var d DailyActivity
		err := row.Scan(&d.Date, &d.DAU, &d.Messages)
		return d, err
	})
}

// periodActiveUsers is a distinct count over the whole window, not a sum of daily DAU.
func (r *PostgresRepository) periodActiveUsers(ctx context.Context, w ActivityWindow) (n int64, err error) {
	defer func(start time.Time) { err = r.observe("period_active_users", start, err) }(time.Now())

	a := newArgs(r.offset)
	q := "SELECT COUNT(DISTINCT user_id) FROM whatsapp_messages WHERE " + w.predicate(a)
	err = r.pool.QueryRow(ctx, q, a.values...).Scan(&n)
	return n, err
}

func (r *PostgresRepository) dayOverDayRetention(ctx context.Context, today string) (out Retention, err error) {
	defer func(start time.Time) { err = r.observe("day_over_day_retention", start, err) }(time.Now())

	const q = `
WITH today_users AS (
	SELECT DISTINCT user_id FROM whatsapp_messages
	WHERE (created_at AT TIME ZONE $1::interval)::date = $2::date
),
yesterday_users AS (
	SELECT DISTINCT user_id FROM whatsapp_messages
	WHERE (created_at AT TIME ZONE $1::interval)::date = $2::date - 1
)
SELECT
	(SELECT COUNT(*) FROM yesterday_users),
	(SELECT COUNT(*) FROM today_users t JOIN yesterday_users y ON t.user_id = y.user_id);
`
	err = r.pool.QueryRow(ctx, q, r.offset, today).Scan(&out.Yesterday, &out.BothDays)
	return out, err
}

// dayUsers counts the users active on day and how many of them sent their
// first ever message that day.
func (r *PostgresRepository) dayUsers(ctx context.Context, day string) (out DayUsers, err error) {
	defer func(start time.Time) { err = r.observe("new_vs_returning", start, err) }(time.Now())

	const q = `
WITH first_dates AS (
	SELECT user_id, MIN((created_at AT TIME ZONE $1::interval)::date) AS first_date
	FROM whatsapp_messages
	GROUP BY user_id
),
day_users AS (
	SELECT DISTINCT user_id FROM whatsapp_messages
	WHERE (created_at AT TIME ZONE $1::interval)::date = $2::date
)
SELECT COUNT(*), COUNT(*) FILTER (WHERE f.first_date = $2::date)
FROM day_users d
JOIN first_dates f ON d.user_id = f.user_id;
`
	err = r.pool.QueryRow(ctx, q, r.offset, day).Scan(&out.Total, &out.New)
	return out, err
}
