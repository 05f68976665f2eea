package repo

import (
	"context"
	"fmt"
	"time"

	"petcare-dashboard/internal/report"

	"github.com/jackc/pgx/v5"
)

// UserAnalytics runs the seven user analytics queries concurrently over the
// window starting at since. sinceDate is the local date of since and bounds
// the cohorts.
func (r *PostgresRepository) UserAnalytics(ctx context.Context, since time.Time, sinceDate string) (*UserAnalytics, error) {
	var out UserAnalytics
	err := fanOut(ctx,
		func(ctx context.Context) (err error) {
			out.Registrations, err = r.registrationTrend(ctx, since)
			return err
		},
		func(ctx context.Context) (err error) {
			out.DailyActive, err = r.userSentDaily(ctx, since)
			return err
		},
		func(ctx context.Context) (err error) {
			out.Cohorts, err = r.cohortRetention(ctx, sinceDate)
			return err
		},
		func(ctx context.Context) (err error) {
			out.Locations, err = r.locations(ctx, since)
			return err
		},
		func(ctx context.Context) (err error) {
			out.Engagement, err = r.engagementTiers(ctx, since)
			return err
		},
		func(ctx context.Context) (err error) {
			out.Onboarding, err = r.onboardingSplit(ctx, since)
			return err
		},
		func(ctx context.Context) (err error) {
			out.PeakHours, err = r.hourlyActivity(ctx, since)
			return err
		},
	)
	if err != nil {
		return nil, fmt.Errorf("user analytics: %w", err)
	}
	return &out, nil
}

func (r *PostgresRepository) registrationTrend(ctx context.Context, since time.Time) (out []RegistrationDay, err error) {
	defer func(start time.Time) { err = r.observe("registration_trend", start, err) }(time.Now())

	a := newArgs(r.offset)
	q := fmt.Sprintf(`
SELECT reg_date, new_users, (SUM(new_users) OVER (ORDER BY reg_date))::bigint AS cumulative_users
FROM (
	SELECT %s AS reg_date, COUNT(*) AS new_users
	FROM whatsapp_userinfo
	WHERE created_at >= %s
	GROUP BY reg_date
) daily
ORDER BY reg_date DESC
`, a.localDate("created_at"), a.bind(since))

	rows, err := r.pool.Query(ctx, q, a.values...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (RegistrationDay, error) {
		var d RegistrationDay
		err := row.Scan(&d.Date, &d.NewUsers, &d.Cumulative)
		return d, err
	})
}

func (r *PostgresRepository) userSentDaily(ctx context.Context, since time.Time) (out []ActiveDay, err error) {
	defer func(start time.Time) { err = r.observe("user_sent_daily", start, err) }(time.Now())

	a := newArgs(r.offset)
	q := fmt.Sprintf(`
SELECT %s AS active_date, COUNT(DISTINCT user_id) AS active_users, COUNT(*) AS total_messages
FROM whatsapp_messages
WHERE created_at >= %s AND sender = 'user'
GROUP BY active_date
ORDER BY active_date DESC
`, a.localDate("created_at"), a.bind(since))

	rows, err := r.pool.Query(ctx, q, a.values...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ActiveDay, error) {
		var d ActiveDay
		err := row.Scan(&d.Date, &d.ActiveUsers, &d.TotalMessages)
		return d, err
	})
}

// cohortRetention matches exact local days after the first active date, not
// "at least N days later".
func (r *PostgresRepository) cohortRetention(ctx context.Context, sinceDate string) (out []Cohort, err error) {
	defer func(start time.Time) { err = r.observe("cohort_retention", start, err) }(time.Now())

	a := newArgs(r.offset)
	day := a.localDate("created_at")
	q := fmt.Sprintf(`
WITH first_activity AS (
	SELECT user_id, MIN(%[1]s) AS first_date
	FROM whatsapp_messages
	WHERE sender = 'user'
	GROUP BY user_id
),
activity AS (
	SELECT DISTINCT user_id, %[1]s AS active_date
	FROM whatsapp_messages
	WHERE sender = 'user'
),
cohorts AS (
	SELECT
		f.first_date AS cohort_date,
		COUNT(DISTINCT f.user_id) AS cohort_size,
		COUNT(DISTINCT a.user_id) FILTER (WHERE a.active_date = f.first_date + 1) AS day_1,
		COUNT(DISTINCT a.user_id) FILTER (WHERE a.active_date = f.first_date + 7) AS day_7,
		COUNT(DISTINCT a.user_id) FILTER (WHERE a.active_date = f.first_date + 30) AS day_30
	FROM first_activity f
	LEFT JOIN activity a ON a.user_id = f.user_id
	WHERE f.first_date >= %[2]s::date
	GROUP BY f.first_date
)
SELECT
	cohort_date,
	cohort_size,
	ROUND(day_1 * 100.0 / cohort_size, 1)::float8,
	ROUND(day_7 * 100.0 / cohort_size, 1)::float8,
	ROUND(day_30 * 100.0 / cohort_size, 1)::float8
FROM cohorts
WHERE cohort_size > 0
ORDER BY cohort_date DESC
LIMIT 20
`, day, a.bind(sinceDate))

	rows, err := r.pool.Query(ctx, q, a.values...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Cohort, error) {
		var c Cohort
		err := row.Scan(&c.Date, &c.Size, &c.Day1, &c.Day7, &c.Day30)
		return c, err
	})
}

func (r *PostgresRepository) locations(ctx context.Context, since time.Time) (out []LocationCount, err error) {
	defer func(start time.Time) { err = r.observe("geographic_distribution", start, err) }(time.Now())

	const q = `
SELECT COALESCE(location_address, 'Unknown') AS location, COUNT(*) AS user_count
FROM whatsapp_userinfo
WHERE created_at >= $1
GROUP BY location_address
HAVING COUNT(*) > 1
ORDER BY user_count DESC, location
LIMIT 15;
`
	rows, err := r.pool.Query(ctx, q, since)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (LocationCount, error) {
		var l LocationCount
		err := row.Scan(&l.Location, &l.UserCount)
		return l, err
	})
}

func (r *PostgresRepository) engagementTiers(ctx context.Context, since time.Time) (out []EngagementBin, err error) {
	defer func(start time.Time) { err = r.observe("engagement_tiers", start, err) }(time.Now())

	a := newArgs(r.offset)
	q := fmt.Sprintf(`
WITH user_counts AS (
	SELECT user_id, COUNT(*) AS message_count, COUNT(DISTINCT %s) AS active_days
	FROM whatsapp_messages
	WHERE created_at >= %s AND sender = 'user'
	GROUP BY user_id
)
SELECT %s AS tier, COUNT(*) AS user_count, AVG(message_count)::float8, AVG(active_days)::float8
FROM user_counts
GROUP BY tier
ORDER BY MIN(message_count)
`, a.localDate("created_at"), a.bind(since), report.TierCaseSQL("message_count"))

	rows, err := r.pool.Query(ctx, q, a.values...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (EngagementBin, error) {
		var b EngagementBin
		err := row.Scan(&b.Tier, &b.UserCount, &b.AvgMessages, &b.AvgActiveDays)
		return b, err
	})
}

func (r *PostgresRepository) onboardingSplit(ctx context.Context, since time.Time) (out []OnboardingSplit, err error) {
	defer func(start time.Time) { err = r.observe("onboarding_split", start, err) }(time.Now())

	const q = `
SELECT
	CASE
		WHEN onboarding_complete = true THEN 'Completed'
		WHEN onboarding_complete = false THEN 'Incomplete'
		ELSE 'Unknown'
	END AS status,
	COUNT(*) AS user_count,
	ROUND(COUNT(*) * 100.0 / SUM(COUNT(*)) OVER (), 1)::float8 AS percentage
FROM whatsapp_userinfo
WHERE created_at >= $1
GROUP BY onboarding_complete
ORDER BY user_count DESC;
`
	rows, err := r.pool.Query(ctx, q, since)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (OnboardingSplit, error) {
		var s OnboardingSplit
		err := row.Scan(&s.Status, &s.UserCount, &s.Percentage)
		return s, err
	})
}

func (r *PostgresRepository) hourlyActivity(ctx context.Context, since time.Time) (out []HourActivity, err error) {
	defer func(start time.Time) { err = r.observe("hourly_activity", start, err) }(time.Now())

	a := newArgs(r.offset)
	q := fmt.Sprintf(`
SELECT %s AS hour_of_day, COUNT(DISTINCT user_id) AS unique_users, COUNT(*) AS total_messages
FROM whatsapp_messages
WHERE created_at >= %s AND sender = 'user'
GROUP BY hour_of_day
ORDER BY hour_of_day
`, a.localHour("created_at"), a.bind(since))

	rows, err := r.pool.Query(ctx, q, a.values...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (HourActivity, error) {
		var h HourActivity
		err := row.Scan(&h.Hour, &h.UniqueUsers, &h.TotalMessages)
		return h, err
	})
}
