package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Overview collects the KPI tile counts with one concurrent query per table.
func (r *PostgresRepository) Overview(ctx context.Context, w OverviewWindow) (*Overview, error) {
	var out Overview
	err := fanOut(ctx,
		func(ctx context.Context) error { return r.userCounts(ctx, w, &out) },
		func(ctx context.Context) error { return r.messageCounts(ctx, w, &out) },
		func(ctx context.Context) error { return r.petCounts(ctx, w, &out) },
		func(ctx context.Context) error { return r.feedbackCounts(ctx, w, &out) },
		func(ctx context.Context) error { return r.peakHour(ctx, w, &out) },
	)
	if err != nil {
		return nil, fmt.Errorf("overview: %w", err)
	}
	return &out, nil
}

func (r *PostgresRepository) userCounts(ctx context.Context, w OverviewWindow, out *Overview) (err error) {
	defer func(start time.Time) { err = r.observe("overview_users", start, err) }(time.Now())

	const q = `
SELECT
	COUNT(*),
	COUNT(*) FILTER (WHERE created_at >= $1),
	COUNT(*) FILTER (WHERE created_at >= $2 AND created_at < $1),
	COUNT(*) FILTER (WHERE onboarding_complete = true)
FROM whatsapp_userinfo;
`
	return r.pool.QueryRow(ctx, q, w.TodayStart, w.YesterdayStart).
		Scan(&out.TotalUsers, &out.NewUsersToday, &out.NewUsersYesterday, &out.CompletedOnboarding)
}

func (r *PostgresRepository) messageCounts(ctx context.Context, w OverviewWindow, out *Overview) (err error) {
	defer func(start time.Time) { err = r.observe("overview_messages", start, err) }(time.Now())

	const q = `
SELECT
	COUNT(*),
	COUNT(*) FILTER (WHERE created_at >= $1),
	COUNT(*) FILTER (WHERE created_at >= $2 AND created_at < $1),
	COUNT(DISTINCT user_id) FILTER (WHERE created_at >= $1),
	COUNT(DISTINCT user_id) FILTER (WHERE created_at >= $3),
	COUNT(DISTINCT user_id) FILTER (WHERE created_at >= $4)
FROM whatsapp_messages;
`
	return r.pool.QueryRow(ctx, q, w.TodayStart, w.YesterdayStart, w.FiveMinutesAgo, w.HourAgo).
		Scan(&out.TotalMessages, &out.MessagesToday, &out.MessagesYesterday, &out.ActiveUsersToday, &out.ActiveNow, &out.ActiveLastHour)
}

func (r *PostgresRepository) petCounts(ctx context.Context, w OverviewWindow, out *Overview) (err error) {
	defer func(start time.Time) { err = r.observe("overview_pets", start, err) }(time.Now())

	const q = `
SELECT COUNT(*), COUNT(*) FILTER (WHERE created_at >= $1)
FROM whatsapp_petdetails;
`
	return r.pool.QueryRow(ctx, q, w.TodayStart).Scan(&out.TotalPets, &out.PetsAddedToday)
}

// feedbackCounts covers the trailing week only.
func (r *PostgresRepository) feedbackCounts(ctx context.Context, w OverviewWindow, out *Overview) (err error) {
	defer func(start time.Time) { err = r.observe("overview_feedback", start, err) }(time.Now())

	const q = `
SELECT
	COUNT(*),
	COUNT(*) FILTER (WHERE feedback_rating >= 2),
	COUNT(*) FILTER (WHERE created_at >= $1)
FROM user_feedback
WHERE created_at >= $2;
`
	return r.pool.QueryRow(ctx, q, w.TodayStart, w.WeekAgo).
		Scan(&out.TotalFeedback, &out.PositiveFeedback, &out.FeedbackToday)
}

// peakHour picks the busiest local hour of the last month. Equal counts
// resolve to the earliest hour.
func (r *PostgresRepository) peakHour(ctx context.Context, w OverviewWindow, out *Overview) (err error) {
	defer func(start time.Time) { err = r.observe("overview_peak_hour", start, err) }(time.Now())

	a := newArgs(r.offset)
	q := fmt.Sprintf(`
SELECT %s AS hour_of_day, COUNT(*) AS message_count
FROM whatsapp_messages
WHERE created_at >= %s
GROUP BY hour_of_day
ORDER BY message_count DESC, hour_of_day ASC
LIMIT 1
`, a.localHour("created_at"), a.bind(w.MonthAgo))

	var hour int
	err = r.pool.QueryRow(ctx, q, a.values...).Scan(&hour, &out.PeakHourMessages)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	out.PeakHour = &hour
	return nil
}
