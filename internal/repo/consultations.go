package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrStatusConflict is returned when a guarded consultation update matches an
// existing row whose current status does not permit it.
var ErrStatusConflict = errors.New("consultation status conflict")

const consultationColumns = `
	c.id::text,
	c.user_id::text,
	c.issue_category,
	c.issue_description,
	c.preferred_time::text,
	c.urgency,
	c.status,
	c.amount::numeric::float8,
	c.appointment_date,
	c.vet_notes,
	c.created_at,
	c.updated_at,
	u."parentName",
	u."parentPhone",
	u."petName",
	u."petType",
	u.breed,
	u.age::text,
	u."parentEmail"`

func scanConsultation(row pgx.CollectableRow) (Consultation, error) {
	var c Consultation
	err := row.Scan(
		&c.ID, &c.UserID, &c.IssueCategory, &c.IssueDescription, &c.PreferredTime, &c.Urgency,
		&c.Status, &c.Amount, &c.AppointmentDate, &c.VetNotes, &c.CreatedAt, &c.UpdatedAt,
		&c.UserName, &c.PhoneNumber, &c.PetName, &c.PetType, &c.PetBreed, &c.PetAge, &c.Email,
	)
	return c, err
}

// Consultations returns one page of consultations newest first and the total
// matching the same status predicate. An empty status lists every status.
func (r *PostgresRepository) Consultations(ctx context.Context, status string, limit, offset int) ([]Consultation, int64, error) {
	const (
		pageAll = `
SELECT` + consultationColumns + `
FROM consultations c
LEFT JOIN "UserInfo" u ON c.user_id = u.id
ORDER BY c.created_at DESC, c.id DESC
LIMIT $1 OFFSET $2;
`
		pageByStatus = `
SELECT` + consultationColumns + `
FROM consultations c
LEFT JOIN "UserInfo" u ON c.user_id = u.id
WHERE c.status = $3
ORDER BY c.created_at DESC, c.id DESC
LIMIT $1 OFFSET $2;
`
		countAll      = `SELECT COUNT(*) FROM consultations c;`
		countByStatus = `SELECT COUNT(*) FROM consultations c WHERE c.status = $1;`
	)

	page, pageArgs := pageAll, []any{limit, offset}
	count, countArgs := countAll, []any(nil)
	if status != "" {
		page, pageArgs = pageByStatus, []any{limit, offset, status}
		count, countArgs = countByStatus, []any{status}
	}

	var (
		items []Consultation
		total int64
	)
	err := fanOut(ctx,
		func(ctx context.Context) (err error) {
			defer func(start time.Time) { err = r.observe("consultations_page", start, err) }(time.Now())
			rows, err := r.consults.Query(ctx, page, pageArgs...)
			if err != nil {
				return err
			}
			items, err = pgx.CollectRows(rows, scanConsultation)
			return err
		},
		func(ctx context.Context) (err error) {
			defer func(start time.Time) { err = r.observe("consultations_count", start, err) }(time.Now())
			return r.consults.QueryRow(ctx, count, countArgs...).Scan(&total)
		},
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list consultations: %w", err)
	}
	return items, total, nil
}

// Consultation returns a single consultation or ErrNotFound.
func (r *PostgresRepository) Consultation(ctx context.Context, id string) (c *Consultation, err error) {
	defer func(start time.Time) { err = r.observe("consultation", start, err) }(time.Now())

	const q = `
SELECT` + consultationColumns + `
FROM consultations c
LEFT JOIN "UserInfo" u ON c.user_id = u.id
WHERE c.id::text = $1
LIMIT 1;
`
	rows, err := r.consults.Query(ctx, q, id)
	if err != nil {
		return nil, err
	}
	found, err := pgx.CollectExactlyOneRow(rows, scanConsultation)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &found, nil
}

// UpdateConsultation applies a single-row conditional UPDATE and returns the
// updated row. A missing id yields ErrNotFound; an existing row outside
// upd.AllowedFrom yields ErrStatusConflict.
func (r *PostgresRepository) UpdateConsultation(ctx context.Context, id string, upd ConsultationUpdate) (*Consultation, error) {
	q, values := updateStatement(id, upd)

	var updated *Consultation
	err := r.withConn(ctx, r.consults, func(conn *pgxpool.Conn) (err error) {
		defer func(start time.Time) { err = r.observe("consultation_update", start, err) }(time.Now())

		rows, err := conn.Query(ctx, q, values...)
		if err != nil {
			return err
		}
		row, err := pgx.CollectExactlyOneRow(rows, scanConsultation)
		if err == nil {
			updated = &row
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		var current string
		err = conn.QueryRow(ctx, `SELECT status FROM consultations WHERE id::text = $1;`, id).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: current status %s", ErrStatusConflict, current)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// updateStatement renders the UPDATE for a resolved action. Only fixed column
// names appear in the text; every value is bound.
func updateStatement(id string, upd ConsultationUpdate) (string, []any) {
	a := newArgs("")
	idPH := a.bind(id)

	set := []string{}
	if upd.Status != "" {
		set = append(set, "status = "+a.bind(upd.Status))
	}
	set = append(set, "vet_notes = "+a.bind(upd.VetNotes))
	if upd.SetAppointment {
		set = append(set, "appointment_date = "+a.bind(upd.AppointmentDate)+"::timestamptz")
	}
	set = append(set, "updated_at = NOW()")

	where := "id::text = " + idPH
	if len(upd.AllowedFrom) > 0 {
		where += " AND status = ANY(" + a.bind(upd.AllowedFrom) + "::text[])"
	}

	q := fmt.Sprintf(`
WITH updated AS (
	UPDATE consultations
	SET %s
	WHERE %s
	RETURNING *
)
SELECT%s
FROM updated c
LEFT JOIN "UserInfo" u ON c.user_id = u.id
`, strings.Join(set, ",\n\t\t"), where, consultationColumns)
	return q, a.values
}

// ConsultationStats runs the overview, trend, category and urgency queries
// concurrently against the consultations store.
func (r *PostgresRepository) ConsultationStats(ctx context.Context, w ConsultationWindow) (*ConsultationStats, error) {
	var out ConsultationStats
	err := fanOut(ctx,
		func(ctx context.Context) (err error) {
			out.Counts, err = r.consultationCounts(ctx, w)
			return err
		},
		func(ctx context.Context) (err error) {
			out.Trend, err = r.consultationTrend(ctx, w.MonthAgo)
			return err
		},
		func(ctx context.Context) (err error) {
			out.Categories, err = r.consultationCategories(ctx, w.MonthAgo)
			return err
		},
		func(ctx context.Context) (err error) {
			out.Urgency, err = r.consultationUrgency(ctx, w.MonthAgo)
			return err
		},
	)
	if err != nil {
		return nil, fmt.Errorf("consultation stats: %w", err)
	}
	return &out, nil
}

func (r *PostgresRepository) consultationCounts(ctx context.Context, w ConsultationWindow) (out ConsultationCounts, err error) {
	defer func(start time.Time) { err = r.observe("consultation_counts", start, err) }(time.Now())

	const q = `
SELECT
	COUNT(*),
	COUNT(*) FILTER (WHERE status = 'payment_pending'),
	COUNT(*) FILTER (WHERE status = 'pending'),
	COUNT(*) FILTER (WHERE status = 'approved'),
	COUNT(*) FILTER (WHERE status = 'rejected'),
	COUNT(*) FILTER (WHERE status = 'completed'),
	COUNT(*) FILTER (WHERE created_at >= $1),
	COUNT(*) FILTER (WHERE created_at >= $2),
	COUNT(*) FILTER (WHERE created_at >= $3),
	AVG(amount::numeric)::float8,
	(SUM(amount::numeric) FILTER (WHERE status IN ('approved', 'completed')))::float8
FROM consultations;
`
	err = r.consults.QueryRow(ctx, q, w.TodayStart, w.WeekAgo, w.MonthAgo).Scan(
		&out.Total, &out.PaymentPending, &out.Pending, &out.Approved, &out.Rejected, &out.Completed,
		&out.Today, &out.Week, &out.Month, &out.AvgAmount, &out.Revenue,
	)
	return out, err
}

func (r *PostgresRepository) consultationTrend(ctx context.Context, since time.Time) (out []ConsultationDay, err error) {
	defer func(start time.Time) { err = r.observe("consultation_trend", start, err) }(time.Now())

	a := newArgs(r.offset)
	q := fmt.Sprintf(`
SELECT
	%s AS booking_date,
	COUNT(*),
	COUNT(*) FILTER (WHERE status = 'approved'),
	COUNT(*) FILTER (WHERE status = 'completed'),
	SUM(amount::numeric)::float8
FROM consultations
WHERE created_at >= %s
GROUP BY booking_date
ORDER BY booking_date DESC
`, a.localDate("created_at"), a.bind(since))

	rows, err := r.consults.Query(ctx, q, a.values...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ConsultationDay, error) {
		var d ConsultationDay
		err := row.Scan(&d.Date, &d.Bookings, &d.Approved, &d.Completed, &d.Revenue)
		return d, err
	})
}

func (r *PostgresRepository) consultationCategories(ctx context.Context, since time.Time) (out []CategoryShare, err error) {
	defer func(start time.Time) { err = r.observe("consultation_categories", start, err) }(time.Now())

	const q = `
SELECT issue_category, COUNT(*) AS category_count, (COUNT(*) * 100.0 / SUM(COUNT(*)) OVER ())::float8
FROM consultations
WHERE created_at >= $1
GROUP BY issue_category
ORDER BY category_count DESC, issue_category;
`
	rows, err := r.consults.Query(ctx, q, since)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (CategoryShare, error) {
		var c CategoryShare
		err := row.Scan(&c.Category, &c.Count, &c.Percentage)
		return c, err
	})
}

// consultationUrgency reports, per urgency, the mean hours from booking to
// appointment over approved consultations with an appointment set.
func (r *PostgresRepository) consultationUrgency(ctx context.Context, since time.Time) (out []UrgencyLevel, err error) {
	defer func(start time.Time) { err = r.observe("consultation_urgency", start, err) }(time.Now())

	const q = `
SELECT
	urgency,
	COUNT(*),
	(AVG(EXTRACT(EPOCH FROM (appointment_date - created_at)) / 3600)
		FILTER (WHERE status = 'approved' AND appointment_date IS NOT NULL))::float8
FROM consultations
WHERE created_at >= $1
GROUP BY urgency
ORDER BY
	CASE urgency
		WHEN 'high' THEN 1
		WHEN 'medium' THEN 2
		WHEN 'low' THEN 3
		ELSE 4
	END,
	urgency;
`
	rows, err := r.consults.Query(ctx, q, since)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (UrgencyLevel, error) {
		var u UrgencyLevel
		err := row.Scan(&u.Level, &u.Count, &u.AvgLeadHours)
		return u, err
	})
}
