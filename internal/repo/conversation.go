package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Conversation loads a user's profile, one page of messages in chronological
// order, whole-history stats and their latest feedback on a single connection.
// A limit of zero or less loads every message. An unknown user yields ErrNotFound.
func (r *PostgresRepository) Conversation(ctx context.Context, userID string, limit, offset int) (*Conversation, error) {
	var out Conversation
	err := r.withConn(ctx, r.pool, func(conn *pgxpool.Conn) error {
		profile, err := r.userProfile(ctx, conn, userID)
		if err != nil {
			return err
		}
		out.Profile = *profile

		id := profile.ID
		if out.Messages, err = r.messagePage(ctx, conn, id, limit, offset); err != nil {
			return err
		}
		if out.Stats, err = r.messageStats(ctx, conn, id); err != nil {
			return err
		}
		if out.Gaps, err = r.responseGaps(ctx, conn, id); err != nil {
			return err
		}
		if profile.Phone != nil {
			if out.Feedback, err = r.feedbackForPhone(ctx, conn, *profile.Phone); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("conversation %s: %w", userID, err)
	}
	return &out, nil
}

func (r *PostgresRepository) userProfile(ctx context.Context, conn *pgxpool.Conn, userID string) (p *UserProfile, err error) {
	defer func(start time.Time) { err = r.observe("user_profile", start, err) }(time.Now())

	const q = `
SELECT
	wu.id::text,
	wu.parentname,
	wu.parentphone,
	wu.parentemail,
	wu.created_at,
	wu.last_user_msg,
	wu.onboarding_complete,
	wu.has_seen_welcome,
	wu.location_address,
	wu.referralcode,
	wu.numberofinvitesleft::bigint,
	wp.petname,
	wp.pettype,
	wp.breed,
	wp.age::text,
	wp.petgender,
	wp.weight::text,
	wp.neutered::text,
	wp.petdob::timestamptz,
	wp.created_at
FROM whatsapp_userinfo wu
LEFT JOIN whatsapp_petdetails wp ON wu.id = wp.user_id
WHERE wu.id::text = $1
LIMIT 1;
`
	var u UserProfile
	err = conn.QueryRow(ctx, q, userID).Scan(
		&u.ID, &u.Name, &u.Phone, &u.Email, &u.CreatedAt, &u.LastUserMsg,
		&u.OnboardingComplete, &u.HasSeenWelcome, &u.Location, &u.ReferralCode, &u.InvitesLeft,
		&u.PetName, &u.PetType, &u.PetBreed, &u.PetAge, &u.PetGender,
		&u.PetWeight, &u.PetNeutered, &u.PetBirthDate, &u.PetCreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresRepository) messagePage(ctx context.Context, conn *pgxpool.Conn, userID string, limit, offset int) (out []Message, err error) {
	defer func(start time.Time) { err = r.observe("message_page", start, err) }(time.Now())

	const q = `
SELECT message_id::text, content, sender, created_at, bucket_index::bigint
FROM whatsapp_messages
WHERE user_id = $1
ORDER BY created_at ASC, message_id ASC
LIMIT $2 OFFSET $3;
`
	var bound any = limit
	if limit <= 0 {
		bound = nil // LIMIT NULL
	}
	rows, err := conn.Query(ctx, q, userID, bound, offset)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Message, error) {
		var m Message
		err := row.Scan(&m.ID, &m.Content, &m.Sender, &m.CreatedAt, &m.BucketIndex)
		return m, err
	})
}

func (r *PostgresRepository) messageStats(ctx context.Context, conn *pgxpool.Conn, userID string) (out MessageStats, err error) {
	defer func(start time.Time) { err = r.observe("message_stats", start, err) }(time.Now())

	const q = `
SELECT
	COUNT(*),
	COUNT(*) FILTER (WHERE sender = 'user'),
	COUNT(*) FILTER (WHERE sender <> 'user'),
	MIN(created_at),
	MAX(created_at)
FROM whatsapp_messages
WHERE user_id = $1;
`
	err = conn.QueryRow(ctx, q, userID).Scan(&out.Total, &out.UserMessages, &out.BotMessages, &out.First, &out.Last)
	return out, err
}

// responseGaps averages the gaps between consecutive messages, ignoring gaps
// of an hour or more.
func (r *PostgresRepository) responseGaps(ctx context.Context, conn *pgxpool.Conn, userID string) (out ResponseGaps, err error) {
	defer func(start time.Time) { err = r.observe("response_gaps", start, err) }(time.Now())

	const q = `
WITH gaps AS (
	SELECT EXTRACT(EPOCH FROM (created_at - LAG(created_at) OVER (ORDER BY created_at, message_id))) AS seconds
	FROM whatsapp_messages
	WHERE user_id = $1
)
SELECT (AVG(seconds) FILTER (WHERE seconds < 3600))::float8, COUNT(*) FILTER (WHERE seconds < 3600)
FROM gaps;
`
	err = conn.QueryRow(ctx, q, userID).Scan(&out.AvgSeconds, &out.Count)
	return out, err
}

func (r *PostgresRepository) feedbackForPhone(ctx context.Context, conn *pgxpool.Conn, phone string) (out []Feedback, err error) {
	defer func(start time.Time) { err = r.observe("user_feedback", start, err) }(time.Now())

	const q = `
SELECT id::text, user_phone, feedback_type, feedback_content, feedback_rating::float8, created_at
FROM user_feedback
WHERE user_phone = $1
ORDER BY created_at DESC, id DESC
LIMIT 10;
`
	rows, err := conn.Query(ctx, q, phone)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanFeedback)
}

func scanFeedback(row pgx.CollectableRow) (Feedback, error) {
	var f Feedback
	err := row.Scan(&f.ID, &f.Phone, &f.Type, &f.Content, &f.Rating, &f.CreatedAt)
	return f, err
}
