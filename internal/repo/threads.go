package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// ThreadFilter selects one of the fixed thread listing predicates.
type ThreadFilter string

const (
	FilterAll          ThreadFilter = "all"
	FilterActive       ThreadFilter = "active"
	FilterNewToday     ThreadFilter = "new_today"
	FilterWithPets     ThreadFilter = "with_pets"
	FilterHighActivity ThreadFilter = "high_activity"
)

// ThreadSort selects one of the fixed thread listing orders.
type ThreadSort string

const (
	SortRecent       ThreadSort = "recent"
	SortMessages     ThreadSort = "messages"
	SortAlphabetical ThreadSort = "alphabetical"
	SortCreated      ThreadSort = "created"
)

// HighActivityThreshold is the message count a high-activity thread reaches.
const HighActivityThreshold = 10

// ErrUnknownThreadFilter and ErrUnknownThreadSort reject keys outside the allow-lists.
var (
	ErrUnknownThreadFilter = errors.New("unknown thread filter")
	ErrUnknownThreadSort   = errors.New("unknown thread sort")
)

var threadOrders = map[ThreadSort]string{
	SortRecent:       "sort_time DESC NULLS LAST, wu.id DESC",
	SortMessages:     "msg_count.message_count DESC NULLS LAST, sort_time DESC NULLS LAST, wu.id DESC",
	SortAlphabetical: "wu.parentname ASC NULLS LAST, wu.parentphone ASC NULLS LAST, wu.id ASC",
	SortCreated:      "wu.created_at DESC NULLS LAST, wu.id DESC",
}

// ParseThreadFilter validates a filter key. Empty means all.
func ParseThreadFilter(raw string) (ThreadFilter, error) {
	switch f := ThreadFilter(strings.TrimSpace(raw)); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterActive, FilterNewToday, FilterWithPets, FilterHighActivity:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownThreadFilter, raw)
	}
}

// ParseThreadSort validates a sort key. Empty means recent.
func ParseThreadSort(raw string) (ThreadSort, error) {
	s := ThreadSort(strings.TrimSpace(raw))
	if s == "" {
		return SortRecent, nil
	}
	if _, ok := threadOrders[s]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownThreadSort, raw)
	}
	return s, nil
}

// ThreadQuery is a validated thread listing request. ActiveSince and
// TodayStart are the instants the active and new_today filters compare to.
type ThreadQuery struct {
	Search      string
	Filter      ThreadFilter
	Sort        ThreadSort
	Limit       int
	Offset      int
	ActiveSince time.Time
	TodayStart  time.Time
}

const threadFrom = `
FROM whatsapp_userinfo wu
LEFT JOIN whatsapp_petdetails wp ON wu.id = wp.user_id
LEFT JOIN (
	SELECT DISTINCT ON (user_id) user_id, content, created_at, sender
	FROM whatsapp_messages
	ORDER BY user_id, created_at DESC, message_id DESC
) latest_msg ON wu.id = latest_msg.user_id
LEFT JOIN (
	SELECT
		user_id,
		COUNT(*) AS message_count,
		COUNT(*) FILTER (WHERE sender = 'user') AS user_messages,
		COUNT(*) FILTER (WHERE sender <> 'user') AS bot_messages
	FROM whatsapp_messages
	GROUP BY user_id
) msg_count ON wu.id = msg_count.user_id`

const threadColumns = `
SELECT
	wu.id::text,
	wu.parentname,
	wu.parentphone,
	wu.parentemail,
	wu.created_at,
	wu.last_user_msg,
	wu.onboarding_complete,
	latest_msg.content,
	latest_msg.created_at,
	latest_msg.sender,
	COALESCE(msg_count.message_count, 0),
	COALESCE(msg_count.user_messages, 0),
	COALESCE(msg_count.bot_messages, 0),
	wp.petname,
	wp.pettype,
	wp.breed,
	wp.age::text,
	wp.petgender,
	COALESCE(latest_msg.created_at, wu.created_at) AS sort_time`

// threadStatements renders the page and count statements over one shared
// FROM/WHERE, so the total always counts exactly the rows the page draws from.
// countArgs is a prefix of pageArgs.
func threadStatements(q ThreadQuery) (page, count string, pageArgs, countArgs []any, err error) {
	order, ok := threadOrders[q.Sort]
	if !ok {
		return "", "", nil, nil, fmt.Errorf("%w: %q", ErrUnknownThreadSort, q.Sort)
	}

	a := newArgs("")
	where := []string{`wu.parentphone NOT LIKE 'whatsapp_%'`} // also drops users without a phone

	if term := strings.TrimSpace(q.Search); term != "" {
		p := a.bind("%" + escapeLike(term) + "%")
		where = append(where, fmt.Sprintf(
			"(wu.parentname ILIKE %[1]s OR wu.parentphone ILIKE %[1]s OR wu.parentemail ILIKE %[1]s OR latest_msg.content ILIKE %[1]s OR wp.petname ILIKE %[1]s)", p))
	}

	switch q.Filter {
	case FilterAll, "":
	case FilterActive:
		where = append(where, "latest_msg.created_at >= "+a.bind(q.ActiveSince))
	case FilterNewToday:
		where = append(where, "wu.created_at >= "+a.bind(q.TodayStart))
	case FilterWithPets:
		where = append(where, "wp.user_id IS NOT NULL")
	case FilterHighActivity:
		where = append(where, fmt.Sprintf("msg_count.message_count >= %d", HighActivityThreshold))
	default:
		return "", "", nil, nil, fmt.Errorf("%w: %q", ErrUnknownThreadFilter, q.Filter)
	}

	body := threadFrom + "\nWHERE " + strings.Join(where, "\n  AND ")
	count = "SELECT COUNT(*)" + body
	countArgs = append([]any(nil), a.values...)

	limit := a.bind(q.Limit)
	offset := a.bind(q.Offset)
	page = threadColumns + body + "\nORDER BY " + order + "\nLIMIT " + limit + " OFFSET " + offset
	return page, count, a.values, countArgs, nil
}

// escapeLike makes a search term match literally inside an ILIKE pattern.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Threads returns one page of the thread listing and the total number of
// threads matching the same predicate. Page and count run concurrently.
func (r *PostgresRepository) Threads(ctx context.Context, q ThreadQuery) ([]ThreadRow, int64, error) {
	page, count, pageArgs, countArgs, err := threadStatements(q)
	if err != nil {
		return nil, 0, err
	}

	var (
		rows  []ThreadRow
		total int64
	)
	err = fanOut(ctx,
		func(ctx context.Context) (err error) {
			defer func(start time.Time) { err = r.observe("threads_page", start, err) }(time.Now())
			res, err := r.pool.Query(ctx, page, pageArgs...)
			if err != nil {
				return err
			}
			rows, err = pgx.CollectRows(res, scanThread)
			return err
		},
		func(ctx context.Context) (err error) {
			defer func(start time.Time) { err = r.observe("threads_count", start, err) }(time.Now())
			return r.pool.QueryRow(ctx, count, countArgs...).Scan(&total)
		},
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list threads: %w", err)
	}
	return rows, total, nil
}

func scanThread(row pgx.CollectableRow) (ThreadRow, error) {
	var t ThreadRow
	var sortTime *time.Time
	err := row.Scan(
		&t.UserID, &t.Name, &t.Phone, &t.Email, &t.CreatedAt, &t.LastUserMsg, &t.OnboardingComplete,
		&t.LastMessage, &t.LastActivity, &t.LastSender,
		&t.MessageCount, &t.UserMessages, &t.BotMessages,
		&t.PetName, &t.PetType, &t.PetBreed, &t.PetAge, &t.PetGender,
		&sortTime,
	)
	return t, err
}
