// Package audit keeps a local SQLite journal of consultation transitions.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so stored timestamps sort as text in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Entry is one recorded consultation action.
type Entry struct {
	ID              string     `json:"id"`
	ConsultationID  string     `json:"consultation_id"`
	Action          string     `json:"action"`
	Status          string     `json:"status"`
	VetNotes        *string    `json:"vet_notes"`
	AppointmentDate *time.Time `json:"appointment_date"`
	RequestID       string     `json:"request_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Journal stores audit entries in a SQLite database.
type Journal struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// Open opens (creating if needed) the journal database at path.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Journal, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("audit store path is empty")
	}
	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	dsn = fmt.Sprintf("%s%s_pragma=busy_timeout=10000&_pragma=journal_mode=WAL&_pragma=foreign_keys=ON", dsn, sep)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &Journal{
		db:     db,
		logger: logger.With("component", "audit"),
		now:    time.Now,
	}, nil
}

// Close releases the database handle.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Ping ensures the journal database is reachable.
func (j *Journal) Ping(ctx context.Context) error {
	return j.db.PingContext(ctx)
}

// Migrate executes the SQL files of filesystem in lexicographic order, each
// inside its own transaction. Files already applied are skipped.
func (j *Journal) Migrate(ctx context.Context, filesystem fs.FS) error {
	const tracking = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    name TEXT PRIMARY KEY,
    applied_at TEXT NOT NULL
);
`
	if _, err := j.db.ExecContext(ctx, tracking); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := fs.ReadDir(filesystem, ".")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, k int) bool {
		return entries[i].Name() < entries[k].Name()
	})

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		var applied int
		if err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE name = ?;`, name).Scan(&applied); err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if applied > 0 {
			continue
		}

		sqlBytes, err := fs.ReadFile(filesystem, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if err := j.apply(ctx, name, string(sqlBytes)); err != nil {
			return fmt.Errorf("execute migration %s: %w", name, err)
		}
		j.logger.Info("migration applied", "name", name)
	}
	return nil
}

func (j *Journal) apply(ctx context.Context, name, stmt string) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if strings.TrimSpace(stmt) != "" {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?);`, name, j.now().UTC().Format(timeLayout)); err != nil {
		return err
	}
	return tx.Commit()
}

// Record stores e, assigning its ID and timestamp.
func (j *Journal) Record(ctx context.Context, e Entry) (*Entry, error) {
	e.ID = uuid.NewString()
	e.CreatedAt = j.now().UTC()

	var appointment *string
	if e.AppointmentDate != nil {
		s := e.AppointmentDate.UTC().Format(timeLayout)
		appointment = &s
	}

	const q = `
INSERT INTO consultation_audit (id, consultation_id, action, status, vet_notes, appointment_date, request_id, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?);
`
	_, err := j.db.ExecContext(ctx, q,
		e.ID,
		e.ConsultationID,
		e.Action,
		e.Status,
		e.VetNotes,
		appointment,
		nullString(e.RequestID),
		e.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("record audit entry: %w", err)
	}
	return &e, nil
}

// History returns the entries of one consultation in the order they were recorded.
func (j *Journal) History(ctx context.Context, consultationID string) ([]Entry, error) {
	const q = `
SELECT id, consultation_id, action, status, vet_notes, appointment_date, request_id, created_at
FROM consultation_audit
WHERE consultation_id = ?
ORDER BY created_at ASC, rowid ASC;
`
	rows, err := j.db.QueryContext(ctx, q, consultationID)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e           Entry
			notes       sql.NullString
			appointment sql.NullString
			requestID   sql.NullString
			createdAt   string
		)
		if err := rows.Scan(&e.ID, &e.ConsultationID, &e.Action, &e.Status, &notes, &appointment, &requestID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if notes.Valid {
			e.VetNotes = &notes.String
		}
		if appointment.Valid {
			t, err := time.Parse(time.RFC3339Nano, appointment.String)
			if err != nil {
				return nil, fmt.Errorf("parse appointment date: %w", err)
			}
			e.AppointmentDate = &t
		}
		e.RequestID = requestID.String
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
