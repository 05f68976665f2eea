package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"petcare-dashboard/internal/logging"
	"petcare-dashboard/migrations"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	ctx := context.Background()
	j, err := Open(ctx, filepath.Join(t.TempDir(), "audit.db"), logging.Discard())
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	if err := j.Migrate(ctx, migrations.Files); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return j
}

func TestJournalRecordAndHistory(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)

	base := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)
	tick := 0
	j.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	notes := "see you at 4pm"
	appointment := time.Date(2024, 3, 10, 16, 0, 0, 0, time.FixedZone("IST", 19800))
	first, err := j.Record(ctx, Entry{
		ConsultationID:  "42",
		Action:          "approve",
		Status:          "approved",
		VetNotes:        &notes,
		AppointmentDate: &appointment,
		RequestID:       "req-1",
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if first.ID == "" {
		t.Fatal("expected generated id")
	}
	if _, err := j.Record(ctx, Entry{ConsultationID: "42", Action: "complete", Status: "completed"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := j.Record(ctx, Entry{ConsultationID: "7", Action: "reject", Status: "rejected"}); err != nil {
		t.Fatalf("record: %v", err)
	}

	history, err := j.History(ctx, "42")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(history))
	}
	if history[0].Action != "approve" || history[1].Action != "complete" {
		t.Fatalf("unexpected order %s, %s", history[0].Action, history[1].Action)
	}
	if history[0].VetNotes == nil || *history[0].VetNotes != notes {
		t.Fatalf("vet notes not preserved: %v", history[0].VetNotes)
	}
	if history[0].AppointmentDate == nil || !history[0].AppointmentDate.Equal(appointment) {
		t.Fatalf("appointment not preserved: %v", history[0].AppointmentDate)
	}
	if history[0].RequestID != "req-1" {
		t.Fatalf("request id not preserved: %q", history[0].RequestID)
	}
	if history[1].VetNotes != nil || history[1].AppointmentDate != nil {
		t.Fatal("expected null notes and appointment")
	}
	if !history[0].CreatedAt.Before(history[1].CreatedAt) {
		t.Fatal("expected ascending timestamps")
	}
}

func TestJournalHistorySubsecondOrder(t *testing.T) {
	ctx := context.Background()
	j := openTestJournal(t)

	stamps := []time.Time{
		time.Date(2024, 3, 9, 12, 0, 5, 0, time.UTC),
		time.Date(2024, 3, 9, 12, 0, 5, 500_000_000, time.UTC),
		time.Date(2024, 3, 9, 12, 0, 5, 510_000_000, time.UTC),
	}
	next := 0
	j.now = func() time.Time {
		t := stamps[next]
		next++
		return t
	}
	for _, action := range []string{"approve", "update_notes", "complete"} {
		if _, err := j.Record(ctx, Entry{ConsultationID: "42", Action: action, Status: "approved"}); err != nil {
			t.Fatalf("record %s: %v", action, err)
		}
	}

	history, err := j.History(ctx, "42")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(history))
	}
	for i, want := range []string{"approve", "update_notes", "complete"} {
		if history[i].Action != want || !history[i].CreatedAt.Equal(stamps[i]) {
			t.Fatalf("entry %d: got %s at %s", i, history[i].Action, history[i].CreatedAt)
		}
	}
}

func TestJournalHistoryEmpty(t *testing.T) {
	j := openTestJournal(t)
	history, err := j.History(context.Background(), "missing")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if history == nil || len(history) != 0 {
		t.Fatalf("expected empty non-nil history, got %v", history)
	}
}

func TestJournalMigrateIsIdempotent(t *testing.T) {
	j := openTestJournal(t)
	if err := j.Migrate(context.Background(), migrations.Files); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	var n int
	if err := j.db.QueryRow(`SELECT COUNT(*) FROM schema_migrations;`).Scan(&n); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 applied migration, got %d", n)
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open(context.Background(), "  ", logging.Discard()); err == nil {
		t.Fatal("expected error for empty path")
	}
}
