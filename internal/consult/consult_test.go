package consult

import (
	"errors"
	"testing"
	"time"
)

func TestNext(t *testing.T) {
	cases := []struct {
		current string
		action  Action
		want    string
		err     error
	}{
		{StatusPending, ActionApprove, StatusApproved, nil},
		{StatusPending, ActionReject, StatusRejected, nil},
		{StatusApproved, ActionComplete, StatusCompleted, nil},
		{StatusRejected, ActionUpdateNotes, StatusRejected, nil},
		{StatusPending, ActionComplete, "", ErrInvalidTransition},
		{StatusCompleted, ActionReject, "", ErrInvalidTransition},
		{StatusApproved, ActionApprove, "", ErrInvalidTransition},
		{StatusPaymentPending, ActionApprove, "", ErrInvalidTransition},
		{StatusPending, Action("delete"), "", ErrInvalidAction},
	}
	for _, tc := range cases {
		got, err := Next(tc.current, tc.action)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Fatalf("%s from %s: expected %v, got %v", tc.action, tc.current, tc.err, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s from %s: unexpected error %v", tc.action, tc.current, err)
		}
		if got != tc.want {
			t.Fatalf("%s from %s: expected %s, got %s", tc.action, tc.current, tc.want, got)
		}
	}
}

func TestPlanApproveWithoutAppointment(t *testing.T) {
	notes := "bring vaccination card"
	action, upd, err := Plan(Request{Action: "approve", VetNotes: &notes}, true, time.UTC)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if action != ActionApprove || upd.Status != StatusApproved {
		t.Fatalf("unexpected plan %s %+v", action, upd)
	}
	if !upd.SetAppointment || upd.AppointmentDate != nil {
		t.Fatal("approve must store a null appointment when none is given")
	}
	if len(upd.AllowedFrom) != 1 || upd.AllowedFrom[0] != StatusPending {
		t.Fatalf("expected guard on pending, got %v", upd.AllowedFrom)
	}
}

func TestPlanUnguarded(t *testing.T) {
	_, upd, err := Plan(Request{Action: "complete"}, false, time.UTC)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if len(upd.AllowedFrom) != 0 {
		t.Fatalf("expected unconditional update, got %v", upd.AllowedFrom)
	}
	if upd.SetAppointment {
		t.Fatal("complete must not touch the appointment")
	}
}

func TestPlanUpdateNotesKeepsStatus(t *testing.T) {
	_, upd, err := Plan(Request{Action: "update_notes"}, true, time.UTC)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if upd.Status != "" || len(upd.AllowedFrom) != 0 {
		t.Fatalf("update_notes must not change or guard status: %+v", upd)
	}
}

func TestPlanRejectsUnknownAction(t *testing.T) {
	if _, _, err := Plan(Request{Action: "escalate"}, true, time.UTC); !errors.Is(err, ErrInvalidAction) {
		t.Fatalf("expected invalid action, got %v", err)
	}
}

func TestParseAppointment(t *testing.T) {
	ist := time.FixedZone("UTC+05:30", 19800)

	local := "2024-03-10T16:30"
	got, err := ParseAppointment(&local, ist)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := time.Date(2024, 3, 10, 11, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	zoned := "2024-03-10T16:30:00Z"
	if got, err := ParseAppointment(&zoned, ist); err != nil || got.Hour() != 16 {
		t.Fatalf("expected explicit zone to win, got %v %v", got, err)
	}

	blank := "  "
	if got, err := ParseAppointment(&blank, ist); err != nil || got != nil {
		t.Fatalf("expected nil for blank, got %v %v", got, err)
	}

	bad := "next tuesday"
	if _, err := ParseAppointment(&bad, ist); !errors.Is(err, ErrInvalidAppointment) {
		t.Fatalf("expected invalid appointment, got %v", err)
	}
}

func TestParseStatusFilter(t *testing.T) {
	if s, err := ParseStatusFilter("all"); err != nil || s != "" {
		t.Fatalf("expected all to clear filter, got %q %v", s, err)
	}
	if s, err := ParseStatusFilter("payment_pending"); err != nil || s != StatusPaymentPending {
		t.Fatalf("unexpected %q %v", s, err)
	}
	if _, err := ParseStatusFilter("pending' OR '1'='1"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected invalid status, got %v", err)
	}
}
