// Package consult holds the consultation status state machine.
package consult

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"petcare-dashboard/internal/repo"
)

// Consultation statuses. payment_pending, paid and cancelled are set by the
// payment collaborator and have no action here.
const (
	StatusPending        = "pending"
	StatusPaymentPending = "payment_pending"
	StatusPaid           = "paid"
	StatusApproved       = "approved"
	StatusRejected       = "rejected"
	StatusCompleted      = "completed"
	StatusCancelled      = "cancelled"
)

// Statuses lists every known status in lifecycle order.
var Statuses = []string{
	StatusPending,
	StatusPaymentPending,
	StatusPaid,
	StatusApproved,
	StatusRejected,
	StatusCompleted,
	StatusCancelled,
}

// Action is a vet-initiated consultation change.
type Action string

const (
	ActionApprove     Action = "approve"
	ActionReject      Action = "reject"
	ActionComplete    Action = "complete"
	ActionUpdateNotes Action = "update_notes"
)

var (
	ErrInvalidAction      = errors.New("invalid action")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrInvalidAppointment = errors.New("invalid appointment date")
	ErrInvalidStatus      = errors.New("invalid status")
)

type rule struct {
	target          string
	from            []string
	setsAppointment bool
}

var rules = map[Action]rule{
	ActionApprove:     {target: StatusApproved, from: []string{StatusPending}, setsAppointment: true},
	ActionReject:      {target: StatusRejected, from: []string{StatusPending}},
	ActionComplete:    {target: StatusCompleted, from: []string{StatusApproved}},
	ActionUpdateNotes: {},
}

// Request is the body of a consultation action.
type Request struct {
	Action          string  `json:"action"`
	VetNotes        *string `json:"vetNotes"`
	AppointmentDate *string `json:"appointmentDate"`
}

// ParseAction validates an action name.
func ParseAction(raw string) (Action, error) {
	a := Action(strings.TrimSpace(raw))
	if _, ok := rules[a]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, raw)
	}
	return a, nil
}

// ValidStatus reports whether s is a known status.
func ValidStatus(s string) bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// ParseStatusFilter validates a listing filter. "all" and empty select every
// status and map to "".
func ParseStatusFilter(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "all" {
		return "", nil
	}
	if !ValidStatus(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

// Next returns the status a consultation in current moves to under a.
// update_notes applies in any state and leaves the status unchanged.
func Next(current string, a Action) (string, error) {
	r, ok := rules[a]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidAction, a)
	}
	if r.target == "" {
		return current, nil
	}
	for _, from := range r.from {
		if current == from {
			return r.target, nil
		}
	}
	return "", fmt.Errorf("%w: cannot %s a %s consultation", ErrInvalidTransition, a, current)
}

// Plan resolves a request into the store update it performs. When strict is
// false the update ignores the current status. Zone-less appointment dates are
// read in loc.
func Plan(req Request, strict bool, loc *time.Location) (Action, repo.ConsultationUpdate, error) {
	a, err := ParseAction(req.Action)
	if err != nil {
		return "", repo.ConsultationUpdate{}, err
	}
	r := rules[a]

	upd := repo.ConsultationUpdate{
		Status:   r.target,
		VetNotes: req.VetNotes,
	}
	if r.setsAppointment {
		appointment, err := ParseAppointment(req.AppointmentDate, loc)
		if err != nil {
			return "", repo.ConsultationUpdate{}, err
		}
		upd.AppointmentDate = appointment
		upd.SetAppointment = true
	}
	if strict {
		upd.AllowedFrom = r.from
	}
	return a, upd, nil
}

var appointmentLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseAppointment reads an optional appointment date. Nil or blank input
// yields nil.
func ParseAppointment(raw *string, loc *time.Location) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	s := strings.TrimSpace(*raw)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return &t, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range appointmentLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidAppointment, s)
}
