// Package repotest provides an in-memory Repository for handler and service tests.
package repotest

import (
	"context"
	"slices"
	"sync"
	"time"

	"petcare-dashboard/internal/repo"
)

// Fake serves canned rows and records the parameters it was called with.
// When Err is set every call fails with it.
type Fake struct {
	mu sync.Mutex

	Err error

	Activity       *repo.ActivityReport
	ActivityWindow repo.ActivityWindow
	Today, LastDay string

	Users      *repo.UserAnalytics
	UsersSince time.Time
	UsersCalls int

	OverviewData   *repo.Overview
	OverviewWindow repo.OverviewWindow
	OverviewCalls  int

	ThreadRows  []repo.ThreadRow
	ThreadTotal int64
	ThreadQuery repo.ThreadQuery

	Conversations     map[string]*repo.Conversation
	ConversationLimit int

	ConsultationRows []repo.Consultation
	Updates          []repo.ConsultationUpdate

	Stats       *repo.ConsultationStats
	StatsWindow repo.ConsultationWindow
	StatsCalls  int

	FeedbackRows []repo.Feedback
	FeedbackType string
	TableRows    []repo.Table
}

var _ repo.Repository = (*Fake)(nil)

func (f *Fake) Close() {}

func (f *Fake) Ping(context.Context) error {
	return f.Err
}

func (f *Fake) ActivityReport(_ context.Context, w repo.ActivityWindow, today, lastDay string) (*repo.ActivityReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ActivityWindow, f.Today, f.LastDay = w, today, lastDay
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Activity == nil {
		return &repo.ActivityReport{}, nil
	}
	return f.Activity, nil
}

func (f *Fake) UserAnalytics(_ context.Context, since time.Time, _ string) (*repo.UserAnalytics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.UsersSince = since
	f.UsersCalls++
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Users == nil {
		return &repo.UserAnalytics{}, nil
	}
	return f.Users, nil
}

func (f *Fake) Overview(_ context.Context, w repo.OverviewWindow) (*repo.Overview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.OverviewWindow = w
	f.OverviewCalls++
	if f.Err != nil {
		return nil, f.Err
	}
	if f.OverviewData == nil {
		return &repo.Overview{}, nil
	}
	return f.OverviewData, nil
}

func (f *Fake) Threads(_ context.Context, q repo.ThreadQuery) ([]repo.ThreadRow, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ThreadQuery = q
	if f.Err != nil {
		return nil, 0, f.Err
	}
	return f.ThreadRows, f.ThreadTotal, nil
}

func (f *Fake) Conversation(_ context.Context, userID string, limit, offset int) (*repo.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	f.ConversationLimit = limit
	c, ok := f.Conversations[userID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	page := *c
	page.Messages = window(c.Messages, limit, offset)
	return &page, nil
}

func (f *Fake) Consultations(_ context.Context, status string, limit, offset int) ([]repo.Consultation, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, 0, f.Err
	}
	var matched []repo.Consultation
	for _, c := range f.ConsultationRows {
		if status == "" || c.Status == status {
			matched = append(matched, c)
		}
	}
	return window(matched, limit, offset), int64(len(matched)), nil
}

func (f *Fake) Consultation(_ context.Context, id string) (*repo.Consultation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	i := f.indexOf(id)
	if i < 0 {
		return nil, repo.ErrNotFound
	}
	c := f.ConsultationRows[i]
	return &c, nil
}

// UpdateConsultation applies upd with the same guard semantics as the store.
func (f *Fake) UpdateConsultation(_ context.Context, id string, upd repo.ConsultationUpdate) (*repo.Consultation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	i := f.indexOf(id)
	if i < 0 {
		return nil, repo.ErrNotFound
	}
	c := &f.ConsultationRows[i]
	if len(upd.AllowedFrom) > 0 && !slices.Contains(upd.AllowedFrom, c.Status) {
		return nil, repo.ErrStatusConflict
	}
	f.Updates = append(f.Updates, upd)
	if upd.Status != "" {
		c.Status = upd.Status
	}
	if upd.VetNotes != nil {
		c.VetNotes = upd.VetNotes
	}
	if upd.SetAppointment {
		c.AppointmentDate = upd.AppointmentDate
	}
	out := *c
	return &out, nil
}

func (f *Fake) ConsultationStats(_ context.Context, w repo.ConsultationWindow) (*repo.ConsultationStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.StatsWindow = w
	f.StatsCalls++
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Stats == nil {
		return &repo.ConsultationStats{}, nil
	}
	return f.Stats, nil
}

func (f *Fake) Feedbacks(_ context.Context, feedbackType string) ([]repo.Feedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FeedbackType = feedbackType
	if f.Err != nil {
		return nil, f.Err
	}
	return f.FeedbackRows, nil
}

func (f *Fake) Tables(context.Context) ([]repo.Table, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.TableRows, nil
}

func (f *Fake) indexOf(id string) int {
	for i, c := range f.ConsultationRows {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func window[T any](rows []T, limit, offset int) []T {
	if offset >= len(rows) {
		return []T{}
	}
	end := len(rows)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return rows[offset:end]
}
