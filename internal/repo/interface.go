package repo

import (
	"context"
	"time"
)

// Repository is the read model behind the dashboard plus the one consultation write path.
type Repository interface {
	// Lifecycle
	Close()
	Ping(ctx context.Context) error

	// Activity analytics
	ActivityReport(ctx context.Context, w ActivityWindow, today, lastDay string) (*ActivityReport, error)
	UserAnalytics(ctx context.Context, since time.Time, sinceDate string) (*UserAnalytics, error)
	Overview(ctx context.Context, w OverviewWindow) (*Overview, error)

	// Conversations
	Threads(ctx context.Context, q ThreadQuery) ([]ThreadRow, int64, error)
	Conversation(ctx context.Context, userID string, limit, offset int) (*Conversation, error)

	// Consultations
	Consultations(ctx context.Context, status string, limit, offset int) ([]Consultation, int64, error)
	Consultation(ctx context.Context, id string) (*Consultation, error)
	UpdateConsultation(ctx context.Context, id string, upd ConsultationUpdate) (*Consultation, error)
	ConsultationStats(ctx context.Context, w ConsultationWindow) (*ConsultationStats, error)

	// Feedback and diagnostics
	Feedbacks(ctx context.Context, feedbackType string) ([]Feedback, error)
	Tables(ctx context.Context) ([]Table, error)
}

var _ Repository = (*PostgresRepository)(nil)
