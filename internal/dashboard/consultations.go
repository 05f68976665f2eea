package dashboard

import (
	"context"
	"errors"
	"fmt"

	"petcare-dashboard/internal/audit"
	"petcare-dashboard/internal/consult"
	"petcare-dashboard/internal/logging"
	"petcare-dashboard/internal/repo"
	"petcare-dashboard/internal/report"
)

// Consultations lists one page of consultations, optionally restricted to a
// status. "all" and empty select every status.
func (s *Service) Consultations(ctx context.Context, status string, limit, offset int) (*ConsultationList, error) {
	filter, err := consult.ParseStatusFilter(status)
	if err != nil {
		return nil, err
	}
	rows, total, err := s.repo.Consultations(ctx, filter, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("load consultations: %w", err)
	}
	items := make([]ConsultationItem, 0, len(rows))
	for _, c := range rows {
		items = append(items, consultationItem(c))
	}
	return &ConsultationList{
		Consultations: items,
		Pagination:    paginate(total, offset, limit, len(rows)),
	}, nil
}

// Consultation fetches a single consultation.
func (s *Service) Consultation(ctx context.Context, id string) (*ConsultationItem, error) {
	c, err := s.repo.Consultation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load consultation: %w", err)
	}
	item := consultationItem(*c)
	return &item, nil
}

func consultationItem(c repo.Consultation) ConsultationItem {
	return ConsultationItem{
		ID:               c.ID,
		UserID:           c.UserID,
		IssueCategory:    c.IssueCategory,
		IssueDescription: c.IssueDescription,
		PreferredTime:    c.PreferredTime,
		Urgency:          c.Urgency,
		Status:           c.Status,
		Amount:           c.Amount,
		AppointmentDate:  report.ISOTime(c.AppointmentDate),
		VetNotes:         c.VetNotes,
		CreatedAt:        report.ISOTime(c.CreatedAt),
		UpdatedAt:        report.ISOTime(c.UpdatedAt),
		UserName:         c.UserName,
		PhoneNumber:      c.PhoneNumber,
		PetName:          c.PetName,
		PetType:          c.PetType,
		PetBreed:         c.PetBreed,
		PetAge:           c.PetAge,
		Email:            c.Email,
	}
}

// ApplyAction performs a vet action on a consultation, journals it and drops
// the cached stats.
func (s *Service) ApplyAction(ctx context.Context, id string, req consult.Request) (*ActionResult, error) {
	action, upd, err := consult.Plan(req, s.strict, s.loc)
	if err != nil {
		s.countAction(req.Action, "invalid")
		return nil, err
	}

	c, err := s.repo.UpdateConsultation(ctx, id, upd)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		s.countAction(string(action), "not_found")
		return nil, fmt.Errorf("%s consultation: %w", action, err)
	case errors.Is(err, repo.ErrStatusConflict):
		s.countAction(string(action), "invalid")
		return nil, s.transitionError(ctx, id, action, err)
	case err != nil:
		s.countAction(string(action), "error")
		return nil, fmt.Errorf("%s consultation: %w", action, err)
	}
	s.countAction(string(action), "ok")

	s.journalAction(ctx, action, c)
	s.invalidate(ctx, keyConsultationStats)

	item := consultationItem(*c)
	return &ActionResult{
		Consultation: &item,
		Message:      fmt.Sprintf("Consultation %s successfully", actionVerb(action)),
	}, nil
}

// transitionError explains a guarded update that matched no row in an
// allowed status, naming the status the consultation is in now.
func (s *Service) transitionError(ctx context.Context, id string, action consult.Action, conflict error) error {
	if current, err := s.repo.Consultation(ctx, id); err == nil {
		if _, err := consult.Next(current.Status, action); err != nil {
			return fmt.Errorf("%s consultation: %w", action, err)
		}
	}
	return fmt.Errorf("%s consultation: %w: %w", action, consult.ErrInvalidTransition, conflict)
}

func actionVerb(a consult.Action) string {
	switch a {
	case consult.ActionApprove:
		return "approved"
	case consult.ActionReject:
		return "rejected"
	case consult.ActionComplete:
		return "completed"
	default:
		return "notes updated"
	}
}

// journalAction is best effort: the store update has already happened.
func (s *Service) journalAction(ctx context.Context, action consult.Action, c *repo.Consultation) {
	if s.journal == nil {
		return
	}
	_, err := s.journal.Record(ctx, audit.Entry{
		ConsultationID:  c.ID,
		Action:          string(action),
		Status:          c.Status,
		VetNotes:        c.VetNotes,
		AppointmentDate: c.AppointmentDate,
		RequestID:       logging.RequestID(ctx),
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.CountError("audit")
		}
		s.logger.Error("journal consultation action", "consultation_id", c.ID, "action", action, "error", err)
	}
}

// History returns the journaled actions of an existing consultation.
func (s *Service) History(ctx context.Context, id string) (*ConsultationHistory, error) {
	c, err := s.repo.Consultation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load consultation: %w", err)
	}
	out := &ConsultationHistory{
		ConsultationID: c.ID,
		JournalEnabled: s.journal != nil,
		Entries:        []audit.Entry{},
	}
	if s.journal == nil {
		return out, nil
	}
	entries, err := s.journal.History(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("load consultation history: %w", err)
	}
	if entries != nil {
		out.Entries = entries
	}
	return out, nil
}

func (s *Service) countAction(action, outcome string) {
	if s.metrics == nil {
		return
	}
	if _, err := consult.ParseAction(action); err != nil {
		action = "unknown"
	}
	s.metrics.ConsultationActions.WithLabelValues(action, outcome).Inc()
}

// ConsultationStats serves the triage report, from the cache when warm.
func (s *Service) ConsultationStats(ctx context.Context) (*ConsultationStats, error) {
	return cached(ctx, s, "consultation_stats", keyConsultationStats, s.consultationStats)
}

func (s *Service) consultationStats(ctx context.Context) (*ConsultationStats, error) {
	now := s.now()
	raw, err := s.repo.ConsultationStats(ctx, repo.ConsultationWindow{
		TodayStart: s.dayStart(now),
		WeekAgo:    now.AddDate(0, 0, -7),
		MonthAgo:   now.AddDate(0, 0, -30),
	})
	if err != nil {
		return nil, fmt.Errorf("load consultation stats: %w", err)
	}

	c := raw.Counts
	out := &ConsultationStats{
		Overview: ConsultationOverview{
			TotalConsultations:    c.Total,
			PaymentPending:        c.PaymentPending,
			PendingApproval:       c.Pending,
			Approved:              c.Approved,
			Rejected:              c.Rejected,
			Completed:             c.Completed,
			TodayBookings:         c.Today,
			WeekBookings:          c.Week,
			MonthBookings:         c.Month,
			AvgConsultationAmount: report.Round2(report.Float(c.AvgAmount)),
			TotalRevenue:          report.Round2(report.Float(c.Revenue)),
		},
		Trends:     make([]ConsultationTrend, 0, len(raw.Trend)),
		Categories: make([]CategoryPoint, 0, len(raw.Categories)),
		Urgency:    make([]UrgencyPoint, 0, len(raw.Urgency)),
	}
	for _, d := range raw.Trend {
		out.Trends = append(out.Trends, ConsultationTrend{
			Date:      report.ISODate(d.Date),
			Bookings:  d.Bookings,
			Approved:  d.Approved,
			Completed: d.Completed,
			Revenue:   report.Round2(report.Float(d.Revenue)),
		})
	}
	for _, cat := range raw.Categories {
		out.Categories = append(out.Categories, CategoryPoint{
			Category:   cat.Category,
			Count:      cat.Count,
			Percentage: report.Round1(cat.Percentage),
		})
	}
	for _, u := range raw.Urgency {
		out.Urgency = append(out.Urgency, UrgencyPoint{
			Level:            u.Level,
			Count:            u.Count,
			AvgResponseHours: report.Round1(report.Float(u.AvgLeadHours)),
		})
	}
	return out, nil
}

// Feedbacks lists every feedback row newest first, optionally of one type.
func (s *Service) Feedbacks(ctx context.Context, feedbackType string) (*FeedbackList, error) {
	rows, err := s.repo.Feedbacks(ctx, feedbackType)
	if err != nil {
		return nil, fmt.Errorf("load feedbacks: %w", err)
	}
	out := &FeedbackList{Feedbacks: make([]FeedbackItem, 0, len(rows)), Total: len(rows)}
	for _, f := range rows {
		out.Feedbacks = append(out.Feedbacks, FeedbackItem{
			ID:        f.ID,
			Phone:     f.Phone,
			Type:      f.Type,
			Content:   f.Content,
			Rating:    f.Rating,
			CreatedAt: report.ISOTime(f.CreatedAt),
		})
	}
	return out, nil
}

// Tables lists the dashboard store's public tables.
func (s *Service) Tables(ctx context.Context) (*TableList, error) {
	tables, err := s.repo.Tables(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tables: %w", err)
	}
	if tables == nil {
		tables = []repo.Table{}
	}
	return &TableList{Tables: tables}, nil
}
