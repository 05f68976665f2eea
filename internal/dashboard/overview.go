package dashboard

import (
	"context"
	"fmt"
	"time"

	"petcare-dashboard/internal/repo"
	"petcare-dashboard/internal/report"
)

// Overview serves the KPI snapshot, from the cache when warm.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	return cached(ctx, s, "overview", keyOverview, s.overview)
}

// Caching reports whether a response cache is configured.
func (s *Service) Caching() bool {
	return s.cache != nil
}

// RefreshOverview recomputes the KPI snapshot and replaces the cached copy.
func (s *Service) RefreshOverview(ctx context.Context) (*Overview, error) {
	o, err := s.overview(ctx)
	if err != nil {
		return nil, err
	}
	s.store(ctx, keyOverview, o)
	return o, nil
}

func (s *Service) overview(ctx context.Context) (*Overview, error) {
	now := s.now()
	today := s.dayStart(now)
	w := repo.OverviewWindow{
		TodayStart:     today,
		YesterdayStart: today.AddDate(0, 0, -1),
		WeekAgo:        now.AddDate(0, 0, -7),
		MonthAgo:       now.AddDate(0, 0, -30),
		FiveMinutesAgo: now.Add(-5 * time.Minute),
		HourAgo:        now.Add(-time.Hour),
	}

	raw, err := s.repo.Overview(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("load overview: %w", err)
	}

	return &Overview{
		TotalUsers:       raw.TotalUsers,
		ActiveUsersToday: raw.ActiveUsersToday,
		ActiveNow:        raw.ActiveNow,
		ActiveLastHour:   raw.ActiveLastHour,

		TotalMessages:        raw.TotalMessages,
		MessagesToday:        raw.MessagesToday,
		MessagesPerUserToday: report.Ratio(raw.MessagesToday, raw.ActiveUsersToday),

		NewUsersToday:     raw.NewUsersToday,
		UserGrowthRate:    report.GrowthRate(raw.NewUsersToday, raw.NewUsersYesterday),
		MessageGrowthRate: report.GrowthRate(raw.MessagesToday, raw.MessagesYesterday),

		OnboardingCompletionRate: report.Percent(raw.CompletedOnboarding, raw.TotalUsers),

		TotalPets:      raw.TotalPets,
		PetsAddedToday: raw.PetsAddedToday,

		TotalFeedback:    raw.TotalFeedback,
		SatisfactionRate: report.Percent(raw.PositiveFeedback, raw.TotalFeedback),
		FeedbackToday:    raw.FeedbackToday,

		PeakHour:         raw.PeakHour,
		PeakHourMessages: raw.PeakHourMessages,

		LastUpdated:    s.stamp(now),
		UpdateInterval: s.refreshInterval.Milliseconds(),
	}, nil
}
