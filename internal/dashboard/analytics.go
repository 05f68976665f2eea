package dashboard

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"petcare-dashboard/internal/repo"
	"petcare-dashboard/internal/report"
)

// DefaultDays is the trailing window used when no range is requested.
const DefaultDays = 30

// AnalyticsParams selects the activity window: an inclusive local date range
// when both dates are set, otherwise the trailing Days.
type AnalyticsParams struct {
	StartDate string
	EndDate   string
	Days      int
}

// Analytics builds the daily activity report.
func (s *Service) Analytics(ctx context.Context, p AnalyticsParams) (*Analytics, error) {
	now := s.now()
	today := s.localDate(now)

	w := repo.ActivityWindow{StartDate: p.StartDate, EndDate: p.EndDate}
	periodDays := p.Days
	lastDay := today
	if w.Ranged() {
		start, end, err := s.parseRange(p.StartDate, p.EndDate)
		if err != nil {
			return nil, err
		}
		periodDays = int(end.Sub(start).Hours()/24) + 1
		lastDay = p.EndDate
	} else {
		if periodDays <= 0 {
			periodDays = DefaultDays
		}
		w.Since = s.dayStart(now).AddDate(0, 0, -periodDays)
	}

	raw, err := s.repo.ActivityReport(ctx, w, today, lastDay)
	if err != nil {
		return nil, fmt.Errorf("load analytics: %w", err)
	}

	out := &Analytics{
		DailyData: make([]DailyPoint, 0, len(raw.Daily)),
		Meta: AnalyticsMeta{
			PeriodDays:  periodDays,
			LastUpdated: s.stamp(now),
		},
	}
	if w.Ranged() {
		out.Meta.StartDate = &p.StartDate
		out.Meta.EndDate = &p.EndDate
	}

	var sum int64
	for _, d := range raw.Daily {
		sum += d.DAU
		out.DailyData = append(out.DailyData, DailyPoint{
			Date:     report.ISODate(d.Date),
			DAU:      d.DAU,
			Messages: d.Messages,
		})
	}

	var last, previous int64
	if n := len(raw.Daily); n > 0 {
		last = raw.Daily[n-1].DAU
		if n > 1 {
			previous = raw.Daily[n-2].DAU
		}
		out.Summary.AvgDAUPeriod = int64(math.Round(float64(sum) / float64(n)))
	}

	out.Summary.DAULastDay = last
	out.Summary.DAUGrowth = report.GrowthRate(last, previous)
	out.Summary.NewUsersLastDay = raw.LastDay.New
	out.Summary.ReturningUsersLastDay = raw.LastDay.Total - raw.LastDay.New
	out.Summary.RetentionRate = report.RetentionRate(raw.Retention.BothDays, raw.Retention.Yesterday)
	out.Summary.PeriodActiveUsers = raw.PeriodActive
	out.Summary.LastDayDate = lastDay
	return out, nil
}

func (s *Service) parseRange(startDate, endDate string) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(time.DateOnly, startDate, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start_date %q", ErrInvalidInput, startDate)
	}
	end, err := time.ParseInLocation(time.DateOnly, endDate, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end_date %q", ErrInvalidInput, endDate)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end_date before start_date", ErrInvalidInput)
	}
	return start, end, nil
}

// UserAnalytics builds the user growth report over the trailing days.
func (s *Service) UserAnalytics(ctx context.Context, days int) (*UserAnalytics, error) {
	if days <= 0 {
		days = DefaultDays
	}
	return cached(ctx, s, "user_analytics", keyUserAnalytics+strconv.Itoa(days), func(ctx context.Context) (*UserAnalytics, error) {
		return s.userAnalytics(ctx, days)
	})
}

func (s *Service) userAnalytics(ctx context.Context, days int) (*UserAnalytics, error) {
	since := s.dayStart(s.now()).AddDate(0, 0, -days)
	raw, err := s.repo.UserAnalytics(ctx, since, s.localDate(since))
	if err != nil {
		return nil, fmt.Errorf("load user analytics: %w", err)
	}

	out := &UserAnalytics{
		RegistrationTrends:     make([]RegistrationPoint, 0, len(raw.Registrations)),
		DailyActiveUsers:       make([]ActiveUsersPoint, 0, len(raw.DailyActive)),
		RetentionAnalysis:      make([]CohortPoint, 0, len(raw.Cohorts)),
		GeographicDistribution: make([]LocationPoint, 0, len(raw.Locations)),
		EngagementDistribution: make([]EngagementPoint, 0, len(raw.Engagement)),
		OnboardingCompletion:   make([]OnboardingPoint, 0, len(raw.Onboarding)),
		PeakActivityHours:      make([]HourPoint, 0, len(raw.PeakHours)),
		Summary:                UserSummary{TimeRangeDays: days},
	}

	for _, r := range raw.Registrations {
		out.Summary.TotalNewUsers += r.NewUsers
		out.RegistrationTrends = append(out.RegistrationTrends, RegistrationPoint{
			Date:            report.ISODate(r.Date),
			NewUsers:        r.NewUsers,
			CumulativeUsers: r.Cumulative,
		})
	}

	var activeSum int64
	for _, d := range raw.DailyActive {
		activeSum += d.ActiveUsers
		out.DailyActiveUsers = append(out.DailyActiveUsers, ActiveUsersPoint{
			Date:          report.ISODate(d.Date),
			ActiveUsers:   d.ActiveUsers,
			TotalMessages: d.TotalMessages,
		})
	}
	if n := len(raw.DailyActive); n > 0 {
		out.Summary.AvgDailyActiveUsers = int64(math.Round(float64(activeSum) / float64(n)))
	}

	for _, c := range raw.Cohorts {
		out.RetentionAnalysis = append(out.RetentionAnalysis, CohortPoint{
			CohortDate:     report.ISODate(c.Date),
			CohortSize:     c.Size,
			RetentionDay1:  report.Round1(c.Day1),
			RetentionDay7:  report.Round1(c.Day7),
			RetentionDay30: report.Round1(c.Day30),
		})
	}
	for _, l := range raw.Locations {
		out.GeographicDistribution = append(out.GeographicDistribution, LocationPoint(l))
	}
	for _, e := range raw.Engagement {
		out.EngagementDistribution = append(out.EngagementDistribution, EngagementPoint{
			Tier:          e.Tier,
			UserCount:     e.UserCount,
			AvgMessages:   int64(math.Round(e.AvgMessages)),
			AvgActiveDays: report.Round1(e.AvgActiveDays),
		})
	}
	for _, o := range raw.Onboarding {
		out.OnboardingCompletion = append(out.OnboardingCompletion, OnboardingPoint{
			Status:     o.Status,
			UserCount:  o.UserCount,
			Percentage: report.Round1(o.Percentage),
		})
	}
	for _, h := range raw.PeakHours {
		out.PeakActivityHours = append(out.PeakActivityHours, HourPoint(h))
	}
	return out, nil
}
