package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"petcare-dashboard/internal/repo"
	"petcare-dashboard/internal/report"
)

// ThreadParams is a raw thread listing request.
type ThreadParams struct {
	Search string
	Filter string
	Sort   string
	Limit  int
	Offset int
}

const (
	activeWindow = 24 * time.Hour
	recentWindow = time.Hour
)

// Threads lists one page of conversation threads and the matching total.
func (s *Service) Threads(ctx context.Context, p ThreadParams) (*ThreadList, error) {
	filter, err := repo.ParseThreadFilter(p.Filter)
	if err != nil {
		return nil, err
	}
	sort, err := repo.ParseThreadSort(p.Sort)
	if err != nil {
		return nil, err
	}

	now := s.now()
	today := s.dayStart(now)
	q := repo.ThreadQuery{
		Search:      strings.TrimSpace(p.Search),
		Filter:      filter,
		Sort:        sort,
		Limit:       p.Limit,
		Offset:      p.Offset,
		ActiveSince: now.Add(-activeWindow),
		TodayStart:  today,
	}

	rows, total, err := s.repo.Threads(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("load threads: %w", err)
	}

	out := &ThreadList{
		Threads:    make([]Thread, 0, len(rows)),
		Pagination: paginate(total, p.Offset, p.Limit, len(rows)),
		Filters:    ThreadFilters{Search: q.Search, Filter: string(filter), Sort: string(sort)},
	}
	for _, r := range rows {
		out.Threads = append(out.Threads, s.thread(r, now, today))
	}
	return out, nil
}

func (s *Service) thread(r repo.ThreadRow, now, today time.Time) Thread {
	recent := r.LastActivity != nil && r.LastActivity.After(now.Add(-recentWindow))
	newToday := r.CreatedAt != nil && !r.CreatedAt.Before(today)

	t := Thread{
		UserID:             r.UserID,
		UserName:           report.DisplayName(r.Name, r.Phone),
		UserPhone:          r.Phone,
		UserEmail:          r.Email,
		UserCreated:        report.ISOTime(r.CreatedAt),
		LastUserMsg:        report.ISOTime(r.LastUserMsg),
		OnboardingComplete: r.OnboardingComplete,
		WhatsAppJID:        report.WhatsAppJID(r.Phone),

		LastMessage:  report.Preview(r.LastMessage, report.MaxPreviewRunes),
		LastActivity: report.ISOTime(r.LastActivity),
		LastSender:   "system",

		MessageCount: r.MessageCount,
		UserMessages: r.UserMessages,
		BotMessages:  r.BotMessages,

		IsRecentActivity: recent,
		IsNewToday:       newToday,
	}
	if r.LastSender != nil && *r.LastSender != "" {
		t.LastSender = *r.LastSender
	}
	if r.PetName != nil {
		t.PetInfo = &ThreadPet{
			Name:   r.PetName,
			Type:   r.PetType,
			Breed:  r.PetBreed,
			Age:    r.PetAge,
			Gender: r.PetGender,
		}
	}
	t.ActivityScore = report.ActivityScore(report.ThreadSignals{
		MessageCount:   r.MessageCount,
		RecentActivity: recent,
		NewToday:       newToday,
		HasPet:         t.PetInfo != nil,
	})
	return t
}
