package dashboard

import (
	"context"
	"fmt"
	"math"

	"petcare-dashboard/internal/repo"
	"petcare-dashboard/internal/report"
)

// Conversation loads one page of a user's conversation with its analytics.
func (s *Service) Conversation(ctx context.Context, userID string, limit, offset int) (*Conversation, error) {
	raw, err := s.repo.Conversation(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	return &Conversation{
		UserProfile:           userProfile(raw.Profile),
		PetInfo:               petInfo(raw.Profile),
		Messages:              messages(raw.Messages),
		ConversationAnalytics: conversationAnalytics(raw.Stats, raw.Gaps),
		UserFeedback:          userFeedback(raw.Feedback),
		Pagination:            paginate(raw.Stats.Total, offset, limit, len(raw.Messages)),
	}, nil
}

// ExportConversation renders a user's whole conversation as the downloadable
// document and its suggested file name.
func (s *Service) ExportConversation(ctx context.Context, userID string) (*ConversationExport, string, error) {
	raw, err := s.repo.Conversation(ctx, userID, 0, 0)
	if err != nil {
		return nil, "", fmt.Errorf("export conversation: %w", err)
	}
	now := s.now()
	doc := &ConversationExport{
		UserProfile:           userProfile(raw.Profile),
		PetInfo:               petInfo(raw.Profile),
		Messages:              messages(raw.Messages),
		ConversationAnalytics: conversationAnalytics(raw.Stats, raw.Gaps),
		UserFeedback:          userFeedback(raw.Feedback),
		ExportedAt:            s.stamp(now),
	}
	name := fmt.Sprintf("conversation-%s-%s.json", doc.UserProfile.ID, s.localDate(now))
	return doc, name, nil
}

func userProfile(p repo.UserProfile) UserProfile {
	return UserProfile{
		ID:                 p.ID,
		Name:               p.Name,
		Phone:              p.Phone,
		Email:              p.Email,
		CreatedAt:          report.ISOTime(p.CreatedAt),
		LastUserMsg:        report.ISOTime(p.LastUserMsg),
		OnboardingComplete: p.OnboardingComplete,
		HasSeenWelcome:     p.HasSeenWelcome,
		Location:           p.Location,
		ReferralCode:       p.ReferralCode,
		InvitesLeft:        p.InvitesLeft,
		WhatsAppJID:        report.WhatsAppJID(p.Phone),
	}
}

func petInfo(p repo.UserProfile) *PetInfo {
	if p.PetName == nil {
		return nil
	}
	return &PetInfo{
		Name:        p.PetName,
		Type:        p.PetType,
		Breed:       p.PetBreed,
		Age:         p.PetAge,
		Gender:      p.PetGender,
		Weight:      p.PetWeight,
		Neutered:    report.ParseFlag(p.PetNeutered),
		DateOfBirth: report.ISOTime(p.PetBirthDate),
		PetCreated:  report.ISOTime(p.PetCreatedAt),
	}
}

func messages(rows []repo.Message) []Message {
	out := make([]Message, 0, len(rows))
	for _, m := range rows {
		out = append(out, Message{
			MessageID:   m.ID,
			Content:     m.Content,
			Sender:      m.Sender,
			Timestamp:   report.ISOTime(m.CreatedAt),
			IsUser:      report.Str(m.Sender) == "user",
			BucketIndex: m.BucketIndex,
		})
	}
	return out
}

func conversationAnalytics(st repo.MessageStats, gaps repo.ResponseGaps) ConversationAnalytics {
	duration := report.DurationMinutes(st.First, st.Last)
	return ConversationAnalytics{
		TotalMessages:               st.Total,
		UserMessages:                st.UserMessages,
		BotMessages:                 st.BotMessages,
		FirstMessage:                report.ISOTime(st.First),
		LastMessage:                 report.ISOTime(st.Last),
		ConversationDurationMinutes: duration,
		AvgResponseTimeSeconds:      int64(math.Round(report.Float(gaps.AvgSeconds))),
		MessagesPerDay:              report.MessagesPerDay(st.Total, duration),
	}
}

func userFeedback(rows []repo.Feedback) []UserFeedback {
	out := make([]UserFeedback, 0, len(rows))
	for _, f := range rows {
		out = append(out, UserFeedback{
			Content:   f.Content,
			Rating:    f.Rating,
			Type:      f.Type,
			CreatedAt: report.ISOTime(f.CreatedAt),
		})
	}
	return out
}
