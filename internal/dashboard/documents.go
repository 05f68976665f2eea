package dashboard

import (
	"petcare-dashboard/internal/audit"
	"petcare-dashboard/internal/repo"
)

// Analytics is the daily activity report.
type Analytics struct {
	Summary   AnalyticsSummary `json:"summary"`
	DailyData []DailyPoint     `json:"daily_data"`
	Meta      AnalyticsMeta    `json:"meta"`
}

// AnalyticsSummary holds the headline figures of the last day in the window.
type AnalyticsSummary struct {
	DAULastDay            int64   `json:"dau_last_day"`
	DAUGrowth             float64 `json:"dau_growth"`
	NewUsersLastDay       int64   `json:"new_users_last_day"`
	ReturningUsersLastDay int64   `json:"returning_users_last_day"`
	RetentionRate         float64 `json:"retention_rate"`
	PeriodActiveUsers     int64   `json:"period_active_users"`
	AvgDAUPeriod          int64   `json:"avg_dau_period"`
	LastDayDate           string  `json:"last_day_date"`
}

// DailyPoint is one local calendar day of activity.
type DailyPoint struct {
	Date     string `json:"date"`
	DAU      int64  `json:"dau"`
	Messages int64  `json:"messages"`
}

// AnalyticsMeta echoes the window the report covers.
type AnalyticsMeta struct {
	PeriodDays  int     `json:"period_days"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
	LastUpdated string  `json:"last_updated"`
}

// UserAnalytics is the user growth and engagement report.
type UserAnalytics struct {
	RegistrationTrends     []RegistrationPoint `json:"registration_trends"`
	DailyActiveUsers       []ActiveUsersPoint  `json:"daily_active_users"`
	RetentionAnalysis      []CohortPoint       `json:"retention_analysis"`
	GeographicDistribution []LocationPoint     `json:"geographic_distribution"`
	EngagementDistribution []EngagementPoint   `json:"engagement_distribution"`
	OnboardingCompletion   []OnboardingPoint   `json:"onboarding_completion"`
	PeakActivityHours      []HourPoint         `json:"peak_activity_hours"`
	Summary                UserSummary         `json:"summary"`
}

// RegistrationPoint counts sign-ups on one day with the running total.
type RegistrationPoint struct {
	Date            string `json:"date"`
	NewUsers        int64  `json:"new_users"`
	CumulativeUsers int64  `json:"cumulative_users"`
}

// ActiveUsersPoint counts users who sent a message on one day.
type ActiveUsersPoint struct {
	Date          string `json:"date"`
	ActiveUsers   int64  `json:"active_users"`
	TotalMessages int64  `json:"total_messages"`
}

// CohortPoint is the retention of users first active on CohortDate.
type CohortPoint struct {
	CohortDate     string  `json:"cohort_date"`
	CohortSize     int64   `json:"cohort_size"`
	RetentionDay1  float64 `json:"retention_day_1"`
	RetentionDay7  float64 `json:"retention_day_7"`
	RetentionDay30 float64 `json:"retention_day_30"`
}

// LocationPoint counts users sharing a location.
type LocationPoint struct {
	Location  string `json:"location"`
	UserCount int64  `json:"user_count"`
}

// EngagementPoint aggregates one message-count tier.
type EngagementPoint struct {
	Tier          string  `json:"tier"`
	UserCount     int64   `json:"user_count"`
	AvgMessages   int64   `json:"avg_messages"`
	AvgActiveDays float64 `json:"avg_active_days"`
}

// OnboardingPoint is the share of users in one onboarding state.
type OnboardingPoint struct {
	Status     string  `json:"status"`
	UserCount  int64   `json:"user_count"`
	Percentage float64 `json:"percentage"`
}

// HourPoint is the activity of one local hour of the day.
type HourPoint struct {
	Hour          int   `json:"hour"`
	UniqueUsers   int64 `json:"unique_users"`
	TotalMessages int64 `json:"total_messages"`
}

// UserSummary totals the user analytics window.
type UserSummary struct {
	TimeRangeDays       int   `json:"time_range_days"`
	TotalNewUsers       int64 `json:"total_new_users"`
	AvgDailyActiveUsers int64 `json:"avg_daily_active_users"`
}

// Overview is the KPI tile snapshot.
type Overview struct {
	TotalUsers       int64 `json:"total_users"`
	ActiveUsersToday int64 `json:"active_users_today"`
	ActiveNow        int64 `json:"active_now"`
	ActiveLastHour   int64 `json:"active_last_hour"`

	TotalMessages        int64   `json:"total_messages"`
	MessagesToday        int64   `json:"messages_today"`
	MessagesPerUserToday float64 `json:"messages_per_user_today"`

	NewUsersToday     int64   `json:"new_users_today"`
	UserGrowthRate    float64 `json:"user_growth_rate"`
	MessageGrowthRate float64 `json:"message_growth_rate"`

	OnboardingCompletionRate float64 `json:"onboarding_completion_rate"`

	TotalPets      int64 `json:"total_pets"`
	PetsAddedToday int64 `json:"pets_added_today"`

	TotalFeedback    int64   `json:"total_feedback"`
	SatisfactionRate float64 `json:"satisfaction_rate"`
	FeedbackToday    int64   `json:"feedback_today"`

	PeakHour         *int  `json:"peak_hour"`
	PeakHourMessages int64 `json:"peak_hour_messages"`

	LastUpdated    string `json:"last_updated"`
	UpdateInterval int64  `json:"update_interval"`
}

// ThreadList is one page of the conversation thread listing.
type ThreadList struct {
	Threads    []Thread      `json:"threads"`
	Pagination Pagination    `json:"pagination"`
	Filters    ThreadFilters `json:"filters"`
}

// Thread is one user row of the thread listing.
type Thread struct {
	UserID             string  `json:"user_id"`
	UserName           string  `json:"user_name"`
	UserPhone          *string `json:"user_phone"`
	UserEmail          *string `json:"user_email"`
	UserCreated        *string `json:"user_created"`
	LastUserMsg        *string `json:"last_user_msg"`
	OnboardingComplete *bool   `json:"onboarding_complete"`
	WhatsAppJID        string  `json:"whatsapp_jid,omitempty"`

	LastMessage  string  `json:"last_message"`
	LastActivity *string `json:"last_activity"`
	LastSender   string  `json:"last_sender"`

	MessageCount int64 `json:"message_count"`
	UserMessages int64 `json:"user_messages"`
	BotMessages  int64 `json:"bot_messages"`

	PetInfo *ThreadPet `json:"pet_info"`

	IsRecentActivity bool  `json:"is_recent_activity"`
	IsNewToday       bool  `json:"is_new_today"`
	ActivityScore    int64 `json:"activity_score"`
}

// ThreadPet summarises the pet shown next to a thread.
type ThreadPet struct {
	Name   *string `json:"name"`
	Type   *string `json:"type"`
	Breed  *string `json:"breed"`
	Age    *string `json:"age"`
	Gender *string `json:"gender"`
}

// ThreadFilters echoes the applied search, filter and sort.
type ThreadFilters struct {
	Search string `json:"search"`
	Filter string `json:"filter"`
	Sort   string `json:"sort"`
}

// Pagination describes an offset page.
type Pagination struct {
	Total   int64 `json:"total"`
	Offset  int   `json:"offset"`
	Limit   int   `json:"limit"`
	HasMore bool  `json:"has_more"`
}

func paginate(total int64, offset, limit, returned int) Pagination {
	return Pagination{
		Total:   total,
		Offset:  offset,
		Limit:   limit,
		HasMore: int64(offset+returned) < total,
	}
}

// Conversation is a single user's conversation view.
type Conversation struct {
	UserProfile           UserProfile           `json:"user_profile"`
	PetInfo               *PetInfo              `json:"pet_info"`
	Messages              []Message             `json:"messages"`
	ConversationAnalytics ConversationAnalytics `json:"conversation_analytics"`
	UserFeedback          []UserFeedback        `json:"user_feedback"`
	Pagination            Pagination            `json:"pagination"`
}

// ConversationExport is the downloadable rendition of a conversation.
type ConversationExport struct {
	UserProfile           UserProfile           `json:"user_profile"`
	PetInfo               *PetInfo              `json:"pet_info"`
	Messages              []Message             `json:"messages"`
	ConversationAnalytics ConversationAnalytics `json:"conversation_analytics"`
	UserFeedback          []UserFeedback        `json:"user_feedback"`
	ExportedAt            string                `json:"exported_at"`
}

// UserProfile is the user card of the conversation view.
type UserProfile struct {
	ID                 string  `json:"id"`
	Name               *string `json:"name"`
	Phone              *string `json:"phone"`
	Email              *string `json:"email"`
	CreatedAt          *string `json:"created_at"`
	LastUserMsg        *string `json:"last_user_msg"`
	OnboardingComplete *bool   `json:"onboarding_complete"`
	HasSeenWelcome     *bool   `json:"has_seen_welcome"`
	Location           *string `json:"location"`
	ReferralCode       *string `json:"referral_code"`
	InvitesLeft        *int64  `json:"invites_left"`
	WhatsAppJID        string  `json:"whatsapp_jid,omitempty"`
}

// PetInfo is the user's pet record.
type PetInfo struct {
	Name        *string `json:"name"`
	Type        *string `json:"type"`
	Breed       *string `json:"breed"`
	Age         *string `json:"age"`
	Gender      *string `json:"gender"`
	Weight      *string `json:"weight"`
	Neutered    *bool   `json:"neutered"`
	DateOfBirth *string `json:"date_of_birth"`
	PetCreated  *string `json:"pet_created"`
}

// Message is one message of a conversation.
type Message struct {
	MessageID   string  `json:"message_id"`
	Content     *string `json:"content"`
	Sender      *string `json:"sender"`
	Timestamp   *string `json:"timestamp"`
	IsUser      bool    `json:"is_user"`
	BucketIndex *int64  `json:"bucket_index"`
}

// ConversationAnalytics summarises a user's whole message history.
type ConversationAnalytics struct {
	TotalMessages               int64   `json:"total_messages"`
	UserMessages                int64   `json:"user_messages"`
	BotMessages                 int64   `json:"bot_messages"`
	FirstMessage                *string `json:"first_message"`
	LastMessage                 *string `json:"last_message"`
	ConversationDurationMinutes int64   `json:"conversation_duration_minutes"`
	AvgResponseTimeSeconds      int64   `json:"avg_response_time_seconds"`
	MessagesPerDay              float64 `json:"messages_per_day"`
}

// UserFeedback is feedback left from the user's phone.
type UserFeedback struct {
	Content   *string  `json:"content"`
	Rating    *float64 `json:"rating"`
	Type      *string  `json:"type"`
	CreatedAt *string  `json:"created_at"`
}

// ConsultationItem is a consultation with its owner and pet details.
type ConsultationItem struct {
	ID               string   `json:"id"`
	UserID           *string  `json:"user_id"`
	IssueCategory    *string  `json:"issue_category"`
	IssueDescription *string  `json:"issue_description"`
	PreferredTime    *string  `json:"preferred_time"`
	Urgency          *string  `json:"urgency"`
	Status           string   `json:"status"`
	Amount           *float64 `json:"amount"`
	AppointmentDate  *string  `json:"appointment_date"`
	VetNotes         *string  `json:"vet_notes"`
	CreatedAt        *string  `json:"created_at"`
	UpdatedAt        *string  `json:"updated_at"`

	UserName    *string `json:"user_name"`
	PhoneNumber *string `json:"phone_number"`
	PetName     *string `json:"pet_name"`
	PetType     *string `json:"pet_type"`
	PetBreed    *string `json:"pet_breed"`
	PetAge      *string `json:"pet_age"`
	Email       *string `json:"email,omitempty"`
}

// ConsultationList is one page of consultations.
type ConsultationList struct {
	Consultations []ConsultationItem `json:"consultations"`
	Pagination    Pagination         `json:"pagination"`
}

// ActionResult is the outcome of a consultation action.
type ActionResult struct {
	Consultation *ConsultationItem
	Message      string
}

// ConsultationHistory is the audit trail of one consultation.
type ConsultationHistory struct {
	ConsultationID string        `json:"consultation_id"`
	JournalEnabled bool          `json:"journal_enabled"`
	Entries        []audit.Entry `json:"entries"`
}

// ConsultationStats is the consultation triage report.
type ConsultationStats struct {
	Overview   ConsultationOverview `json:"overview"`
	Trends     []ConsultationTrend  `json:"trends"`
	Categories []CategoryPoint      `json:"categories"`
	Urgency    []UrgencyPoint       `json:"urgency"`
}

// ConsultationOverview counts consultations by status and booking window.
type ConsultationOverview struct {
	TotalConsultations    int64   `json:"total_consultations"`
	PaymentPending        int64   `json:"payment_pending"`
	PendingApproval       int64   `json:"pending_approval"`
	Approved              int64   `json:"approved"`
	Rejected              int64   `json:"rejected"`
	Completed             int64   `json:"completed"`
	TodayBookings         int64   `json:"today_bookings"`
	WeekBookings          int64   `json:"week_bookings"`
	MonthBookings         int64   `json:"month_bookings"`
	AvgConsultationAmount float64 `json:"avg_consultation_amount"`
	TotalRevenue          float64 `json:"total_revenue"`
}

// ConsultationTrend is one day of bookings.
type ConsultationTrend struct {
	Date      string  `json:"date"`
	Bookings  int64   `json:"bookings"`
	Approved  int64   `json:"approved"`
	Completed int64   `json:"completed"`
	Revenue   float64 `json:"revenue"`
}

// CategoryPoint is the share of one issue category.
type CategoryPoint struct {
	Category   *string `json:"category"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

// UrgencyPoint counts one urgency level and its mean lead time to appointment.
type UrgencyPoint struct {
	Level            *string `json:"level"`
	Count            int64   `json:"count"`
	AvgResponseHours float64 `json:"avg_response_hours"`
}

// FeedbackList is every feedback row, newest first.
type FeedbackList struct {
	Feedbacks []FeedbackItem `json:"feedbacks"`
	Total     int            `json:"total"`
}

// FeedbackItem is one row of the feedback listing.
type FeedbackItem struct {
	ID        string   `json:"id"`
	Phone     *string  `json:"phone"`
	Type      *string  `json:"type"`
	Content   *string  `json:"content"`
	Rating    *float64 `json:"rating"`
	CreatedAt *string  `json:"createdAt"`
}

// TableList lists the dashboard store's public tables.
type TableList struct {
	Tables []repo.Table `json:"tables"`
}
