package repo

import "time"

// DailyActivity is one local calendar day of message traffic.
type DailyActivity struct {
	Date     time.Time
	DAU      int64
	Messages int64
}

// Retention counts the users active yesterday and those active on both days.
type Retention struct {
	Yesterday int64
	BothDays  int64
}

// DayUsers splits the users active on one day by first-ever message date.
type DayUsers struct {
	Total int64
	New   int64
}

// ActivityReport is the raw material of the daily activity summary.
type ActivityReport struct {
	Daily        []DailyActivity
	PeriodActive int64
	Retention    Retention
	LastDay      DayUsers
}

// RegistrationDay is one day of new user registrations.
type RegistrationDay struct {
	Date       time.Time
	NewUsers   int64
	Cumulative int64
}

// ActiveDay is one day of user-sent traffic.
type ActiveDay struct {
	Date          time.Time
	ActiveUsers   int64
	TotalMessages int64
}

// Cohort is the exact-day retention of users sharing a first active date.
type Cohort struct {
	Date  time.Time
	Size  int64
	Day1  float64
	Day7  float64
	Day30 float64
}

// LocationCount is the number of users registered at one location.
type LocationCount struct {
	Location  string
	UserCount int64
}

// EngagementBin aggregates users falling into one message-count tier.
type EngagementBin struct {
	Tier          string
	UserCount     int64
	AvgMessages   float64
	AvgActiveDays float64
}

// OnboardingSplit is the share of users per onboarding state.
type OnboardingSplit struct {
	Status     string
	UserCount  int64
	Percentage float64
}

// HourActivity is the user-sent traffic for one local hour of day.
type HourActivity struct {
	Hour          int
	UniqueUsers   int64
	TotalMessages int64
}

// UserAnalytics is the raw material of the user analytics report.
type UserAnalytics struct {
	Registrations []RegistrationDay
	DailyActive   []ActiveDay
	Cohorts       []Cohort
	Locations     []LocationCount
	Engagement    []EngagementBin
	Onboarding    []OnboardingSplit
	PeakHours     []HourActivity
}

// OverviewWindow holds the instants the overview counts are measured from.
type OverviewWindow struct {
	TodayStart     time.Time
	YesterdayStart time.Time
	WeekAgo        time.Time
	MonthAgo       time.Time
	FiveMinutesAgo time.Time
	HourAgo        time.Time
}

// Overview holds the top-level KPI counts.
type Overview struct {
	TotalUsers          int64
	NewUsersToday       int64
	NewUsersYesterday   int64
	CompletedOnboarding int64

	TotalMessages     int64
	MessagesToday     int64
	MessagesYesterday int64
	ActiveUsersToday  int64
	ActiveNow         int64
	ActiveLastHour    int64

	TotalPets      int64
	PetsAddedToday int64

	TotalFeedback    int64
	PositiveFeedback int64
	FeedbackToday    int64

	PeakHour         *int
	PeakHourMessages int64
}

// ThreadRow is one user in the conversation thread listing.
type ThreadRow struct {
	UserID             string
	Name               *string
	Phone              *string
	Email              *string
	CreatedAt          *time.Time
	LastUserMsg        *time.Time
	OnboardingComplete *bool

	LastMessage  *string
	LastActivity *time.Time
	LastSender   *string

	MessageCount int64
	UserMessages int64
	BotMessages  int64

	PetName   *string
	PetType   *string
	PetBreed  *string
	PetAge    *string
	PetGender *string
}

// UserProfile is a user joined with their pet record.
type UserProfile struct {
	ID                 string
	Name               *string
	Phone              *string
	Email              *string
	CreatedAt          *time.Time
	LastUserMsg        *time.Time
	OnboardingComplete *bool
	HasSeenWelcome     *bool
	Location           *string
	ReferralCode       *string
	InvitesLeft        *int64

	PetName      *string
	PetType      *string
	PetBreed     *string
	PetAge       *string
	PetGender    *string
	PetWeight    *string
	PetNeutered  *string
	PetBirthDate *time.Time
	PetCreatedAt *time.Time
}

// Message is one stored chat message.
type Message struct {
	ID          string
	Content     *string
	Sender      *string
	CreatedAt   *time.Time
	BucketIndex *int64
}

// MessageStats summarises one user's whole message history.
type MessageStats struct {
	Total        int64
	UserMessages int64
	BotMessages  int64
	First        *time.Time
	Last         *time.Time
}

// ResponseGaps is the mean gap between consecutive messages under one hour.
type ResponseGaps struct {
	AvgSeconds *float64
	Count      int64
}

// Feedback is one stored feedback row.
type Feedback struct {
	ID        string
	Phone     *string
	Type      *string
	Content   *string
	Rating    *float64
	CreatedAt *time.Time
}

// Conversation is the raw material of a single user's conversation view.
type Conversation struct {
	Profile  UserProfile
	Messages []Message
	Stats    MessageStats
	Gaps     ResponseGaps
	Feedback []Feedback
}

// Consultation is one consultation joined with the requesting user.
type Consultation struct {
	ID               string
	UserID           *string
	IssueCategory    *string
	IssueDescription *string
	PreferredTime    *string
	Urgency          *string
	Status           string
	Amount           *float64
	AppointmentDate  *time.Time
	VetNotes         *string
	CreatedAt        *time.Time
	UpdatedAt        *time.Time

	UserName    *string
	PhoneNumber *string
	PetName     *string
	PetType     *string
	PetBreed    *string
	PetAge      *string
	Email       *string
}

// ConsultationUpdate is a resolved consultation action ready for the store.
type ConsultationUpdate struct {
	Status          string // empty leaves the status unchanged
	VetNotes        *string
	AppointmentDate *time.Time
	SetAppointment  bool
	AllowedFrom     []string // current statuses the update applies to, empty for any
}

// ConsultationCounts is the consultation stats overview.
type ConsultationCounts struct {
	Total          int64
	PaymentPending int64
	Pending        int64
	Approved       int64
	Rejected       int64
	Completed      int64
	Today          int64
	Week           int64
	Month          int64
	AvgAmount      *float64
	Revenue        *float64
}

// ConsultationDay is one day of consultation bookings.
type ConsultationDay struct {
	Date      time.Time
	Bookings  int64
	Approved  int64
	Completed int64
	Revenue   *float64
}

// CategoryShare is the share of consultations in one issue category.
type CategoryShare struct {
	Category   *string
	Count      int64
	Percentage float64
}

// UrgencyLevel aggregates consultations of one urgency.
type UrgencyLevel struct {
	Level        *string
	Count        int64
	AvgLeadHours *float64
}

// ConsultationWindow holds the instants the consultation stats count from.
type ConsultationWindow struct {
	TodayStart time.Time
	WeekAgo    time.Time
	MonthAgo   time.Time
}

// ConsultationStats is the raw material of the consultation stats report.
type ConsultationStats struct {
	Counts     ConsultationCounts
	Trend      []ConsultationDay
	Categories []CategoryShare
	Urgency    []UrgencyLevel
}

// Table names one relation of the dashboard store.
type Table struct {
	Name   string `json:"table_name"`
	Schema string `json:"table_schema"`
}
