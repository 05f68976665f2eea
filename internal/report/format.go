// Package report shapes store rows into the JSON documents served by the dashboard.
package report

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"go.mau.fi/whatsmeow/types"
)

const (
	// MaxPreviewRunes bounds the last-message preview in thread listings.
	MaxPreviewRunes = 150

	isoTimeLayout = "2006-01-02T15:04:05.000Z07:00"
	isoDateLayout = "2006-01-02"
)

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return roundTo(v, 1)
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return roundTo(v, 2)
}

func roundTo(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	ratio := math.Pow(10, float64(places))
	return math.Round(v*ratio) / ratio
}

// GrowthRate is the percentage change from yesterday to today. A zero base
// yields 0 when today is also zero and 100 otherwise.
func GrowthRate(today, yesterday int64) float64 {
	if yesterday == 0 {
		if today > 0 {
			return 100
		}
		return 0
	}
	return Round1(float64(today-yesterday) / float64(yesterday) * 100)
}

// RetentionRate is |today ∩ yesterday| / |yesterday| × 100, 0 for an empty yesterday.
func RetentionRate(both, yesterday int64) float64 {
	return Percent(both, yesterday)
}

// Percent returns part/whole × 100 rounded to one decimal, 0 for an empty whole.
func Percent(part, whole int64) float64 {
	if whole <= 0 {
		return 0
	}
	return Round1(float64(part) / float64(whole) * 100)
}

// Ratio returns num/den rounded to one decimal, 0 for a zero denominator.
func Ratio(num, den int64) float64 {
	if den == 0 {
		return 0
	}
	return Round1(float64(num) / float64(den))
}

// ThreadSignals are the inputs to ActivityScore.
type ThreadSignals struct {
	MessageCount   int64
	RecentActivity bool
	NewToday       bool
	HasPet         bool
}

// ActivityScore ranks threads for display only; queries never order by it.
func ActivityScore(s ThreadSignals) int64 {
	score := s.MessageCount
	if s.RecentActivity {
		score += 10
	}
	if s.NewToday {
		score += 5
	}
	if s.HasPet {
		score += 3
	}
	return score
}

// ISOTime formats a nullable timestamp as ISO-8601 in UTC.
func ISOTime(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	s := t.UTC().Format(isoTimeLayout)
	return &s
}

// ISODate formats a calendar date as YYYY-MM-DD.
func ISODate(t time.Time) string {
	return t.Format(isoDateLayout)
}

// Float dereferences a nullable float, treating null and NaN as zero.
func Float(v *float64) float64 {
	if v == nil || math.IsNaN(*v) {
		return 0
	}
	return *v
}

// Str dereferences a nullable string.
func Str(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// ParseFlag reads a loosely typed boolean column rendered as text.
func ParseFlag(v *string) *bool {
	if v == nil {
		return nil
	}
	var b bool
	switch strings.ToLower(strings.TrimSpace(*v)) {
	case "true", "t", "yes", "y", "1":
		b = true
	case "false", "f", "no", "n", "0":
		b = false
	default:
		return nil
	}
	return &b
}

// Preview shortens a message body to limit runes, appending "..." when cut.
func Preview(content *string, limit int) string {
	if content == nil || *content == "" {
		return "No messages yet"
	}
	s := *content
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "..."
}

// DisplayName falls back from name to phone to a placeholder.
func DisplayName(name, phone *string) string {
	if n := strings.TrimSpace(Str(name)); n != "" {
		return n
	}
	if p := strings.TrimSpace(Str(phone)); p != "" {
		return p
	}
	return "Unknown User"
}

// WhatsAppJID derives the user JID for a stored phone number. System and test
// accounts (whatsapp_ prefix) and phones without digits yield an empty string.
func WhatsAppJID(phone *string) string {
	p := strings.TrimSpace(Str(phone))
	if p == "" || strings.HasPrefix(p, "whatsapp_") {
		return ""
	}
	var b strings.Builder
	for _, r := range p {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return types.NewJID(b.String(), types.DefaultUserServer).String()
}

// DurationMinutes returns the rounded minutes between two nullable timestamps.
func DurationMinutes(first, last *time.Time) int64 {
	if first == nil || last == nil {
		return 0
	}
	return int64(math.Round(last.Sub(*first).Minutes()))
}

// MessagesPerDay spreads a message total over a conversation duration in minutes.
func MessagesPerDay(total, durationMinutes int64) float64 {
	if durationMinutes <= 0 {
		return 0
	}
	return Round2(float64(total) / (float64(durationMinutes) / (24 * 60)))
}
