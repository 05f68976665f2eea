package report

import (
	"strings"
	"testing"
	"time"
)

func TestGrowthRate(t *testing.T) {
	if got := GrowthRate(0, 0); got != 0 {
		t.Fatalf("expected 0 for 0/0, got %v", got)
	}
	if got := GrowthRate(5, 0); got != 100 {
		t.Fatalf("expected 100 for 5/0, got %v", got)
	}
	if got := GrowthRate(8, 4); got != 100 {
		t.Fatalf("expected 100 for 8/4, got %v", got)
	}
	if got := GrowthRate(2, 3); got != -33.3 {
		t.Fatalf("expected -33.3 for 2/3, got %v", got)
	}
}

func TestRetentionRate(t *testing.T) {
	if got := RetentionRate(0, 0); got != 0 {
		t.Fatalf("expected 0 with empty yesterday, got %v", got)
	}
	// yesterday={A,B,C}, today={B,C,D}
	if got := RetentionRate(2, 3); got != 66.7 {
		t.Fatalf("expected 66.7, got %v", got)
	}
}

func TestActivityScore(t *testing.T) {
	got := ActivityScore(ThreadSignals{MessageCount: 7, RecentActivity: true, NewToday: true, HasPet: true})
	if got != 25 {
		t.Fatalf("expected 25, got %d", got)
	}
	if got := ActivityScore(ThreadSignals{MessageCount: 4, HasPet: true}); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
}

func TestISOTime(t *testing.T) {
	if ISOTime(nil) != nil {
		t.Fatal("nil time must stay nil")
	}
	ts := time.Date(2024, 3, 9, 18, 45, 1, 250_000_000, time.FixedZone("IST", 19800))
	got := ISOTime(&ts)
	if got == nil || *got != "2024-03-09T13:15:01.250Z" {
		t.Fatalf("unexpected iso time %v", got)
	}
}

func TestPreview(t *testing.T) {
	if got := Preview(nil, MaxPreviewRunes); got != "No messages yet" {
		t.Fatalf("unexpected empty preview %q", got)
	}
	long := strings.Repeat("é", 160)
	got := Preview(&long, MaxPreviewRunes)
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis, got %q", got)
	}
	if n := len([]rune(strings.TrimSuffix(got, "..."))); n != 150 {
		t.Fatalf("expected 150 runes, got %d", n)
	}
	short := "hello"
	if got := Preview(&short, MaxPreviewRunes); got != "hello" {
		t.Fatalf("unexpected short preview %q", got)
	}
}

func TestDisplayName(t *testing.T) {
	phone := "+919800000000"
	blank := "  "
	if got := DisplayName(&blank, &phone); got != phone {
		t.Fatalf("expected phone fallback, got %q", got)
	}
	if got := DisplayName(nil, nil); got != "Unknown User" {
		t.Fatalf("expected placeholder, got %q", got)
	}
}

func TestWhatsAppJID(t *testing.T) {
	phone := "+91 98000-00000"
	if got := WhatsAppJID(&phone); got != "919800000000@s.whatsapp.net" {
		t.Fatalf("unexpected jid %q", got)
	}
	system := "whatsapp_bot"
	if got := WhatsAppJID(&system); got != "" {
		t.Fatalf("expected empty jid for system account, got %q", got)
	}
}

func TestParseFlag(t *testing.T) {
	yes := "t"
	if b := ParseFlag(&yes); b == nil || !*b {
		t.Fatal("expected true")
	}
	odd := "maybe"
	if ParseFlag(&odd) != nil {
		t.Fatal("expected nil for unknown flag text")
	}
}

func TestMessagesPerDay(t *testing.T) {
	if got := MessagesPerDay(10, 0); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
	if got := MessagesPerDay(30, 2*24*60); got != 15 {
		t.Fatalf("expected 15, got %v", got)
	}
}
