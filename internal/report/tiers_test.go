package report

import (
	"strings"
	"testing"
)

// tierOf mirrors the CASE expression: the first bin whose closed range holds count.
func tierOf(count int64) (Tier, bool) {
	for _, t := range EngagementTiers {
		if count >= t.Min && (t.Max == 0 || count <= t.Max) {
			return t, true
		}
	}
	return Tier{}, false
}

func TestTierBoundaries(t *testing.T) {
	cases := map[int64]string{
		1:   "1 message",
		2:   "2-5 messages",
		5:   "2-5 messages",
		6:   "6-15 messages",
		15:  "6-15 messages",
		16:  "16-50 messages",
		50:  "16-50 messages",
		51:  "50+ messages",
		900: "50+ messages",
	}
	for count, want := range cases {
		tier, ok := tierOf(count)
		if !ok {
			t.Fatalf("no tier for %d", count)
		}
		if tier.Label != want {
			t.Fatalf("count %d: expected %q, got %q", count, want, tier.Label)
		}
	}
	if _, ok := tierOf(0); ok {
		t.Fatal("zero messages must not be binned")
	}
}

func TestTiersAreContiguous(t *testing.T) {
	for i := 1; i < len(EngagementTiers); i++ {
		prev, cur := EngagementTiers[i-1], EngagementTiers[i]
		if prev.Max == 0 || cur.Min != prev.Max+1 {
			t.Fatalf("gap or overlap between %q and %q", prev.Label, cur.Label)
		}
	}
}

func TestTierCaseSQL(t *testing.T) {
	sql := TierCaseSQL("message_count")
	for _, frag := range []string{
		"WHEN message_count BETWEEN 2 AND 5 THEN '2-5 messages'",
		"WHEN message_count BETWEEN 16 AND 50 THEN '16-50 messages'",
		"WHEN message_count >= 51 THEN '50+ messages'",
	} {
		if !strings.Contains(sql, frag) {
			t.Fatalf("missing %q in %s", frag, sql)
		}
	}
	if !strings.HasPrefix(sql, "CASE") || !strings.HasSuffix(sql, "END") {
		t.Fatalf("malformed case expression %s", sql)
	}
}
