package repo

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestThreadStatementsShareFilterPredicate(t *testing.T) {
	now := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	filters := []ThreadFilter{FilterAll, FilterActive, FilterNewToday, FilterWithPets, FilterHighActivity}
	for _, f := range filters {
		for _, search := range []string{"", "bruno"} {
			q := ThreadQuery{
				Search:      search,
				Filter:      f,
				Sort:        SortMessages,
				Limit:       25,
				Offset:      50,
				ActiveSince: now.Add(-24 * time.Hour),
				TodayStart:  now.Truncate(24 * time.Hour),
			}
			page, count, pageArgs, countArgs, err := threadStatements(q)
			if err != nil {
				t.Fatalf("filter %s: %v", f, err)
			}

			where := count[strings.Index(count, "\nWHERE"):]
			if !strings.Contains(page, where+"\nORDER BY") {
				t.Fatalf("filter %s: page does not share count predicate\ncount: %s\npage: %s", f, count, page)
			}
			if len(pageArgs) != len(countArgs)+2 {
				t.Fatalf("filter %s: expected 2 extra page args, got %d vs %d", f, len(pageArgs), len(countArgs))
			}
			for i := range countArgs {
				if pageArgs[i] != countArgs[i] {
					t.Fatalf("filter %s: arg %d differs", f, i)
				}
			}
			if pageArgs[len(pageArgs)-2] != 25 || pageArgs[len(pageArgs)-1] != 50 {
				t.Fatalf("filter %s: unexpected limit/offset args %v", f, pageArgs)
			}
			if !strings.Contains(where, "wu.parentphone NOT LIKE 'whatsapp_%'") || strings.Contains(where, "COALESCE(wu.parentphone") {
				t.Fatalf("filter %s: system and phoneless accounts not excluded", f)
			}
		}
	}
}

func TestThreadStatementsBindSearchTerm(t *testing.T) {
	q := ThreadQuery{Search: "  50%_off' OR 1=1 --  ", Filter: FilterAll, Sort: SortRecent, Limit: 10}
	page, count, pageArgs, countArgs, err := threadStatements(q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(page, "OR 1=1") || strings.Contains(count, "OR 1=1") {
		t.Fatal("search term interpolated into sql")
	}
	if len(countArgs) != 1 {
		t.Fatalf("expected one search arg, got %d", len(countArgs))
	}
	want := `%50\%\_off' OR 1=1 --%`
	if countArgs[0] != want {
		t.Fatalf("expected pattern %q, got %q", want, countArgs[0])
	}
	if !strings.Contains(page, "LIMIT $2 OFFSET $3") {
		t.Fatalf("unexpected pagination placeholders: %s", page)
	}
	if len(pageArgs) != 3 {
		t.Fatalf("expected 3 page args, got %d", len(pageArgs))
	}
}

func TestThreadStatementsOrderVariants(t *testing.T) {
	for sort, order := range threadOrders {
		page, _, _, _, err := threadStatements(ThreadQuery{Filter: FilterAll, Sort: sort, Limit: 1})
		if err != nil {
			t.Fatalf("sort %s: %v", sort, err)
		}
		if !strings.Contains(page, "ORDER BY "+order) {
			t.Fatalf("sort %s: missing order clause", sort)
		}
	}
	if _, _, _, _, err := threadStatements(ThreadQuery{Filter: FilterAll, Sort: "name; DROP TABLE x"}); !errors.Is(err, ErrUnknownThreadSort) {
		t.Fatalf("expected unknown sort error, got %v", err)
	}
	if _, _, _, _, err := threadStatements(ThreadQuery{Filter: "bogus", Sort: SortRecent}); !errors.Is(err, ErrUnknownThreadFilter) {
		t.Fatalf("expected unknown filter error, got %v", err)
	}
}

func TestParseThreadKeys(t *testing.T) {
	if f, err := ParseThreadFilter(""); err != nil || f != FilterAll {
		t.Fatalf("expected default filter all, got %q %v", f, err)
	}
	if _, err := ParseThreadFilter("vip"); !errors.Is(err, ErrUnknownThreadFilter) {
		t.Fatalf("expected filter rejection, got %v", err)
	}
	if s, err := ParseThreadSort(""); err != nil || s != SortRecent {
		t.Fatalf("expected default sort recent, got %q %v", s, err)
	}
	if s, err := ParseThreadSort("alphabetical"); err != nil || s != SortAlphabetical {
		t.Fatalf("expected alphabetical, got %q %v", s, err)
	}
	if _, err := ParseThreadSort("random"); !errors.Is(err, ErrUnknownThreadSort) {
		t.Fatalf("expected sort rejection, got %v", err)
	}
}

func TestIntervalLiteral(t *testing.T) {
	cases := []struct {
		offset time.Duration
		want   string
	}{
		{5*time.Hour + 30*time.Minute, "05:30:00"},
		{0, "00:00:00"},
		{-3 * time.Hour, "-03:00:00"},
		{-(9*time.Hour + 45*time.Minute), "-09:45:00"},
	}
	for _, tc := range cases {
		if got := IntervalLiteral(tc.offset); got != tc.want {
			t.Fatalf("offset %v: expected %q, got %q", tc.offset, tc.want, got)
		}
	}
}

func TestArgsBindOffsetOnce(t *testing.T) {
	a := newArgs("05:30:00")
	first := a.localDate("created_at")
	since := a.bind("2024-03-01")
	second := a.localHour("created_at")
	if !strings.Contains(first, "$1::interval") || !strings.Contains(second, "$1::interval") {
		t.Fatalf("offset placeholder not reused: %s / %s", first, second)
	}
	if since != "$2" || len(a.values) != 2 {
		t.Fatalf("unexpected binding %s %v", since, a.values)
	}
}
