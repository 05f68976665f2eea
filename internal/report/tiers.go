package report

import (
	"fmt"
	"strings"
)

// Tier is a closed message-count bin. Max of zero means unbounded.
type Tier struct {
	Label string
	Min   int64
	Max   int64
}

// EngagementTiers are ordered by Min ascending.
var EngagementTiers = []Tier{
	{Label: "1 message", Min: 1, Max: 1},
	{Label: "2-5 messages", Min: 2, Max: 5},
	{Label: "6-15 messages", Min: 6, Max: 15},
	{Label: "16-50 messages", Min: 16, Max: 50},
	{Label: "50+ messages", Min: 51},
}

// TierCaseSQL renders the bins as a SQL CASE over column. Labels and bounds
// are compile-time constants, never request input.
func TierCaseSQL(column string) string {
	var b strings.Builder
	b.WriteString("CASE")
	for _, t := range EngagementTiers {
		if t.Max == 0 {
			fmt.Fprintf(&b, " WHEN %s >= %d THEN '%s'", column, t.Min, t.Label)
			continue
		}
		fmt.Fprintf(&b, " WHEN %s BETWEEN %d AND %d THEN '%s'", column, t.Min, t.Max, t.Label)
	}
	b.WriteString(" END")
	return b.String()
}
