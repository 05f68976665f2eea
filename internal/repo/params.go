package repo

import "fmt"

// args collects bound parameters for a query assembled from fixed fragments.
// Placeholders are handed out in bind order, so no argument is ever unused.
type args struct {
	values   []any
	offset   string
	offsetPH string
}

func newArgs(offset string) *args {
	return &args{offset: offset}
}

// bind appends v and returns its placeholder.
func (a *args) bind(v any) string {
	a.values = append(a.values, v)
	return fmt.Sprintf("$%d", len(a.values))
}

// tz returns the placeholder of the report offset, binding it on first use.
func (a *args) tz() string {
	if a.offsetPH == "" {
		a.offsetPH = a.bind(a.offset)
	}
	return a.offsetPH
}

// localDate renders the local calendar date of a timestamp column.
func (a *args) localDate(column string) string {
	return fmt.Sprintf("(%s AT TIME ZONE %s::interval)::date", column, a.tz())
}

// localHour renders the local hour of day of a timestamp column.
func (a *args) localHour(column string) string {
	return fmt.Sprintf("EXTRACT(HOUR FROM %s AT TIME ZONE %s::interval)::int", column, a.tz())
}
