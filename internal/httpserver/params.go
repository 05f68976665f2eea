package httpserver

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var errInvalidParam = errors.New("invalid parameter")

const (
	defaultLimit = 50
	maxLimit     = 500
	maxDays      = 365
)

// intParam reads an optional integer query parameter bounded to [min, max].
func intParam(q url.Values, name string, def, min, max int) (int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", errInvalidParam, name)
	}
	if v < min || v > max {
		return 0, fmt.Errorf("%w: %s must be between %d and %d", errInvalidParam, name, min, max)
	}
	return v, nil
}

func pageParams(q url.Values) (limit, offset int, err error) {
	if limit, err = intParam(q, "limit", defaultLimit, 1, maxLimit); err != nil {
		return 0, 0, err
	}
	if offset, err = intParam(q, "offset", 0, 0, math.MaxInt32); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

// dateRange reads start_date and end_date. Both or neither must be present.
func dateRange(q url.Values) (start, end string, err error) {
	start = strings.TrimSpace(q.Get("start_date"))
	end = strings.TrimSpace(q.Get("end_date"))
	if start == "" && end == "" {
		return "", "", nil
	}
	if start == "" || end == "" {
		return "", "", fmt.Errorf("%w: start_date and end_date must be given together", errInvalidParam)
	}
	for name, v := range map[string]string{"start_date": start, "end_date": end} {
		if _, err := time.Parse(time.DateOnly, v); err != nil {
			return "", "", fmt.Errorf("%w: %s must be YYYY-MM-DD", errInvalidParam, name)
		}
	}
	return start, end, nil
}
