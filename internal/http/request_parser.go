package http

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
)

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams extracts year and month from query parameters. Missing
// values default to the month containing now. Unparseable or out of range
// values are reported as core.ErrInvalidMonth.
func ParseMonthParams(query url.Values, now time.Time) (MonthParams, error) {
	params := MonthParams{
		Year:  now.Year(),
		Month: int(now.Month()),
	}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 || y > 9999 {
			return MonthParams{}, fmt.Errorf("%w: year %q", core.ErrInvalidMonth, v)
		}
		params.Year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return MonthParams{}, fmt.Errorf("%w: got %q", core.ErrInvalidMonth, v)
		}
		params.Month = m
	}

	return params, nil
}

// Key renders the params as a cache key, e.g. "2024-01".
func (p MonthParams) Key() string {
	return core.MonthKey(p.Year, p.Month)
}
