package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"marketplace-backend/internal/billing"
)

const dateLayout = "2006-01-02"

func parseDateQuery(r *http.Request, key string) (*time.Time, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// parseDateIn reads a YYYY-MM-DD value as midnight in loc.
func parseDateIn(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(dateLayout, value, loc)
}

// parseMonthQuery accepts ?month=2024-04 or ?year=2024&month=4. Without
// either it falls back to the month containing now.
func parseMonthQuery(r *http.Request, now time.Time) (billing.Month, error) {
	q := r.URL.Query()
	month, year := q.Get("month"), q.Get("year")
	if month == "" && year == "" {
		return billing.MonthOf(now), nil
	}
	if year == "" {
		t, err := time.Parse("2006-01", month)
		if err != nil {
			return billing.Month{}, fmt.Errorf("month must be YYYY-MM")
		}
		return billing.MonthOf(t), nil
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return billing.Month{}, fmt.Errorf("invalid year")
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return billing.Month{}, fmt.Errorf("invalid month")
	}
	return billing.Month{Year: y, Month: time.Month(m)}, nil
}
