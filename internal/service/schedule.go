package service

import (
	"strings"
	"time"

	appErrors "github.com/noah-isme/edu-center-api/pkg/errors"
)

// ParseWeeklyPattern splits a comma-separated weekday list ("MON,WED,FRI"),
// trimming blanks and dropping duplicates case-insensitively. Order of first
// appearance is preserved.
func ParseWeeklyPattern(pattern string) []string {
	parts := strings.Split(pattern, ",")
	seen := make(map[string]struct{}, len(parts))
	days := make([]string, 0, len(parts))
	for _, part := range parts {
		day := strings.ToUpper(strings.TrimSpace(part))
		if day == "" {
			continue
		}
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	return days
}

// ComputeEndDate derives a class end date from the course session count, the
// start date, and the weekly teaching-day pattern:
//
//	totalWeeks = ceil(sessionCount / sessionsPerWeek)
//	endDate    = startDate + (totalWeeks*7 - 1) days
//
// The result is a calendar estimate assuming uninterrupted weekly recurrence;
// it does not enumerate individual session dates and ignores holidays.
func ComputeEndDate(sessionCount int, startDate time.Time, weeklyPattern string) (time.Time, error) {
	if sessionCount <= 0 {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "course has no sessions defined")
	}
	sessionsPerWeek := len(ParseWeeklyPattern(weeklyPattern))
	if sessionsPerWeek == 0 {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "class has no weekly teaching days defined")
	}

	totalWeeks := (sessionCount + sessionsPerWeek - 1) / sessionsPerWeek
	return startDate.AddDate(0, 0, totalWeeks*7-1), nil
}

var weekdayByCode = map[string]time.Weekday{
	"SUN": time.Sunday,
	"MON": time.Monday,
	"TUE": time.Tuesday,
	"WED": time.Wednesday,
	"THU": time.Thursday,
	"FRI": time.Friday,
	"SAT": time.Saturday,
}

// EnumerateSessionDates walks the calendar from startDate and returns the
// first sessionCount dates matching the weekly pattern. Used when generating
// the session roster for a class; the end-date formula above stays an
// estimate and does not depend on this.
func EnumerateSessionDates(sessionCount int, startDate time.Time, weeklyPattern string) ([]time.Time, error) {
	if sessionCount <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course has no sessions defined")
	}
	days := ParseWeeklyPattern(weeklyPattern)
	if len(days) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class has no weekly teaching days defined")
	}

	wanted := make(map[time.Weekday]struct{}, len(days))
	for _, code := range days {
		day, ok := weekdayByCode[code]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown weekday code "+code)
		}
		wanted[day] = struct{}{}
	}

	dates := make([]time.Time, 0, sessionCount)
	for cursor := startDate; len(dates) < sessionCount; cursor = cursor.AddDate(0, 0, 1) {
		if _, ok := wanted[cursor.Weekday()]; ok {
			dates = append(dates, cursor)
		}
	}
	return dates, nil
}
