package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseWeeklyPattern(t *testing.T) {
	assert.Equal(t, []string{"MON", "WED", "FRI"}, ParseWeeklyPattern("MON,WED,FRI"))
	assert.Equal(t, []string{"MON", "WED"}, ParseWeeklyPattern(" mon , wed , MON "))
	assert.Empty(t, ParseWeeklyPattern(""))
	assert.Empty(t, ParseWeeklyPattern(" , ,"))
}

func TestComputeEndDateExactWeeks(t *testing.T) {
	// 12 sessions at 3 per week is exactly 4 weeks: start + 27 days.
	start := date(2026, time.January, 5)
	end, err := ComputeEndDate(12, start, "MON,WED,FRI")
	require.NoError(t, err)
	assert.Equal(t, start.AddDate(0, 0, 27), end)
}

func TestComputeEndDatePartialWeekRoundsUp(t *testing.T) {
	// 10 sessions at 3 per week still occupies 4 calendar weeks.
	start := date(2026, time.January, 5)
	end, err := ComputeEndDate(10, start, "MON,WED,FRI")
	require.NoError(t, err)
	assert.Equal(t, start.AddDate(0, 0, 27), end)
}

func TestComputeEndDateSingleSession(t *testing.T) {
	start := date(2026, time.March, 2)
	end, err := ComputeEndDate(1, start, "MON")
	require.NoError(t, err)
	assert.Equal(t, start.AddDate(0, 0, 6), end)
}

func TestComputeEndDateDuplicateDaysCountOnce(t *testing.T) {
	start := date(2026, time.January, 5)
	end, err := ComputeEndDate(4, start, "MON,mon,TUE")
	require.NoError(t, err)
	// Two distinct teaching days, so 4 sessions span 2 weeks.
	assert.Equal(t, start.AddDate(0, 0, 13), end)
}

func TestComputeEndDateRejectsZeroSessions(t *testing.T) {
	_, err := ComputeEndDate(0, date(2026, time.January, 5), "MON")
	require.Error(t, err)
}

func TestComputeEndDateRejectsEmptyPattern(t *testing.T) {
	_, err := ComputeEndDate(10, date(2026, time.January, 5), " , ")
	require.Error(t, err)
}

func TestEnumerateSessionDates(t *testing.T) {
	// 2026-01-05 is a Monday.
	start := date(2026, time.January, 5)
	dates, err := EnumerateSessionDates(5, start, "MON,WED,FRI")
	require.NoError(t, err)
	require.Len(t, dates, 5)
	assert.Equal(t, date(2026, time.January, 5), dates[0])
	assert.Equal(t, date(2026, time.January, 7), dates[1])
	assert.Equal(t, date(2026, time.January, 9), dates[2])
	assert.Equal(t, date(2026, time.January, 12), dates[3])
	assert.Equal(t, date(2026, time.January, 14), dates[4])
}

func TestEnumerateSessionDatesStartMidPattern(t *testing.T) {
	// Starting on a Wednesday skips the Monday of the first week.
	start := date(2026, time.January, 7)
	dates, err := EnumerateSessionDates(3, start, "MON,WED")
	require.NoError(t, err)
	require.Len(t, dates, 3)
	assert.Equal(t, date(2026, time.January, 7), dates[0])
	assert.Equal(t, date(2026, time.January, 12), dates[1])
	assert.Equal(t, date(2026, time.January, 14), dates[2])
}

func TestEnumerateSessionDatesUnknownDay(t *testing.T) {
	_, err := EnumerateSessionDates(3, date(2026, time.January, 5), "MON,XYZ")
	require.Error(t, err)
}
