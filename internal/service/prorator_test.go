package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-pay-api/internal/models"
	appErrors "github.com/noah-isme/school-pay-api/pkg/errors"
)

func day(yearMonthDay ...int) time.Time {
	return time.Date(yearMonthDay[0], time.Month(yearMonthDay[1]), yearMonthDay[2], 0, 0, 0, 0, time.UTC)
}

func interval(id, studentID string, start time.Time, end *time.Time) models.AssignmentInterval {
	return models.AssignmentInterval{
		ID:         id,
		StudentID:  studentID,
		DayPackage: "MWF",
		StartDate:  start,
		EndDate:    end,
	}
}

func TestSplitByAssignmentMidPeriodChange(t *testing.T) {
	from, to := day(2026, 3, 1), day(2026, 3, 31)
	firstEnd := day(2026, 3, 15)

	intervals := []models.AssignmentInterval{
		interval("iv-1", "student-1", day(2026, 2, 1), &firstEnd),
		interval("iv-2", "student-1", day(2026, 3, 16), nil),
	}

	ranges, err := SplitByAssignment(intervals, from, to)
	require.NoError(t, err)
	require.Len(t, ranges, 2)

	assert.True(t, ranges[0].From.Equal(day(2026, 3, 1)))
	assert.True(t, ranges[0].To.Equal(day(2026, 3, 15)))
	require.Len(t, ranges[0].Assignments, 1)
	assert.Equal(t, "iv-1", ranges[0].Assignments[0].ID)

	assert.True(t, ranges[1].From.Equal(day(2026, 3, 16)))
	assert.True(t, ranges[1].To.Equal(day(2026, 3, 31)))
	require.Len(t, ranges[1].Assignments, 1)
	assert.Equal(t, "iv-2", ranges[1].Assignments[0].ID)
}

func TestSplitByAssignmentRangesAreExhaustive(t *testing.T) {
	from, to := day(2026, 3, 1), day(2026, 3, 31)
	gapEnd := day(2026, 3, 10)

	// Assignment gap from the 11th to the 19th: the cover must still include it.
	intervals := []models.AssignmentInterval{
		interval("iv-1", "student-1", day(2026, 3, 1), &gapEnd),
		interval("iv-2", "student-1", day(2026, 3, 20), nil),
	}

	ranges, err := SplitByAssignment(intervals, from, to)
	require.NoError(t, err)
	require.NotEmpty(t, ranges)

	assert.True(t, ranges[0].From.Equal(from))
	assert.True(t, ranges[len(ranges)-1].To.Equal(to))
	for i := 1; i < len(ranges); i++ {
		assert.True(t, nextDay(ranges[i-1].To).Equal(ranges[i].From),
			"gap between sub-range %d and %d", i-1, i)
	}

	var uncovered *SubRange
	for i := range ranges {
		if len(ranges[i].Assignments) == 0 {
			uncovered = &ranges[i]
		}
	}
	require.NotNil(t, uncovered)
	assert.True(t, uncovered.From.Equal(day(2026, 3, 11)))
	assert.True(t, uncovered.To.Equal(day(2026, 3, 19)))
}

func TestSplitByAssignmentMergesUnchangedSets(t *testing.T) {
	from, to := day(2026, 3, 1), day(2026, 3, 31)

	// One open interval across the whole range yields a single sub-range.
	intervals := []models.AssignmentInterval{
		interval("iv-1", "student-1", day(2026, 1, 1), nil),
	}
	ranges, err := SplitByAssignment(intervals, from, to)
	require.NoError(t, err)
	require.Len(t, ranges, 1)
	assert.True(t, ranges[0].From.Equal(from))
	assert.True(t, ranges[0].To.Equal(to))
}

func TestSplitByAssignmentStartDateWithTimeOfDay(t *testing.T) {
	from, to := day(2026, 3, 1), day(2026, 3, 31)

	// Upstream systems sometimes store the moment of assignment, not the day.
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	intervals := []models.AssignmentInterval{
		interval("iv-1", "student-1", start, nil),
	}

	ranges, err := SplitByAssignment(intervals, from, to)
	require.NoError(t, err)
	require.Len(t, ranges, 2)

	assert.Empty(t, ranges[0].Assignments)
	assert.True(t, ranges[1].From.Equal(day(2026, 3, 10)))
	assert.True(t, ranges[1].To.Equal(to))
	require.Len(t, ranges[1].Assignments, 1, "assignment must be attributed from its start day")
	assert.Equal(t, "iv-1", ranges[1].Assignments[0].ID)
}

func TestSplitByAssignmentRejectsOverlap(t *testing.T) {
	end := day(2026, 3, 20)
	intervals := []models.AssignmentInterval{
		interval("iv-1", "student-1", day(2026, 3, 1), &end),
		interval("iv-2", "student-1", day(2026, 3, 15), nil),
	}
	_, err := SplitByAssignment(intervals, day(2026, 3, 1), day(2026, 3, 31))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvariantViolation.Code, appErrors.FromError(err).Code)
}

func TestSplitByAssignmentRejectsInvertedRange(t *testing.T) {
	_, err := SplitByAssignment(nil, day(2026, 3, 10), day(2026, 3, 1))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidRange.Code, appErrors.FromError(err).Code)
}

func TestBillableDaysSundayToggle(t *testing.T) {
	// March 2026 has five Sundays (1, 8, 15, 22, 29).
	from, to := day(2026, 3, 1), day(2026, 3, 31)
	assert.Equal(t, 31, billableDays(from, to, true))
	assert.Equal(t, 26, billableDays(from, to, false))
}
