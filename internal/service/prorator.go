package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/school-pay-api/internal/models"
	appErrors "github.com/noah-isme/school-pay-api/pkg/errors"
)

// SubRange is a slice of the requested period during which the teacher's
// assigned student set did not change.
type SubRange struct {
	From        time.Time
	To          time.Time
	Assignments []models.AssignmentInterval
}

// SplitByAssignment clips the given assignment intervals to [from, to] and
// splits the range at every point an assignment starts or ends. The returned
// sub-ranges are ordered, disjoint, and cover [from, to] exactly; days with no
// active assignment are still emitted so the cover stays exhaustive.
func SplitByAssignment(intervals []models.AssignmentInterval, from, to time.Time) ([]SubRange, error) {
	from, to = dayStart(from), dayStart(to)
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrInvalidRange, "range end precedes range start")
	}
	if err := checkDisjointPerStudent(intervals); err != nil {
		return nil, err
	}

	// Boundary set: range start, plus each clipped interval edge. The day
	// after a clipped end is a boundary so the end day itself stays inside
	// the preceding sub-range.
	boundaries := map[time.Time]struct{}{from: {}}
	for _, iv := range intervals {
		start := dayStart(iv.StartDate)
		if start.Before(from) {
			start = from
		}
		end := to
		if iv.EndDate != nil {
			end = minDay(dayStart(*iv.EndDate), to)
		}
		if end.Before(start) {
			continue
		}
		boundaries[start] = struct{}{}
		if next := nextDay(end); !next.After(to) {
			boundaries[next] = struct{}{}
		}
	}

	cuts := make([]time.Time, 0, len(boundaries))
	for b := range boundaries {
		cuts = append(cuts, b)
	}
	sort.Slice(cuts, func(i, j int) bool { return cuts[i].Before(cuts[j]) })

	ranges := make([]SubRange, 0, len(cuts))
	for i, start := range cuts {
		end := to
		if i+1 < len(cuts) {
			end = cuts[i+1].AddDate(0, 0, -1)
		}
		sub := SubRange{From: start, To: end}
		for _, iv := range intervals {
			if iv.ActiveOn(start) {
				sub.Assignments = append(sub.Assignments, iv)
			}
		}
		ranges = append(ranges, sub)
	}
	return mergeEqualRanges(ranges), nil
}

func checkDisjointPerStudent(intervals []models.AssignmentInterval) error {
	byStudent := make(map[string][]models.AssignmentInterval)
	for _, iv := range intervals {
		byStudent[iv.StudentID] = append(byStudent[iv.StudentID], iv)
	}
	for studentID, ivs := range byStudent {
		sort.Slice(ivs, func(i, j int) bool { return ivs[i].StartDate.Before(ivs[j].StartDate) })
		for i := 1; i < len(ivs); i++ {
			prev := ivs[i-1]
			if prev.EndDate == nil || !dayStart(*prev.EndDate).Before(dayStart(ivs[i].StartDate)) {
				return appErrors.Clone(appErrors.ErrInvariantViolation,
					fmt.Sprintf("overlapping assignment intervals for student %s", studentID))
			}
		}
	}
	return nil
}

// mergeEqualRanges collapses adjacent sub-ranges whose assignment sets are
// identical, which happens when an unrelated student's interval edge fell
// inside the range.
func mergeEqualRanges(ranges []SubRange) []SubRange {
	if len(ranges) < 2 {
		return ranges
	}
	merged := ranges[:1]
	for _, r := range ranges[1:] {
		last := &merged[len(merged)-1]
		if sameAssignments(last.Assignments, r.Assignments) && nextDay(last.To).Equal(r.From) {
			last.To = r.To
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

func sameAssignments(a, b []models.AssignmentInterval) bool {
	if len(a) != len(b) {
		return false
	}
	ids := make(map[string]struct{}, len(a))
	for _, iv := range a {
		ids[iv.ID] = struct{}{}
	}
	for _, iv := range b {
		if _, ok := ids[iv.ID]; !ok {
			return false
		}
	}
	return true
}
