package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/tsheet/internal/timex"
)

// ErrInvalidTimesheet wraps the collected validation messages from
// ValidateTimesheet.
var ErrInvalidTimesheet = errors.New("invalid timesheet")

// NormalizeTimesheet rebuilds a timesheet as the /upload endpoint expects it:
// required identity fields untouched, uploadTime defaulted to now, optional
// strings defaulted to empty, and local-only task IDs stripped.
func NormalizeTimesheet(ts Timesheet) (Timesheet, error) {
	if ts.SiteID == "" || ts.UserID == "" || ts.ForDate == "" {
		return Timesheet{}, fmt.Errorf("%w: missing siteID, userID or forDate", ErrInvalidTimesheet)
	}

	out := Timesheet{
		SiteID:       ts.SiteID,
		UserID:       ts.UserID,
		ForDate:      ts.ForDate,
		SubmitTime:   ts.SubmitTime,
		UploadTime:   ts.UploadTime,
		DayOffReason: ts.DayOffReason,
		Comments:     ts.Comments,
		Tasks:        make([]Task, 0, len(ts.Tasks)),
	}
	if out.UploadTime == "" {
		out.UploadTime = timex.NowISO()
	}

	for _, t := range ts.Tasks {
		out.Tasks = append(out.Tasks, Task{
			StartTime:    t.StartTime,
			FinishTime:   t.FinishTime,
			TimeFor:      t.TimeFor,
			JobNo:        t.JobNo,
			ReferenceNo1: t.ReferenceNo1,
			ReferenceNo2: t.ReferenceNo2,
			ReferenceNo3: t.ReferenceNo3,
			WorkDone:     t.WorkDone,
		})
	}

	return out, nil
}

// ValidateTimesheet checks required fields on the timesheet and its tasks.
// It returns all problems at once so the caller can surface a complete list.
// finishTime is allowed to be empty: an open clock session uploads without it.
func ValidateTimesheet(ts Timesheet) error {
	var problems []string

	if ts.SiteID == "" {
		problems = append(problems, "siteID is required")
	}
	if ts.UserID == "" {
		problems = append(problems, "userID is required")
	}
	if ts.ForDate == "" {
		problems = append(problems, "forDate is required")
	}

	for i, t := range ts.Tasks {
		if t.TimeFor == "" {
			problems = append(problems, fmt.Sprintf("task %d: timeFor is required", i+1))
		}
		if t.JobNo == "" {
			problems = append(problems, fmt.Sprintf("task %d: jobNo is required", i+1))
		}
		if t.StartTime == "" {
			problems = append(problems, fmt.Sprintf("task %d: startTime is required", i+1))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTimesheet, strings.Join(problems, "; "))
	}
	return nil
}

// ClockTimesheet builds the single-task timesheet uploaded for a clock
// event. Clock queue entries are best-effort telemetry; the authoritative
// task lands on the active timesheet at clock-off.
func ClockTimesheet(clock ActiveClock, clockOff bool) (Timesheet, error) {
	now := timex.NowISO()

	submitTime := ""
	finishTime := ""
	label := "Clock On"
	if clockOff {
		submitTime = clock.Timestamp
		if submitTime == "" {
			submitTime = now
		}
		finishTime = clock.FinishTime
		label = "Clock Off"
	}

	stamp := clock.Timestamp
	if stamp == "" {
		stamp = now
	}

	ts := Timesheet{
		SiteID:     clock.SiteID,
		UserID:     clock.UserID,
		ForDate:    clock.ForDate,
		SubmitTime: submitTime,
		UploadTime: now,
		Comments:   fmt.Sprintf("%s - %s", label, stamp),
		Tasks: []Task{{
			StartTime:    clock.StartTime,
			FinishTime:   finishTime,
			TimeFor:      clock.TimeFor,
			JobNo:        clock.JobNo,
			ReferenceNo1: clock.ReferenceNo1,
			ReferenceNo2: clock.ReferenceNo2,
			ReferenceNo3: clock.ReferenceNo3,
			WorkDone:     clock.WorkDone,
		}},
	}

	return NormalizeTimesheet(ts)
}
