// Package models defines the domain types the timesheet client persists
// locally and exchanges with the remote TSAPI service.
package models

import "encoding/json"

// ActionType identifies the remote operation a queued action maps to.
type ActionType string

const (
	ActionSubmitTimesheet         ActionType = "SUBMIT_TIMESHEET"
	ActionSubmitDayStartResponses ActionType = "SUBMIT_DAYSTART_RESPONSES"
	ActionClockOn                 ActionType = "CLOCK_ON"
	ActionClockOff                ActionType = "CLOCK_OFF"
)

// QueueItem is one pending remote operation in the offline action queue.
//
// The payload is a snapshot taken at enqueue time; later session-state
// changes must not affect an already queued item. Timestamp is kept as a
// secondary identity key alongside the generated ID.
type QueueItem struct {
	ID        string          `json:"id"`
	Type      ActionType      `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp string          `json:"timestamp"`
	Synced    bool            `json:"synced"`
}

// Task is a single line of work on a timesheet.
//
// TaskID is generated locally and is the primary identity used for in-place
// updates. It never reaches the server: upload payloads are rebuilt without
// it (see NormalizeTimesheet).
type Task struct {
	TaskID       string `json:"taskID,omitempty"`
	StartTime    string `json:"startTime"`
	FinishTime   string `json:"finishTime"`
	TimeFor      string `json:"timeFor"`
	JobNo        string `json:"jobNo"`
	ReferenceNo1 string `json:"referenceNo1"`
	ReferenceNo2 string `json:"referenceNo2"`
	ReferenceNo3 string `json:"referenceNo3"`
	WorkDone     string `json:"workDone"`
}

// MatchesWeakKey reports whether the task matches the legacy identity tuple
// (startTime, timeFor, jobNo). Two tasks with identical tuples collide; the
// tuple is only a fallback for tasks that predate generated IDs.
func (t Task) MatchesWeakKey(startTime, timeFor, jobNo string) bool {
	return t.StartTime == startTime && t.TimeFor == timeFor && t.JobNo == jobNo
}

// Timesheet is a day's work for one user on one site. The natural key for
// server-side overwrite semantics is (siteID, userID, forDate).
type Timesheet struct {
	SiteID       string `json:"siteID"`
	UserID       string `json:"userID"`
	ForDate      string `json:"forDate"`
	SubmitTime   string `json:"submitTime,omitempty"`
	UploadTime   string `json:"uploadTime,omitempty"`
	DayOffReason string `json:"dayOffReason,omitempty"`
	Comments     string `json:"comments"`
	Tasks        []Task `json:"tasks"`
}

// ActiveClock is an open clock-on session not yet clocked off.
type ActiveClock struct {
	UserID       string `json:"userID"`
	SiteID       string `json:"siteID"`
	ForDate      string `json:"forDate"`
	StartTime    string `json:"startTime"`
	FinishTime   string `json:"finishTime,omitempty"`
	TimeFor      string `json:"timeFor"`
	JobNo        string `json:"jobNo"`
	ReferenceNo1 string `json:"referenceNo1"`
	ReferenceNo2 string `json:"referenceNo2"`
	ReferenceNo3 string `json:"referenceNo3"`
	WorkDone     string `json:"workDone"`
	ClockedOn    bool   `json:"clockedOn"`
	ClockedOff   bool   `json:"clockedOff"`
	Timestamp    string `json:"timestamp"`
}

// Task converts the clock session into a timesheet task. The task has no
// generated ID yet; the session layer assigns one on append.
func (c ActiveClock) Task() Task {
	return Task{
		StartTime:    c.StartTime,
		FinishTime:   c.FinishTime,
		TimeFor:      c.TimeFor,
		JobNo:        c.JobNo,
		ReferenceNo1: c.ReferenceNo1,
		ReferenceNo2: c.ReferenceNo2,
		ReferenceNo3: c.ReferenceNo3,
		WorkDone:     c.WorkDone,
	}
}

// QuestionResponse is a single answer to a site question.
type QuestionResponse struct {
	SequenceNo   int    `json:"sequenceNo"`
	QuestionText string `json:"questionText"`
	Response     string `json:"response"`
}

// Question is a site-configured question rendered on the day-start or
// submit screens. Cached locally so forms work offline.
type Question struct {
	SequenceNo     int      `json:"sequenceNo"`
	QuestionText   string   `json:"questionText"`
	DropdownValues []string `json:"dropdownValues"`
}

// TimesheetSubmission is the SUBMIT_TIMESHEET queue payload: the timesheet
// itself plus any submit-question responses collected alongside it.
type TimesheetSubmission struct {
	Timesheet Timesheet          `json:"timesheet"`
	Responses []QuestionResponse `json:"responses,omitempty"`
}

// QuestionResponseUpload is the body for POST /timesheetquestionresponse.
type QuestionResponseUpload struct {
	SiteID    string             `json:"siteID"`
	UserID    string             `json:"userID"`
	ForDate   string             `json:"forDate"`
	Responses []QuestionResponse `json:"responses"`
}

// DayStartSubmission is the body for POST /daystartresponses and the
// SUBMIT_DAYSTART_RESPONSES queue payload.
type DayStartSubmission struct {
	SiteID    string             `json:"siteID"`
	UserID    string             `json:"userID"`
	ForDate   string             `json:"forDate"`
	Responses []QuestionResponse `json:"responses"`
}

// DownloadResult is the response of GET /download.
type DownloadResult struct {
	Timesheets []Timesheet `json:"timesheets"`
}

// PastTask is a task from a downloaded timesheet flattened together with
// the date it belongs to, for history views.
type PastTask struct {
	Task
	ForDate string `json:"forDate"`
}

// SiteConfig is the per-site configuration returned by GET /config/{siteID}.
type SiteConfig struct {
	SiteID            string `json:"siteID"`
	SiteName          string `json:"siteName"`
	DefaultTimeFormat int    `json:"defaultTimeFormat"`
	TimezoneToUse     string `json:"timezoneToUse"`
	PinSize           int    `json:"pinSize"`
	TSExpiryDays      int    `json:"tsExpiryDays"`
	OfflineMaxDays    int    `json:"offlineMaxDays"`
	RetainTSDays      int    `json:"retainTSDays"`
	DayStartMessage   string `json:"dayStartMessage"`
	TimeForListCSV    string `json:"timeForListCSV"`
	SubmitTSText      string `json:"submitTSText"`
	DayOffText        string `json:"dayOffText"`
	DayOffReasonsCSV  string `json:"dayOffReasonsCSV"`
}
