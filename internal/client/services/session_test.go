package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/tsheet/internal/client/models"
	"github.com/dmitrijs2005/tsheet/internal/client/repositories/queue"
	"github.com/dmitrijs2005/tsheet/internal/common"
	"github.com/dmitrijs2005/tsheet/internal/timex"
)

func newSession(db *sql.DB, fc *fakeClient, online bool) SessionService {
	svc := NewSessionService(fc, db, stubNet{online: online}, testLogger())
	svc.SetScope("U1", "S1")
	return svc
}

func queuedItems(t *testing.T, db *sql.DB) []models.QueueItem {
	t.Helper()
	items, err := queue.NewSQLiteRepository(db).List(context.Background())
	require.NoError(t, err)
	return items
}

func TestClockOn_SetsStateAndQueuesAction(t *testing.T) {
	db := setupDB(t)
	svc := newSession(db, &fakeClient{}, false)
	ctx := context.Background()

	clock, err := svc.ClockOn(ctx, models.Task{StartTime: "08:00", TimeFor: "Job", JobNo: "123"})
	require.NoError(t, err)

	assert.Equal(t, "U1", clock.UserID)
	assert.Equal(t, "S1", clock.SiteID)
	assert.Equal(t, timex.Today(), clock.ForDate)
	assert.True(t, clock.ClockedOn)
	assert.False(t, clock.ClockedOff)

	require.NotNil(t, svc.ActiveClock(ctx))
	require.NotNil(t, svc.ActiveTask(ctx))

	items := queuedItems(t, db)
	require.Len(t, items, 1)
	assert.Equal(t, models.ActionClockOn, items[0].Type)
	assert.NotEmpty(t, items[0].ID)
	assert.NotEmpty(t, items[0].Timestamp)
}

func TestClockOff_WithoutSessionFails(t *testing.T) {
	db := setupDB(t)
	svc := newSession(db, &fakeClient{}, false)

	_, err := svc.ClockOff(context.Background(), models.Task{FinishTime: "12:00"})
	require.ErrorIs(t, err, common.ErrNoActiveSession)

	// precondition violations are not queued
	assert.Empty(t, queuedItems(t, db))
}

func TestClockRoundTrip(t *testing.T) {
	db := setupDB(t)
	svc := newSession(db, &fakeClient{}, false)
	ctx := context.Background()

	_, err := svc.ClockOn(ctx, models.Task{StartTime: "08:00", TimeFor: "Job", JobNo: "123"})
	require.NoError(t, err)

	ts, err := svc.ClockOff(ctx, models.Task{FinishTime: "12:00"})
	require.NoError(t, err)

	require.Len(t, ts.Tasks, 1)
	task := ts.Tasks[0]
	assert.Equal(t, "08:00", task.StartTime)
	assert.Equal(t, "12:00", task.FinishTime)
	assert.Equal(t, "123", task.JobNo)
	assert.NotEmpty(t, task.TaskID)

	assert.Nil(t, svc.ActiveClock(ctx))
	assert.Nil(t, svc.ActiveTask(ctx))

	items := queuedItems(t, db)
	require.Len(t, items, 2)
	assert.Equal(t, models.ActionClockOn, items[0].Type)
	assert.Equal(t, models.ActionClockOff, items[1].Type)
}

func TestClockOn_ReplacesOpenSession(t *testing.T) {
	db := setupDB(t)
	svc := newSession(db, &fakeClient{}, false)
	ctx := context.Background()

	_, err := svc.ClockOn(ctx, models.Task{StartTime: "08:00", TimeFor: "Job", JobNo: "1"})
	require.NoError(t, err)
	_, err = svc.ClockOn(ctx, models.Task{StartTime: "09:00", TimeFor: "Job", JobNo: "2"})
	require.NoError(t, err)

	clock := svc.ActiveClock(ctx)
	require.NotNil(t, clock)
	assert.Equal(t, "2", clock.JobNo)
	assert.Equal(t, "09:00", clock.StartTime)
}

func TestSessionState_SurvivesRestart(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	svc := newSession(db, &fakeClient{}, false)
	_, err := svc.ClockOn(ctx, models.Task{StartTime: "08:00", TimeFor: "Job", JobNo: "7"})
	require.NoError(t, err)

	// a fresh service over the same database sees the open session
	restarted := newSession(db, &fakeClient{}, false)
	clock := restarted.ActiveClock(ctx)
	require.NotNil(t, clock)
	assert.Equal(t, "7", clock.JobNo)
}

func TestAppendTask_CreatesTimesheetLazily(t *testing.T) {
	db := setupDB(t)
	svc := newSession(db, &fakeClient{}, false)
	ctx := context.Background()

	require.Nil(t, svc.ActiveTimesheet(ctx))

	ts, err := svc.AppendTask(ctx, models.Task{StartTime: "08:00", TimeFor: "Job", JobNo: "1"})
	require.NoError(t, err)

	assert.Equal(t, "S1", ts.SiteID)
	assert.Equal(t, "U1", ts.UserID)
	assert.Equal(t, timex.Today(), ts.ForDate)
	require.Len(t, ts.Tasks, 1)
	assert.NotEmpty(t, ts.Tasks[0].TaskID)

	// manual entry does not queue anything
	assert.Empty(t, queuedItems(t, db))
}

func TestUpdateTask_WeakKeyMatchesExactlyOne(t *testing.T) {
	db := setupDB(t)
	svc := newSession(db, &fakeClient{}, false)
	ctx := context.Background()

	_, err := svc.AppendTask(ctx, models.Task{StartTime: "08:00", TimeFor: "Job", JobNo: "1", WorkDone: "a"})
	require.NoError(t, err)
	_, err = svc.AppendTask(ctx, models.Task{StartTime: "10:00", TimeFor: "Job", JobNo: "2", WorkDone: "b"})
	require.NoError(t, err)

	ok, err := svc.UpdateTask(ctx, TaskUpdate{
		Task:          models.Task{StartTime: "08:00", TimeFor: "Job", JobNo: "9", WorkDone: "edited"},
		OriginalJobNo: "1",
	})
	require.NoError(t, err)
	assert.True(t, ok)

	ts := svc.ActiveTimesheet(ctx)
	require.Len(t, ts.Tasks, 2)
	assert.Equal(t, "9", ts.Tasks[0].JobNo)
	assert.Equal(t, "edited", ts.Tasks[0].WorkDone)
	// the other task is untouched
	assert.Equal(t, "2", ts.Tasks[1].JobNo)
	assert.Equal(t, "b", ts.Tasks[1].WorkDone)
}

func TestUpdateTask_NoMatchLeavesTimesheetUnchanged(t *testing.T) {
	db := setupDB(t)
	svc := newSession(db, &fakeClient{}, false)
	ctx := context.Background()

	_, err := svc.AppendTask(ctx, models.Task{StartTime: "08:00", TimeFor: "Job", JobNo: "1"})
	require.NoError(t, err)

	ok, err := svc.UpdateTask(ctx, TaskUpdate{
		Task:          models.Task{StartTime: "23:00", TimeFor: "Job", JobNo: "9"},
		OriginalJobNo: "nope",
	})
	require.NoError(t, err)
	assert.False(t, ok)

	ts := svc.ActiveTimesheet(ctx)
	require.Len(t, ts.Tasks, 1)
	assert.Equal(t, "1", ts.Tasks[0].JobNo)
}

func TestUpdateTask_ByTaskID(t *testing.T) {
	db := setupDB(t)
	svc := newSession(db, &fakeClient{}, false)
	ctx := context.Background()

	// two tasks with identical weak keys: only the id disambiguates
	_, err := svc.AppendTask(ctx, models.Task{StartTime: "08:00", TimeFor: "Job", JobNo: "1", WorkDone: "first"})
	require.NoError(t, err)
	ts, err := svc.AppendTask(ctx, models.Task{StartTime: "08:00", TimeFor: "Job", JobNo: "1", WorkDone: "second"})
	require.NoError(t, err)

	target := ts.Tasks[1].TaskID
	ok, err := svc.UpdateTask(ctx, TaskUpdate{
		Task: models.Task{TaskID: target, StartTime: "08:00", TimeFor: "Job", JobNo: "1", WorkDone: "edited"},
	})
	require.NoError(t, err)
	assert.True(t, ok)

	ts = svc.ActiveTimesheet(ctx)
	assert.Equal(t, "first", ts.Tasks[0].WorkDone)
	assert.Equal(t, "edited", ts.Tasks[1].WorkDone)
}

func TestSubmitTimesheet_OfflineQueuesAndClears(t *testing.T) {
	db := setupDB(t)
	fc := &fakeClient{}
	svc := newSession(db, fc, false)
	ctx := context.Background()

	_, err := svc.AppendTask(ctx, models.Task{StartTime: "08:00", TimeFor: "Job", JobNo: "1"})
	require.NoError(t, err)
	_, err = svc.AppendTask(ctx, models.Task{StartTime: "12:30", TimeFor: "Job", JobNo: "2"})
	require.NoError(t, err)

	require.NoError(t, svc.SubmitTimesheet(ctx, "done for today", nil))

	// nothing was sent, one item queued with both tasks in the snapshot
	assert.Empty(t, fc.uploads)
	items := queuedItems(t, db)
	require.Len(t, items, 1)
	assert.Equal(t, models.ActionSubmitTimesheet, items[0].Type)

	var sub models.TimesheetSubmission
	require.NoError(t, json.Unmarshal(items[0].Payload, &sub))
	assert.Len(t, sub.Timesheet.Tasks, 2)
	assert.Equal(t, "done for today", sub.Timesheet.Comments)
	assert.NotEmpty(t, sub.Timesheet.SubmitTime)

	assert.Nil(t, svc.ActiveTimesheet(ctx))
}

func TestSubmitTimesheet_QueuedSnapshotIsImmutable(t *testing.T) {
	db := setupDB(t)
	svc := newSession(db, &fakeClient{}, false)
	ctx := context.Background()

	_, err := svc.AppendTask(ctx, models.Task{StartTime: "08:00", TimeFor: "Job", JobNo: "1"})
	require.NoError(t, err)
	require.NoError(t, svc.SubmitTimesheet(ctx, "", nil))

	// session moves on: a new task on a new timesheet
	_, err = svc.AppendTask(ctx, models.Task{StartTime: "13:00", TimeFor: "Job", JobNo: "99"})
	require.NoError(t, err)

	items := queuedItems(t, db)
	require.Len(t, items, 1)
	var sub models.TimesheetSubmission
	require.NoError(t, json.Unmarshal(items[0].Payload, &sub))
	require.Len(t, sub.Timesheet.Tasks, 1)
	assert.Equal(t, "1", sub.Timesheet.Tasks[0].JobNo)
}

func TestSubmitTimesheet_OnlineSendsDirectly(t *testing.T) {
	db := setupDB(t)
	fc := &fakeClient{}
	svc := newSession(db, fc, true)
	ctx := context.Background()

	_, err := svc.AppendTask(ctx, models.Task{StartTime: "08:00", TimeFor: "Job", JobNo: "1"})
	require.NoError(t, err)

	responses := []models.QuestionResponse{{SequenceNo: 1, QuestionText: "Q?", Response: "Yes"}}
	require.NoError(t, svc.SubmitTimesheet(ctx, "", responses))

	require.Len(t, fc.uploads, 1)
	require.Len(t, fc.questionUploads, 1)
	assert.Equal(t, "S1", fc.questionUploads[0].SiteID)
	assert.Empty(t, queuedItems(t, db))
	assert.Nil(t, svc.ActiveTimesheet(ctx))
}

func TestSubmitTimesheet_OnlineFailureFallsBackToQueue(t *testing.T) {
	db := setupDB(t)
	fc := &fakeClient{uploadErr: context.DeadlineExceeded}
	svc := newSession(db, fc, true)
	ctx := context.Background()

	_, err := svc.AppendTask(ctx, models.Task{StartTime: "08:00", TimeFor: "Job", JobNo: "1"})
	require.NoError(t, err)

	require.NoError(t, svc.SubmitTimesheet(ctx, "", nil))

	items := queuedItems(t, db)
	require.Len(t, items, 1)
	assert.Nil(t, svc.ActiveTimesheet(ctx))
}

func TestSubmitTimesheet_NoActiveTimesheet(t *testing.T) {
	db := setupDB(t)
	svc := newSession(db, &fakeClient{}, false)

	err := svc.SubmitTimesheet(context.Background(), "", nil)
	require.ErrorIs(t, err, common.ErrNoActiveTimesheet)
}

func TestSubmitDayOff_QueuesTaskLessTimesheet(t *testing.T) {
	db := setupDB(t)
	svc := newSession(db, &fakeClient{}, false)

	require.NoError(t, svc.SubmitDayOff(context.Background(), "Annual Leave", "back Monday"))

	items := queuedItems(t, db)
	require.Len(t, items, 1)
	var sub models.TimesheetSubmission
	require.NoError(t, json.Unmarshal(items[0].Payload, &sub))
	assert.Equal(t, "Annual Leave", sub.Timesheet.DayOffReason)
	assert.Empty(t, sub.Timesheet.Tasks)
}

func TestSubmitDayStart_OfflineQueuesAndRecordsHistory(t *testing.T) {
	db := setupDB(t)
	fc := &fakeClient{}
	svc := newSession(db, fc, false)
	ctx := context.Background()

	responses := []models.QuestionResponse{{SequenceNo: 1, QuestionText: "SWMS done?", Response: "Yes"}}
	require.NoError(t, svc.SubmitDayStart(ctx, responses))

	assert.Empty(t, fc.dayStartUploads)
	items := queuedItems(t, db)
	require.Len(t, items, 1)
	assert.Equal(t, models.ActionSubmitDayStartResponses, items[0].Type)
}

func TestSubmitDayStart_OnlineSendsDirectly(t *testing.T) {
	db := setupDB(t)
	fc := &fakeClient{}
	svc := newSession(db, fc, true)

	require.NoError(t, svc.SubmitDayStart(context.Background(), nil))

	require.Len(t, fc.dayStartUploads, 1)
	assert.Equal(t, "U1", fc.dayStartUploads[0].UserID)
	assert.Empty(t, queuedItems(t, db))
}

func TestDiscardTimesheet_PurgesScopeAndIsIdempotent(t *testing.T) {
	db := setupDB(t)
	svc := newSession(db, &fakeClient{}, false)
	ctx := context.Background()

	_, err := svc.ClockOn(ctx, models.Task{StartTime: "08:00", TimeFor: "Job", JobNo: "1"})
	require.NoError(t, err)
	_, err = svc.ClockOff(ctx, models.Task{FinishTime: "12:00"})
	require.NoError(t, err)
	require.Len(t, queuedItems(t, db), 2)

	require.NoError(t, svc.DiscardTimesheet(ctx))

	assert.Nil(t, svc.ActiveClock(ctx))
	assert.Nil(t, svc.ActiveTask(ctx))
	assert.Nil(t, svc.ActiveTimesheet(ctx))
	assert.Empty(t, queuedItems(t, db))

	// discarding again with nothing left is a no-op
	require.NoError(t, svc.DiscardTimesheet(ctx))
}

func TestDiscardTimesheet_KeepsOtherScopes(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	other := newSession(db, &fakeClient{}, false)
	other.SetScope("U2", "S1")
	_, err := other.ClockOn(ctx, models.Task{StartTime: "07:00", TimeFor: "Job", JobNo: "55"})
	require.NoError(t, err)

	svc := newSession(db, &fakeClient{}, false)
	_, err = svc.ClockOn(ctx, models.Task{StartTime: "08:00", TimeFor: "Job", JobNo: "1"})
	require.NoError(t, err)

	require.NoError(t, svc.DiscardTimesheet(ctx))

	items := queuedItems(t, db)
	require.Len(t, items, 1)
	var clock models.ActiveClock
	require.NoError(t, json.Unmarshal(items[0].Payload, &clock))
	assert.Equal(t, "U2", clock.UserID)
}

func TestMalformedStoredState_TreatedAsAbsent(t *testing.T) {
	db := setupDB(t)
	_, err := db.Exec(`INSERT INTO kv(key, value) VALUES ('activeTimesheet', 'not-json')`)
	require.NoError(t, err)

	svc := newSession(db, &fakeClient{}, false)
	assert.Nil(t, svc.ActiveTimesheet(context.Background()))
}
