package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/tsheet/internal/client/api"
	"github.com/dmitrijs2005/tsheet/internal/client/models"
	"github.com/dmitrijs2005/tsheet/internal/client/repositories/kv"
	"github.com/dmitrijs2005/tsheet/internal/client/repositories/queue"
	"github.com/dmitrijs2005/tsheet/internal/common"
	"github.com/dmitrijs2005/tsheet/internal/dbx"
	"github.com/dmitrijs2005/tsheet/internal/logging"
	"github.com/dmitrijs2005/tsheet/internal/timex"
)

// Persisted kv keys for session state.
const (
	keyActiveClock     = "activeClock"
	keyActiveTask      = "activeTask"
	keyActiveTimesheet = "activeTimesheet"
	keyUserData        = "userData"
	keySiteConfig      = "site"
	keySubmitQuestions = "cachedSubmitQuestions"
	keyDayStartHistory = "dayStartHistory"
)

func siteQuestionsKey(siteID string) string {
	return "siteQuestions-" + siteID
}

// Connectivity reports the last observed reachability of the remote
// service. Implemented by the network watcher; stubbed in tests.
type Connectivity interface {
	Online() bool
}

// TaskUpdate carries an edited task. Matching against the active timesheet
// uses TaskID when present; for tasks that predate generated IDs it falls
// back to the legacy tuple (startTime, timeFor, originalJobNo), which is why
// the pre-edit job number travels alongside the new values.
type TaskUpdate struct {
	Task          models.Task
	OriginalJobNo string
}

// SessionService is the state machine for a day's work: the open clock
// session, the task being edited, and the in-progress timesheet. All local
// mutations succeed without the network; remote delivery goes through the
// offline action queue.
type SessionService interface {
	SetScope(userID, siteID string)

	ActiveClock(ctx context.Context) *models.ActiveClock
	ActiveTask(ctx context.Context) *models.Task
	ActiveTimesheet(ctx context.Context) *models.Timesheet

	// ClockOn opens a clock session and queues a CLOCK_ON action.
	// An existing session is overwritten (last write wins); the UI is
	// expected to prevent that flow.
	ClockOn(ctx context.Context, task models.Task) (*models.ActiveClock, error)

	// ClockOff closes the session, appends the finished task to the active
	// timesheet (creating it if absent) and queues a CLOCK_OFF action.
	// Returns common.ErrNoActiveSession when nothing is clocked on.
	ClockOff(ctx context.Context, finish models.Task) (*models.Timesheet, error)

	// AppendTask adds a manually entered task to the active timesheet.
	AppendTask(ctx context.Context, task models.Task) (*models.Timesheet, error)

	// UpdateTask replaces a matching task in place. Reports whether a task
	// matched; no match leaves the timesheet unchanged.
	UpdateTask(ctx context.Context, upd TaskUpdate) (bool, error)

	// SubmitTimesheet finalizes the active timesheet. When online it is
	// sent immediately, with a fallback to the queue on failure; when
	// offline it is queued. The active timesheet is cleared on every path.
	SubmitTimesheet(ctx context.Context, comments string, responses []models.QuestionResponse) error

	// SubmitDayOff submits a no-work timesheet for today with the given
	// reason, following the same delivery path as SubmitTimesheet.
	SubmitDayOff(ctx context.Context, reason, comments string) error

	// SubmitDayStart delivers day-start answers, queueing them when
	// offline, and records them in the local day-start history.
	SubmitDayStart(ctx context.Context, responses []models.QuestionResponse) error

	// DiscardTimesheet drops the clock session, active task, active
	// timesheet and any queued actions for today's scope. Idempotent.
	DiscardTimesheet(ctx context.Context) error

	QueueSize(ctx context.Context) (int, error)
}

type sessionService struct {
	client api.Client
	db     *sql.DB
	net    Connectivity
	log    logging.Logger

	mu     sync.Mutex
	userID string
	siteID string

	// In-memory mirrors of the persisted singletons. Storage writes are
	// best-effort: on write failure the in-memory state still advances so
	// the user is never blocked.
	clock     *models.ActiveClock
	task      *models.Task
	timesheet *models.Timesheet
}

func NewSessionService(client api.Client, db *sql.DB, net Connectivity, log logging.Logger) SessionService {
	return &sessionService{client: client, db: db, net: net, log: log.With("component", "session")}
}

func (s *sessionService) kv() kv.Store {
	return kv.NewSQLiteStore(s.db)
}

func (s *sessionService) queue() queue.Repository {
	return queue.NewSQLiteRepository(s.db)
}

func (s *sessionService) SetScope(userID, siteID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
	s.siteID = siteID
	s.clock = nil
	s.task = nil
	s.timesheet = nil
}

func (s *sessionService) scope() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID, s.siteID
}

// loadJSON reads a kv key into out. Absent keys, read failures and
// malformed JSON all count as "no data".
func (s *sessionService) loadJSON(ctx context.Context, key string, out any) bool {
	data, err := s.kv().Get(ctx, key)
	if err != nil {
		s.log.Error(ctx, "failed to read local state", "key", key, "error", err)
		return false
	}
	if data == nil {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		s.log.Warn(ctx, "malformed local state, treating as absent", "key", key, "error", err)
		return false
	}
	return true
}

// storeJSON persists value under key, best-effort.
func (s *sessionService) storeJSON(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		s.log.Error(ctx, "failed to encode local state", "key", key, "error", err)
		return
	}
	if err := s.kv().Set(ctx, key, data); err != nil {
		s.log.Error(ctx, "failed to persist local state", "key", key, "error", err)
	}
}

func (s *sessionService) removeKey(ctx context.Context, key string) {
	if err := s.kv().Delete(ctx, key); err != nil {
		s.log.Error(ctx, "failed to clear local state", "key", key, "error", err)
	}
}

// enqueue snapshots payload onto the offline queue. It never fails the
// caller: a storage error is logged and the user flow continues.
func (s *sessionService) enqueue(ctx context.Context, typ models.ActionType, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Error(ctx, "failed to encode queue payload", "type", typ, "error", err)
		return
	}
	item := &models.QueueItem{
		ID:        uuid.NewString(),
		Type:      typ,
		Payload:   data,
		Timestamp: timex.NowISO(),
	}
	if err := s.queue().Enqueue(ctx, item); err != nil {
		s.log.Error(ctx, "failed to enqueue action", "type", typ, "error", err)
		return
	}
	s.log.Info(ctx, "action queued", "type", typ, "id", item.ID)
}

func (s *sessionService) ActiveClock(ctx context.Context) *models.ActiveClock {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clock != nil {
		return s.clock
	}
	var clock models.ActiveClock
	if s.loadJSON(ctx, keyActiveClock, &clock) {
		s.clock = &clock
	}
	return s.clock
}

func (s *sessionService) ActiveTask(ctx context.Context) *models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.task != nil {
		return s.task
	}
	var task models.Task
	if s.loadJSON(ctx, keyActiveTask, &task) {
		s.task = &task
	}
	return s.task
}

func (s *sessionService) ActiveTimesheet(ctx context.Context) *models.Timesheet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeTimesheetLocked(ctx)
}

func (s *sessionService) activeTimesheetLocked(ctx context.Context) *models.Timesheet {
	if s.timesheet != nil {
		return s.timesheet
	}
	var ts models.Timesheet
	if s.loadJSON(ctx, keyActiveTimesheet, &ts) {
		s.timesheet = &ts
	}
	return s.timesheet
}

func (s *sessionService) ClockOn(ctx context.Context, task models.Task) (*models.ActiveClock, error) {
	userID, siteID := s.scope()

	clock := &models.ActiveClock{
		UserID:       userID,
		SiteID:       siteID,
		ForDate:      timex.Today(),
		StartTime:    task.StartTime,
		TimeFor:      task.TimeFor,
		JobNo:        task.JobNo,
		ReferenceNo1: task.ReferenceNo1,
		ReferenceNo2: task.ReferenceNo2,
		ReferenceNo3: task.ReferenceNo3,
		WorkDone:     task.WorkDone,
		ClockedOn:    true,
		Timestamp:    timex.NowISO(),
	}

	s.mu.Lock()
	if s.clock != nil {
		s.log.Warn(ctx, "clock-on with session already open, replacing", "jobNo", s.clock.JobNo)
	}
	s.clock = clock
	active := clock.Task()
	s.task = &active
	s.mu.Unlock()

	s.storeJSON(ctx, keyActiveClock, clock)
	s.storeJSON(ctx, keyActiveTask, active)
	s.enqueue(ctx, models.ActionClockOn, clock)

	return clock, nil
}

func (s *sessionService) ClockOff(ctx context.Context, finish models.Task) (*models.Timesheet, error) {
	clock := s.ActiveClock(ctx)
	if clock == nil {
		return nil, common.ErrNoActiveSession
	}

	closed := *clock
	closed.FinishTime = finish.FinishTime
	if finish.WorkDone != "" {
		closed.WorkDone = finish.WorkDone
	}
	if finish.ReferenceNo1 != "" {
		closed.ReferenceNo1 = finish.ReferenceNo1
	}
	if finish.ReferenceNo2 != "" {
		closed.ReferenceNo2 = finish.ReferenceNo2
	}
	if finish.ReferenceNo3 != "" {
		closed.ReferenceNo3 = finish.ReferenceNo3
	}
	closed.ClockedOff = true
	closed.Timestamp = timex.NowISO()

	s.mu.Lock()
	ts := s.appendTaskLocked(ctx, closed.Task())
	s.clock = nil
	s.task = nil
	s.mu.Unlock()

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		store := kv.NewSQLiteStore(tx)
		if err := store.Delete(ctx, keyActiveClock); err != nil {
			return err
		}
		if err := store.Delete(ctx, keyActiveTask); err != nil {
			return err
		}
		data, err := json.Marshal(ts)
		if err != nil {
			return err
		}
		return store.Set(ctx, keyActiveTimesheet, data)
	})
	if err != nil {
		s.log.Error(ctx, "failed to persist clock-off", "error", err)
	}

	s.enqueue(ctx, models.ActionClockOff, closed)

	return ts, nil
}

// appendTaskLocked appends a task to the in-memory active timesheet,
// creating the timesheet if absent, and assigns the task its generated ID.
// Caller holds s.mu and is responsible for persisting the result.
func (s *sessionService) appendTaskLocked(ctx context.Context, task models.Task) *models.Timesheet {
	ts := s.activeTimesheetLocked(ctx)
	if ts == nil {
		userID, siteID := s.userID, s.siteID
		ts = &models.Timesheet{
			SiteID:  siteID,
			UserID:  userID,
			ForDate: timex.Today(),
			Tasks:   []models.Task{},
		}
	}
	if task.TaskID == "" {
		task.TaskID = uuid.NewString()
	}
	ts.Tasks = append(ts.Tasks, task)
	s.timesheet = ts
	return ts
}

func (s *sessionService) AppendTask(ctx context.Context, task models.Task) (*models.Timesheet, error) {
	s.mu.Lock()
	ts := s.appendTaskLocked(ctx, task)
	s.task = nil
	s.mu.Unlock()

	s.storeJSON(ctx, keyActiveTimesheet, ts)
	s.removeKey(ctx, keyActiveTask)

	return ts, nil
}

func (s *sessionService) UpdateTask(ctx context.Context, upd TaskUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.activeTimesheetLocked(ctx)
	if ts == nil {
		return false, nil
	}

	matched := -1
	for i, t := range ts.Tasks {
		if upd.Task.TaskID != "" {
			if t.TaskID == upd.Task.TaskID {
				matched = i
				break
			}
			continue
		}
		if t.MatchesWeakKey(upd.Task.StartTime, upd.Task.TimeFor, upd.OriginalJobNo) {
			matched = i
			break
		}
	}
	if matched < 0 {
		s.log.Warn(ctx, "task update matched nothing", "jobNo", upd.OriginalJobNo)
		return false, nil
	}

	replacement := upd.Task
	replacement.TaskID = ts.Tasks[matched].TaskID
	ts.Tasks[matched] = replacement

	// Mirror the edit into the live active task when it is the same one.
	if s.task != nil && s.task.TaskID != "" && s.task.TaskID == replacement.TaskID {
		s.task = &replacement
		s.storeJSON(ctx, keyActiveTask, replacement)
	}

	s.storeJSON(ctx, keyActiveTimesheet, ts)
	return true, nil
}

func (s *sessionService) SubmitTimesheet(ctx context.Context, comments string, responses []models.QuestionResponse) error {
	s.mu.Lock()
	ts := s.activeTimesheetLocked(ctx)
	if ts == nil {
		s.mu.Unlock()
		return common.ErrNoActiveTimesheet
	}
	final := *ts
	s.mu.Unlock()

	if comments != "" {
		final.Comments = comments
	}
	final.SubmitTime = timex.NowISO()

	return s.deliverTimesheet(ctx, final, responses)
}

func (s *sessionService) SubmitDayOff(ctx context.Context, reason, comments string) error {
	userID, siteID := s.scope()
	now := timex.NowISO()

	dayOff := models.Timesheet{
		SiteID:       siteID,
		UserID:       userID,
		ForDate:      timex.Today(),
		SubmitTime:   now,
		DayOffReason: reason,
		Comments:     comments,
		Tasks:        []models.Task{},
	}

	return s.deliverTimesheet(ctx, dayOff, nil)
}

// deliverTimesheet validates, normalizes and delivers a finalized timesheet:
// sent directly when online (falling back to the queue on any failure),
// queued when offline. Local state for today is cleared on every path; the
// queue owns delivery from here.
func (s *sessionService) deliverTimesheet(ctx context.Context, final models.Timesheet, responses []models.QuestionResponse) error {
	if err := models.ValidateTimesheet(final); err != nil {
		return err
	}
	normalized, err := models.NormalizeTimesheet(final)
	if err != nil {
		return err
	}

	submission := models.TimesheetSubmission{Timesheet: normalized, Responses: responses}

	if s.net.Online() {
		if err := submitTimesheetRemote(ctx, s.client, submission); err != nil {
			s.log.Warn(ctx, "direct submission failed, queueing", "error", err)
			s.enqueue(ctx, models.ActionSubmitTimesheet, submission)
		} else {
			s.log.Info(ctx, "timesheet submitted", "forDate", normalized.ForDate)
		}
	} else {
		s.enqueue(ctx, models.ActionSubmitTimesheet, submission)
	}

	s.mu.Lock()
	s.timesheet = nil
	s.task = nil
	s.mu.Unlock()
	s.removeKey(ctx, keyActiveTimesheet)
	s.removeKey(ctx, keyActiveTask)

	return nil
}

func (s *sessionService) SubmitDayStart(ctx context.Context, responses []models.QuestionResponse) error {
	userID, siteID := s.scope()

	submission := models.DayStartSubmission{
		SiteID:    siteID,
		UserID:    userID,
		ForDate:   timex.Today(),
		Responses: responses,
	}

	if s.net.Online() {
		if err := s.client.SubmitDayStartResponses(ctx, submission); err != nil {
			s.log.Warn(ctx, "day-start submission failed, queueing", "error", err)
			s.enqueue(ctx, models.ActionSubmitDayStartResponses, submission)
		}
	} else {
		s.enqueue(ctx, models.ActionSubmitDayStartResponses, submission)
	}

	// Keep a local history so "already submitted today" works offline.
	var history []models.DayStartSubmission
	s.loadJSON(ctx, keyDayStartHistory, &history)
	history = append([]models.DayStartSubmission{submission}, history...)
	s.storeJSON(ctx, keyDayStartHistory, history)

	return nil
}

func (s *sessionService) DiscardTimesheet(ctx context.Context) error {
	userID, siteID := s.scope()
	today := timex.Today()

	s.mu.Lock()
	s.clock = nil
	s.task = nil
	s.timesheet = nil
	s.mu.Unlock()

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		store := kv.NewSQLiteStore(tx)
		for _, key := range []string{keyActiveClock, keyActiveTask, keyActiveTimesheet} {
			if err := store.Delete(ctx, key); err != nil {
				return err
			}
		}
		n, err := queue.NewSQLiteRepository(tx).PurgeMatching(ctx, siteID, userID, today)
		if err != nil {
			return err
		}
		if n > 0 {
			s.log.Info(ctx, "discarded queued actions", "count", n)
		}
		return nil
	})
	if err != nil {
		s.log.Error(ctx, "failed to discard timesheet", "error", err)
	}
	return err
}

func (s *sessionService) QueueSize(ctx context.Context) (int, error) {
	return s.queue().Size(ctx)
}
