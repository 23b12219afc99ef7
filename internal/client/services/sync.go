package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/dmitrijs2005/tsheet/internal/client/api"
	"github.com/dmitrijs2005/tsheet/internal/client/models"
	"github.com/dmitrijs2005/tsheet/internal/client/repositories/queue"
	"github.com/dmitrijs2005/tsheet/internal/logging"
)

// SyncService drains the offline action queue against the remote service.
type SyncService interface {
	// Drain attempts every currently queued action in enqueue order,
	// sequentially. Succeeded items are removed; failed items stay in
	// place for the next trigger. Drain never reports an error to the
	// trigger path: everything is logged.
	//
	// Only one drain runs at a time; a concurrent call returns
	// immediately without queueing a follow-up pass.
	Drain(ctx context.Context)

	// Pending returns the number of queued actions.
	Pending(ctx context.Context) (int, error)
}

type syncService struct {
	client   api.Client
	db       *sql.DB
	log      logging.Logger
	draining atomic.Bool
}

func NewSyncService(client api.Client, db *sql.DB, log logging.Logger) SyncService {
	return &syncService{client: client, db: db, log: log.With("component", "sync")}
}

func (s *syncService) queue() queue.Repository {
	return queue.NewSQLiteRepository(s.db)
}

func (s *syncService) Drain(ctx context.Context) {
	if !s.draining.CompareAndSwap(false, true) {
		s.log.Info(ctx, "sync already in progress, trigger dropped")
		return
	}
	defer s.draining.Store(false)

	repo := s.queue()

	items, err := repo.List(ctx)
	if err != nil {
		s.log.Error(ctx, "failed to read queue", "error", err)
		return
	}
	if len(items) == 0 {
		return
	}

	s.log.Info(ctx, "starting sync", "items", len(items))

	kept := 0
	for _, item := range items {
		if err := s.process(ctx, item); err != nil {
			// The item stays queued for the next trigger; one bad item
			// must not halt the rest of the drain.
			s.log.Error(ctx, "queue item kept for retry", "id", item.ID, "type", item.Type, "error", err)
			kept++
			continue
		}
		if err := repo.RemoveByID(ctx, item.ID); err != nil {
			s.log.Error(ctx, "failed to remove synced item", "id", item.ID, "error", err)
		}
	}

	s.log.Info(ctx, "sync complete", "remaining", kept)
}

// process performs the remote call sequence for one queued action.
// A nil return means the item is done and may be removed.
func (s *syncService) process(ctx context.Context, item models.QueueItem) error {
	switch item.Type {
	case models.ActionSubmitTimesheet:
		var sub models.TimesheetSubmission
		if err := json.Unmarshal(item.Payload, &sub); err != nil {
			return fmt.Errorf("malformed payload: %w", err)
		}
		return submitTimesheetRemote(ctx, s.client, sub)

	case models.ActionSubmitDayStartResponses:
		var sub models.DayStartSubmission
		if err := json.Unmarshal(item.Payload, &sub); err != nil {
			return fmt.Errorf("malformed payload: %w", err)
		}
		return s.client.SubmitDayStartResponses(ctx, sub)

	case models.ActionClockOn, models.ActionClockOff:
		var clock models.ActiveClock
		if err := json.Unmarshal(item.Payload, &clock); err != nil {
			return fmt.Errorf("malformed payload: %w", err)
		}
		ts, err := models.ClockTimesheet(clock, item.Type == models.ActionClockOff)
		if err != nil {
			return err
		}
		return s.client.UploadTimesheet(ctx, ts)

	default:
		// Unknown types are removed, matching the drop-on-unknown behavior
		// of old clients; keeping them would wedge the queue forever.
		s.log.Warn(ctx, "dropping queue item of unknown type", "id", item.ID, "type", item.Type)
		return nil
	}
}

func (s *syncService) Pending(ctx context.Context) (int, error) {
	return s.queue().Size(ctx)
}

// submitTimesheetRemote performs the SUBMIT_TIMESHEET call sequence: upload
// the timesheet, then the submit-question responses when present.
//
// A failure anywhere fails the whole sequence, so the caller requeues the
// complete item. Re-attempting the upload on retry can duplicate it, but the
// server overwrites by (siteID, userID, forDate); losing the question
// responses would be worse.
func submitTimesheetRemote(ctx context.Context, client api.Client, sub models.TimesheetSubmission) error {
	if err := client.UploadTimesheet(ctx, sub.Timesheet); err != nil {
		return fmt.Errorf("timesheet upload: %w", err)
	}

	if len(sub.Responses) == 0 {
		return nil
	}

	upload := models.QuestionResponseUpload{
		SiteID:    sub.Timesheet.SiteID,
		UserID:    sub.Timesheet.UserID,
		ForDate:   sub.Timesheet.ForDate,
		Responses: sub.Responses,
	}
	if err := client.SubmitQuestionResponses(ctx, upload); err != nil {
		return fmt.Errorf("question responses: %w", err)
	}
	return nil
}
