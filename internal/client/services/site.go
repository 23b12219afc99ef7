package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/tsheet/internal/client/api"
	"github.com/dmitrijs2005/tsheet/internal/client/models"
	"github.com/dmitrijs2005/tsheet/internal/client/repositories/kv"
	"github.com/dmitrijs2005/tsheet/internal/logging"
	"github.com/dmitrijs2005/tsheet/internal/timex"
)

// SiteService fetches and caches per-site configuration and question sets,
// and serves read-only history from the remote service.
//
// Config and questions are cached in the durable store so forms render
// offline; past timesheets are cached in memory only for the session.
type SiteService interface {
	SiteConfig(ctx context.Context, siteID string) (*models.SiteConfig, error)
	DayStartQuestions(ctx context.Context, siteID string) ([]models.Question, error)
	TimesheetQuestions(ctx context.Context, siteID string) ([]models.Question, error)

	PastTimesheets(ctx context.Context, siteID, userID string) ([]models.Timesheet, error)
	PastTasks(ctx context.Context, siteID, userID string) ([]models.PastTask, error)
	HasSubmittedDayStartToday(ctx context.Context, userID string) (bool, error)
}

type siteService struct {
	client api.Client
	db     *sql.DB
	log    logging.Logger

	mu             sync.Mutex
	pastTimesheets []models.Timesheet
	pastCachedFor  string
}

func NewSiteService(client api.Client, db *sql.DB, log logging.Logger) SiteService {
	return &siteService{client: client, db: db, log: log.With("component", "site")}
}

func (s *siteService) kv() kv.Store {
	return kv.NewSQLiteStore(s.db)
}

// fetchCached tries the remote fetch first and refreshes the durable cache
// on success; on failure it falls back to the cached value.
func (s *siteService) fetchCached(ctx context.Context, key string, fetch func() (any, error), out any) error {
	fresh, err := fetch()
	if err == nil {
		data, merr := json.Marshal(fresh)
		if merr != nil {
			return merr
		}
		if serr := s.kv().Set(ctx, key, data); serr != nil {
			s.log.Error(ctx, "failed to cache remote data", "key", key, "error", serr)
		}
		return json.Unmarshal(data, out)
	}

	s.log.Warn(ctx, "remote fetch failed, trying cache", "key", key, "error", err)

	cached, cerr := s.kv().Get(ctx, key)
	if cerr != nil || cached == nil {
		return fmt.Errorf("fetch failed and no cached data for %s: %w", key, err)
	}
	if uerr := json.Unmarshal(cached, out); uerr != nil {
		return fmt.Errorf("fetch failed and cached data malformed for %s: %w", key, err)
	}
	return nil
}

func (s *siteService) SiteConfig(ctx context.Context, siteID string) (*models.SiteConfig, error) {
	var cfg models.SiteConfig
	err := s.fetchCached(ctx, keySiteConfig, func() (any, error) {
		return s.client.SiteConfig(ctx, siteID)
	}, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *siteService) DayStartQuestions(ctx context.Context, siteID string) ([]models.Question, error) {
	var questions []models.Question
	err := s.fetchCached(ctx, siteQuestionsKey(siteID), func() (any, error) {
		return s.client.DayStartQuestions(ctx, siteID)
	}, &questions)
	return questions, err
}

func (s *siteService) TimesheetQuestions(ctx context.Context, siteID string) ([]models.Question, error) {
	var questions []models.Question
	err := s.fetchCached(ctx, keySubmitQuestions, func() (any, error) {
		return s.client.TimesheetQuestions(ctx, siteID)
	}, &questions)
	return questions, err
}

func (s *siteService) PastTimesheets(ctx context.Context, siteID, userID string) ([]models.Timesheet, error) {
	cacheKey := siteID + "/" + userID

	sheets, err := s.client.DownloadTimesheets(ctx, siteID, userID)
	if err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.pastCachedFor == cacheKey && s.pastTimesheets != nil {
			return s.pastTimesheets, nil
		}
		return nil, fmt.Errorf("failed to load past timesheets: %w", err)
	}

	s.mu.Lock()
	s.pastTimesheets = sheets
	s.pastCachedFor = cacheKey
	s.mu.Unlock()

	return sheets, nil
}

func (s *siteService) PastTasks(ctx context.Context, siteID, userID string) ([]models.PastTask, error) {
	sheets, err := s.PastTimesheets(ctx, siteID, userID)
	if err != nil {
		return nil, err
	}

	var tasks []models.PastTask
	for _, ts := range sheets {
		for _, t := range ts.Tasks {
			tasks = append(tasks, models.PastTask{Task: t, ForDate: ts.ForDate})
		}
	}
	return tasks, nil
}

func (s *siteService) HasSubmittedDayStartToday(ctx context.Context, userID string) (bool, error) {
	today := timex.Today()

	responses, err := s.client.DownloadDayStartResponses(ctx, userID)
	if err == nil {
		for _, r := range responses {
			if r.ForDate == today {
				return true, nil
			}
		}
		return false, nil
	}

	// Offline fallback: consult the local day-start history.
	s.log.Warn(ctx, "day-start download failed, checking local history", "error", err)

	data, cerr := s.kv().Get(ctx, keyDayStartHistory)
	if cerr != nil || data == nil {
		return false, nil
	}
	var history []models.DayStartSubmission
	if uerr := json.Unmarshal(data, &history); uerr != nil {
		return false, nil
	}
	for _, h := range history {
		if h.UserID == userID && h.ForDate == today {
			return true, nil
		}
	}
	return false, nil
}
