package services

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/tsheet/internal/client/api"
	"github.com/dmitrijs2005/tsheet/internal/client/models"
	"github.com/dmitrijs2005/tsheet/internal/logging"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE kv (
  key   TEXT PRIMARY KEY,
  value BLOB NOT NULL
);

CREATE TABLE queue_items (
  seq        INTEGER PRIMARY KEY AUTOINCREMENT,
  id         TEXT NOT NULL UNIQUE,
  type       TEXT NOT NULL,
  payload    BLOB NOT NULL,
  created_at TEXT NOT NULL,
  synced     INTEGER NOT NULL DEFAULT 0
);
`)
	require.NoError(t, err)

	return db
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.DiscardHandler))
}

// stubNet is a fixed-state Connectivity provider.
type stubNet struct {
	online bool
}

func (s stubNet) Online() bool { return s.online }

// fakeClient records calls in order and fails configurable operations,
// in the style of the fake remote clients used across the service tests.
type fakeClient struct {
	api.Client

	mu    sync.Mutex
	calls []string

	uploads         []models.Timesheet
	questionUploads []models.QuestionResponseUpload
	dayStartUploads []models.DayStartSubmission

	uploadErr   error
	questionErr error
	dayStartErr error
	pingErr     error

	siteConfig    *models.SiteConfig
	siteConfigErr error

	downloadSheets    []models.Timesheet
	downloadErr       error
	dayStartDownloads []models.DayStartSubmission
	dayStartDlErr     error

	dayStartQuestions []models.Question
	submitQuestions   []models.Question
	questionsErr      error

	// barrier, when set, blocks UploadTimesheet until released.
	// uploadStarted, when set, receives once per upload before blocking.
	barrier       chan struct{}
	uploadStarted chan struct{}
}

func (f *fakeClient) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeClient) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeClient) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeClient) UploadTimesheet(ctx context.Context, ts models.Timesheet) error {
	if f.uploadStarted != nil {
		f.uploadStarted <- struct{}{}
	}
	if f.barrier != nil {
		<-f.barrier
	}
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.mu.Lock()
	f.uploads = append(f.uploads, ts)
	f.mu.Unlock()
	f.record("upload:" + ts.Comments)
	return nil
}

func (f *fakeClient) SubmitQuestionResponses(ctx context.Context, up models.QuestionResponseUpload) error {
	if f.questionErr != nil {
		return f.questionErr
	}
	f.mu.Lock()
	f.questionUploads = append(f.questionUploads, up)
	f.mu.Unlock()
	f.record("questions")
	return nil
}

func (f *fakeClient) SubmitDayStartResponses(ctx context.Context, sub models.DayStartSubmission) error {
	if f.dayStartErr != nil {
		return f.dayStartErr
	}
	f.mu.Lock()
	f.dayStartUploads = append(f.dayStartUploads, sub)
	f.mu.Unlock()
	f.record("daystart")
	return nil
}

func (f *fakeClient) DownloadTimesheets(ctx context.Context, siteID, userID string) ([]models.Timesheet, error) {
	return f.downloadSheets, f.downloadErr
}

func (f *fakeClient) DownloadDayStartResponses(ctx context.Context, userID string) ([]models.DayStartSubmission, error) {
	return f.dayStartDownloads, f.dayStartDlErr
}

func (f *fakeClient) SiteConfig(ctx context.Context, siteID string) (*models.SiteConfig, error) {
	return f.siteConfig, f.siteConfigErr
}

func (f *fakeClient) DayStartQuestions(ctx context.Context, siteID string) ([]models.Question, error) {
	return f.dayStartQuestions, f.questionsErr
}

func (f *fakeClient) TimesheetQuestions(ctx context.Context, siteID string) ([]models.Question, error) {
	return f.submitQuestions, f.questionsErr
}

func (f *fakeClient) Close() error { return nil }
