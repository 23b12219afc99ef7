// Package api wraps the remote TSAPI timesheet service behind a small
// request/response client. Each method maps to one REST endpoint; failure
// semantics across calls (retries, requeueing) live in the services layer.
package api

import (
	"context"

	"github.com/dmitrijs2005/tsheet/internal/client/models"
)

type Client interface {
	// Ping checks whether the service is reachable at all. Any HTTP
	// response counts as reachable; only transport failures do not.
	Ping(ctx context.Context) error

	// UploadTimesheet posts a timesheet to /upload. The server overwrites
	// by the natural key (siteID, userID, forDate).
	UploadTimesheet(ctx context.Context, ts models.Timesheet) error

	// SubmitQuestionResponses posts submit-question answers for an
	// already-uploaded timesheet.
	SubmitQuestionResponses(ctx context.Context, upload models.QuestionResponseUpload) error

	// SubmitDayStartResponses posts day-start answers.
	SubmitDayStartResponses(ctx context.Context, submission models.DayStartSubmission) error

	// DownloadTimesheets fetches past timesheets with nested tasks.
	DownloadTimesheets(ctx context.Context, siteID, userID string) ([]models.Timesheet, error)

	// DownloadDayStartResponses fetches prior day-start submissions,
	// used to check whether today's was already submitted.
	DownloadDayStartResponses(ctx context.Context, userID string) ([]models.DayStartSubmission, error)

	// SiteConfig fetches per-site configuration.
	SiteConfig(ctx context.Context, siteID string) (*models.SiteConfig, error)

	// DayStartQuestions fetches the day-start question set for a site.
	DayStartQuestions(ctx context.Context, siteID string) ([]models.Question, error)

	// TimesheetQuestions fetches the submit-screen question set for a site.
	TimesheetQuestions(ctx context.Context, siteID string) ([]models.Question, error)

	Close() error
}
