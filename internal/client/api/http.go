package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/tsheet/internal/client/models"
)

const (
	getRetryAttempts = 3
	getRetryBase     = 200 * time.Millisecond
)

// HTTPClient talks JSON over HTTPS to the TSAPI service.
//
// POSTs are issued exactly once per call: delivery retries are the offline
// queue's job and the server is only assumed duplicate-tolerant per natural
// key, not per request. Idempotent GETs are retried in place with a short
// capped backoff to ride out connection blips.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return ErrUnavailable
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *HTTPClient) UploadTimesheet(ctx context.Context, ts models.Timesheet) error {
	return c.postJSON(ctx, "/upload", ts)
}

func (c *HTTPClient) SubmitQuestionResponses(ctx context.Context, upload models.QuestionResponseUpload) error {
	return c.postJSON(ctx, "/timesheetquestionresponse", upload)
}

func (c *HTTPClient) SubmitDayStartResponses(ctx context.Context, submission models.DayStartSubmission) error {
	return c.postJSON(ctx, "/daystartresponses", submission)
}

func (c *HTTPClient) DownloadTimesheets(ctx context.Context, siteID, userID string) ([]models.Timesheet, error) {
	q := url.Values{}
	q.Set("siteID", siteID)
	q.Set("userID", userID)

	var result models.DownloadResult
	if err := c.getJSON(ctx, "/download?"+q.Encode(), &result); err != nil {
		return nil, err
	}
	return result.Timesheets, nil
}

func (c *HTTPClient) DownloadDayStartResponses(ctx context.Context, userID string) ([]models.DayStartSubmission, error) {
	var result []models.DayStartSubmission
	if err := c.getJSON(ctx, "/download/daystartresponses/"+url.PathEscape(userID), &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *HTTPClient) SiteConfig(ctx context.Context, siteID string) (*models.SiteConfig, error) {
	var result models.SiteConfig
	if err := c.getJSON(ctx, "/config/"+url.PathEscape(siteID), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) DayStartQuestions(ctx context.Context, siteID string) ([]models.Question, error) {
	var result []models.Question
	if err := c.getJSON(ctx, "/daystartquestions/"+url.PathEscape(siteID), &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *HTTPClient) TimesheetQuestions(ctx context.Context, siteID string) ([]models.Question, error) {
	var result []models.Question
	if err := c.getJSON(ctx, "/timesheetquestions/"+url.PathEscape(siteID), &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) postJSON(ctx context.Context, path string, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return ErrUnavailable
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return c.checkStatus(resp)
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, out any) error {
	backoff := retry.WithMaxRetries(getRetryAttempts, retry.NewFibonacci(getRetryBase))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return err
		}

		resp, err := c.http.Do(req)
		if err != nil {
			// transport failure, worth another attempt
			return retry.RetryableError(ErrUnavailable)
		}
		defer resp.Body.Close()

		if err := c.checkStatus(resp); err != nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return err
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	})
}

func (c *HTTPClient) checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s", ErrUnavailable, resp.Status)
	default:
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}
}
