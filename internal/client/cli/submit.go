package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/tsheet/internal/client/models"
)

// askQuestions renders the site questions and collects one response each.
// A question with dropdown values becomes a numbered choice.
func (a *App) askQuestions(questions []models.Question) ([]models.QuestionResponse, error) {
	responses := make([]models.QuestionResponse, 0, len(questions))
	for _, q := range questions {
		var answer string
		var err error
		if len(q.DropdownValues) > 0 {
			answer, err = GetChoice(a.reader, q.QuestionText, q.DropdownValues, os.Stdout)
		} else {
			answer, err = getSimpleText(a.reader, q.QuestionText, os.Stdout)
		}
		if err != nil {
			return nil, err
		}
		responses = append(responses, models.QuestionResponse{
			SequenceNo:   q.SequenceNo,
			QuestionText: q.QuestionText,
			Response:     answer,
		})
	}
	return responses, nil
}

// Submit finalizes the day: asks the site's submit questions, collects
// closing comments and hands the timesheet to the session for delivery.
func (a *App) Submit(ctx context.Context) error {
	if a.session.ActiveTimesheet(ctx) == nil {
		fmt.Println("Nothing to submit")
		return nil
	}

	var responses []models.QuestionResponse
	questions, err := a.site.TimesheetQuestions(ctx, a.user.SiteID)
	if err != nil {
		fmt.Println("Submit questions unavailable, continuing without them")
	} else if len(questions) > 0 {
		if responses, err = a.askQuestions(questions); err != nil {
			return err
		}
	}

	comments, err := getSimpleText(a.reader, "Closing comments (optional)", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.session.SubmitTimesheet(ctx, comments, responses); err != nil {
		return err
	}

	fmt.Println("Timesheet submitted")
	return nil
}

// DayOff submits a no-work timesheet for today with a reason picked from the
// site's configured list.
func (a *App) DayOff(ctx context.Context) error {
	reason := ""
	cfg, err := a.site.SiteConfig(ctx, a.user.SiteID)
	if err == nil && cfg.DayOffReasonsCSV != "" {
		options := strings.Split(cfg.DayOffReasonsCSV, ",")
		for i := range options {
			options[i] = strings.TrimSpace(options[i])
		}
		if reason, err = GetChoice(a.reader, "Reason:", options, os.Stdout); err != nil {
			return err
		}
	} else {
		if reason, err = getSimpleText(a.reader, "Enter reason", os.Stdout); err != nil {
			return err
		}
	}

	comments, err := getSimpleText(a.reader, "Comments (optional)", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.session.SubmitDayOff(ctx, reason, comments); err != nil {
		return err
	}

	fmt.Println("Day off recorded")
	return nil
}

// DayStart runs the site's day-start questionnaire, skipping it when today's
// answers are already on record.
func (a *App) DayStart(ctx context.Context) error {
	done, err := a.site.HasSubmittedDayStartToday(ctx, a.user.UserID)
	if err == nil && done {
		fmt.Println("Day-start responses already submitted today")
		return nil
	}

	cfg, err := a.site.SiteConfig(ctx, a.user.SiteID)
	if err == nil && cfg.DayStartMessage != "" {
		fmt.Println(cfg.DayStartMessage)
	}

	questions, err := a.site.DayStartQuestions(ctx, a.user.SiteID)
	if err != nil {
		return err
	}

	responses, err := a.askQuestions(questions)
	if err != nil {
		return err
	}

	if err := a.session.SubmitDayStart(ctx, responses); err != nil {
		return err
	}

	fmt.Println("Day-start responses submitted")
	return nil
}

// Discard drops today's local state and any queued actions for it, after an
// explicit confirmation.
func (a *App) Discard(ctx context.Context) error {
	answer, err := getSimpleText(a.reader, "Discard today's timesheet and queued actions? (yes/no)", os.Stdout)
	if err != nil {
		return err
	}
	if !strings.EqualFold(answer, "yes") && !strings.EqualFold(answer, "y") {
		fmt.Println("Cancelled")
		return nil
	}

	if err := a.session.DiscardTimesheet(ctx); err != nil {
		return err
	}
	fmt.Println("Discarded")
	return nil
}
