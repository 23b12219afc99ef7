package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/tsheet/internal/client/models"
	"github.com/dmitrijs2005/tsheet/internal/client/services"
)

// promptTask collects task fields interactively. The defaults come from the
// task being edited (shown in the prompt, kept on empty input). withFinish
// controls whether a finish time is asked for; clock-on leaves it open.
func (a *App) promptTask(ctx context.Context, defaults models.Task, withFinish bool) (models.Task, error) {
	task := defaults

	var err error
	if task.StartTime, err = a.promptField("Start time (HH:MM)", defaults.StartTime); err != nil {
		return task, err
	}
	if withFinish {
		if task.FinishTime, err = a.promptField("Finish time (HH:MM)", defaults.FinishTime); err != nil {
			return task, err
		}
	}
	if task.TimeFor, err = a.promptTimeFor(ctx, defaults.TimeFor); err != nil {
		return task, err
	}
	if task.JobNo, err = a.promptField("Job number", defaults.JobNo); err != nil {
		return task, err
	}
	if task.ReferenceNo1, err = a.promptField("Reference 1 (optional)", defaults.ReferenceNo1); err != nil {
		return task, err
	}
	if task.ReferenceNo2, err = a.promptField("Reference 2 (optional)", defaults.ReferenceNo2); err != nil {
		return task, err
	}
	if task.ReferenceNo3, err = a.promptField("Reference 3 (optional)", defaults.ReferenceNo3); err != nil {
		return task, err
	}
	if task.WorkDone, err = a.promptField("Work done", defaults.WorkDone); err != nil {
		return task, err
	}
	return task, nil
}

// promptField asks for one value; empty input keeps the current one.
func (a *App) promptField(label, current string) (string, error) {
	prompt := label
	if current != "" {
		prompt = fmt.Sprintf("%s [%s]", label, current)
	}
	value, err := getSimpleText(a.reader, prompt, os.Stdout)
	if err != nil {
		return "", err
	}
	if value == "" {
		return current, nil
	}
	return value, nil
}

// promptTimeFor offers the site-configured time-for list when available and
// falls back to free text when the site config cannot be loaded.
func (a *App) promptTimeFor(ctx context.Context, current string) (string, error) {
	cfg, err := a.site.SiteConfig(ctx, a.user.SiteID)
	if err == nil && cfg.TimeForListCSV != "" {
		options := strings.Split(cfg.TimeForListCSV, ",")
		for i := range options {
			options[i] = strings.TrimSpace(options[i])
		}
		return GetChoice(a.reader, "Time for:", options, os.Stdout)
	}
	return a.promptField("Time for", current)
}

// AddTask appends a manually entered task to the active timesheet.
func (a *App) AddTask(ctx context.Context) error {
	task, err := a.promptTask(ctx, models.Task{}, true)
	if err != nil {
		return err
	}

	ts, err := a.session.AppendTask(ctx, task)
	if err != nil {
		return err
	}

	fmt.Printf("Task added; timesheet for %s now has %d task(s)\n", ts.ForDate, len(ts.Tasks))
	return nil
}

// EditTask picks a task off the active timesheet and re-prompts its fields.
func (a *App) EditTask(ctx context.Context) error {
	ts := a.session.ActiveTimesheet(ctx)
	if ts == nil || len(ts.Tasks) == 0 {
		fmt.Println("No tasks to edit")
		return nil
	}

	labels := make([]string, len(ts.Tasks))
	for i, t := range ts.Tasks {
		labels[i] = fmt.Sprintf("%s %s job %s", t.StartTime, t.TimeFor, t.JobNo)
	}
	picked, err := GetChoice(a.reader, "Which task?", labels, os.Stdout)
	if err != nil {
		return err
	}

	var original models.Task
	for i, label := range labels {
		if label == picked {
			original = ts.Tasks[i]
			break
		}
	}

	edited, err := a.promptTask(ctx, original, true)
	if err != nil {
		return err
	}
	edited.TaskID = original.TaskID

	matched, err := a.session.UpdateTask(ctx, services.TaskUpdate{
		Task:          edited,
		OriginalJobNo: original.JobNo,
	})
	if err != nil {
		return err
	}
	if !matched {
		fmt.Println("Task not found on the active timesheet")
		return nil
	}
	fmt.Println("Task updated")
	return nil
}
