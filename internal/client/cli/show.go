package cli

import (
	"context"
	"fmt"
)

// Status prints a one-screen summary of the session: connectivity, queue
// depth and whatever is open right now.
func (a *App) Status(ctx context.Context) error {
	fmt.Printf("User: %s (%s) at site %s\n", a.user.UserName, a.user.UserID, a.user.SiteID)
	fmt.Printf("Connectivity: %s\n", a.watcher.Status())

	pending, err := a.sync.Pending(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Queued actions: %d\n", pending)

	if clock := a.session.ActiveClock(ctx); clock != nil {
		fmt.Printf("Clocked on since %s (job %s)\n", clock.StartTime, clock.JobNo)
	}
	if ts := a.session.ActiveTimesheet(ctx); ts != nil {
		fmt.Printf("Active timesheet for %s with %d task(s)\n", ts.ForDate, len(ts.Tasks))
	}
	return nil
}

// Show prints the active timesheet task by task.
func (a *App) Show(ctx context.Context) error {
	ts := a.session.ActiveTimesheet(ctx)
	if ts == nil {
		fmt.Println("No active timesheet")
		return nil
	}

	fmt.Printf("Timesheet for %s:\n", ts.ForDate)
	for i, t := range ts.Tasks {
		finish := t.FinishTime
		if finish == "" {
			finish = "..."
		}
		fmt.Printf("  %d) %s-%s %s job %s  %s\n", i+1, t.StartTime, finish, t.TimeFor, t.JobNo, t.WorkDone)
	}
	if ts.Comments != "" {
		fmt.Printf("Comments: %s\n", ts.Comments)
	}
	return nil
}

// History lists tasks from previously submitted timesheets downloaded from
// the server (or the session cache when offline).
func (a *App) History(ctx context.Context) error {
	tasks, err := a.site.PastTasks(ctx, a.user.SiteID, a.user.UserID)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Println("No past tasks")
		return nil
	}

	for _, t := range tasks {
		fmt.Printf("  %s  %s-%s %s job %s  %s\n", t.ForDate, t.StartTime, t.FinishTime, t.TimeFor, t.JobNo, t.WorkDone)
	}
	return nil
}

// Sync triggers a queue drain by hand, for when the user does not want to
// wait for the connectivity watcher.
func (a *App) Sync(ctx context.Context) error {
	a.sync.Drain(ctx)

	pending, err := a.sync.Pending(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Sync finished, %d action(s) still queued\n", pending)
	return nil
}
