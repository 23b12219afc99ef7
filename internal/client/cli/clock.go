package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/tsheet/internal/client/models"
)

// ClockOn opens a clock session from a partially filled task: the start time
// and job details now, the finish time later at clock-off.
func (a *App) ClockOn(ctx context.Context) error {
	if a.session.ActiveClock(ctx) != nil {
		fmt.Println("Already clocked on; clock off first")
		return nil
	}

	task, err := a.promptTask(ctx, models.Task{}, false)
	if err != nil {
		return err
	}

	clock, err := a.session.ClockOn(ctx, task)
	if err != nil {
		return err
	}

	fmt.Printf("Clocked on at %s (job %s)\n", clock.StartTime, clock.JobNo)
	return nil
}

// ClockOff closes the open session. The finished task lands on the active
// timesheet, ready to submit at the end of the day.
func (a *App) ClockOff(ctx context.Context) error {
	if a.session.ActiveClock(ctx) == nil {
		fmt.Println("Not clocked on")
		return nil
	}

	finishTime, err := getSimpleText(a.reader, "Enter finish time (HH:MM)", os.Stdout)
	if err != nil {
		return err
	}
	workDone, err := getSimpleText(a.reader, "Describe work done (optional)", os.Stdout)
	if err != nil {
		return err
	}

	ts, err := a.session.ClockOff(ctx, models.Task{FinishTime: finishTime, WorkDone: workDone})
	if err != nil {
		return err
	}

	fmt.Printf("Clocked off; timesheet for %s now has %d task(s)\n", ts.ForDate, len(ts.Tasks))
	return nil
}
