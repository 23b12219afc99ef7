package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

func (a *App) getStatus() string {
	s := ""
	if a.user != nil {
		s = a.user.UserName + " "
	}
	if a.watcher.Online() {
		s += "online"
	} else {
		s += "offline"
	}
	return fmt.Sprintf("(%s)", s)
}

func (a *App) Root(ctx context.Context) {

	fmt.Println("Welcome to the timesheet CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Printf("ts %s> ", a.getStatus())
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Println("Available commands: status, clockon, clockoff, addtask, edittask, show, submit, dayoff, daystart, discard, history, sync, logout, exit")
			} else {
				fmt.Println("Available commands: login, exit")
			}

		case "login":
			a.Login(ctx)
		case "logout":
			a.runCommand(ctx, a.Logout)
		case "status":
			a.runCommand(ctx, a.Status)
		case "clockon":
			a.runCommand(ctx, a.ClockOn)
		case "clockoff":
			a.runCommand(ctx, a.ClockOff)
		case "addtask":
			a.runCommand(ctx, a.AddTask)
		case "edittask":
			a.runCommand(ctx, a.EditTask)
		case "show":
			a.runCommand(ctx, a.Show)
		case "submit":
			a.runCommand(ctx, a.Submit)
		case "dayoff":
			a.runCommand(ctx, a.DayOff)
		case "daystart":
			a.runCommand(ctx, a.DayStart)
		case "discard":
			a.runCommand(ctx, a.Discard)
		case "history":
			a.runCommand(ctx, a.History)
		case "sync":
			a.runCommand(ctx, a.Sync)
		case "exit", "quit":
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Unknown command:", cmd)
		}
	}

}

// runCommand gates a command behind login and prints its error, keeping the
// REPL loop itself free of error plumbing.
func (a *App) runCommand(ctx context.Context, fn func(ctx context.Context) error) {
	if !a.isLoggedIn() {
		fmt.Println("Please log in first")
		return
	}
	if err := fn(ctx); err != nil {
		fmt.Println("Error:", err.Error())
	}
}
