// Package cli provides the interactive timesheet command-line client.
//
// It wires configuration, local storage, the TSAPI client, and an interactive
// REPL that supports online/offline operation. Typical flow: prompt for
// credentials, start a background connectivity watcher that drains the
// offline queue on reconnect, and execute user commands.
//
// Key features:
//   - Login / Logout (online with offline PIN fallback)
//   - Clock on / clock off
//   - Add and edit timesheet tasks
//   - Submit timesheets, day-off notices and day-start responses
//   - Review past timesheets downloaded from the server
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
