// Package services contains the application services of the timesheet
// client: the session state manager (clock sessions, active timesheet),
// the sync engine that drains the offline action queue, site configuration
// and question caching, and the login gate.
//
// Services never share mutable state directly; the local database is the
// single source of truth and every mutation goes through a service method.
package services
