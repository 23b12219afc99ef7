// Package timex contains small time helpers shared by the client:
// a JSON-friendly duration type for config files and formatting helpers
// for the date/time strings the timesheet service expects.
package timex

import (
	"encoding/json"
	"errors"
	"time"
)

// Duration wraps time.Duration so JSON config can specify intervals either
// as strings like "3s" or as integer nanoseconds.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		d.Duration = parsed
		return nil
	default:
		return errors.New("invalid duration")
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// Today returns the current date in the YYYY-MM-DD form used as the
// forDate key throughout the timesheet API.
func Today() string {
	return time.Now().Format("2006-01-02")
}

// NowISO returns the current instant as an ISO-8601 (RFC 3339) string,
// the format used for queue item timestamps and upload times.
func NowISO() string {
	return time.Now().Format(time.RFC3339)
}
