// Package nnduration provides JSON-compatible non-negative duration types.
package nnduration

import (
	"encoding/json"
	"strconv"
	"time"
)

func parse(p []byte, unit time.Duration) (uint64, error) {
	var s string
	if e := json.Unmarshal(p, &s); e != nil {
		return strconv.ParseUint(string(p), 10, 64)
	}
	if d, e := time.ParseDuration(s); e == nil {
		if d < 0 {
			return 0, strconv.ErrRange
		}
		return uint64(d / unit), nil
	}
	return strconv.ParseUint(s, 10, 64)
}

// Milliseconds is a duration in milliseconds.
// In JSON, it may be written as an integer or a string recognized by time.ParseDuration.
type Milliseconds uint64

// Duration converts to time.Duration.
func (d Milliseconds) Duration() time.Duration {
	return time.Duration(d) * time.Millisecond
}

// DurationOr converts non-zero value to time.Duration, otherwise returns dflt milliseconds.
func (d Milliseconds) DurationOr(dflt Milliseconds) time.Duration {
	if d == 0 {
		return dflt.Duration()
	}
	return d.Duration()
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Milliseconds) UnmarshalJSON(p []byte) error {
	v, e := parse(p, time.Millisecond)
	if e != nil {
		return e
	}
	*d = Milliseconds(v)
	return nil
}

// Nanoseconds is a duration in nanoseconds.
// In JSON, it may be written as an integer or a string recognized by time.ParseDuration.
type Nanoseconds uint64

// Duration converts to time.Duration.
func (d Nanoseconds) Duration() time.Duration {
	return time.Duration(d)
}

// DurationOr converts non-zero value to time.Duration, otherwise returns dflt nanoseconds.
func (d Nanoseconds) DurationOr(dflt Nanoseconds) time.Duration {
	if d == 0 {
		return dflt.Duration()
	}
	return d.Duration()
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Nanoseconds) UnmarshalJSON(p []byte) error {
	v, e := parse(p, time.Nanosecond)
	if e != nil {
		return e
	}
	*d = Nanoseconds(v)
	return nil
}
