// Package version records ethmac version information.
package version

import (
	"fmt"
	"strconv"
	"time"
)

// Variables replaced via -ldflags -X.
var (
	commit string
	date   string
	dirty  string
)

// Version records ethmac version information.
type Version struct {
	Version string    `json:"version"`
	Commit  string    `json:"commit"`
	Date    time.Time `json:"date"`
	Dirty   bool      `json:"dirty"`
}

func (v Version) String() string {
	return v.Version
}

// Get returns version information.
// Without build-time information, the version is reported as "development".
func Get() (v Version) {
	dt, e := strconv.ParseInt(date, 10, 64)
	if e != nil || len(commit) < 12 {
		return Version{
			Version: "development",
			Commit:  "unknown",
			Date:    time.Now(),
			Dirty:   true,
		}
	}

	v = Version{
		Commit: commit,
		Date:   time.Unix(dt, 0).UTC(),
		Dirty:  dirty != "",
	}
	suffix := ""
	if v.Dirty {
		suffix = "+dirty"
	}
	v.Version = fmt.Sprintf("v0.0.0-%s-%s%s", v.Date.Format("20060102150405"), commit[:12], suffix)
	return v
}
