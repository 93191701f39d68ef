// Package repositories holds the gorm-backed stores the core reads from
// and writes to.
package repositories

import (
	"errors"
	"time"

	"github.com/arnold/kpitrack-api/internal/apperror"
	"gorm.io/gorm"
)

// Window is a half-open time range [From, To).
type Window struct {
	From time.Time
	To   time.Time
}

// DayWindow covers whole calendar days in loc from start through end
// inclusive. Drivers may hand back instants in any zone, so the days are
// read in loc.
func DayWindow(start, end time.Time, loc *time.Location) Window {
	start, end = start.In(loc), end.In(loc)
	from := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, loc)
	return Window{From: from, To: last.AddDate(0, 0, 1)}
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound("%s not found", what)
	}
	return apperror.Internal(err, "failed to load %s", what)
}
