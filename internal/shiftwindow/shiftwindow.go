// Package shiftwindow maps instants to the business shift they belong to.
//
// A shift runs from 18:00 on its business date to 03:00 the next morning,
// local time (UTC+7). Windows are half-open: 03:00:00 belongs to the next
// business date's window.
package shiftwindow

import (
	"fmt"
	"time"
)

const (
	DateLayout = "2006-01-02"

	StartHour = 18
	EndHour   = 3
)

// Location is the business location's fixed UTC+7 offset. Thailand observes
// no daylight saving, so a fixed zone avoids depending on tzdata.
var Location = time.FixedZone("ICT", 7*60*60)

type Window struct {
	date  time.Time
	Start time.Time
	End   time.Time
}

// Resolve returns the window containing ref. Before 03:00 local time ref
// still belongs to the previous business date.
func Resolve(ref time.Time) Window {
	local := ref.In(Location)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, Location)
	if local.Hour() < EndHour {
		day = day.AddDate(0, 0, -1)
	}
	return forDay(day)
}

// ForDate returns the window for a YYYY-MM-DD business date.
func ForDate(date string) (Window, error) {
	day, err := time.ParseInLocation(DateLayout, date, Location)
	if err != nil {
		return Window{}, fmt.Errorf("invalid shift date %q: %w", date, err)
	}
	return forDay(day), nil
}

func forDay(day time.Time) Window {
	start := time.Date(day.Year(), day.Month(), day.Day(), StartHour, 0, 0, 0, Location)
	end := time.Date(day.Year(), day.Month(), day.Day()+1, EndHour, 0, 0, 0, Location)
	return Window{date: day, Start: start, End: end}
}

func (w Window) Date() string {
	return w.date.Format(DateLayout)
}

// Contains reports whether t falls in [Start, End).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

func (w Window) Previous() Window {
	return forDay(w.date.AddDate(0, 0, -1))
}

func (w Window) Next() Window {
	return forDay(w.date.AddDate(0, 0, 1))
}

// UTC returns the bounds as RFC 3339 UTC strings, the form POS queries use.
func (w Window) UTC() (string, string) {
	return w.Start.UTC().Format(time.RFC3339), w.End.UTC().Format(time.RFC3339)
}

func (w Window) String() string {
	return fmt.Sprintf("%s [%s, %s)", w.Date(), w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}
