package city

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/hunterjsb/warwatch/internal/clock"
)

// EventSource is the slice of the external store the refresher needs. A nil
// Event with a nil error means nothing is scheduled for that city and date;
// errors mean the store could not be asked.
type EventSource interface {
	SiegeWindow(ctx context.Context, city string) (string, error)
	Event(ctx context.Context, city, date string) (*Event, error)
}

// Refresher repopulates the registry from the external store. All store I/O
// happens outside the registry lock; results are swapped in at the end.
type Refresher struct {
	reg *Registry
	src EventSource
	log *log.Logger
}

// NewRefresher wires a refresher to its registry and store.
func NewRefresher(reg *Registry, src EventSource, logger *log.Logger) *Refresher {
	return &Refresher{reg: reg, src: src, log: logger}
}

// targets resolves an optional city filter to the set of cities to refresh.
func (f *Refresher) targets(cities []string) []string {
	if len(cities) == 0 {
		return Names()
	}
	return cities
}

// RefreshSiegeWindows re-reads each target city's siege window from the
// store. A miss is a hard failure for that city: it is logged and the cached
// value is left alone, because a city without a siege time cannot be queried
// safely. Other cities still refresh.
func (f *Refresher) RefreshSiegeWindows(ctx context.Context, cities ...string) {
	for _, name := range f.targets(cities) {
		window, err := f.src.SiegeWindow(ctx, name)
		if err != nil {
			f.log.Error("siege window lookup failed", "city", name, "err", err)
			continue
		}
		if window == "" {
			f.log.Error("no siege window recorded", "city", name)
			continue
		}
		// Cache it regardless, but flag values the clock helpers will refuse
		// to compare.
		if t, err := clock.Parse(window); err != nil {
			f.log.Warn("siege window will not parse", "city", name, "time", window, "err", err)
		} else if !t.Valid() {
			f.log.Warn("siege window out of range", "city", name, "time", window)
		}
		f.reg.SetSiegeTime(name, window)
		f.log.Debug("refreshed siege window", "city", name, "time", window)
	}
}

// RefreshEvents rebuilds the today/tomorrow event buckets from the store.
// Per-city store errors carry that city's previous record forward when the
// buckets are still for the current date (partial-result policy); misses
// drop the city from the bucket, which is the "no event" signal. The new
// buckets replace the old ones in one atomic swap.
func (f *Refresher) RefreshEvents(ctx context.Context, cities ...string) {
	now := f.reg.now()
	today := now.Format(DateLayout)
	tomorrow := now.AddDate(0, 0, 1).Format(DateLayout)
	sameDate := f.reg.BucketDate() == today

	next := map[Day]map[string]*Event{
		Today:    make(map[string]*Event),
		Tomorrow: make(map[string]*Event),
	}
	dates := map[Day]string{Today: today, Tomorrow: tomorrow}

	// A filtered refresh only re-reads the requested cities; everyone else
	// keeps their current records, provided those are for the current date.
	targets := f.targets(cities)
	if len(cities) > 0 && sameDate {
		targeted := make(map[string]bool, len(targets))
		for _, name := range targets {
			targeted[name] = true
		}
		for _, name := range Names() {
			if targeted[name] {
				continue
			}
			for _, day := range []Day{Today, Tomorrow} {
				if prev, ok := f.reg.EventOn(name, day); ok {
					next[day][name] = prev
				}
			}
		}
	}

	for _, name := range targets {
		for _, day := range []Day{Today, Tomorrow} {
			ev, err := f.src.Event(ctx, name, dates[day])
			if err != nil {
				f.log.Error("event lookup failed", "city", name, "date", dates[day], "err", err)
				if !sameDate {
					continue
				}
				if prev, ok := f.reg.EventOn(name, day); ok {
					next[day][name] = prev
				}
				continue
			}
			if ev == nil {
				continue
			}
			next[day][name] = ev
			f.log.Debug("found event", "city", name, "date", ev.Date, "type", ev.Type)
		}
	}

	f.reg.ApplyEvents(today, next[Today], next[Tomorrow])
	f.log.Info("event buckets rebuilt", "date", today,
		"today", len(next[Today]), "tomorrow", len(next[Tomorrow]))
}
