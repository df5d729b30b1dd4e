package city

import (
	"sync"
	"time"
)

// DateLayout is the ISO date form used to key event tables and day buckets.
const DateLayout = "2006-01-02"

// cityState is the mutable, cached view of one settlement. Everything here
// is derived from the external store; there is no independent source of
// truth in-process.
type cityState struct {
	siegeTime string // raw "H:MM AM/PM" string from the siege table
	today     *Event
	tomorrow  *Event
}

// Registry is the shared cache of per-city state plus the two day buckets.
// It is safe for concurrent use: refreshes take the write side, queries the
// read side. The today/tomorrow event records are replaced in a single write
// section so readers always observe fully-old or fully-new buckets.
type Registry struct {
	mu         sync.RWMutex
	cities     map[string]*cityState
	names      []string // catalog order
	bucketDate string   // date the day buckets were computed for

	now func() time.Time // test hook
}

// NewRegistry creates a registry with one empty entry per known city.
func NewRegistry() *Registry {
	r := &Registry{
		cities: make(map[string]*cityState),
		names:  Names(),
		now:    time.Now,
	}
	for _, name := range r.names {
		r.cities[name] = &cityState{}
	}
	return r
}

// SetSiegeTime stores a city's daily siege window string.
func (r *Registry) SetSiegeTime(name, siegeTime string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.cities[name]; ok {
		st.siegeTime = siegeTime
	}
}

// SiegeTime returns a city's cached siege window string. The second return
// is false when the city is unknown or has not been refreshed yet.
func (r *Registry) SiegeTime(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.cities[name]
	if !ok || st.siegeTime == "" {
		return "", false
	}
	return st.siegeTime, true
}

// ApplyEvents atomically replaces both day buckets and every city's event
// records with the refresh results, and stamps the date the buckets were
// computed for. Cities absent from a map have no event that day.
func (r *Registry) ApplyEvents(date string, today, tomorrow map[string]*Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, st := range r.cities {
		st.today = today[name]
		st.tomorrow = tomorrow[name]
	}
	r.bucketDate = date
}

// EventOn returns a city's event record for the requested day, if any.
// Day must be Today or Tomorrow.
func (r *Registry) EventOn(name string, day Day) (*Event, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.cities[name]
	if !ok {
		return nil, false
	}
	var ev *Event
	switch day {
	case Today:
		ev = st.today
	case Tomorrow:
		ev = st.tomorrow
	}
	if ev == nil {
		return nil, false
	}
	return ev, true
}

// Bucket returns the cities with an event on the requested day, in catalog
// order.
func (r *Registry) Bucket(day Day) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for _, name := range r.names {
		st := r.cities[name]
		if (day == Today && st.today != nil) || (day == Tomorrow && st.tomorrow != nil) {
			out = append(out, name)
		}
	}
	return out
}

// BucketDate returns the date the day buckets were last computed for, or ""
// before the first refresh.
func (r *Registry) BucketDate() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.bucketDate
}

// Stale reports whether the day buckets were computed for a different
// calendar date than the current one. A stale registry must be refreshed
// before its event state is trusted; this is how day rollovers are caught
// without an explicit midnight tick.
func (r *Registry) Stale() bool {
	return r.BucketDate() != r.now().Format(DateLayout)
}
