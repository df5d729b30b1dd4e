package city

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hunterjsb/warwatch/internal/clock"
)

// Describe renders an event with its article, naming the companies for wars.
func Describe(ev *Event) string {
	if ev.Type == War {
		if ev.Attacker != "" && ev.Defender != "" {
			return fmt.Sprintf("a war (%s vs %s)", ev.Attacker, ev.Defender)
		}
		return "a war"
	}
	return "an invasion"
}

// Status renders the event and siege outlook for one city. The error case
// covers cities whose siege window has never been cached or will not parse;
// callers turn that into a generic retrieval failure, never a crash.
func (r *Registry) Status(name string, day Day) (string, error) {
	siege, ok := r.SiegeTime(name)
	if !ok {
		return "", fmt.Errorf("city: no siege window cached for %s", name)
	}
	window, err := clock.Parse(siege)
	if err != nil {
		return "", fmt.Errorf("city: bad siege window %q for %s: %w", siege, name, err)
	}

	now := r.now()
	upcoming := window.InFuture(now)
	todayEv, hasToday := r.EventOn(name, Today)
	tomorrowEv, hasTomorrow := r.EventOn(name, Tomorrow)

	switch day {
	case Today:
		switch {
		case hasToday && upcoming:
			return fmt.Sprintf("%s has %s tonight! It begins at %s EST (in %s).",
				name, Describe(todayEv), siege, window.Until(now)), nil
		case hasToday:
			return fmt.Sprintf("%s had %s earlier tonight at %s EST.",
				name, Describe(todayEv), siege), nil
		case upcoming:
			return fmt.Sprintf("%s does not have an event tonight. Their siege window begins at %s EST.",
				name, siege), nil
		default:
			return fmt.Sprintf("%s does not have an event tonight. Their siege window was at %s EST today.",
				name, siege), nil
		}
	case Tomorrow:
		if hasTomorrow {
			return fmt.Sprintf("%s has %s tomorrow. It begins at %s EST.",
				name, Describe(tomorrowEv), siege), nil
		}
		return fmt.Sprintf("%s does not have an event tomorrow.", name), nil
	case Both:
		switch {
		case hasToday && upcoming:
			return fmt.Sprintf("%s has %s tonight! It begins at %s EST (in %s).",
				name, Describe(todayEv), siege, window.Until(now)), nil
		case hasToday:
			return fmt.Sprintf("%s had %s earlier tonight at %s EST.",
				name, Describe(todayEv), siege), nil
		case hasTomorrow:
			// Tomorrow's bucket is checked before giving up entirely.
			return fmt.Sprintf("%s has %s tomorrow. It begins at %s EST.",
				name, Describe(tomorrowEv), siege), nil
		default:
			return fmt.Sprintf("%s has no events today or tomorrow. Their siege window begins at %s EST.",
				name, siege), nil
		}
	}
	return "", fmt.Errorf("city: unknown day %q", day)
}

// Summary renders the aggregate event listing for a day bucket, ordered by
// parsed siege time. Events whose window has already passed are left out of
// today's aggregate view (they still show in the per-city Status).
func (r *Registry) Summary(day Day) string {
	if day == Both {
		return r.Summary(Today) + "\n" + r.Summary(Tomorrow)
	}

	now := r.now()
	type entry struct {
		text string
		at   clock.Time
	}
	var entries []entry
	for _, name := range r.Bucket(day) {
		siege, ok := r.SiegeTime(name)
		if !ok {
			continue
		}
		window, err := clock.Parse(siege)
		if err != nil {
			continue
		}
		if day == Today && !window.InFuture(now) {
			continue
		}
		entries = append(entries, entry{
			text: fmt.Sprintf("%s at %s EST", name, siege),
			at:   window,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].at.Before(entries[j].at) })

	when := "Tonight"
	if day == Tomorrow {
		when = "Tomorrow"
	}
	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.text
	}

	switch len(texts) {
	case 0:
		if day == Tomorrow {
			return "There are no events happening tomorrow!"
		}
		return "There are no events happening tonight!"
	case 1:
		return fmt.Sprintf("%s there is one event: %s", when, texts[0])
	case 2:
		return fmt.Sprintf("%s there are 2 events: %s and %s", when, texts[0], texts[1])
	default:
		return fmt.Sprintf("%s there are %d events: %s", when, len(texts), strings.Join(texts, ", "))
	}
}

// Windows lists every known city's siege window, alphabetically by display
// name, padded into columns. Event status does not filter this view.
func (r *Registry) Windows() string {
	names := Names()
	sort.Strings(names)

	lines := []string{"The server siege windows are:"}
	for _, name := range names {
		siege, ok := r.SiegeTime(name)
		if !ok {
			siege = "unknown"
		}
		lines = append(lines, fmt.Sprintf("%-32s %s EST", name, siege))
	}
	return strings.Join(lines, "\n")
}
