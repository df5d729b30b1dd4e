package city

import (
	"strings"
	"testing"
	"time"
)

// eventRegistry builds a registry with a fixed clock, one siege window per
// city, and the given day buckets.
func eventRegistry(t *testing.T, now time.Time, today, tomorrow map[string]*Event) *Registry {
	t.Helper()
	reg := NewRegistry()
	testClock(reg, now)
	for _, name := range Names() {
		reg.SetSiegeTime(name, "8:00 PM")
	}
	reg.ApplyEvents(now.Format(DateLayout), today, tomorrow)
	return reg
}

func TestStatus_Today(t *testing.T) {
	evening := time.Date(2024, time.March, 14, 19, 0, 0, 0, time.UTC)
	today := evening.Format(DateLayout)
	reg := eventRegistry(t, evening, map[string]*Event{
		"Everfall": {Type: Invasion, Date: today},
	}, nil)

	// (a) upcoming later today, with countdown
	got, err := reg.Status("Everfall", Today)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if !strings.Contains(got, "tonight") || !strings.Contains(got, "in 1h0m") {
		t.Errorf("upcoming status missing countdown: %q", got)
	}

	// (b) already passed today, without a fresh refresh in between
	testClock(reg, evening.Add(2*time.Hour))
	got, err = reg.Status("Everfall", Today)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if !strings.Contains(got, "had an invasion earlier tonight") {
		t.Errorf("passed status = %q", got)
	}

	// (c) no event, window still ahead
	testClock(reg, evening)
	got, err = reg.Status("Brightwood", Today)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if !strings.Contains(got, "does not have an event tonight") || !strings.Contains(got, "begins at 8:00 PM EST") {
		t.Errorf("quiet status = %q", got)
	}

	// (d) no event, window already passed
	testClock(reg, evening.Add(2*time.Hour))
	got, err = reg.Status("Brightwood", Today)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if !strings.Contains(got, "was at 8:00 PM EST today") {
		t.Errorf("quiet past status = %q", got)
	}
}

func TestStatus_Both(t *testing.T) {
	evening := time.Date(2024, time.March, 14, 19, 0, 0, 0, time.UTC)
	tomorrow := evening.AddDate(0, 0, 1).Format(DateLayout)
	reg := eventRegistry(t, evening, nil, map[string]*Event{
		"Windsward": {Type: War, Date: tomorrow, Attacker: "Covenant", Defender: "Marauders"},
	})

	// Tomorrow's bucket is consulted before concluding "nothing at all".
	got, err := reg.Status("Windsward", Both)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if !strings.Contains(got, "tomorrow") || !strings.Contains(got, "Covenant vs Marauders") {
		t.Errorf("both-mode tomorrow status = %q", got)
	}

	got, err = reg.Status("Everfall", Both)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if !strings.Contains(got, "no events today or tomorrow") {
		t.Errorf("both-mode empty status = %q", got)
	}
}

func TestStatus_NoCachedWindow(t *testing.T) {
	reg := NewRegistry()
	testClock(reg, time.Date(2024, time.March, 14, 19, 0, 0, 0, time.UTC))
	if _, err := reg.Status("Everfall", Today); err == nil {
		t.Error("a city without a cached siege window cannot be queried safely")
	}
}

func TestSummary_CountPhrasing(t *testing.T) {
	evening := time.Date(2024, time.March, 14, 18, 0, 0, 0, time.UTC)
	today := evening.Format(DateLayout)
	ev := func() *Event { return &Event{Type: Invasion, Date: today} }

	reg := eventRegistry(t, evening, nil, nil)
	if got := reg.Summary(Today); got != "There are no events happening tonight!" {
		t.Errorf("zero-event summary = %q", got)
	}

	reg = eventRegistry(t, evening, map[string]*Event{"Everfall": ev()}, nil)
	if got := reg.Summary(Today); got != "Tonight there is one event: Everfall at 8:00 PM EST" {
		t.Errorf("one-event summary = %q", got)
	}

	reg = eventRegistry(t, evening, map[string]*Event{"Everfall": ev(), "Brightwood": ev()}, nil)
	got := reg.Summary(Today)
	if !strings.HasPrefix(got, "Tonight there are 2 events: ") || !strings.Contains(got, " and ") {
		t.Errorf("two-event summary = %q", got)
	}

	reg = eventRegistry(t, evening, map[string]*Event{"Everfall": ev(), "Brightwood": ev(), "Windsward": ev()}, nil)
	got = reg.Summary(Today)
	if !strings.HasPrefix(got, "Tonight there are 3 events: ") || strings.Count(got, ",") != 2 {
		t.Errorf("three-event summary = %q", got)
	}
}

func TestSummary_SortsByParsedTime(t *testing.T) {
	evening := time.Date(2024, time.March, 14, 8, 0, 0, 0, time.UTC)
	today := evening.Format(DateLayout)
	reg := eventRegistry(t, evening, map[string]*Event{
		"Everfall":   {Type: Invasion, Date: today},
		"Brightwood": {Type: Invasion, Date: today},
	}, nil)
	// Raw string order would put "10:00 PM" ahead of "9:00 AM".
	reg.SetSiegeTime("Everfall", "10:00 PM")
	reg.SetSiegeTime("Brightwood", "9:00 AM")

	got := reg.Summary(Today)
	if strings.Index(got, "Brightwood") > strings.Index(got, "Everfall") {
		t.Errorf("summary not in chronological order: %q", got)
	}
}

func TestSummary_ExcludesPassedWindows(t *testing.T) {
	lateNight := time.Date(2024, time.March, 14, 22, 0, 0, 0, time.UTC)
	today := lateNight.Format(DateLayout)
	reg := eventRegistry(t, lateNight, map[string]*Event{
		"Everfall": {Type: Invasion, Date: today},
	}, nil)

	if got := reg.Summary(Today); got != "There are no events happening tonight!" {
		t.Errorf("passed events should drop out of the aggregate: %q", got)
	}

	// The per-city view still reports it.
	got, err := reg.Status("Everfall", Today)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if !strings.Contains(got, "earlier tonight") {
		t.Errorf("per-city view lost the passed event: %q", got)
	}
}

func TestSummary_DayBucketExclusivity(t *testing.T) {
	evening := time.Date(2024, time.March, 14, 18, 0, 0, 0, time.UTC)
	today := evening.Format(DateLayout)
	reg := eventRegistry(t, evening, map[string]*Event{
		"Everfall": {Type: Invasion, Date: today},
	}, nil)

	if got := reg.Summary(Tomorrow); strings.Contains(got, "Everfall") {
		t.Errorf("today-only city leaked into tomorrow's summary: %q", got)
	}
}

func TestWindows_Alphabetical(t *testing.T) {
	reg := eventRegistry(t, time.Date(2024, time.March, 14, 12, 0, 0, 0, time.UTC), nil, nil)
	got := reg.Windows()

	lines := strings.Split(got, "\n")
	if len(lines) != len(Names())+1 {
		t.Fatalf("expected header plus %d cities, got %d lines", len(Names()), len(lines))
	}
	if lines[0] != "The server siege windows are:" {
		t.Errorf("header = %q", lines[0])
	}

	var prev string
	for _, line := range lines[1:] {
		name := strings.TrimSpace(line[:32])
		if prev != "" && name < prev {
			t.Errorf("windows out of order: %q after %q", name, prev)
		}
		prev = name
		if !strings.HasSuffix(line, "8:00 PM EST") {
			t.Errorf("line missing siege time: %q", line)
		}
	}
}
