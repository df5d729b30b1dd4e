package city

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

// fakeSource is an in-memory EventSource for refresh tests.
type fakeSource struct {
	sieges map[string]string
	events map[string]map[string]*Event // city -> date -> event
	errs   map[string]error             // city -> forced event-lookup error
}

func (f *fakeSource) SiegeWindow(_ context.Context, city string) (string, error) {
	return f.sieges[city], nil
}

func (f *fakeSource) Event(_ context.Context, city, date string) (*Event, error) {
	if err := f.errs[city]; err != nil {
		return nil, err
	}
	return f.events[city][date], nil
}

func discardLogger() *log.Logger {
	return log.New(io.Discard)
}

// testClock pins a registry to a fixed instant.
func testClock(r *Registry, at time.Time) {
	r.now = func() time.Time { return at }
}

func TestResolve(t *testing.T) {
	tests := []struct {
		term string
		want string
	}{
		{"Everfall", "Everfall"},
		{"ef", "Everfall"},
		{"EVER", "Everfall"},
		{"monarch's", "Monarch's Bluffs"},
		{"Monarchs", "Monarch's Bluffs"},
		{"cutlass keys", "Cutlass Keys"},
		{"restlessshore", "Restless Shore"},
	}
	for _, tt := range tests {
		got, err := Resolve(tt.term)
		if err != nil {
			t.Errorf("Resolve(%q) returned error: %v", tt.term, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.term, got, tt.want)
		}
	}
}

func TestResolve_Unknown(t *testing.T) {
	for _, term := range []string{"atlantis", "", "!!"} {
		if _, err := Resolve(term); !errors.Is(err, ErrUnknownCity) {
			t.Errorf("Resolve(%q) error = %v, want ErrUnknownCity", term, err)
		}
	}
}

func TestTableKey(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Monarch's Bluffs", "monarchsbluffs"},
		{"Everfall", "everfall"},
		{"Weaver's Fen", "weaversfen"},
	}
	for _, tt := range tests {
		if got := TableKey(tt.in); got != tt.want {
			t.Errorf("TableKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRefreshSiegeWindows(t *testing.T) {
	reg := NewRegistry()
	src := &fakeSource{sieges: map[string]string{}}
	for _, name := range Names() {
		src.sieges[name] = "8:00 PM"
	}
	delete(src.sieges, "Brightwood") // simulate a missing row

	f := NewRefresher(reg, src, discardLogger())
	f.RefreshSiegeWindows(context.Background())

	if got, ok := reg.SiegeTime("Everfall"); !ok || got != "8:00 PM" {
		t.Errorf("Everfall siege time = %q, %v; want 8:00 PM, true", got, ok)
	}
	if _, ok := reg.SiegeTime("Brightwood"); ok {
		t.Error("a siege-table miss must not populate the cache")
	}
}

func TestRefreshSiegeWindows_Idempotent(t *testing.T) {
	reg := NewRegistry()
	src := &fakeSource{sieges: map[string]string{}}
	for _, name := range Names() {
		src.sieges[name] = "9:30 PM"
	}

	f := NewRefresher(reg, src, discardLogger())
	f.RefreshSiegeWindows(context.Background())
	first := reg.Windows()
	f.RefreshSiegeWindows(context.Background())
	if second := reg.Windows(); second != first {
		t.Errorf("second refresh changed state:\n%s\nvs\n%s", first, second)
	}
}

func TestRefreshEvents(t *testing.T) {
	now := time.Date(2024, time.March, 14, 12, 0, 0, 0, time.UTC)
	today := now.Format(DateLayout)
	tomorrow := now.AddDate(0, 0, 1).Format(DateLayout)

	reg := NewRegistry()
	testClock(reg, now)
	src := &fakeSource{
		events: map[string]map[string]*Event{
			"Everfall":   {today: {Type: Invasion, Date: today}},
			"Brightwood": {tomorrow: {Type: War, Date: tomorrow, Attacker: "Covenant", Defender: "Syndicate"}},
		},
	}

	f := NewRefresher(reg, src, discardLogger())
	f.RefreshEvents(context.Background())

	if reg.BucketDate() != today {
		t.Errorf("bucket date = %q, want %q", reg.BucketDate(), today)
	}
	if ev, ok := reg.EventOn("Everfall", Today); !ok || ev.Type != Invasion {
		t.Errorf("Everfall today = %+v, %v; want invasion", ev, ok)
	}
	if _, ok := reg.EventOn("Everfall", Tomorrow); ok {
		t.Error("Everfall must not be in tomorrow's bucket")
	}
	if ev, ok := reg.EventOn("Brightwood", Tomorrow); !ok || ev.Type != War {
		t.Errorf("Brightwood tomorrow = %+v, %v; want war", ev, ok)
	}

	if got := reg.Bucket(Today); len(got) != 1 || got[0] != "Everfall" {
		t.Errorf("today bucket = %v, want [Everfall]", got)
	}
	if got := reg.Bucket(Tomorrow); len(got) != 1 || got[0] != "Brightwood" {
		t.Errorf("tomorrow bucket = %v, want [Brightwood]", got)
	}
}

func TestRefreshEvents_ErrorKeepsPrevious(t *testing.T) {
	now := time.Date(2024, time.March, 14, 12, 0, 0, 0, time.UTC)
	today := now.Format(DateLayout)

	reg := NewRegistry()
	testClock(reg, now)
	src := &fakeSource{
		events: map[string]map[string]*Event{
			"Everfall": {today: {Type: Invasion, Date: today}},
		},
	}
	f := NewRefresher(reg, src, discardLogger())
	f.RefreshEvents(context.Background())

	// Store starts failing for Everfall; its record must survive a same-day
	// refresh instead of vanishing.
	src.errs = map[string]error{"Everfall": errors.New("throttled")}
	f.RefreshEvents(context.Background())

	if _, ok := reg.EventOn("Everfall", Today); !ok {
		t.Error("store error wiped Everfall's cached event")
	}
}

func TestRefreshEvents_FilteredKeepsOthers(t *testing.T) {
	now := time.Date(2024, time.March, 14, 12, 0, 0, 0, time.UTC)
	today := now.Format(DateLayout)

	reg := NewRegistry()
	testClock(reg, now)
	src := &fakeSource{
		events: map[string]map[string]*Event{
			"Everfall":   {today: {Type: Invasion, Date: today}},
			"Brightwood": {today: {Type: Invasion, Date: today}},
		},
	}
	f := NewRefresher(reg, src, discardLogger())
	f.RefreshEvents(context.Background())

	delete(src.events, "Brightwood")
	f.RefreshEvents(context.Background(), "Brightwood")

	if _, ok := reg.EventOn("Brightwood", Today); ok {
		t.Error("filtered refresh should have dropped Brightwood's event")
	}
	if _, ok := reg.EventOn("Everfall", Today); !ok {
		t.Error("filtered refresh must not touch other cities")
	}
}

func TestStale(t *testing.T) {
	now := time.Date(2024, time.March, 14, 23, 0, 0, 0, time.UTC)
	reg := NewRegistry()
	testClock(reg, now)

	if !reg.Stale() {
		t.Error("registry should be stale before the first refresh")
	}
	reg.ApplyEvents(now.Format(DateLayout), nil, nil)
	if reg.Stale() {
		t.Error("registry should be fresh right after a refresh")
	}

	// Cross midnight without refreshing.
	testClock(reg, now.Add(2*time.Hour))
	if !reg.Stale() {
		t.Error("registry should be stale after a day rollover")
	}
}

// A reader racing a refresh must see either the fully-old or the fully-new
// buckets, never a cleared intermediate state. Run with -race.
func TestApplyEvents_AtomicSwap(t *testing.T) {
	now := time.Date(2024, time.March, 14, 12, 0, 0, 0, time.UTC)
	today := now.Format(DateLayout)

	reg := NewRegistry()
	testClock(reg, now)

	old := map[string]*Event{"Everfall": {Type: Invasion, Date: today}}
	repl := map[string]*Event{"Brightwood": {Type: War, Date: today}}
	reg.ApplyEvents(today, old, nil)

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			if got := reg.Bucket(Today); len(got) != 1 {
				t.Errorf("observed half-refreshed bucket: %v", got)
				return
			}
		}
	}()

	for i := 0; i < 1000; i++ {
		reg.ApplyEvents(today, old, nil)
		reg.ApplyEvents(today, repl, nil)
	}
	close(done)
	wg.Wait()
}
