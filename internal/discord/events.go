package discord

import (
	"context"
	"fmt"
	"time"
	"unicode"

	"github.com/bwmarrin/discordgo"

	"github.com/hunterjsb/warwatch/internal/city"
)

const (
	// startLayout glues an ISO date to a siege window string.
	startLayout = "2006-01-02 3:04 PM"

	eventDuration = 30 * time.Minute

	// Scheduled-event creation is rate limited hard; space the calls out.
	createPause = 2 * time.Second
)

// eventTitle computes the scheduled-event name used for dedup, e.g.
// "Everfall Invasion".
func eventTitle(cityName string, ev *city.Event) string {
	return fmt.Sprintf("%s %s", cityName, capitalizeFirst(string(ev.Type)))
}

// syncGuildEventsJob runs daily after the refresh: every enabled guild gets
// a scheduled event for each upcoming invasion or war it doesn't already
// have one for.
func (b *Bot) syncGuildEventsJob() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	b.ensureFresh(ctx)

	for guildID, gc := range b.Config.Guilds {
		if !gc.EventsEnabled {
			continue
		}
		b.syncGuildEvents(guildID)
	}
}

func (b *Bot) syncGuildEvents(guildID string) {
	existing, err := b.Session.GuildScheduledEvents(guildID, false)
	if err != nil {
		b.Log.Error("listing guild events failed", "guild", guildID, "err", err)
		return
	}
	have := make(map[string]bool, len(existing))
	for _, ev := range existing {
		have[ev.Name] = true
	}

	for _, name := range city.Names() {
		for _, day := range []city.Day{city.Today, city.Tomorrow} {
			ev, ok := b.Registry.EventOn(name, day)
			if !ok {
				continue
			}
			title := eventTitle(name, ev)
			if have[title] {
				continue
			}

			siege, ok := b.Registry.SiegeTime(name)
			if !ok {
				b.Log.Error("no siege window cached for guild event", "city", name)
				continue
			}
			start, err := time.ParseInLocation(startLayout, ev.Date+" "+siege, b.Config.Location)
			if err != nil {
				b.Log.Error("bad start time for guild event", "city", name, "date", ev.Date, "time", siege, "err", err)
				continue
			}
			if !start.After(time.Now()) {
				// Today's event has already begun; nothing to schedule.
				continue
			}
			end := start.Add(eventDuration)

			params := &discordgo.GuildScheduledEventParams{
				Name:               title,
				Description:        fmt.Sprintf("%s faces %s. Muster at the war board!", name, city.Describe(ev)),
				ScheduledStartTime: &start,
				ScheduledEndTime:   &end,
				EntityType:         discordgo.GuildScheduledEventEntityTypeExternal,
				EntityMetadata:     &discordgo.GuildScheduledEventEntityMetadata{Location: "Aeternum"},
				PrivacyLevel:       discordgo.GuildScheduledEventPrivacyLevelGuildOnly,
			}
			if _, err := b.Session.GuildScheduledEventCreate(guildID, params); err != nil {
				// One failed create must not block the rest.
				b.Log.Error("creating guild event failed", "guild", guildID, "event", title, "err", err)
			} else {
				b.Log.Info("created guild event", "guild", guildID, "event", title, "start", start)
			}
			time.Sleep(createPause)
		}
	}
}

func capitalizeFirst(s string) string {
	if s == "" {
		return ""
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
