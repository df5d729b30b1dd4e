package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/robfig/cron/v3"

	"github.com/hunterjsb/warwatch/internal/city"
	"github.com/hunterjsb/warwatch/internal/worldstatus"
)

// startScheduler wires up the recurring jobs: the post-midnight data
// refresh, one reminder job per configured channel, a per-world status
// poll, and the guild event sync. Every job runs behind SkipIfStillRunning
// (overlapping triggers are dropped, never queued) and Recover (a panicking
// invocation is logged and does not break the schedule).
func (b *Bot) startScheduler() error {
	cronLog := cron.PrintfLogger(b.Log.StandardLog())
	c := cron.New(
		cron.WithLocation(b.Config.Location),
		cron.WithChain(cron.SkipIfStillRunning(cronLog), cron.Recover(cronLog)),
	)

	if _, err := c.AddFunc("5 0 * * *", b.refreshJob); err != nil {
		return fmt.Errorf("schedule refresh job: %w", err)
	}

	for channelID, job := range b.Config.Announcements {
		channelID, job := channelID, job
		spec := fmt.Sprintf("%d %d * * *", job.Minute, job.Hour%24)
		if _, err := c.AddFunc(spec, func() { b.announceJob(channelID, job) }); err != nil {
			return fmt.Errorf("schedule announcement for channel %s: %w", channelID, err)
		}
	}

	for world, wc := range b.Config.Worlds {
		world, wc := world, wc
		if _, err := c.AddFunc("* * * * *", b.worldPollJob(world, wc)); err != nil {
			return fmt.Errorf("schedule status poll for %s: %w", world, err)
		}
	}

	for _, gc := range b.Config.Guilds {
		if gc.EventsEnabled {
			if _, err := c.AddFunc("15 0 * * *", b.syncGuildEventsJob); err != nil {
				return fmt.Errorf("schedule guild event sync: %w", err)
			}
			break
		}
	}

	c.Start()
	b.cron = c
	return nil
}

// refreshJob is the daily post-midnight rebuild: events first so the day
// buckets move to the new date, then siege windows.
func (b *Bot) refreshJob() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	b.Log.Info("running scheduled data refresh")
	b.Refresher.RefreshEvents(ctx)
	b.Refresher.RefreshSiegeWindows(ctx)
}

// announceJob fires one channel's daily reminder. It only announces when
// the configured city's event is dated today; the tomorrow half of the
// lookahead must not trigger it. A quiet day is a no-op, not an error.
func (b *Bot) announceJob(channelID string, job Announcement) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	b.ensureFresh(ctx)

	name, err := city.Resolve(job.City)
	if err != nil {
		b.Log.Error("announcement for unknown city", "city", job.City, "channel", channelID)
		return
	}

	today := b.Registry.BucketDate()
	ev, ok := b.Registry.EventOn(name, city.Today)
	if !ok || ev.Date != today {
		b.Log.Debug("no event today, skipping announcement", "city", name, "channel", channelID)
		return
	}
	siege, ok := b.Registry.SiegeTime(name)
	if !ok {
		b.Log.Error("no siege window cached for announcement", "city", name)
		return
	}

	content := fmt.Sprintf("@everyone %s has %s tonight! It begins at %s EST. Muster up!",
		name, city.Describe(ev), siege)
	_, err = b.Session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: content,
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeEveryone},
		},
	})
	if err != nil {
		b.Log.Error("announcement send failed", "channel", channelID, "err", err)
		return
	}
	b.Log.Info("sent announcement", "city", name, "channel", channelID)
}

// worldPollJob builds the per-world poll closure. The status client owns the
// previous-status memory; construction is retried lazily so a broken status
// page at startup only delays polling instead of failing the process.
func (b *Bot) worldPollJob(world string, wc WorldConfig) func() {
	var client *worldstatus.Client
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if client == nil {
			var err error
			client, err = worldstatus.New(ctx, wc.Region, world)
			if err != nil {
				b.Log.Error("world status client unavailable", "world", world, "err", err)
				return
			}
			b.Log.Info("watching world status", "world", world, "status", client.CurrentStatus())
			return
		}

		before := client.CurrentStatus()
		changed, err := client.HasChanged(ctx)
		if err != nil {
			b.Log.Error("world status poll failed", "world", world, "err", err)
			return
		}
		if !changed {
			return
		}

		text := fmt.Sprintf("%s server status changed from %q to %q", world, before, client.CurrentStatus())
		b.Log.Info("world status changed", "world", world, "from", before, "to", client.CurrentStatus())
		for _, ch := range wc.Channels {
			if _, err := b.Session.ChannelMessageSend(ch, text); err != nil {
				b.Log.Error("status broadcast failed", "channel", ch, "err", err)
			}
		}
	}
}
