package discord

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/hunterjsb/warwatch/internal/city"
)

// retrievalFailure is the only thing users see when a query fails
// internally; raw lookup errors stay in the log.
const retrievalFailure = "Unable to retrieve status right now. Try again in a few minutes."

// ensureFresh refreshes the caches when a day boundary has passed since the
// buckets were computed. Every read path goes through here first.
func (b *Bot) ensureFresh(ctx context.Context) {
	if !b.Registry.Stale() {
		return
	}
	b.Log.Info("cache is stale, refreshing before answering")
	b.Refresher.RefreshEvents(ctx)
	b.Refresher.RefreshSiegeWindows(ctx)
}

// optionMap indexes an interaction's options by name.
func optionMap(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	opts := i.ApplicationCommandData().Options
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, opt := range opts {
		m[opt.Name] = opt
	}
	return m
}

// dayFrom reads the optional day choice, defaulting to today.
func dayFrom(opts map[string]*discordgo.ApplicationCommandInteractionDataOption) city.Day {
	if opt, ok := opts["day"]; ok {
		switch d := city.Day(opt.StringValue()); d {
		case city.Today, city.Tomorrow, city.Both:
			return d
		}
	}
	return city.Today
}

// respond sends a plain-text interaction response.
func (b *Bot) respond(s *discordgo.Session, i *discordgo.InteractionCreate, text string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: text},
	})
	if err != nil {
		b.Log.Error("error responding to interaction", "err", err)
	}
}

// handleCityCommand handles /city.
func (b *Bot) handleCityCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	term := opts["name"].StringValue()
	day := dayFrom(opts)
	b.Log.Info("/city invoked", "term", term, "day", day)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	b.ensureFresh(ctx)

	name, err := city.Resolve(term)
	if err != nil {
		if errors.Is(err, city.ErrUnknownCity) {
			b.respond(s, i, fmt.Sprintf("I don't recognize %q as a city on this server.", term))
			return
		}
		b.Log.Error("city resolution failed", "term", term, "err", err)
		b.respond(s, i, retrievalFailure)
		return
	}

	text, err := b.Registry.Status(name, day)
	if err != nil {
		b.Log.Error("status query failed", "city", name, "err", err)
		b.respond(s, i, retrievalFailure)
		return
	}
	b.respond(s, i, text)
}

// handleEventsCommand handles /events. With a city argument it narrows to
// that city's status; otherwise it renders the aggregate summary.
func (b *Bot) handleEventsCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	day := dayFrom(opts)
	b.Log.Info("/events invoked", "day", day)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	b.ensureFresh(ctx)

	if opt, ok := opts["city"]; ok {
		name, err := city.Resolve(opt.StringValue())
		if err != nil {
			b.respond(s, i, fmt.Sprintf("I don't recognize %q as a city on this server.", opt.StringValue()))
			return
		}
		text, err := b.Registry.Status(name, day)
		if err != nil {
			b.Log.Error("status query failed", "city", name, "err", err)
			b.respond(s, i, retrievalFailure)
			return
		}
		b.respond(s, i, text)
		return
	}

	b.respond(s, i, b.Registry.Summary(day))
}

// handleWindowsCommand handles /windows.
func (b *Bot) handleWindowsCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.Log.Info("/windows invoked")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	b.ensureFresh(ctx)

	b.respond(s, i, b.Registry.Windows())
}
