package discord

import (
	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"

	"github.com/hunterjsb/warwatch/internal/city"
)

// Bot ties the Discord session to the city cache and the scheduled jobs.
type Bot struct {
	Session   *discordgo.Session
	Config    *Config
	Registry  *city.Registry
	Refresher *city.Refresher
	Log       *log.Logger

	BotUserID       string
	Commands        []*discordgo.ApplicationCommand
	CommandHandlers map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate)

	cron *cron.Cron
}

// Announcement is one channel's daily reminder job: which city to watch and
// the local time to fire at. Hours follow the tables' 1..24 convention.
type Announcement struct {
	City   string `json:"city"`
	Hour   int    `json:"hour"`
	Minute int    `json:"minute"`
}

// WorldConfig subscribes a set of channels to one world's status changes.
type WorldConfig struct {
	Region   string   `json:"region"`
	Channels []string `json:"channels"`
}

// GuildConfig enables per-guild features.
type GuildConfig struct {
	EventsEnabled bool `json:"events_enabled"`
}
