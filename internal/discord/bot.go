package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"

	"github.com/hunterjsb/warwatch/internal/city"
)

// Command definitions
var commands = []*discordgo.ApplicationCommand{
	{
		Name:        "city",
		Description: "Siege window and event status for a city",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "name",
				Description: "City name or abbreviation (e.g. 'ef', 'bluffs')",
				Required:    true,
			},
			dayOption(),
		},
	},
	{
		Name:        "events",
		Description: "All invasions and wars happening on a day",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "city",
				Description: "Only this city (optional)",
				Required:    false,
			},
			dayOption(),
		},
	},
	{
		Name:        "windows",
		Description: "Every city's siege window",
	},
}

func dayOption() *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        "day",
		Description: "Which day to look at (default: today)",
		Required:    false,
		Choices: []*discordgo.ApplicationCommandOptionChoice{
			{Name: "today", Value: string(city.Today)},
			{Name: "tomorrow", Value: string(city.Tomorrow)},
			{Name: "both", Value: string(city.Both)},
		},
	}
}

// NewBot creates the bot around an already-validated configuration and an
// already-constructed registry/refresher pair.
func NewBot(config *Config, reg *city.Registry, refresher *city.Refresher, logger *log.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + config.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}

	bot := &Bot{
		Session:         session,
		Config:          config,
		Registry:        reg,
		Refresher:       refresher,
		Log:             logger,
		CommandHandlers: make(map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate)),
	}

	bot.CommandHandlers["city"] = bot.handleCityCommand
	bot.CommandHandlers["events"] = bot.handleEventsCommand
	bot.CommandHandlers["windows"] = bot.handleWindowsCommand

	return bot, nil
}

// Start opens the gateway connection, registers the slash commands, and
// starts the scheduled jobs.
func (b *Bot) Start() error {
	user, err := b.Session.User("@me")
	if err != nil {
		return fmt.Errorf("error getting bot user: %w", err)
	}
	b.BotUserID = user.ID

	b.Session.AddHandler(b.interactionHandler)

	if err := b.Session.Open(); err != nil {
		return fmt.Errorf("error opening Discord session: %w", err)
	}

	registered, err := b.registerCommands()
	if err != nil {
		return fmt.Errorf("error registering commands: %w", err)
	}
	b.Commands = registered

	if err := b.startScheduler(); err != nil {
		return fmt.Errorf("error starting scheduler: %w", err)
	}

	b.Log.Info("bot running", "commands", len(b.Commands), "jobs", len(b.cron.Entries()))
	return nil
}

// Stop tears down the scheduler, removes the registered commands, and closes
// the session. In-flight jobs are allowed to finish.
func (b *Bot) Stop() error {
	if b.cron != nil {
		<-b.cron.Stop().Done()
	}

	for _, cmd := range b.Commands {
		err := b.Session.ApplicationCommandDelete(b.Session.State.User.ID, b.Config.GuildID, cmd.ID)
		if err != nil {
			b.Log.Error("error removing command", "command", cmd.Name, "err", err)
		}
	}

	return b.Session.Close()
}

// registerCommands registers the defined slash commands
func (b *Bot) registerCommands() ([]*discordgo.ApplicationCommand, error) {
	registered := make([]*discordgo.ApplicationCommand, len(commands))
	for i, cmd := range commands {
		created, err := b.Session.ApplicationCommandCreate(b.Session.State.User.ID, b.Config.GuildID, cmd)
		if err != nil {
			return nil, fmt.Errorf("error creating command '%s': %w", cmd.Name, err)
		}
		registered[i] = created
	}
	return registered, nil
}

// interactionHandler routes command interactions to their handlers.
func (b *Bot) interactionHandler(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if handler, ok := b.CommandHandlers[i.ApplicationCommandData().Name]; ok {
		handler(s, i)
	}
}
