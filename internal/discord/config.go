package discord

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/hunterjsb/warwatch/internal/city"
	"github.com/hunterjsb/warwatch/internal/worldstatus"
)

// Config holds everything the bot reads at startup. Env vars carry the
// scalar settings; the announcement, world, and guild feature maps come from
// JSON documents so they can be edited without touching the environment.
type Config struct {
	DiscordToken     string
	AWSRegion        string
	EventTablePrefix string
	SiegeTableName   string
	LoggerName       string
	LogFileName      string
	GuildID          string // slash-command registration scope, empty = global
	Timezone         string

	Announcements map[string]Announcement // channel ID -> daily reminder
	Worlds        map[string]WorldConfig  // world name -> status subscribers
	Guilds        map[string]GuildConfig  // guild ID -> feature flags

	Location *time.Location
}

// LoadConfig reads the environment and the configured JSON documents.
// Validation is separate; call Validate before using the result.
func LoadConfig() (*Config, error) {
	c := &Config{
		DiscordToken:     os.Getenv("DISCORD_TOKEN"),
		AWSRegion:        os.Getenv("AWS_REGION"),
		EventTablePrefix: os.Getenv("EVENT_TABLE_PREFIX"),
		SiegeTableName:   os.Getenv("SIEGE_INFO_TABLE_NAME"),
		LoggerName:       os.Getenv("LOGGER_NAME"),
		LogFileName:      os.Getenv("LOG_FILE_NAME"),
		GuildID:          os.Getenv("GUILD_ID"),
		Timezone:         os.Getenv("BOT_TIMEZONE"),

		Announcements: make(map[string]Announcement),
		Worlds:        make(map[string]WorldConfig),
		Guilds:        make(map[string]GuildConfig),
	}
	if c.LoggerName == "" {
		c.LoggerName = "warwatch"
	}
	if c.Timezone == "" {
		c.Timezone = "America/New_York"
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("bad BOT_TIMEZONE %q: %w", c.Timezone, err)
	}
	c.Location = loc

	// Each document is optional; an unset path just disables that feature.
	if path := os.Getenv("ANNOUNCEMENTS_FILE"); path != "" {
		if err := loadJSON(path, &c.Announcements); err != nil {
			return nil, err
		}
	}
	if path := os.Getenv("WORLDS_FILE"); path != "" {
		if err := loadJSON(path, &c.Worlds); err != nil {
			return nil, err
		}
	}
	if path := os.Getenv("GUILDS_FILE"); path != "" {
		if err := loadJSON(path, &c.Guilds); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config document %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse config document %s: %w", path, err)
	}
	return nil
}

// validSnowflake matches the fixed-width channel/guild IDs the config
// documents are allowed to carry.
func validSnowflake(id string) bool {
	if len(id) != 18 {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Validate checks every field and config-document entry. Any failure here is
// a startup-fatal condition; nothing is corrected silently at runtime.
func (c *Config) Validate() error {
	if c.DiscordToken == "" {
		return fmt.Errorf("DISCORD_TOKEN is required")
	}
	if c.AWSRegion == "" {
		return fmt.Errorf("AWS_REGION is required")
	}
	if c.EventTablePrefix == "" {
		return fmt.Errorf("EVENT_TABLE_PREFIX is required")
	}
	if c.SiegeTableName == "" {
		return fmt.Errorf("SIEGE_INFO_TABLE_NAME is required")
	}

	for channelID, a := range c.Announcements {
		if !validSnowflake(channelID) {
			return fmt.Errorf("announcements: bad channel id %q", channelID)
		}
		if _, err := city.Resolve(a.City); err != nil {
			return fmt.Errorf("announcements: channel %s: unknown city %q", channelID, a.City)
		}
		if a.Hour < 1 || a.Hour > 24 {
			return fmt.Errorf("announcements: channel %s: hour %d out of range 1..24", channelID, a.Hour)
		}
		if a.Minute < 0 || a.Minute > 59 {
			return fmt.Errorf("announcements: channel %s: minute %d out of range 0..59", channelID, a.Minute)
		}
	}

	for world, w := range c.Worlds {
		if !worldstatus.KnownRegion(w.Region) {
			return fmt.Errorf("worlds: %s: unknown region %q", world, w.Region)
		}
		if len(w.Channels) == 0 {
			return fmt.Errorf("worlds: %s: no subscriber channels", world)
		}
		for _, ch := range w.Channels {
			if !validSnowflake(ch) {
				return fmt.Errorf("worlds: %s: bad channel id %q", world, ch)
			}
		}
	}

	for guildID := range c.Guilds {
		if !validSnowflake(guildID) {
			return fmt.Errorf("guilds: bad guild id %q", guildID)
		}
	}

	return nil
}
