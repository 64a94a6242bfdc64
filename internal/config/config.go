package config

import (
	"log"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv    = "WIKIBOT_CONFIG"
	exportPathEnv    = "PATH_TO_EXPORT"
	importPathEnv    = "IMPORT_FILE_PATH"
	messagesPathEnv  = "MESSAGES_FILE_PATH"
	telegramTokenEnv = "TELEGRAM_BOT_TOKEN"
	telegramChatsEnv = "TELEGRAM_CHAT_IDS"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Wiki       WikiConfig       `yaml:"wiki"`
	Files      FilesConfig      `yaml:"files"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Categories []CategoryConfig `yaml:"categories"`
}

// LoggingConfig controls the slog handler level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// WikiConfig pins the wiki project and the pageviews date window.
type WikiConfig struct {
	Project      string `yaml:"project"`
	StatsProject string `yaml:"statsProject"`
	ViewsFrom    string `yaml:"viewsFrom"`
	ViewsTo      string `yaml:"viewsTo"`
}

// FilesConfig locates the three flat files the pipeline reads and writes.
type FilesConfig struct {
	Export   string `yaml:"export"`
	Import   string `yaml:"import"`
	Messages string `yaml:"messages"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string   `yaml:"botToken"`
	ChatIDs  []string `yaml:"chatIds"`
}

// CategoryConfig describes one listing page: the language it serves, the
// link selector matching its markup shape, and href patterns to drop.
// The slice order is significant: the calendar day picks the entry.
type CategoryConfig struct {
	Lang     string   `yaml:"lang"`
	Name     string   `yaml:"name"`
	Selector string   `yaml:"selector"`
	Exclude  []string `yaml:"exclude"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	if len(cfg.Categories) == 0 {
		cfg.Categories = defaultConfig().Categories
	}

	return cfg
}

// CategoryOfDay picks the configured category deterministically from the
// day of the month.
func (c Config) CategoryOfDay(dayOfMonth int) CategoryConfig {
	return c.Categories[dayOfMonth%len(c.Categories)]
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(exportPathEnv); v != "" {
		c.Files.Export = v
	}

	if v := os.Getenv(importPathEnv); v != "" {
		c.Files.Import = v
	}

	if v := os.Getenv(messagesPathEnv); v != "" {
		c.Files.Messages = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatsEnv); v != "" {
		c.Telegram.ChatIDs = splitChatIDs(v)
	}
}

func splitChatIDs(value string) []string {
	var ids []string
	for _, id := range strings.Split(value, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.Wiki.Project != "" {
		base.Wiki.Project = override.Wiki.Project
	}
	if override.Wiki.StatsProject != "" {
		base.Wiki.StatsProject = override.Wiki.StatsProject
	}
	if override.Wiki.ViewsFrom != "" {
		base.Wiki.ViewsFrom = override.Wiki.ViewsFrom
	}
	if override.Wiki.ViewsTo != "" {
		base.Wiki.ViewsTo = override.Wiki.ViewsTo
	}

	if override.Files.Export != "" {
		base.Files.Export = override.Files.Export
	}
	if override.Files.Import != "" {
		base.Files.Import = override.Files.Import
	}
	if override.Files.Messages != "" {
		base.Files.Messages = override.Files.Messages
	}

	if override.Telegram.BotToken != "" {
		base.Telegram.BotToken = override.Telegram.BotToken
	}
	if len(override.Telegram.ChatIDs) > 0 {
		base.Telegram.ChatIDs = override.Telegram.ChatIDs
	}

	if len(override.Categories) > 0 {
		base.Categories = override.Categories
	}

	return base
}

func defaultConfig() Config {
	excludes := []string{"list_of", "russian_", "literature"}
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Wiki: WikiConfig{
			Project:      "en.wikipedia.org",
			StatsProject: "en.wikipedia",
			ViewsFrom:    "20150904",
			ViewsTo:      "20160903",
		},
		Files: FilesConfig{
			Export:   "wiki.pages.csv",
			Import:   "wiki.pages.csv",
			Messages: "bot.msg",
		},
		Telegram: TelegramConfig{BotToken: "", ChatIDs: nil},
		Categories: []CategoryConfig{
			{
				Lang:     "en",
				Name:     "List_of_English_writers",
				Selector: "div#mw-content-text > div > ul > li > a:first-child",
				Exclude:  excludes,
			},
			{
				Lang:     "fr",
				Name:     "List_of_French-language_authors",
				Selector: "div#mw-content-text > ul > li > a:first-child",
				Exclude:  excludes,
			},
			{
				Lang:     "de",
				Name:     "List_of_German-language_authors",
				Selector: "div#mw-content-text > dl > dd > a",
				Exclude:  excludes,
			},
			{
				Lang:     "ru",
				Name:     "List_of_Russian-language_writers",
				Selector: "div#mw-content-text > ul > li > a:first-child",
				Exclude:  excludes,
			},
		},
	}
}
