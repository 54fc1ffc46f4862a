package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Forum configuration
	ForumBaseURL  string `long:"forum-url" env:"FORUM_BASE_URL" description:"Forum base URL (required)" required:"true"`
	ForumUsername string `long:"forum-username" env:"FORUM_USERNAME" description:"Forum account username (required)" required:"true"`
	ForumPassword string `long:"forum-password" env:"FORUM_PASSWORD" description:"Forum account password (required)" required:"true"`
	UseRSS        bool   `long:"use-rss" env:"USE_RSS" description:"Discover new threads via the forum RSS feed instead of the thread list"`

	// Telegram configuration
	TelegramBotToken  string `long:"telegram-token" env:"TELEGRAM_BOT_TOKEN" description:"Telegram bot token (required)" required:"true"`
	TelegramChannelID int64  `long:"telegram-channel" env:"TELEGRAM_CHANNEL_ID" description:"Telegram channel id posts are delivered to (required)" required:"true"`
	TelegramAdminID   int64  `long:"telegram-admin" env:"TELEGRAM_ADMIN_ID" description:"Telegram user id for operational notifications (optional)"`

	// Application configuration
	DBPath           string `long:"db-path" env:"DB_PATH" default:"./forum_watch.db" description:"Path to the SQLite database file"`
	RulesFile        string `long:"rules-file" env:"RULES_FILE" default:"./rules.yml" description:"Path to the watch rules file"`
	WorkDir          string `long:"work-dir" env:"WORK_DIR" default:"." description:"Directory for session state files"`
	Port             string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	CheckInterval    int    `long:"check-interval" env:"CHECK_INTERVAL" default:"300" description:"Interval between forum checks in seconds"`
	MaxPostsPerCheck int    `long:"max-posts" env:"MAX_POSTS_PER_CHECK" default:"20" description:"Maximum number of threads inspected per check"`
	WorkerCount      int    `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of background workers for task processing"`
	APIAccessKey     string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Mozilla/5.0 (X11; Linux x86_64) ForumWatch/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"Asia/Shanghai" description:"Timezone for timestamps (e.g., UTC, Asia/Shanghai)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		ForumBaseURL:      raw.ForumBaseURL,
		ForumUsername:     raw.ForumUsername,
		ForumPassword:     raw.ForumPassword,
		UseRSS:            raw.UseRSS,
		TelegramBotToken:  raw.TelegramBotToken,
		TelegramChannelID: raw.TelegramChannelID,
		TelegramAdminID:   raw.TelegramAdminID,
		DBPath:            raw.DBPath,
		RulesFile:         raw.RulesFile,
		WorkDir:           raw.WorkDir,
		Port:              raw.Port,
		CheckInterval:     raw.CheckInterval,
		MaxPostsPerCheck:  raw.MaxPostsPerCheck,
		WorkerCount:       raw.WorkerCount,
		APIAccessKey:      raw.APIAccessKey,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
