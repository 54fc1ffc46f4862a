package cfg

type Cfg struct {
	// Forum configuration
	ForumBaseURL  string
	ForumUsername string
	ForumPassword string
	UseRSS        bool

	// Telegram configuration
	TelegramBotToken  string
	TelegramChannelID int64
	TelegramAdminID   int64

	// Application configuration
	DBPath           string
	RulesFile        string
	WorkDir          string
	Port             string
	CheckInterval    int
	MaxPostsPerCheck int
	WorkerCount      int
	APIAccessKey     string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
