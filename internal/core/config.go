package core

import (
	"time"
)

const (
	// DefaultCommandTimeoutSecs bounds a single player CLI invocation
	DefaultCommandTimeoutSecs = 30
	// DefaultMinMatchScore is the minimum viable heuristic match score
	DefaultMinMatchScore = 0.3
	// DefaultLLMThreshold is the heuristic top score below which LLM selection engages
	DefaultLLMThreshold = 0.8
	// DefaultHistorySize is the recently-played store capacity
	DefaultHistorySize = 10000
	// DefaultServerPort is the serve-mode HTTP port
	DefaultServerPort = 8080
	// DefaultFloodLimitPerMinute caps serve-mode requests per client per minute
	DefaultFloodLimitPerMinute = 6
)

type Config struct {
	Sonos  SonosConfig
	LLM    LLMConfig
	Server ServerConfig
	Log    LogConfig
	App    AppConfig
}

type SonosConfig struct {
	Binary         string
	CommandTimeout time.Duration
}

type LLMConfig struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type AppConfig struct {
	JournalPath         string
	Verbose             bool
	HistorySize         int
	FloodLimitPerMinute int
	MinMatchScore       float64
	LLMThreshold        float64
}

func DefaultConfig() *Config {
	return &Config{
		Sonos: SonosConfig{
			Binary:         "sonos",
			CommandTimeout: DefaultCommandTimeoutSecs * time.Second,
		},
		LLM: LLMConfig{
			Provider: "none",
			Model:    "",
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         DefaultServerPort,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 120 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		App: AppConfig{
			JournalPath:         ".sonosdj_progress.log",
			HistorySize:         DefaultHistorySize,
			FloodLimitPerMinute: DefaultFloodLimitPerMinute,
			MinMatchScore:       DefaultMinMatchScore,
			LLMThreshold:        DefaultLLMThreshold,
		},
	}
}
