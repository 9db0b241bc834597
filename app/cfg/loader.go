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
	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./podcast_studio.db" description:"Path to the SQLite database file"`

	// Application configuration
	AssetsFile        string `long:"assets-file" env:"ASSETS_FILE" default:"./assets.yml" description:"YAML file describing intro/outro/music/voice assets"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl           string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://studio.example.com)"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"3" description:"Number of background workers for ingestion and generation tasks"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"300" description:"Auto-mode source refresh interval in seconds"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Script generation (DeepSeek)
	DeepSeekAPIKey  string `long:"deepseek-api-key" env:"DEEPSEEK_API_KEY" description:"DeepSeek API key for script generation"`
	DeepSeekBaseURL string `long:"deepseek-base-url" env:"DEEPSEEK_BASE_URL" default:"https://api.deepseek.com" description:"DeepSeek API base URL"`
	DeepSeekModel   string `long:"deepseek-model" env:"DEEPSEEK_MODEL" default:"deepseek-chat" description:"DeepSeek model used for script generation"`

	// Speech synthesis (MiniMax)
	MiniMaxAPIKey  string `long:"minimax-api-key" env:"MINIMAX_API_KEY" description:"MiniMax API key for speech synthesis"`
	MiniMaxBaseURL string `long:"minimax-base-url" env:"MINIMAX_BASE_URL" default:"https://api.minimaxi.com" description:"MiniMax API base URL"`
	DefaultVoiceID string `long:"default-voice-id" env:"DEFAULT_VOICE_ID" default:"male-qn-qingse" description:"Voice used when a request does not specify one"`
	AudioDir       string `long:"audio-dir" env:"AUDIO_DIR" default:"./audio" description:"Directory where generated audio files are stored"`

	// Generation behavior
	GenerationTimeout int `long:"generation-timeout" env:"GENERATION_TIMEOUT" default:"120" description:"Per-call timeout for script/audio generation in seconds"`
	FetchTimeout      int `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30" description:"RSS fetch timeout in seconds"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Podcast Studio/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Asia/Shanghai)"`
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
		DBPath:            raw.DBPath,
		AssetsFile:        raw.AssetsFile,
		Port:              raw.Port,
		BaseUrl:           raw.BaseUrl,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: raw.SchedulerInterval,
		APIAccessKey:      raw.APIAccessKey,
		DeepSeekAPIKey:    raw.DeepSeekAPIKey,
		DeepSeekBaseURL:   raw.DeepSeekBaseURL,
		DeepSeekModel:     raw.DeepSeekModel,
		MiniMaxAPIKey:     raw.MiniMaxAPIKey,
		MiniMaxBaseURL:    raw.MiniMaxBaseURL,
		DefaultVoiceID:    raw.DefaultVoiceID,
		AudioDir:          raw.AudioDir,
		GenerationTimeout: raw.GenerationTimeout,
		FetchTimeout:      raw.FetchTimeout,
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
