package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./data/news.db" description:"Path to the SQLite database file"`

	// Application configuration
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl           string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://news.example.com)"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"3" description:"Number of background workers for scheduled fetches"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"300" description:"Scheduler interval in seconds"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key protecting job endpoints (optional)"`
	TrackerConfig     string `long:"tracker-config" env:"TRACKER_CONFIG" description:"Path to the default tracker configuration YAML file"`

	// News generator configuration
	LLMProvider      string `long:"llm-provider" env:"LLM_PROVIDER" default:"grok" choice:"grok" choice:"openai" choice:"anthropic" choice:"gemini" description:"News generator provider"`
	LLMAPIKey        string `long:"llm-api-key" env:"LLM_API_KEY" description:"API key for the news generator provider"`
	LLMAPIURL        string `long:"llm-api-url" env:"LLM_API_URL" description:"Base URL override for the news generator API"`
	LLMModel         string `long:"llm-model" env:"LLM_MODEL" description:"Model name override for the news generator"`
	GeneratorTimeout int    `long:"generator-timeout" env:"GENERATOR_TIMEOUT" default:"60" description:"News generator call timeout in seconds"`

	// Query cache and rate limiting
	RedisURL       string `long:"redis-url" env:"REDIS_URL" description:"Redis URL for the query cache (in-memory cache when empty)"`
	CacheTTL       int    `long:"cache-ttl" env:"CACHE_TTL" default:"60" description:"Query cache TTL in seconds"`
	FetchRateLimit int    `long:"fetch-rate-limit" env:"FETCH_RATE_LIMIT" default:"10" description:"Allowed fetch requests per minute (0 disables the limit)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"News Tracker/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Asia/Kolkata)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	return LoadArgs(os.Args[1:])
}

func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if raw.WorkerCount < 1 {
		return nil, fmt.Errorf("worker count must be positive, got %d", raw.WorkerCount)
	}
	if raw.SchedulerInterval < 1 {
		return nil, fmt.Errorf("scheduler interval must be positive, got %d", raw.SchedulerInterval)
	}

	cfg := &Cfg{
		DBPath:            raw.DBPath,
		Port:              raw.Port,
		BaseUrl:           raw.BaseUrl,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: raw.SchedulerInterval,
		APIAccessKey:      raw.APIAccessKey,
		TrackerConfig:     raw.TrackerConfig,
		LLMProvider:       raw.LLMProvider,
		LLMAPIKey:         raw.LLMAPIKey,
		LLMAPIURL:         raw.LLMAPIURL,
		LLMModel:          raw.LLMModel,
		GeneratorTimeout:  raw.GeneratorTimeout,
		RedisURL:          raw.RedisURL,
		CacheTTL:          raw.CacheTTL,
		FetchRateLimit:    raw.FetchRateLimit,
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

func (c *Cfg) GeneratorTimeoutDuration() time.Duration {
	return time.Duration(c.GeneratorTimeout) * time.Second
}

func (c *Cfg) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
