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
	// Storage configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./reddit-comb.db" description:"Path to the sqlite database file"`

	// Application configuration
	SubredditsDir string `long:"subreddits-dir" env:"SUBREDDITS_DIR" default:"./subreddits" description:"Directory containing subreddit definition files"`
	Port          string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey  string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for scrape endpoints (optional)"`

	// Scraping configuration
	RequestTimeout    int  `long:"request-timeout" env:"REQUEST_TIMEOUT" default:"30" description:"Timeout for a single listing request in seconds"`
	RequestInterval   int  `long:"request-interval" env:"REQUEST_INTERVAL" default:"1000" description:"Minimum delay between listing requests in milliseconds"`
	SubredditDelay    int  `long:"subreddit-delay" env:"SUBREDDIT_DELAY" default:"2000" description:"Delay between subreddits within a batch in milliseconds"`
	HotInterval       int  `long:"hot-interval" env:"HOT_INTERVAL" default:"900" description:"Interval between hot sweeps in seconds"`
	TopInterval       int  `long:"top-interval" env:"TOP_INTERVAL" default:"21600" description:"Interval between weekly-top sweeps in seconds"`
	DefaultLimit      int  `long:"default-limit" env:"DEFAULT_LIMIT" default:"25" description:"Default number of posts requested per listing"`
	TopLimit          int  `long:"top-limit" env:"TOP_LIMIT" default:"100" description:"Number of posts requested per weekly-top listing"`
	SnapshotUnchanged bool `long:"snapshot-unchanged" env:"SNAPSHOT_UNCHANGED" description:"Snapshot and touch posts even when no metric changed"`

	// Content extraction configuration
	ExtractContent  bool `long:"extract-content" env:"EXTRACT_CONTENT" description:"Extract readable text for outbound link posts"`
	ExtractInterval int  `long:"extract-interval" env:"EXTRACT_INTERVAL" default:"600" description:"Interval between content extraction passes in seconds"`
	ExtractBatch    int  `long:"extract-batch" env:"EXTRACT_BATCH" default:"10" description:"Maximum posts processed per content extraction pass"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" description:"User agent string with contact info (required by the upstream API)" required:"true"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
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
		SubredditsDir:     raw.SubredditsDir,
		Port:              raw.Port,
		APIAccessKey:      raw.APIAccessKey,
		RequestTimeout:    raw.RequestTimeout,
		RequestInterval:   raw.RequestInterval,
		SubredditDelay:    raw.SubredditDelay,
		HotInterval:       raw.HotInterval,
		TopInterval:       raw.TopInterval,
		DefaultLimit:      raw.DefaultLimit,
		TopLimit:          raw.TopLimit,
		SnapshotUnchanged: raw.SnapshotUnchanged,
		ExtractContent:    raw.ExtractContent,
		ExtractInterval:   raw.ExtractInterval,
		ExtractBatch:      raw.ExtractBatch,
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
		}
	}
	return nil
}
