package database

import (
	"time"
)

type Subreddit struct {
	ID            int64
	Name          string
	Active        bool
	LastScrapedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Post struct {
	ID               string // Upstream post identifier, stable across sightings
	Subreddit        string
	Title            string
	Author           string
	Permalink        string
	URL              string
	Selftext         string
	ExtractedContent string
	ExtractionStatus string // none, pending, success, failed
	Score            int
	NumComments      int
	UpvoteRatio      float64
	IsVideo          bool
	Domain           string
	FlairText        string
	Thumbnail        string
	PostedAt         time.Time // Upstream creation time, immutable after insert
	CreatedAt        time.Time
	LastUpdatedAt    time.Time
}

type PostSnapshot struct {
	ID          int64
	PostID      string
	Score       int
	NumComments int
	UpvoteRatio float64
	CapturedAt  time.Time
}

type ScrapeLog struct {
	ID           int64
	Subreddit    string
	Mode         string
	Timeframe    string
	Query        string
	Status       string // success, error
	PostsFound   int
	PostsSaved   int
	ErrorMessage string
	DurationMs   int64
	StartedAt    time.Time
	CompletedAt  time.Time
}

// TrendingPost is a post ranked by metric growth over a sliding window.
type TrendingPost struct {
	ID            string
	Subreddit     string
	Title         string
	Permalink     string
	Score         int
	NumComments   int
	ScoreDelta    int
	CommentsDelta int
	SnapshotCount int
}

// SubredditTrend is the per-subreddit rollup of snapshot deltas.
type SubredditTrend struct {
	Subreddit  string
	ScoreDelta int
	PostCount  int
}
