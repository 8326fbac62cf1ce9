package database

import (
	"time"
)

// PostUpdate carries the mutable fields written on every re-sighting of a post.
type PostUpdate struct {
	Score         int
	NumComments   int
	UpvoteRatio   float64
	Selftext      string
	LastUpdatedAt time.Time
}

type PostForExtraction struct {
	ID  string
	URL string
}

type SubredditRepository interface {
	Register(name string, active bool) error
	ListActive() ([]Subreddit, error)
	GetSubredditCount() (int, error)

	TouchLastScraped(name string) error
}

type PostRepository interface {
	GetPost(id string) (*Post, error)
	GetPostCount() (int, error)

	InsertPost(post Post) error
	UpdatePostMetrics(id string, update PostUpdate) error

	GetPostsForExtraction(limit int) ([]PostForExtraction, error)
	UpdateExtractedContent(id string, content string, status string) error
}

type SnapshotRepository interface {
	Append(snapshot PostSnapshot) error
	GetSnapshotCount() (int, error)

	Trending(window time.Duration, limit int) ([]TrendingPost, error)
	TrendingSubreddits(window time.Duration, limit int) ([]SubredditTrend, error)
}

type ScrapeLogRepository interface {
	Insert(entry ScrapeLog) error
	GetRecent(limit int) ([]ScrapeLog, error)
}
