package scraper

import (
	"time"

	"github.com/lysyi3m/reddit-comb/app/reddit"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// RunResult is the outcome of one scrape of one subreddit.
type RunResult struct {
	Subreddit    string        `json:"subreddit"`
	Mode         reddit.Mode   `json:"mode"`
	Status       string        `json:"status"`
	PostsFound   int           `json:"posts_found"`
	PostsSaved   int           `json:"posts_saved"`
	PostsUpdated int           `json:"posts_updated"`
	Error        string        `json:"error,omitempty"`
	Duration     time.Duration `json:"duration"`
	StartedAt    time.Time     `json:"started_at"`
	CompletedAt  time.Time     `json:"completed_at"`
}

// BatchResult aggregates one sweep across all tracked subreddits. It always
// carries one entry per subreddit, failed or not.
type BatchResult struct {
	Results []RunResult `json:"results"`
}

func (b BatchResult) Succeeded() int {
	count := 0
	for _, result := range b.Results {
		if result.Status == StatusSuccess {
			count++
		}
	}
	return count
}

func (b BatchResult) Failed() int {
	return len(b.Results) - b.Succeeded()
}
