package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/lysyi3m/reddit-comb/app/config"
	"github.com/lysyi3m/reddit-comb/app/database"
	"github.com/lysyi3m/reddit-comb/app/ingest"
	"github.com/lysyi3m/reddit-comb/app/reddit"
)

// ErrScrapeInProgress is returned when a run for the same subreddit is
// already in flight. The rejected invocation never starts, so no scrape log
// row is written for it.
var ErrScrapeInProgress = errors.New("scrape already in progress for subreddit")

type FeedClient interface {
	Fetch(ctx context.Context, subreddit string, mode reddit.Mode, opts reddit.FetchOptions) ([]reddit.RawPost, error)
}

type Ingestor interface {
	Run(ctx context.Context, subreddit string, rawPosts []reddit.RawPost) ingest.Outcome
}

// ConfigSource resolves a subreddit's own definition, when one exists.
type ConfigSource interface {
	GetConfig(name string) (*config.Config, error)
}

// Scraper sequences listing fetches and ingestion across tracked subreddits.
// Requests pass through a token bucket so no two listing requests land closer
// than the configured interval, whichever entry point triggered them.
type Scraper struct {
	client         FeedClient
	ingestor       Ingestor
	subredditRepo  database.SubredditRepository
	scrapeLogRepo  database.ScrapeLogRepository
	configs        ConfigSource
	limiter        *rate.Limiter
	subredditDelay time.Duration
	requestTimeout time.Duration

	mu         sync.Mutex
	inProgress map[string]bool
}

func NewScraper(client FeedClient, ingestor Ingestor,
	subredditRepo database.SubredditRepository, scrapeLogRepo database.ScrapeLogRepository,
	configs ConfigSource, requestInterval, subredditDelay, requestTimeout time.Duration) *Scraper {
	return &Scraper{
		client:         client,
		ingestor:       ingestor,
		subredditRepo:  subredditRepo,
		scrapeLogRepo:  scrapeLogRepo,
		configs:        configs,
		limiter:        rate.NewLimiter(rate.Every(requestInterval), 1),
		subredditDelay: subredditDelay,
		requestTimeout: requestTimeout,
		inProgress:     make(map[string]bool),
	}
}

// ScrapeSubreddit fetches one listing and ingests it. Exactly one scrape log
// row is written per started run, on the success and the error path alike;
// a fetch error is re-returned to the caller after logging.
func (s *Scraper) ScrapeSubreddit(ctx context.Context, subreddit string, mode reddit.Mode, opts reddit.FetchOptions) (RunResult, error) {
	if !s.tryLock(subreddit) {
		return RunResult{}, fmt.Errorf("%w: %s", ErrScrapeInProgress, subreddit)
	}
	defer s.unlock(subreddit)

	opts = s.applyDefinition(subreddit, mode, opts)

	startedAt := time.Now().UTC()
	result := RunResult{
		Subreddit: subreddit,
		Mode:      mode,
		StartedAt: startedAt,
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return s.finishRun(result, opts, 0, 0, 0, err)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	rawPosts, err := s.client.Fetch(fetchCtx, subreddit, mode, opts)
	cancel()

	if err != nil {
		return s.finishRun(result, opts, 0, 0, 0, fmt.Errorf("fetch failed: %w", err))
	}

	outcome := s.ingestor.Run(ctx, subreddit, rawPosts)

	if err := s.subredditRepo.TouchLastScraped(subreddit); err != nil {
		slog.Warn("Failed to touch last scraped time", "subreddit", subreddit, "error", err)
	}

	return s.finishRun(result, opts, outcome.Found, outcome.Saved, outcome.Updated, nil)
}

// ScrapeAll sweeps every active subreddit in stable order. Per-subreddit
// failures are recorded in the batch and never stop it; only an unreadable
// tracked list fails the call itself.
func (s *Scraper) ScrapeAll(ctx context.Context, mode reddit.Mode, opts reddit.FetchOptions) (BatchResult, error) {
	subreddits, err := s.subredditRepo.ListActive()
	if err != nil {
		return BatchResult{}, fmt.Errorf("failed to list tracked subreddits: %w", err)
	}

	batch := BatchResult{Results: make([]RunResult, 0, len(subreddits))}

	for i, sub := range subreddits {
		if i > 0 {
			select {
			case <-ctx.Done():
				return batch, nil
			case <-time.After(s.subredditDelay):
			}
		}

		result, err := s.ScrapeSubreddit(ctx, sub.Name, mode, opts)
		if errors.Is(err, ErrScrapeInProgress) {
			// Run was rejected before it started, so no timing was recorded
			result = RunResult{
				Subreddit:   sub.Name,
				Mode:        mode,
				Status:      StatusError,
				Error:       err.Error(),
				StartedAt:   time.Now().UTC(),
				CompletedAt: time.Now().UTC(),
			}
		}

		batch.Results = append(batch.Results, result)
	}

	slog.Info("Batch completed",
		"mode", mode,
		"subreddits", len(batch.Results),
		"succeeded", batch.Succeeded(),
		"failed", batch.Failed())

	return batch, nil
}

func (s *Scraper) finishRun(result RunResult, opts reddit.FetchOptions, found, saved, updated int, runErr error) (RunResult, error) {
	result.CompletedAt = time.Now().UTC()
	result.Duration = result.CompletedAt.Sub(result.StartedAt)
	result.PostsFound = found
	result.PostsSaved = saved
	result.PostsUpdated = updated

	if runErr != nil {
		result.Status = StatusError
		result.Error = runErr.Error()
	} else {
		result.Status = StatusSuccess
	}

	entry := database.ScrapeLog{
		Subreddit:    result.Subreddit,
		Mode:         string(result.Mode),
		Timeframe:    string(opts.Timeframe),
		Query:        opts.Query,
		Status:       result.Status,
		PostsFound:   found,
		PostsSaved:   saved,
		ErrorMessage: result.Error,
		DurationMs:   result.Duration.Milliseconds(),
		StartedAt:    result.StartedAt,
		CompletedAt:  result.CompletedAt,
	}

	if err := s.scrapeLogRepo.Insert(entry); err != nil {
		slog.Error("Failed to insert scrape log", "subreddit", result.Subreddit, "error", err)
	}

	if runErr != nil {
		slog.Error("Scrape failed",
			"subreddit", result.Subreddit,
			"mode", result.Mode,
			"duration", result.Duration,
			"error", runErr)
		return result, runErr
	}

	slog.Info("Scrape completed",
		"subreddit", result.Subreddit,
		"mode", result.Mode,
		"duration", result.Duration,
		"found", found,
		"new", saved,
		"updated", updated)

	return result, nil
}

// applyDefinition overlays the subreddit's own definition on the request:
// a non-zero per-feed limit wins over the caller's, and a search run without
// an explicit query falls back to the definition's search_query.
func (s *Scraper) applyDefinition(subreddit string, mode reddit.Mode, opts reddit.FetchOptions) reddit.FetchOptions {
	if s.configs == nil {
		return opts
	}

	subCfg, err := s.configs.GetConfig(subreddit)
	if err != nil || subCfg == nil {
		return opts
	}

	if subCfg.Settings.Limit > 0 {
		opts.Limit = subCfg.Settings.Limit
	}
	if mode == reddit.ModeSearch && opts.Query == "" {
		opts.Query = subCfg.Settings.SearchQuery
	}

	return opts
}

func (s *Scraper) tryLock(subreddit string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inProgress[subreddit] {
		return false
	}
	s.inProgress[subreddit] = true
	return true
}

func (s *Scraper) unlock(subreddit string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inProgress, subreddit)
}
