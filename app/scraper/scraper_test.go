package scraper

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lysyi3m/reddit-comb/app/config"
	"github.com/lysyi3m/reddit-comb/app/database"
	"github.com/lysyi3m/reddit-comb/app/ingest"
	"github.com/lysyi3m/reddit-comb/app/reddit"
)

type mockClient struct {
	posts   map[string][]reddit.RawPost
	errs    map[string]error
	gotOpts map[string]reddit.FetchOptions
}

func (m *mockClient) Fetch(ctx context.Context, subreddit string, mode reddit.Mode, opts reddit.FetchOptions) ([]reddit.RawPost, error) {
	if m.gotOpts == nil {
		m.gotOpts = make(map[string]reddit.FetchOptions)
	}
	m.gotOpts[subreddit] = opts

	if err := m.errs[subreddit]; err != nil {
		return nil, err
	}
	return m.posts[subreddit], nil
}

type mockConfigSource struct {
	configs map[string]*config.Config
}

func (m *mockConfigSource) GetConfig(name string) (*config.Config, error) {
	if subCfg, ok := m.configs[name]; ok {
		return subCfg, nil
	}
	return nil, fmt.Errorf("no definition for subreddit: %s", name)
}

type mockIngestor struct {
	saved int
}

func (m *mockIngestor) Run(ctx context.Context, subreddit string, rawPosts []reddit.RawPost) ingest.Outcome {
	return ingest.Outcome{Found: len(rawPosts), Saved: m.saved}
}

type mockSubredditRepo struct {
	subreddits []database.Subreddit
	touched    []string
	listErr    error
}

func (m *mockSubredditRepo) Register(name string, active bool) error {
	return nil
}

func (m *mockSubredditRepo) ListActive() ([]database.Subreddit, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.subreddits, nil
}

func (m *mockSubredditRepo) GetSubredditCount() (int, error) {
	return len(m.subreddits), nil
}

func (m *mockSubredditRepo) TouchLastScraped(name string) error {
	m.touched = append(m.touched, name)
	return nil
}

type mockScrapeLogRepo struct {
	entries []database.ScrapeLog
}

func (m *mockScrapeLogRepo) Insert(entry database.ScrapeLog) error {
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockScrapeLogRepo) GetRecent(limit int) ([]database.ScrapeLog, error) {
	return m.entries, nil
}

func newTestScraper(client FeedClient, ingestor Ingestor, subredditRepo database.SubredditRepository, scrapeLogRepo database.ScrapeLogRepository) *Scraper {
	return NewScraper(client, ingestor, subredditRepo, scrapeLogRepo, nil,
		time.Millisecond, time.Millisecond, time.Second)
}

func newTestScraperWithConfigs(client FeedClient, configs ConfigSource) *Scraper {
	return NewScraper(client, &mockIngestor{}, &mockSubredditRepo{}, &mockScrapeLogRepo{}, configs,
		time.Millisecond, time.Millisecond, time.Second)
}

func TestScraper_ScrapeSubreddit_Success(t *testing.T) {
	client := &mockClient{posts: map[string][]reddit.RawPost{
		"golang": {{ID: "p1"}, {ID: "p2"}},
	}}
	subredditRepo := &mockSubredditRepo{}
	scrapeLogRepo := &mockScrapeLogRepo{}
	s := newTestScraper(client, &mockIngestor{saved: 2}, subredditRepo, scrapeLogRepo)

	result, err := s.ScrapeSubreddit(context.Background(), "golang", reddit.ModeHot, reddit.FetchOptions{Limit: 25})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.Status != StatusSuccess {
		t.Errorf("Expected status success, got %s", result.Status)
	}
	if result.PostsFound != 2 || result.PostsSaved != 2 {
		t.Errorf("Expected found 2 saved 2, got %d/%d", result.PostsFound, result.PostsSaved)
	}

	if len(scrapeLogRepo.entries) != 1 {
		t.Fatalf("Expected exactly 1 scrape log row, got %d", len(scrapeLogRepo.entries))
	}
	entry := scrapeLogRepo.entries[0]
	if entry.Status != StatusSuccess || entry.PostsFound != 2 || entry.PostsSaved != 2 {
		t.Errorf("Unexpected scrape log entry: %+v", entry)
	}
	if entry.CompletedAt.Before(entry.StartedAt) {
		t.Error("CompletedAt should not precede StartedAt")
	}

	if len(subredditRepo.touched) != 1 || subredditRepo.touched[0] != "golang" {
		t.Errorf("Expected last-scraped touch for golang, got %v", subredditRepo.touched)
	}
}

func TestScraper_ScrapeSubreddit_FetchErrorIsLoggedAndReturned(t *testing.T) {
	client := &mockClient{errs: map[string]error{
		"golang": fmt.Errorf("connection refused"),
	}}
	scrapeLogRepo := &mockScrapeLogRepo{}
	s := newTestScraper(client, &mockIngestor{}, &mockSubredditRepo{}, scrapeLogRepo)

	result, err := s.ScrapeSubreddit(context.Background(), "golang", reddit.ModeHot, reddit.FetchOptions{})
	if err == nil {
		t.Fatal("Expected error to be re-returned after logging")
	}

	if result.Status != StatusError {
		t.Errorf("Expected status error, got %s", result.Status)
	}

	if len(scrapeLogRepo.entries) != 1 {
		t.Fatalf("Expected exactly 1 scrape log row on failure, got %d", len(scrapeLogRepo.entries))
	}
	entry := scrapeLogRepo.entries[0]
	if entry.Status != StatusError {
		t.Errorf("Expected error status in log, got %s", entry.Status)
	}
	if entry.PostsFound != 0 || entry.PostsSaved != 0 {
		t.Errorf("Expected zero counts on failed fetch, got %d/%d", entry.PostsFound, entry.PostsSaved)
	}
	if entry.ErrorMessage == "" {
		t.Error("Expected non-empty error message in log")
	}
}

func TestScraper_ScrapeSubreddit_RejectsOverlappingRun(t *testing.T) {
	client := &mockClient{}
	scrapeLogRepo := &mockScrapeLogRepo{}
	s := newTestScraper(client, &mockIngestor{}, &mockSubredditRepo{}, scrapeLogRepo)

	if !s.tryLock("golang") {
		t.Fatal("Expected to acquire run lock")
	}
	defer s.unlock("golang")

	_, err := s.ScrapeSubreddit(context.Background(), "golang", reddit.ModeHot, reddit.FetchOptions{})
	if !errors.Is(err, ErrScrapeInProgress) {
		t.Fatalf("Expected ErrScrapeInProgress, got %v", err)
	}

	// Rejected runs never start, so nothing is logged
	if len(scrapeLogRepo.entries) != 0 {
		t.Errorf("Expected no scrape log rows for rejected run, got %d", len(scrapeLogRepo.entries))
	}
}

func TestScraper_ScrapeAll_BatchIsolatesFailures(t *testing.T) {
	client := &mockClient{
		posts: map[string][]reddit.RawPost{
			"alpha":   {{ID: "a1"}},
			"charlie": {{ID: "c1"}},
		},
		errs: map[string]error{
			"bravo": fmt.Errorf("upstream exploded"),
		},
	}
	subredditRepo := &mockSubredditRepo{subreddits: []database.Subreddit{
		{Name: "alpha"}, {Name: "bravo"}, {Name: "charlie"},
	}}
	scrapeLogRepo := &mockScrapeLogRepo{}
	s := newTestScraper(client, &mockIngestor{saved: 1}, subredditRepo, scrapeLogRepo)

	batch, err := s.ScrapeAll(context.Background(), reddit.ModeHot, reddit.FetchOptions{})
	if err != nil {
		t.Fatalf("Batch must not fail as a whole: %v", err)
	}

	if len(batch.Results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(batch.Results))
	}

	if batch.Results[0].Subreddit != "alpha" || batch.Results[1].Subreddit != "bravo" || batch.Results[2].Subreddit != "charlie" {
		t.Errorf("Expected stable iteration order, got %+v", batch.Results)
	}

	if batch.Results[0].Status != StatusSuccess {
		t.Errorf("Expected alpha to succeed, got %s", batch.Results[0].Status)
	}
	if batch.Results[1].Status != StatusError {
		t.Errorf("Expected bravo to fail, got %s", batch.Results[1].Status)
	}
	if batch.Results[2].Status != StatusSuccess {
		t.Errorf("Expected charlie to succeed after bravo failed, got %s", batch.Results[2].Status)
	}

	if batch.Succeeded() != 2 || batch.Failed() != 1 {
		t.Errorf("Expected 2 succeeded 1 failed, got %d/%d", batch.Succeeded(), batch.Failed())
	}

	// One log row per started run, failed or not
	if len(scrapeLogRepo.entries) != 3 {
		t.Errorf("Expected 3 scrape log rows, got %d", len(scrapeLogRepo.entries))
	}
}

func TestScraper_ScrapeSubreddit_PerFeedLimitOverride(t *testing.T) {
	client := &mockClient{}
	configs := &mockConfigSource{configs: map[string]*config.Config{
		"golang": {Name: "golang", Settings: config.Settings{Enabled: true, Limit: 5}},
	}}
	s := newTestScraperWithConfigs(client, configs)

	_, err := s.ScrapeSubreddit(context.Background(), "golang", reddit.ModeHot, reddit.FetchOptions{Limit: 25})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if got := client.gotOpts["golang"].Limit; got != 5 {
		t.Errorf("Expected per-feed limit 5 to override caller's 25, got %d", got)
	}
}

func TestScraper_ScrapeSubreddit_SearchQueryFromDefinition(t *testing.T) {
	client := &mockClient{}
	configs := &mockConfigSource{configs: map[string]*config.Config{
		"golang": {Name: "golang", Settings: config.Settings{Enabled: true, SearchQuery: "generics"}},
	}}
	s := newTestScraperWithConfigs(client, configs)

	if _, err := s.ScrapeSubreddit(context.Background(), "golang", reddit.ModeSearch, reddit.FetchOptions{Limit: 25}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := client.gotOpts["golang"].Query; got != "generics" {
		t.Errorf("Expected definition search query, got %q", got)
	}

	// An explicit caller query is never overridden
	if _, err := s.ScrapeSubreddit(context.Background(), "golang", reddit.ModeSearch, reddit.FetchOptions{Limit: 25, Query: "gc tuning"}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := client.gotOpts["golang"].Query; got != "gc tuning" {
		t.Errorf("Expected caller query to win, got %q", got)
	}
}

func TestScraper_ScrapeAll_PerFeedLimitOverride(t *testing.T) {
	client := &mockClient{}
	subredditRepo := &mockSubredditRepo{subreddits: []database.Subreddit{
		{Name: "golang"}, {Name: "rust"},
	}}
	configs := &mockConfigSource{configs: map[string]*config.Config{
		"golang": {Name: "golang", Settings: config.Settings{Enabled: true, Limit: 5}},
	}}
	s := NewScraper(client, &mockIngestor{}, subredditRepo, &mockScrapeLogRepo{}, configs,
		time.Millisecond, time.Millisecond, time.Second)

	if _, err := s.ScrapeAll(context.Background(), reddit.ModeHot, reddit.FetchOptions{Limit: 25}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if got := client.gotOpts["golang"].Limit; got != 5 {
		t.Errorf("Expected golang's own limit 5, got %d", got)
	}
	if got := client.gotOpts["rust"].Limit; got != 25 {
		t.Errorf("Expected batch default 25 for rust, got %d", got)
	}
}

func TestScraper_ScrapeAll_ListFailure(t *testing.T) {
	subredditRepo := &mockSubredditRepo{listErr: fmt.Errorf("database gone")}
	s := newTestScraper(&mockClient{}, &mockIngestor{}, subredditRepo, &mockScrapeLogRepo{})

	_, err := s.ScrapeAll(context.Background(), reddit.ModeHot, reddit.FetchOptions{})
	if err == nil {
		t.Fatal("Expected error when tracked list is unreadable")
	}
}
