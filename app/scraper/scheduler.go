package scraper

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/reddit-comb/app/cfg"
	"github.com/lysyi3m/reddit-comb/app/reddit"
)

// BatchScraper is the slice of Scraper the scheduler drives.
type BatchScraper interface {
	ScrapeAll(ctx context.Context, mode reddit.Mode, opts reddit.FetchOptions) (BatchResult, error)
}

// ContentProcessor runs one bounded content-extraction pass.
type ContentProcessor interface {
	Run(ctx context.Context) error
}

// Scheduler drives recurring sweeps: a frequent hot cadence, a slower
// weekly-top cadence, and an optional content-extraction pass. Each cadence
// is an independent ticker loop feeding the same scraper; overlap with
// on-demand runs is resolved by the scraper's per-subreddit locks.
type Scheduler struct {
	scraper   BatchScraper
	processor ContentProcessor

	hotInterval     time.Duration
	topInterval     time.Duration
	extractInterval time.Duration
	defaultLimit    int
	topLimit        int
	extractContent  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(scraper BatchScraper, processor ContentProcessor) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	c := cfg.Get()

	return &Scheduler{
		scraper:         scraper,
		processor:       processor,
		hotInterval:     time.Duration(c.HotInterval) * time.Second,
		topInterval:     time.Duration(c.TopInterval) * time.Second,
		extractInterval: time.Duration(c.ExtractInterval) * time.Second,
		defaultLimit:    c.DefaultLimit,
		topLimit:        c.TopLimit,
		extractContent:  c.ExtractContent,
		ctx:             ctx,
		cancel:          cancel,
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go s.hotLoop()

	s.wg.Add(1)
	go s.topLoop()

	if s.extractContent && s.processor != nil {
		s.wg.Add(1)
		go s.extractLoop()
	}
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) hotLoop() {
	defer s.wg.Done()

	// First sweep right away so a fresh process has data before the first tick
	s.runSweep(reddit.ModeHot, reddit.FetchOptions{Limit: s.defaultLimit})

	ticker := time.NewTicker(s.hotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.runSweep(reddit.ModeHot, reddit.FetchOptions{Limit: s.defaultLimit})
		}
	}
}

func (s *Scheduler) topLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.topInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.runSweep(reddit.ModeTop, reddit.FetchOptions{
				Limit:     s.topLimit,
				Timeframe: reddit.TimeframeWeek,
			})
		}
	}
}

func (s *Scheduler) extractLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.extractInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			if err := s.processor.Run(s.ctx); err != nil {
				slog.Error("Content extraction pass failed", "error", err)
			}
		}
	}
}

func (s *Scheduler) runSweep(mode reddit.Mode, opts reddit.FetchOptions) {
	if _, err := s.scraper.ScrapeAll(s.ctx, mode, opts); err != nil {
		slog.Error("Scheduled sweep failed", "mode", mode, "error", err)
	}
}
