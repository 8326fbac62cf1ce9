package content

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lysyi3m/reddit-comb/app/database"
)

// Processor fills in readable text for link posts whose body is empty.
// Each pass handles at most batchSize posts; failures are recorded on the
// post and never abort the pass.
type Processor struct {
	httpClient *http.Client
	extractor  *Extractor
	postRepo   database.PostRepository
	userAgent  string
	timeout    time.Duration
	batchSize  int
}

func NewProcessor(httpClient *http.Client, extractor *Extractor, postRepo database.PostRepository,
	userAgent string, timeout time.Duration, batchSize int) *Processor {
	return &Processor{
		httpClient: httpClient,
		extractor:  extractor,
		postRepo:   postRepo,
		userAgent:  userAgent,
		timeout:    timeout,
		batchSize:  batchSize,
	}
}

func (p *Processor) Run(ctx context.Context) error {
	started := time.Now()

	posts, err := p.postRepo.GetPostsForExtraction(p.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get posts for extraction: %w", err)
	}

	if len(posts) == 0 {
		slog.Debug("No posts need content extraction")
		return nil
	}

	successCount := 0
	errorCount := 0

	for _, post := range posts {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := p.extractPost(ctx, post); err != nil {
			slog.Error("Failed to extract content", "post_id", post.ID, "url", post.URL, "error", err)
			errorCount++

			if err := p.postRepo.UpdateExtractedContent(post.ID, "", "failed"); err != nil {
				slog.Error("Failed to update extraction status", "post_id", post.ID, "error", err)
			}
		} else {
			successCount++
		}
	}

	slog.Info("Content extraction pass completed",
		"duration", time.Since(started),
		"success", successCount,
		"errors", errorCount)

	return nil
}

func (p *Processor) extractPost(ctx context.Context, post database.PostForExtraction) error {
	if post.URL == "" {
		return fmt.Errorf("post has no URL")
	}

	data, err := p.fetchPage(ctx, post.URL)
	if err != nil {
		return fmt.Errorf("failed to fetch page: %w", err)
	}

	extracted, err := p.extractor.Run(data)
	if err != nil {
		return fmt.Errorf("failed to extract content: %w", err)
	}

	if err := p.postRepo.UpdateExtractedContent(post.ID, extracted, "success"); err != nil {
		return fmt.Errorf("failed to store extracted content: %w", err)
	}

	slog.Debug("Content extracted", "post_id", post.ID, "url", post.URL, "content_length", len(extracted))
	return nil
}

func (p *Processor) fetchPage(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return nil, fmt.Errorf("content type is not HTML: %s", contentType)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
