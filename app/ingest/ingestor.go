package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/lysyi3m/reddit-comb/app/database"
	"github.com/lysyi3m/reddit-comb/app/reddit"
)

// Outcome summarizes one ingestion batch. Found always equals the number of
// raw posts handed in; Saved counts first sightings only.
type Outcome struct {
	Found    int
	Saved    int
	Updated  int
	Skipped  int
	Failed   int
	NewPosts []database.Post
}

// Ingestor decides create vs. update vs. skip for every raw post and appends
// one metric snapshot per update. A persistence failure on one post never
// aborts the rest of the batch.
type Ingestor struct {
	postRepo          database.PostRepository
	snapshotRepo      database.SnapshotRepository
	snapshotUnchanged bool
	now               func() time.Time
}

func NewIngestor(postRepo database.PostRepository, snapshotRepo database.SnapshotRepository, snapshotUnchanged bool) *Ingestor {
	return &Ingestor{
		postRepo:          postRepo,
		snapshotRepo:      snapshotRepo,
		snapshotUnchanged: snapshotUnchanged,
		now:               time.Now,
	}
}

func (i *Ingestor) Run(ctx context.Context, subreddit string, rawPosts []reddit.RawPost) Outcome {
	outcome := Outcome{Found: len(rawPosts)}

	for _, raw := range rawPosts {
		select {
		case <-ctx.Done():
			return outcome
		default:
		}

		now := i.now().UTC()
		post := normalizePost(raw, subreddit, now)

		if post.ID == "" {
			slog.Warn("Skipping post without id", "subreddit", subreddit, "title", post.Title)
			outcome.Failed++
			continue
		}

		existing, err := i.postRepo.GetPost(post.ID)
		if err != nil {
			slog.Error("Failed to look up post", "subreddit", subreddit, "post_id", post.ID, "error", err)
			outcome.Failed++
			continue
		}

		if existing == nil {
			if err := i.postRepo.InsertPost(post); err != nil {
				slog.Error("Failed to insert post", "subreddit", subreddit, "post_id", post.ID, "error", err)
				outcome.Failed++
				continue
			}

			outcome.Saved++
			outcome.NewPosts = append(outcome.NewPosts, post)
			continue
		}

		if !metricsChanged(existing, post) && !i.snapshotUnchanged {
			outcome.Skipped++
			continue
		}

		update := database.PostUpdate{
			Score:         post.Score,
			NumComments:   post.NumComments,
			UpvoteRatio:   post.UpvoteRatio,
			Selftext:      post.Selftext,
			LastUpdatedAt: now,
		}

		if err := i.postRepo.UpdatePostMetrics(post.ID, update); err != nil {
			slog.Error("Failed to update post metrics", "subreddit", subreddit, "post_id", post.ID, "error", err)
			outcome.Failed++
			continue
		}

		snapshot := database.PostSnapshot{
			PostID:      post.ID,
			Score:       post.Score,
			NumComments: post.NumComments,
			UpvoteRatio: post.UpvoteRatio,
			CapturedAt:  now,
		}

		if err := i.snapshotRepo.Append(snapshot); err != nil {
			slog.Error("Failed to append snapshot", "subreddit", subreddit, "post_id", post.ID, "error", err)
		}

		outcome.Updated++
	}

	return outcome
}

func metricsChanged(existing *database.Post, post database.Post) bool {
	return existing.Score != post.Score ||
		existing.NumComments != post.NumComments ||
		existing.UpvoteRatio != post.UpvoteRatio ||
		existing.Selftext != post.Selftext
}
