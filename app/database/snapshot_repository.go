package database

import (
	"fmt"
	"time"
)

type snapshotRepository struct {
	db *DB
}

func NewSnapshotRepository(db *DB) SnapshotRepository {
	return &snapshotRepository{db: db}
}

// Append writes one point-in-time copy of a post's metrics. The history is
// append-only and never read back by the ingestion path.
func (r *snapshotRepository) Append(snapshot PostSnapshot) error {
	_, err := r.db.Exec(`
		INSERT INTO post_snapshots (post_id, score, num_comments, upvote_ratio, captured_at)
		VALUES (?, ?, ?, ?, ?)
	`, snapshot.PostID, snapshot.Score, snapshot.NumComments, snapshot.UpvoteRatio, snapshot.CapturedAt)

	if err != nil {
		return fmt.Errorf("failed to append snapshot: %w", err)
	}

	return nil
}

func (r *snapshotRepository) GetSnapshotCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM post_snapshots").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get snapshot count: %w", err)
	}
	return count, nil
}

// Trending ranks posts by score growth across snapshots captured within the
// window. Posts with fewer than two snapshots in the window carry no delta
// and are excluded.
func (r *snapshotRepository) Trending(window time.Duration, limit int) ([]TrendingPost, error) {
	since := time.Now().UTC().Add(-window)

	rows, err := r.db.Query(`
		SELECT p.id, p.subreddit, p.title, p.permalink, p.score, p.num_comments,
		       MAX(s.score) - MIN(s.score) AS score_delta,
		       MAX(s.num_comments) - MIN(s.num_comments) AS comments_delta,
		       COUNT(s.id) AS snapshot_count
		FROM posts p
		JOIN post_snapshots s ON s.post_id = p.id
		WHERE s.captured_at >= ?
		GROUP BY p.id, p.subreddit, p.title, p.permalink, p.score, p.num_comments
		HAVING COUNT(s.id) >= 2
		ORDER BY score_delta DESC, comments_delta DESC
		LIMIT ?
	`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trending posts: %w", err)
	}
	defer rows.Close()

	var posts []TrendingPost
	for rows.Next() {
		var post TrendingPost
		err := rows.Scan(
			&post.ID, &post.Subreddit, &post.Title, &post.Permalink,
			&post.Score, &post.NumComments,
			&post.ScoreDelta, &post.CommentsDelta, &post.SnapshotCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trending row: %w", err)
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trending rows: %w", err)
	}

	return posts, nil
}

// TrendingSubreddits rolls post-level score deltas up to their subreddit.
func (r *snapshotRepository) TrendingSubreddits(window time.Duration, limit int) ([]SubredditTrend, error) {
	since := time.Now().UTC().Add(-window)

	rows, err := r.db.Query(`
		SELECT subreddit, SUM(score_delta) AS score_delta, COUNT(*) AS post_count
		FROM (
			SELECT p.subreddit AS subreddit,
			       MAX(s.score) - MIN(s.score) AS score_delta
			FROM posts p
			JOIN post_snapshots s ON s.post_id = p.id
			WHERE s.captured_at >= ?
			GROUP BY p.id, p.subreddit
			HAVING COUNT(s.id) >= 2
		)
		GROUP BY subreddit
		ORDER BY score_delta DESC
		LIMIT ?
	`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trending subreddits: %w", err)
	}
	defer rows.Close()

	var trends []SubredditTrend
	for rows.Next() {
		var trend SubredditTrend
		if err := rows.Scan(&trend.Subreddit, &trend.ScoreDelta, &trend.PostCount); err != nil {
			return nil, fmt.Errorf("failed to scan subreddit trend row: %w", err)
		}
		trends = append(trends, trend)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subreddit trend rows: %w", err)
	}

	return trends, nil
}
