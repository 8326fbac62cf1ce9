package database

import (
	"database/sql"
	"fmt"
)

type postRepository struct {
	db *DB
}

func NewPostRepository(db *DB) PostRepository {
	return &postRepository{db: db}
}

// GetPost returns the post with the given upstream id, or nil when unknown.
func (r *postRepository) GetPost(id string) (*Post, error) {
	var post Post
	err := r.db.QueryRow(`
		SELECT id, subreddit, title, author, permalink, url, selftext,
		       extracted_content, extraction_status, score, num_comments,
		       upvote_ratio, is_video, domain, flair_text, thumbnail,
		       posted_at, created_at, last_updated_at
		FROM posts
		WHERE id = ?
	`, id).Scan(
		&post.ID, &post.Subreddit, &post.Title, &post.Author, &post.Permalink,
		&post.URL, &post.Selftext, &post.ExtractedContent, &post.ExtractionStatus,
		&post.Score, &post.NumComments, &post.UpvoteRatio, &post.IsVideo,
		&post.Domain, &post.FlairText, &post.Thumbnail,
		&post.PostedAt, &post.CreatedAt, &post.LastUpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return &post, nil
}

func (r *postRepository) GetPostCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM posts").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get post count: %w", err)
	}
	return count, nil
}

// InsertPost persists a first-sighted post. The conflict clause keeps the
// upsert-by-id atomic when two overlapping runs race on the same post,
// moving the same mutable columns UpdatePostMetrics does; title, posted_at
// and created_at stay untouched.
func (r *postRepository) InsertPost(post Post) error {
	_, err := r.db.Exec(`
		INSERT INTO posts (
			id, subreddit, title, author, permalink, url, selftext,
			extraction_status, score, num_comments, upvote_ratio,
			is_video, domain, flair_text, thumbnail,
			posted_at, last_updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			selftext = excluded.selftext,
			score = excluded.score,
			num_comments = excluded.num_comments,
			upvote_ratio = excluded.upvote_ratio,
			last_updated_at = excluded.last_updated_at
	`, post.ID, post.Subreddit, post.Title, post.Author, post.Permalink,
		post.URL, post.Selftext, post.ExtractionStatus, post.Score,
		post.NumComments, post.UpvoteRatio, post.IsVideo, post.Domain,
		post.FlairText, post.Thumbnail, post.PostedAt, post.LastUpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}

	return nil
}

func (r *postRepository) UpdatePostMetrics(id string, update PostUpdate) error {
	_, err := r.db.Exec(`
		UPDATE posts
		SET score = ?, num_comments = ?, upvote_ratio = ?, selftext = ?,
		    last_updated_at = ?
		WHERE id = ?
	`, update.Score, update.NumComments, update.UpvoteRatio, update.Selftext,
		update.LastUpdatedAt, id)

	if err != nil {
		return fmt.Errorf("failed to update post metrics: %w", err)
	}

	return nil
}

func (r *postRepository) GetPostsForExtraction(limit int) ([]PostForExtraction, error) {
	rows, err := r.db.Query(`
		SELECT id, url
		FROM posts
		WHERE extraction_status = 'pending'
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get posts for extraction: %w", err)
	}
	defer rows.Close()

	var posts []PostForExtraction
	for rows.Next() {
		var post PostForExtraction
		if err := rows.Scan(&post.ID, &post.URL); err != nil {
			return nil, fmt.Errorf("failed to scan extraction row: %w", err)
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating extraction rows: %w", err)
	}

	return posts, nil
}

func (r *postRepository) UpdateExtractedContent(id string, content string, status string) error {
	_, err := r.db.Exec(`
		UPDATE posts
		SET extracted_content = ?, extraction_status = ?
		WHERE id = ?
	`, content, status, id)

	if err != nil {
		return fmt.Errorf("failed to update extracted content: %w", err)
	}

	return nil
}
