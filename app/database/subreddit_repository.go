package database

import (
	"fmt"
)

type subredditRepository struct {
	db *DB
}

func NewSubredditRepository(db *DB) SubredditRepository {
	return &subredditRepository{db: db}
}

// Register inserts a tracked subreddit or refreshes its active flag when the
// definition already exists.
func (r *subredditRepository) Register(name string, active bool) error {
	_, err := r.db.Exec(`
		INSERT INTO subreddits (name, active)
		VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET
			active = excluded.active,
			updated_at = CURRENT_TIMESTAMP
	`, name, active)

	if err != nil {
		return fmt.Errorf("failed to register subreddit: %w", err)
	}

	return nil
}

// ListActive returns tracked subreddits in stable name order. Batch sweeps
// iterate this list, so the ordering decides which subreddit waits on which.
func (r *subredditRepository) ListActive() ([]Subreddit, error) {
	rows, err := r.db.Query(`
		SELECT id, name, active, last_scraped_at, created_at, updated_at
		FROM subreddits
		WHERE active = 1
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list active subreddits: %w", err)
	}
	defer rows.Close()

	var subreddits []Subreddit
	for rows.Next() {
		var sub Subreddit
		err := rows.Scan(&sub.ID, &sub.Name, &sub.Active, &sub.LastScrapedAt, &sub.CreatedAt, &sub.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subreddit row: %w", err)
		}
		subreddits = append(subreddits, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subreddit rows: %w", err)
	}

	return subreddits, nil
}

func (r *subredditRepository) GetSubredditCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM subreddits").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get subreddit count: %w", err)
	}
	return count, nil
}

func (r *subredditRepository) TouchLastScraped(name string) error {
	_, err := r.db.Exec(`
		UPDATE subreddits
		SET last_scraped_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE name = ?
	`, name)

	if err != nil {
		return fmt.Errorf("failed to touch last scraped time: %w", err)
	}

	return nil
}
