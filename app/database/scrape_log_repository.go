package database

import (
	"fmt"
)

type scrapeLogRepository struct {
	db *DB
}

func NewScrapeLogRepository(db *DB) ScrapeLogRepository {
	return &scrapeLogRepository{db: db}
}

// Insert writes the audit row for one scrape run. Rows are immutable after
// this call.
func (r *scrapeLogRepository) Insert(entry ScrapeLog) error {
	_, err := r.db.Exec(`
		INSERT INTO scrape_logs (
			subreddit, mode, timeframe, query, status,
			posts_found, posts_saved, error_message, duration_ms,
			started_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.Subreddit, entry.Mode, entry.Timeframe, entry.Query, entry.Status,
		entry.PostsFound, entry.PostsSaved, entry.ErrorMessage, entry.DurationMs,
		entry.StartedAt, entry.CompletedAt)

	if err != nil {
		return fmt.Errorf("failed to insert scrape log: %w", err)
	}

	return nil
}

func (r *scrapeLogRepository) GetRecent(limit int) ([]ScrapeLog, error) {
	rows, err := r.db.Query(`
		SELECT id, subreddit, mode, timeframe, query, status,
		       posts_found, posts_saved, error_message, duration_ms,
		       started_at, completed_at
		FROM scrape_logs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent scrape logs: %w", err)
	}
	defer rows.Close()

	var logs []ScrapeLog
	for rows.Next() {
		var entry ScrapeLog
		err := rows.Scan(
			&entry.ID, &entry.Subreddit, &entry.Mode, &entry.Timeframe,
			&entry.Query, &entry.Status, &entry.PostsFound, &entry.PostsSaved,
			&entry.ErrorMessage, &entry.DurationMs,
			&entry.StartedAt, &entry.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scrape log row: %w", err)
		}
		logs = append(logs, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scrape log rows: %w", err)
	}

	return logs, nil
}
