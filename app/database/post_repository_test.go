package database

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

func testPost(id string) Post {
	postedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	return Post{
		ID:               id,
		Subreddit:        "golang",
		Title:            "Original title",
		Author:           "gopher",
		Permalink:        "/r/golang/comments/" + id + "/original_title/",
		URL:              "https://go.dev/blog/original",
		Selftext:         "",
		ExtractionStatus: "pending",
		Score:            10,
		NumComments:      3,
		UpvoteRatio:      0.9,
		Domain:           "go.dev",
		PostedAt:         postedAt,
		LastUpdatedAt:    postedAt,
	}
}

func TestPostRepository_GetPost_Unknown(t *testing.T) {
	repo := NewPostRepository(newTestDB(t))

	post, err := repo.GetPost("missing")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if post != nil {
		t.Errorf("Expected nil for unknown post, got %+v", post)
	}
}

func TestPostRepository_InsertPost_ConflictMovesOnlyMutableColumns(t *testing.T) {
	repo := NewPostRepository(newTestDB(t))

	first := testPost("abc123")
	if err := repo.InsertPost(first); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	second := first
	second.Title = "Rewritten title"
	second.Selftext = "edited body"
	second.Score = 42
	second.NumComments = 7
	second.UpvoteRatio = 0.95
	second.PostedAt = first.PostedAt.Add(time.Hour)
	second.LastUpdatedAt = first.LastUpdatedAt.Add(time.Hour)

	if err := repo.InsertPost(second); err != nil {
		t.Fatalf("Unexpected error on conflicting insert: %v", err)
	}

	stored, err := repo.GetPost("abc123")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if stored == nil {
		t.Fatal("Expected stored post")
	}

	if stored.Title != "Original title" {
		t.Errorf("Expected title to stay immutable across sightings, got %q", stored.Title)
	}
	if stored.PostedAt.Unix() != first.PostedAt.Unix() {
		t.Errorf("Expected posted_at to stay immutable, got %v", stored.PostedAt)
	}

	if stored.Score != 42 || stored.NumComments != 7 {
		t.Errorf("Expected metrics to move, got score %d comments %d", stored.Score, stored.NumComments)
	}
	if stored.UpvoteRatio != 0.95 {
		t.Errorf("Expected upvote ratio 0.95, got %f", stored.UpvoteRatio)
	}
	if stored.Selftext != "edited body" {
		t.Errorf("Expected selftext to move, got %q", stored.Selftext)
	}
	if stored.LastUpdatedAt.Unix() != second.LastUpdatedAt.Unix() {
		t.Errorf("Expected last_updated_at to move, got %v", stored.LastUpdatedAt)
	}
}

func TestPostRepository_UpdatePostMetrics_SameMutableColumns(t *testing.T) {
	repo := NewPostRepository(newTestDB(t))

	post := testPost("abc123")
	if err := repo.InsertPost(post); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	updatedAt := post.LastUpdatedAt.Add(30 * time.Minute)
	update := PostUpdate{
		Score:         99,
		NumComments:   12,
		UpvoteRatio:   0.88,
		Selftext:      "now with a body",
		LastUpdatedAt: updatedAt,
	}

	if err := repo.UpdatePostMetrics("abc123", update); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	stored, err := repo.GetPost("abc123")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if stored.Title != post.Title || stored.Author != post.Author {
		t.Errorf("Expected immutable columns untouched, got title %q author %q", stored.Title, stored.Author)
	}
	if stored.Score != 99 || stored.NumComments != 12 || stored.UpvoteRatio != 0.88 {
		t.Errorf("Expected metrics updated, got %d/%d/%f", stored.Score, stored.NumComments, stored.UpvoteRatio)
	}
	if stored.Selftext != "now with a body" {
		t.Errorf("Expected selftext updated, got %q", stored.Selftext)
	}
	if stored.LastUpdatedAt.Unix() != updatedAt.Unix() {
		t.Errorf("Expected last_updated_at updated, got %v", stored.LastUpdatedAt)
	}
}
