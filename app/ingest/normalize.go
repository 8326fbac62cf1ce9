package ingest

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/lysyi3m/reddit-comb/app/database"
	"github.com/lysyi3m/reddit-comb/app/reddit"
)

// deletedAuthor is stored when the upstream redacts or omits the author.
const deletedAuthor = "deleted"

// normalizePost converts a raw listing entry into the canonical record.
// Upstream text arrives in mixed Unicode forms, so title and selftext are
// NFC-normalized at this boundary.
func normalizePost(raw reddit.RawPost, subreddit string, now time.Time) database.Post {
	author := strings.TrimSpace(raw.Author)
	if author == "" || author == "[deleted]" {
		author = deletedAuthor
	}

	name := raw.Subreddit
	if name == "" {
		name = subreddit
	}

	post := database.Post{
		ID:               raw.ID,
		Subreddit:        name,
		Title:            norm.NFC.String(raw.Title),
		Author:           author,
		Permalink:        raw.Permalink,
		URL:              raw.URL,
		Selftext:         norm.NFC.String(raw.Selftext),
		ExtractionStatus: "none",
		Score:            raw.Score,
		NumComments:      raw.NumComments,
		UpvoteRatio:      raw.UpvoteRatio,
		IsVideo:          raw.IsVideo,
		Domain:           raw.Domain,
		FlairText:        raw.FlairText,
		Thumbnail:        raw.Thumbnail,
		PostedAt:         time.Unix(int64(raw.CreatedUTC), 0).UTC(),
		LastUpdatedAt:    now,
	}

	if extractable(post) {
		post.ExtractionStatus = "pending"
	}

	return post
}

// extractable reports whether a post's outbound URL is worth a readable-text
// extraction pass: link posts only, skipping media hosts.
func extractable(post database.Post) bool {
	if post.Selftext != "" || post.IsVideo {
		return false
	}
	if !strings.HasPrefix(post.URL, "http://") && !strings.HasPrefix(post.URL, "https://") {
		return false
	}

	switch post.Domain {
	case "i.redd.it", "v.redd.it", "www.reddit.com", "reddit.com":
		return false
	}

	return !strings.HasPrefix(post.Domain, "self.")
}
