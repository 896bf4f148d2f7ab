package domain

import (
	"strings"
	"time"
)

// Article is one persisted feed article. GUID is the stable external
// identity assigned by the feed; content, category and authors are filled
// in later by the enrichment pass.
type Article struct {
	ID          int64     `db:"id"`
	GUID        string    `db:"guid"`
	Title       string    `db:"title"`
	Link        string    `db:"link"`
	PubDate     string    `db:"pub_date"`
	PublishedAt time.Time `db:"published_at"`
	Content     *string   `db:"content"`
	Snippet     *string   `db:"snippet"`
	Category    *string   `db:"category"`
	ISODate     string    `db:"iso_date"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// FeedEntry is one item as delivered by the syndication feed.
type FeedEntry struct {
	Title       string
	Link        string
	PubDate     string
	Content     string
	Snippet     string
	GUID        string
	ISODate     string
	PublishedAt time.Time
}

type Author struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// NormalizeAuthorName collapses internal whitespace and trims the name so
// that byline variations of the same person map to one author row.
func NormalizeAuthorName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}
