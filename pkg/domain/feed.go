package domain

import "time"

// Feed is a fetched RSS/Atom document reduced to what digest sources need
type Feed struct {
	Title   string
	Summary string
	Site    string
	Entries []FeedEntry
}

// FeedEntry is one post of a feed. ID is stable across fetches: guid, link or feed+entry title.
type FeedEntry struct {
	ID        string
	Title     string
	URL       string
	Summary   string
	Body      string // full content when the feed carries it
	Author    string
	Published time.Time // zero when the feed gives no date
}
