package model

import (
	"strconv"
	"time"
)

// Post is a single message in a thread.
//
// ID is unique across the whole site. Content is plain text with quote
// blocks and media or embed markup already removed.
type Post struct {
	// Author is the username of the poster.
	Author string `json:"author"`

	// ID is the numeric post identifier.
	ID int64 `json:"id"`

	// Content is the cleaned body text.
	Content string `json:"content"`

	// ThreadID references the Thread the post belongs to.
	ThreadID int64 `json:"thread_id"`

	// PostedAt is the post timestamp taken from the page.
	PostedAt time.Time `json:"posted_at"`
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
