package model

import "time"

// Thread is a discussion thread discovered on a forum listing page.
//
// ID is unique within a forum crawl. URLSlug and ID together form the
// "<slug>.<id>" path segment used in thread URLs.
type Thread struct {
	// URLSlug is the title slug from the thread link (e.g. "welcome-thread").
	// It may be empty when the board links threads by ID only.
	URLSlug string `json:"url_slug"`

	// ID is the numeric thread identifier.
	ID int64 `json:"id"`

	// Title is the visible thread title.
	Title string `json:"title"`

	// Author is the username of the thread starter.
	Author string `json:"author"`

	// PageCount is the number of pages in the thread. Always at least 1.
	PageCount int `json:"page_count"`

	// DiscoveredAt is when the listing page carrying this thread was parsed.
	DiscoveredAt time.Time `json:"discovered_at"`
}

// NewThread creates a Thread. A pageCount below 1 is raised to 1 because
// threads without a page-jump control have exactly one page.
func NewThread(slug string, id int64, title, author string, pageCount int, discoveredAt time.Time) Thread {
	if pageCount < 1 {
		pageCount = 1
	}
	return Thread{
		URLSlug:      slug,
		ID:           id,
		Title:        title,
		Author:       author,
		PageCount:    pageCount,
		DiscoveredAt: discoveredAt,
	}
}

// PathSegment returns the "<slug>.<id>" segment used in thread URLs,
// or just the ID when there is no slug.
func (t Thread) PathSegment() string {
	if t.URLSlug == "" {
		return formatID(t.ID)
	}
	return t.URLSlug + "." + formatID(t.ID)
}
