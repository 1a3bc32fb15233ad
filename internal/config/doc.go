// Package config provides configuration structures and utilities for forumcrawl.
// It defines the crawl target (base URL and forums), fetch throttling,
// chunking and worker settings, and output preferences.
package config
