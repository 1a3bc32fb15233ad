// Package main provides the entry point for the forumcrawl CLI.
//
// forumcrawl crawls XenForo forum sections and exports every thread and
// post as CSV datasets.
//
// Usage:
//
//	forumcrawl crawl --base-url https://forum.example.com the-lounge.8
//	forumcrawl history the-lounge
//
// See --help for all available options.
package main

func main() {
	Execute()
}
