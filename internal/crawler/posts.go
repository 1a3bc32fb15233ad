package crawler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/nao1215/forumcrawl/internal/model"
)

// Selectors of the thread page markup.
const (
	threadMarkerSelector   = "div.block-container.lbContainer[data-lb-id]"
	firstPostSelector      = "article.message--article.is-first"
	replyContainerSelector = "div.block-body.js-replyNewMessageContainer"
	replySelector          = "article.message--post"
	postBodySelector       = "div.bbWrapper"

	// strippedSelector matches quoted replies, images, inline media,
	// third-party embeds and code or embed blocks. None of it is the
	// poster's own prose.
	strippedSelector = "blockquote, div.bbImageWrapper, div.bbMediaWrapper, span[data-s9e-mediaembed], div.bbCodeBlock"
)

// errPost marks a single post that cannot be extracted. It never escapes
// ExtractPosts; such posts end up in PostPage.Skipped.
var errPost = errors.New("invalid post")

// timestampLayouts are tried in order for the datetime attribute.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
}

// PostPage is the result of extracting one thread page.
type PostPage struct {
	// ThreadID is the thread the page belongs to.
	ThreadID int64

	// Posts are the extracted posts in document order.
	Posts []model.Post

	// Skipped lists posts dropped because of a bad id, body or timestamp.
	Skipped []model.Skip

	// NoReplies is set when the page has no reply container.
	NoReplies bool
}

// ExtractPosts extracts the posts of one thread page: the thread-starting
// post when the page carries it, then every reply in document order.
//
// A page without a thread id marker fails with ErrStructure. Problems with
// an individual post only drop that post.
func ExtractPosts(page string) (*PostPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("failed to parse thread page: %w", err)
	}

	threadID, err := parseThreadID(doc)
	if err != nil {
		return nil, err
	}

	result := &PostPage{
		ThreadID: threadID,
		Posts:    make([]model.Post, 0),
	}

	collect := func(_ int, article *goquery.Selection) {
		post, err := extractPost(article, threadID)
		if err != nil {
			result.Skipped = append(result.Skipped, model.Skip{
				Location: postLocation(article, threadID),
				Reason:   err.Error(),
			})
			return
		}
		result.Posts = append(result.Posts, post)
	}

	doc.Find(firstPostSelector).First().Each(collect)

	replies := doc.Find(replyContainerSelector).First()
	if replies.Length() == 0 {
		result.NoReplies = true
		return result, nil
	}
	replies.Find(replySelector).Each(collect)

	return result, nil
}

// parseThreadID reads the "thread-<id>" lightbox marker.
func parseThreadID(doc *goquery.Document) (int64, error) {
	marker, ok := doc.Find(threadMarkerSelector).First().Attr("data-lb-id")
	if !ok {
		return 0, fmt.Errorf("%w: no thread id marker", ErrStructure)
	}
	id, err := trailingID(marker)
	if err != nil {
		return 0, fmt.Errorf("%w: thread id marker %q", ErrStructure, marker)
	}
	return id, nil
}

func extractPost(article *goquery.Selection, threadID int64) (model.Post, error) {
	content, ok := article.Attr("data-content")
	if !ok {
		return model.Post{}, fmt.Errorf("%w: no post id", errPost)
	}
	id, err := trailingID(content)
	if err != nil {
		return model.Post{}, fmt.Errorf("%w: post id %q", errPost, content)
	}

	body := article.Find(postBodySelector).First()
	if body.Length() == 0 {
		return model.Post{}, fmt.Errorf("%w: no body", errPost)
	}
	body.Find(strippedSelector).Remove()

	postedAt, err := postTimestamp(article)
	if err != nil {
		return model.Post{}, err
	}

	author, _ := article.Attr("data-author")
	return model.Post{
		Author:   author,
		ID:       id,
		Content:  renderText(body.Nodes),
		ThreadID: threadID,
		PostedAt: postedAt,
	}, nil
}

// postTimestamp reads the datetime attribute of the post header time,
// falling back to the first time element of the article.
func postTimestamp(article *goquery.Selection) (time.Time, error) {
	el := article.Find("time.u-dt").First()
	if el.Length() == 0 {
		el = article.Find("time").First()
	}
	value, ok := el.Attr("datetime")
	if !ok {
		return time.Time{}, fmt.Errorf("%w: no timestamp", errPost)
	}
	return parseTimestamp(value)
}

// parseTimestamp parses an ISO-8601 datetime attribute.
func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparsable timestamp %q", errPost, value)
}

// trailingID returns the number after the last dash of values such as
// "post-123" or "thread-45".
func trailingID(value string) (int64, error) {
	idx := strings.LastIndex(value, "-")
	id, err := strconv.ParseInt(value[idx+1:], 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("non-positive id %d", id)
	}
	return id, nil
}

func postLocation(article *goquery.Selection, threadID int64) string {
	if content, ok := article.Attr("data-content"); ok {
		return fmt.Sprintf("thread %d %s", threadID, content)
	}
	return fmt.Sprintf("thread %d", threadID)
}
