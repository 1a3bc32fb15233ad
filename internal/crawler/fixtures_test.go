package crawler

import (
	"fmt"
	"strings"
)

// listingItem describes one thread row of a fixture listing page.
type listingItem struct {
	href   string
	title  string
	author string
	jump   []string // labels of the page-jump links, empty for none
}

// listingHTML renders a XenForo-like forum listing page. lastPage is the
// label of the last pagination entry; empty renders no pagination control.
func listingHTML(lastPage string, items ...listingItem) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="p-body">`)
	if lastPage != "" {
		b.WriteString(`<nav class="pageNav"><ul class="pageNav-main">`)
		b.WriteString(`<li class="pageNav-page pageNav-page--current"><a href="#">1</a></li>`)
		b.WriteString(`<li class="pageNav-page"><a href="#">2</a></li>`)
		fmt.Fprintf(&b, `<li class="pageNav-page"><a href="#">%s</a></li>`, lastPage)
		b.WriteString(`</ul></nav>`)
	}
	b.WriteString(`<div class="structItemContainer-group js-threadList">`)
	for _, it := range items {
		fmt.Fprintf(&b, `<div class="structItem structItem--thread" data-author="%s">`, it.author)
		b.WriteString(`<div class="structItem-cell structItem-cell--main"><div class="structItem-title">`)
		fmt.Fprintf(&b, `<a href="%s" data-tp-primary="on">%s</a>`, it.href, it.title)
		b.WriteString(`</div>`)
		if len(it.jump) > 0 {
			b.WriteString(`<span class="structItem-pageJump">`)
			for _, j := range it.jump {
				fmt.Fprintf(&b, `<a href="#">%s</a>`, j)
			}
			b.WriteString(`</span>`)
		}
		b.WriteString(`</div></div>`)
	}
	b.WriteString(`</div></div></body></html>`)
	return b.String()
}

// postItem describes one post article of a fixture thread page.
type postItem struct {
	id       string // data-content value, e.g. "post-10"
	author   string
	datetime string
	body     string // inner HTML of div.bbWrapper
}

func articleHTML(class string, p postItem) string {
	return fmt.Sprintf(`<article class="%s" data-author="%s" data-content="%s">
<header class="message-attribution"><a href="#"><time class="u-dt" datetime="%s">date</time></a></header>
<div class="message-content"><div class="bbWrapper">%s</div></div>
</article>`, class, p.author, p.id, p.datetime, p.body)
}

// threadHTML renders a XenForo-like thread page. first may be nil for
// pages after page 1; withReplies=false omits the reply container.
func threadHTML(threadID string, first *postItem, withReplies bool, replies ...postItem) string {
	var b strings.Builder
	b.WriteString(`<html><body>`)
	fmt.Fprintf(&b, `<div class="block block--messages"><div class="block-container lbContainer" data-lb-id="%s">`, threadID)
	if first != nil {
		b.WriteString(articleHTML("message message--article js-post js-inlineModContainer is-first", *first))
	}
	if withReplies {
		b.WriteString(`<div class="block-body js-replyNewMessageContainer">`)
		for _, r := range replies {
			b.WriteString(articleHTML("message message--post js-post js-inlineModContainer", r))
		}
		b.WriteString(`</div>`)
	}
	b.WriteString(`</div></div></body></html>`)
	return b.String()
}
