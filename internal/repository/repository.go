package repository

import "github.com/nao1215/forumcrawl/internal/model"

// Repository holds the threads and posts collected for one forum.
// It is not safe for concurrent use; the crawl orchestrator is its only
// writer and merges worker results between chunks.
type Repository struct {
	forum   model.Forum
	threads []model.Thread
	posts   []model.Post
}

// New creates an empty repository for forum.
func New(forum model.Forum) *Repository {
	return &Repository{
		forum:   forum,
		threads: make([]model.Thread, 0),
		posts:   make([]model.Post, 0),
	}
}

// Forum returns the forum the repository belongs to.
func (r *Repository) Forum() model.Forum {
	return r.forum
}

// AddThreads appends threads. Duplicates are kept until export.
func (r *Repository) AddThreads(threads []model.Thread) {
	r.threads = append(r.threads, threads...)
}

// AddPosts appends posts. Duplicates are kept until export.
func (r *Repository) AddPosts(posts []model.Post) {
	r.posts = append(r.posts, posts...)
}

// ExportThreads returns the threads deduplicated by id.
// The first occurrence of an id wins and insertion order is kept.
func (r *Repository) ExportThreads() []model.Thread {
	seen := make(map[int64]struct{}, len(r.threads))
	out := make([]model.Thread, 0, len(r.threads))
	for _, t := range r.threads {
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	return out
}

// ExportPosts returns the posts deduplicated by id.
// The first occurrence of an id wins and insertion order is kept.
func (r *Repository) ExportPosts() []model.Post {
	seen := make(map[int64]struct{}, len(r.posts))
	out := make([]model.Post, 0, len(r.posts))
	for _, p := range r.posts {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}
