package post

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// LoadFailedText replaces the content of a post whose details could not be
// fetched.
const LoadFailedText = "内容加载失败"

// Details holds the heavy fields of a post, fetched from the thread page.
type Details struct {
	Content     string
	PublishedAt time.Time
	Images      []string
	Tags        []string
}

// DetailsLoader fetches the heavy fields of one post by its URL.
type DetailsLoader interface {
	PostDetails(ctx context.Context, url string) (*Details, error)
}

// Post carries the identity fields from the thread list immediately. The
// detail fields are fetched once, on first use, and cached for the life of
// the process; a failed fetch caches fixed fallbacks instead of retrying.
// Post is not safe for concurrent use: callers that read an unloaded post
// from multiple goroutines must serialize access themselves.
type Post struct {
	ID     int
	Title  string
	URL    string
	Author string

	loader  DetailsLoader
	details *Details
	loaded  bool
}

func New(id int, title, url, author string, loader DetailsLoader) *Post {
	return &Post{
		ID:     id,
		Title:  title,
		URL:    url,
		Author: author,
		loader: loader,
	}
}

// EnsureLoaded populates the detail fields via exactly one loader call.
// After it returns, Loaded reports true regardless of outcome.
func (p *Post) EnsureLoaded(ctx context.Context) {
	if p.loaded || p.loader == nil {
		return
	}

	details, err := p.loader.PostDetails(ctx, p.URL)
	if err != nil || details == nil {
		slog.Warn("Failed to load post details", "post", p.ID, "url", p.URL, "error", err)
		p.details = &Details{
			Content:     LoadFailedText,
			PublishedAt: time.Now(),
			Images:      []string{},
			Tags:        []string{},
		}
		p.loaded = true
		return
	}

	p.details = details
	p.loaded = true
}

// Loaded reports whether the detail fields have been populated, successfully
// or with the permanent fallback.
func (p *Post) Loaded() bool {
	return p.loaded
}

func (p *Post) Content(ctx context.Context) string {
	p.EnsureLoaded(ctx)
	if p.details == nil {
		return ""
	}
	return p.details.Content
}

func (p *Post) PublishedAt(ctx context.Context) time.Time {
	p.EnsureLoaded(ctx)
	if p.details == nil {
		return time.Now()
	}
	return p.details.PublishedAt
}

func (p *Post) Images(ctx context.Context) []string {
	p.EnsureLoaded(ctx)
	if p.details == nil {
		return []string{}
	}
	return p.details.Images
}

func (p *Post) Tags(ctx context.Context) []string {
	p.EnsureLoaded(ctx)
	if p.details == nil {
		return []string{}
	}
	return p.details.Tags
}

// TelegramMessage renders the post in the channel message format: title,
// author and publish time, optional tag line, body, and a link back to the
// thread.
func (p *Post) TelegramMessage(ctx context.Context) string {
	var b strings.Builder

	b.WriteString("**" + p.Title + "**\n")
	b.WriteString(p.Author + " \\ " + p.PublishedAt(ctx).Format("2006-01-02 15:04") + "\n")

	if tags := p.Tags(ctx); len(tags) > 0 {
		b.WriteString("标签: " + strings.Join(tags, ", ") + "\n")
	}

	b.WriteString(p.Content(ctx) + "\n")
	b.WriteString("\n[查看原帖](" + p.URL + ")")

	return b.String()
}

// ParseThreadID pulls the numeric thread id out of a thread URL of the form
// .../t<id>-<page>-<n>: everything between the last "t" and the next dash.
func ParseThreadID(url string) (int, error) {
	i := strings.LastIndex(url, "t")
	if i < 0 || i+1 >= len(url) {
		return 0, strconv.ErrSyntax
	}
	rest := url[i+1:]
	if j := strings.Index(rest, "-"); j >= 0 {
		rest = rest[:j]
	}
	return strconv.Atoi(rest)
}
