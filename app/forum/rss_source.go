package forum

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/izumikawa/forum-watch/app/post"
)

// RSSSource discovers new threads through the board's RSS view. It is cheaper
// than scraping the guide page and needs no session; post details are still
// loaded through the regular client.
type RSSSource struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	parser     *gofeed.Parser
	loader     post.DetailsLoader
}

func NewRSSSource(baseURL, userAgent string, loader post.DetailsLoader) *RSSSource {
	return &RSSSource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		parser:     gofeed.NewParser(),
		loader:     loader,
	}
}

// LatestPosts fetches and parses the board feed into lazy posts.
func (s *RSSSource) LatestPosts(ctx context.Context, limit int) ([]*post.Post, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/forum.php?mod=rss", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch board feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d for board feed", resp.StatusCode)
	}

	feed, err := s.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse board feed: %w", err)
	}

	var posts []*post.Post
	for _, item := range feed.Items {
		if limit > 0 && len(posts) >= limit {
			break
		}

		id, err := post.ParseThreadID(item.Link)
		if err != nil {
			slog.Debug("Skipping feed item with unparsable id", "link", item.Link)
			continue
		}

		author := ""
		if item.Author != nil {
			author = item.Author.Name
		}

		posts = append(posts, post.New(id, strings.TrimSpace(item.Title), item.Link, author, s.loader))
	}

	return posts, nil
}
