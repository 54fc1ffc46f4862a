package forum

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"github.com/izumikawa/forum-watch/app/markup"
	"github.com/izumikawa/forum-watch/app/post"
)

// LatestPosts scrapes the board's "new threads" view. Only the identity
// fields are read here; the returned posts load their details lazily through
// this client.
func (c *Client) LatestPosts(ctx context.Context, limit int) ([]*post.Post, error) {
	if !c.loggedIn {
		return nil, ErrLoginRequired
	}

	resp, body, err := c.get(ctx, c.baseURL+"/forum.php?mod=guide&view=newthread")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch thread list: %w", err)
	}

	if strings.Contains(resp.Request.URL.String(), "mod=logging") {
		c.ClearSession()
		return nil, ErrLoginRequired
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse thread list: %w", err)
	}

	var posts []*post.Post
	doc.Find("div#forumnew").Next().Find("tbody").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if limit > 0 && len(posts) >= limit {
			return false
		}
		if p := c.parseThreadRow(row); p != nil {
			posts = append(posts, p)
		}
		return true
	})

	if len(posts) == 0 && bytes.Contains(body, []byte("请先登录")) {
		c.ClearSession()
		return nil, ErrLoginRequired
	}

	return posts, nil
}

func (c *Client) parseThreadRow(row *goquery.Selection) *post.Post {
	link := row.Find("th.common a").First()
	title := strings.TrimSpace(link.Text())
	href := strings.TrimSpace(link.AttrOr("href", ""))
	if title == "" || href == "" {
		slog.Warn("Skipping thread row without title or link")
		return nil
	}

	threadURL := markup.ResolveURL(c.baseURL, href)
	id, err := post.ParseThreadID(threadURL)
	if err != nil {
		slog.Warn("Skipping thread with unparsable id", "url", threadURL, "error", err)
		return nil
	}

	author := strings.TrimSpace(row.Find("td.by cite a").First().Text())

	return post.New(id, title, threadURL, author, c)
}

// PostDetails loads one thread page and extracts the first post. Implements
// post.DetailsLoader.
func (c *Client) PostDetails(ctx context.Context, postURL string) (*post.Details, error) {
	slog.Info("Loading post details", "url", postURL)

	resp, body, err := c.get(ctx, postURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch post page: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d for post page", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse post page: %w", err)
	}

	publishedAt := time.Now()
	var root *markup.Node

	// The first post div's id embeds the post id, which keys both the
	// publish-time element and the message cell.
	postDiv := doc.Find(`#postlist div[id^="post_"]`).First()
	if postDiv.Length() > 0 {
		postID := strings.TrimPrefix(postDiv.AttrOr("id", ""), "post_")

		if title, ok := postDiv.Find("em#authorposton" + postID + " span").Attr("title"); ok {
			publishedAt = c.parsePublishTime(title)
		}

		msg := postDiv.Find("td#postmessage_" + postID).First()
		if len(msg.Nodes) > 0 {
			root = markup.FromHTML(msg.Nodes[0])
		}
	}

	if root == nil {
		slog.Warn("Post body node not found, falling back to readability", "url", postURL)
		root = c.readableRoot(body, postURL)
	}

	result := c.extractor.Run(root)

	return &post.Details{
		Content:     result.Text,
		PublishedAt: publishedAt,
		Images:      result.Images,
		Tags:        result.Tags,
	}, nil
}

func (c *Client) parsePublishTime(value string) time.Time {
	t, err := time.ParseInLocation("2006-01-02 15:04:05", strings.TrimSpace(value), time.Local)
	if err != nil {
		slog.Warn("Failed to parse publish time", "value", value)
		return time.Now()
	}
	return t
}

// readableRoot runs readability over the whole page when the post body cannot
// be located by the id convention (board skin change). The extractor still
// only ever sees a single content region.
func (c *Client) readableRoot(body []byte, pageURL string) *markup.Node {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil || article.Content == "" {
		slog.Warn("Readability fallback failed", "url", pageURL, "error", err)
		return nil
	}

	doc, err := html.Parse(strings.NewReader(article.Content))
	if err != nil {
		return nil
	}

	var findBody func(*html.Node) *html.Node
	findBody = func(n *html.Node) *html.Node {
		if n.Type == html.ElementNode && n.Data == "body" {
			return n
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			if found := findBody(child); found != nil {
				return found
			}
		}
		return nil
	}

	return markup.FromHTML(findBody(doc))
}
