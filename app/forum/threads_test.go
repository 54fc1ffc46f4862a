package forum

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const threadListPage = `<html><body>
<div id="forumnew"></div>
<table>
  <tbody>
    <tr>
      <th class="common"><a href="t123456-1-1">New Game Thread</a></th>
      <td class="by"><cite><a>alice</a></cite></td>
    </tr>
  </tbody>
  <tbody>
    <tr>
      <th class="common"><a href="t123457-1-1">Another Thread</a></th>
      <td class="by"><cite><a>bob</a></cite></td>
    </tr>
  </tbody>
</table>
</body></html>`

const postPage = `<html><body>
<div id="postlist">
  <div id="post_999">
    <em id="authorposton999">发表于 <span title="2025-06-01 12:30:00">昨天</span></em>
    <table><tr><td id="postmessage_999">hello <b>world</b><img file="/img/x.png" src="/thumb/x.png"></td></tr></table>
  </div>
</div>
</body></html>`

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	c, err := NewClient(serverURL, "user", "pass", t.TempDir(), "test-agent")
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return c
}

func TestLatestPosts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("mod") == "guide" {
			w.Write([]byte(threadListPage))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	c.loggedIn = true

	posts, err := c.LatestPosts(context.Background(), 10)
	if err != nil {
		t.Fatalf("LatestPosts failed: %v", err)
	}

	if len(posts) != 2 {
		t.Fatalf("Expected 2 posts, got %d", len(posts))
	}
	if posts[0].ID != 123456 || posts[0].Title != "New Game Thread" || posts[0].Author != "alice" {
		t.Errorf("Unexpected first post: %+v", posts[0])
	}
	if posts[0].URL != server.URL+"/t123456-1-1" {
		t.Errorf("Thread URL not resolved against base, got %q", posts[0].URL)
	}
	if posts[1].ID != 123457 {
		t.Errorf("Unexpected second post id: %d", posts[1].ID)
	}
	if posts[0].Loaded() {
		t.Errorf("Listed posts must not be loaded yet")
	}
}

func TestLatestPosts_Limit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(threadListPage))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	c.loggedIn = true

	posts, err := c.LatestPosts(context.Background(), 1)
	if err != nil {
		t.Fatalf("LatestPosts failed: %v", err)
	}
	if len(posts) != 1 {
		t.Errorf("Expected limit to cap posts at 1, got %d", len(posts))
	}
}

func TestLatestPosts_RequiresLogin(t *testing.T) {
	c := newTestClient(t, "http://forum.invalid")

	_, err := c.LatestPosts(context.Background(), 10)
	if !errors.Is(err, ErrLoginRequired) {
		t.Errorf("Expected ErrLoginRequired for logged-out client, got %v", err)
	}
}

func TestLatestPosts_DetectsExpiredSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("mod") == "guide" {
			http.Redirect(w, r, "/member.php?mod=logging&action=login", http.StatusFound)
			return
		}
		w.Write([]byte("login page"))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)
	c.loggedIn = true

	_, err := c.LatestPosts(context.Background(), 10)
	if !errors.Is(err, ErrLoginRequired) {
		t.Errorf("Expected ErrLoginRequired on redirect to login, got %v", err)
	}
	if c.LoggedIn() {
		t.Errorf("Client should drop its session after the redirect")
	}
}

func TestPostDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(postPage))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL)

	details, err := c.PostDetails(context.Background(), server.URL+"/t123456-1-1")
	if err != nil {
		t.Fatalf("PostDetails failed: %v", err)
	}

	if details.Content != "hello **world**" {
		t.Errorf("Unexpected content: %q", details.Content)
	}

	expected := time.Date(2025, 6, 1, 12, 30, 0, 0, time.Local)
	if !details.PublishedAt.Equal(expected) {
		t.Errorf("Expected publish time %v, got %v", expected, details.PublishedAt)
	}

	if len(details.Images) != 1 || details.Images[0] != server.URL+"/img/x.png" {
		t.Errorf("Expected resolved full-resolution image, got %v", details.Images)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	workDir := t.TempDir()

	c1, err := NewClient("https://forum.test", "user", "pass", workDir, "test-agent")
	if err != nil {
		t.Fatal(err)
	}
	c1.jar.SetCookies(c1.base, []*http.Cookie{{Name: "auth", Value: "secret", Path: "/"}})
	c1.loggedIn = true
	if err := c1.saveSession(); err != nil {
		t.Fatalf("saveSession failed: %v", err)
	}

	c2, err := NewClient("https://forum.test", "user", "pass", workDir, "test-agent")
	if err != nil {
		t.Fatal(err)
	}
	if !c2.LoggedIn() {
		t.Errorf("Restored client should report the persisted login state")
	}
	cookies := c2.jar.Cookies(c2.base)
	if len(cookies) != 1 || cookies[0].Name != "auth" || cookies[0].Value != "secret" {
		t.Errorf("Cookies not restored, got %v", cookies)
	}

	c2.ClearSession()
	c3, err := NewClient("https://forum.test", "user", "pass", workDir, "test-agent")
	if err != nil {
		t.Fatal(err)
	}
	if c3.LoggedIn() {
		t.Errorf("Cleared session should not be restored")
	}
}

func TestDecodeBody_GBKMeta(t *testing.T) {
	// "测试" encoded as GBK.
	gbk := []byte{0xb2, 0xe2, 0xca, 0xd4}
	page := append([]byte(`<html><head><meta charset=gbk></head><body>`), gbk...)

	decoded, err := decodeBody("text/html", page)
	if err != nil {
		t.Fatalf("decodeBody failed: %v", err)
	}
	if !strings.Contains(string(decoded), "测试") {
		t.Errorf("Expected GBK body decoded to UTF-8, got %q", string(decoded))
	}
}

func TestDecodeBody_UTF8Untouched(t *testing.T) {
	page := []byte(`<html><body>测试</body></html>`)

	decoded, err := decodeBody("text/html; charset=utf-8", page)
	if err != nil {
		t.Fatalf("decodeBody failed: %v", err)
	}
	if string(decoded) != string(page) {
		t.Errorf("UTF-8 body should pass through untouched")
	}
}
