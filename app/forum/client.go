package forum

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/izumikawa/forum-watch/app/markup"
)

// ErrLoginRequired signals that the session is missing or expired and the
// caller should log in again before retrying.
var ErrLoginRequired = errors.New("forum login required")

// CaptchaError signals that the forum demanded a captcha during login, which
// cannot be solved automatically.
type CaptchaError struct {
	Image []byte
}

func (e *CaptchaError) Error() string {
	return "forum login requires a captcha"
}

// Client talks to a Discuz-style forum: login with persisted cookie session,
// thread-list scraping, and post-details loading through the markup extractor.
type Client struct {
	baseURL     string
	base        *url.URL
	username    string
	password    string
	userAgent   string
	httpClient  *http.Client
	jar         *cookiejar.Jar
	sessionFile string
	loggedIn    bool
	extractor   *markup.Extractor
}

func NewClient(baseURL, username, password, workDir, userAgent string) (*Client, error) {
	baseURL = strings.TrimRight(baseURL, "/")

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid forum base URL: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	c := &Client{
		baseURL:     baseURL,
		base:        base,
		username:    username,
		password:    password,
		userAgent:   userAgent,
		httpClient:  &http.Client{Jar: jar, Timeout: 30 * time.Second},
		jar:         jar,
		sessionFile: filepath.Join(workDir, "forum_session_"+username+".json"),
		extractor:   markup.NewExtractor(baseURL),
	}

	c.loadSession()

	return c, nil
}

// Login authenticates against the forum. An already valid session is reused
// without hitting the login form.
func (c *Client) Login(ctx context.Context) error {
	if c.loggedIn && c.CheckLoginStatus(ctx) {
		slog.Debug("Already logged in, reusing session", "user", c.username)
		return nil
	}

	_, body, err := c.get(ctx, c.baseURL+"/member.php?mod=logging&action=login")
	if err != nil {
		return fmt.Errorf("failed to fetch login page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to parse login page: %w", err)
	}

	form := doc.Find(`form[name="login"]`).First()
	if form.Length() == 0 {
		return fmt.Errorf("login form not found on login page")
	}

	// The form id carries the per-request login hash as its last segment.
	formID := form.AttrOr("id", "")
	parts := strings.Split(formID, "_")
	loginhash := parts[len(parts)-1]

	formhash, ok := form.Find(`input[name="formhash"]`).Attr("value")
	if !ok {
		return fmt.Errorf("formhash not found on login page")
	}

	values := url.Values{
		"duceapp":    {"yes"},
		"formhash":   {formhash},
		"referer":    {c.baseURL + "/"},
		"lssubmit":   {"yes"},
		"loginfield": {"auto"},
		"username":   {c.username},
		"password":   {c.password},
		"questionid": {"0"},
		"answer":     {""},
		"cookietime": {"2592000"},
		"smscode":    {""},
	}

	loginURL := fmt.Sprintf("%s/member.php?mod=logging&action=login&loginsubmit=yes&loginhash=%s&inajax=1",
		c.baseURL, loginhash)

	text, err := c.postForm(ctx, loginURL, values)
	if err != nil {
		return fmt.Errorf("failed to submit login: %w", err)
	}

	if strings.Contains(text, "reload") && strings.Contains(text, c.baseURL) {
		c.loggedIn = true
		if err := c.saveSession(); err != nil {
			slog.Warn("Failed to persist session", "error", err)
		}
		slog.Info("Forum login succeeded", "user", c.username)
		return nil
	}

	if strings.Contains(text, "seccode") {
		return &CaptchaError{}
	}

	return fmt.Errorf("forum login rejected for user %s", c.username)
}

// CheckLoginStatus verifies the session is still accepted by the forum. An
// invalid session flips the client back to the logged-out state.
func (c *Client) CheckLoginStatus(ctx context.Context) bool {
	resp, _, err := c.get(ctx, c.baseURL)
	if err != nil {
		slog.Error("Failed to check login status", "error", err)
		return false
	}

	valid := c.loggedIn && !strings.Contains(resp.Request.URL.String(), "member.php?mod=logging")
	if !valid {
		c.loggedIn = false
	}
	return valid
}

// LoggedIn reports the client's last known session state without a request.
func (c *Client) LoggedIn() bool {
	return c.loggedIn
}

func (c *Client) get(ctx context.Context, rawURL string) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	body, err := decodeBody(resp.Header.Get("Content-Type"), raw)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	return resp, body, nil
}

func (c *Client) postForm(ctx context.Context, rawURL string, values url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(values.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	body, err := decodeBody(resp.Header.Get("Content-Type"), raw)
	if err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}

	return string(body), nil
}
