package forum

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"
)

type sessionState struct {
	Cookies  []sessionCookie `json:"cookies"`
	LoggedIn bool            `json:"logged_in"`
	SavedAt  time.Time       `json:"saved_at"`
}

type sessionCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// saveSession persists the current cookies and login state so a restart does
// not have to log in again.
func (c *Client) saveSession() error {
	state := sessionState{
		LoggedIn: c.loggedIn,
		SavedAt:  time.Now(),
	}
	for _, cookie := range c.jar.Cookies(c.base) {
		state.Cookies = append(state.Cookies, sessionCookie{Name: cookie.Name, Value: cookie.Value})
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := os.WriteFile(c.sessionFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	slog.Info("Session saved", "file", c.sessionFile)
	return nil
}

func (c *Client) loadSession() {
	data, err := os.ReadFile(c.sessionFile)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Debug("No session file, starting fresh", "file", c.sessionFile)
		} else {
			slog.Warn("Failed to read session file", "file", c.sessionFile, "error", err)
		}
		return
	}

	var state sessionState
	if err := json.Unmarshal(data, &state); err != nil {
		slog.Warn("Failed to parse session file", "file", c.sessionFile, "error", err)
		return
	}

	cookies := make([]*http.Cookie, 0, len(state.Cookies))
	for _, sc := range state.Cookies {
		cookies = append(cookies, &http.Cookie{Name: sc.Name, Value: sc.Value, Path: "/"})
	}
	c.jar.SetCookies(c.base, cookies)
	c.loggedIn = state.LoggedIn

	slog.Info("Session loaded", "file", c.sessionFile, "logged_in", c.loggedIn)
}

// ClearSession drops the persisted session after the forum stops accepting it.
func (c *Client) ClearSession() {
	if err := os.Remove(c.sessionFile); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to remove session file", "file", c.sessionFile, "error", err)
	}
	c.loggedIn = false
}
