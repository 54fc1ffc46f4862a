package database

import "time"

// ProcessedPost is one forum post that has already been delivered. The table
// exists so restarts never re-send a post.
type ProcessedPost struct {
	ID     int
	Title  string
	URL    string
	Author string
	SentAt time.Time
}
