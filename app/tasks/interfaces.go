package tasks

import (
	"context"

	"github.com/izumikawa/forum-watch/app/post"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by the main application to manage background task processing.
// Example usage:
//
//	scheduler := NewScheduler(lister, session, notifier, postRepo, filterer, rules)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewCheckPostsTask(...))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// PostLister discovers the newest threads. Satisfied by both the thread list
// client and the RSS source.
type PostLister interface {
	LatestPosts(ctx context.Context, limit int) ([]*post.Post, error)
}

// SessionManager keeps the forum login alive between checks.
type SessionManager interface {
	CheckLoginStatus(ctx context.Context) bool
	Login(ctx context.Context) error
}

// Notifier delivers posts and operational messages.
type Notifier interface {
	SendPost(ctx context.Context, p *post.Post) error
	SendAdminMessage(ctx context.Context, text string) error
}
