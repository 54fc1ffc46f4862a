package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/izumikawa/forum-watch/app/database"
	"github.com/izumikawa/forum-watch/app/forum"
	"github.com/izumikawa/forum-watch/app/post"
)

const (
	// keepProcessedPosts bounds the dedup table.
	keepProcessedPosts = 1000

	// sendDelay spaces out channel messages to stay under Telegram rate
	// limits.
	sendDelay = 2 * time.Second
)

type CheckPostsTask struct {
	Task
	lister   PostLister
	session  SessionManager
	notifier Notifier
	postRepo database.PostRepository
	filterer *post.Filterer
	rules    *post.Rules
	maxPosts int
}

func NewCheckPostsTask(lister PostLister, session SessionManager, notifier Notifier,
	postRepo database.PostRepository, filterer *post.Filterer, rules *post.Rules, maxPosts int) *CheckPostsTask {
	return &CheckPostsTask{
		Task:     NewTask(TaskTypeCheckPosts, "check_posts"),
		lister:   lister,
		session:  session,
		notifier: notifier,
		postRepo: postRepo,
		filterer: filterer,
		rules:    rules,
		maxPosts: maxPosts,
	}
}

func (t *CheckPostsTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if err := t.ensureSession(ctx); err != nil {
		return err
	}

	posts, err := t.lister.LatestPosts(ctx, t.maxPosts)
	if err != nil {
		return fmt.Errorf("failed to fetch latest posts: %w", err)
	}

	skippedCount := 0
	filteredCount := 0
	sentCount := 0

	for _, p := range posts {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		processed, err := t.postRepo.IsProcessed(p.ID)
		if err != nil {
			return fmt.Errorf("failed to check processed post: %w", err)
		}
		if processed {
			skippedCount++
			continue
		}

		if dropped, reason := t.filterer.Run(ctx, p, t.rules); dropped {
			slog.Debug("Post filtered", "post", p.ID, "title", p.Title, "reason", reason)
			if err := t.markProcessed(p); err != nil {
				return err
			}
			filteredCount++
			continue
		}

		if sentCount > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(sendDelay):
			}
		}

		if err := t.notifier.SendPost(ctx, p); err != nil {
			return fmt.Errorf("failed to send post %d: %w", p.ID, err)
		}

		if err := t.markProcessed(p); err != nil {
			return err
		}
		sentCount++
	}

	if deleted, err := t.postRepo.Prune(keepProcessedPosts); err != nil {
		slog.Warn("Failed to prune processed posts", "error", err)
	} else if deleted > 0 {
		slog.Debug("Pruned processed posts", "deleted", deleted)
	}

	slog.Info("Task completed",
		"type", "CheckPosts",
		"duration", t.GetDuration(),
		"total", len(posts),
		"skipped", skippedCount,
		"filtered", filteredCount,
		"sent", sentCount)

	return nil
}

// ensureSession re-logs-in when the saved session has expired. A captcha
// challenge cannot be solved here, so the admin is notified and the task
// fails.
func (t *CheckPostsTask) ensureSession(ctx context.Context) error {
	if t.session == nil || t.session.CheckLoginStatus(ctx) {
		return nil
	}

	slog.Info("Session expired, logging in again")

	err := t.session.Login(ctx)
	if err == nil {
		return nil
	}

	var captchaErr *forum.CaptchaError
	if errors.As(err, &captchaErr) {
		if notifyErr := t.notifier.SendAdminMessage(ctx, "论坛登录需要验证码，请手动处理。"); notifyErr != nil {
			slog.Warn("Failed to notify admin about captcha", "error", notifyErr)
		}
	}

	return fmt.Errorf("failed to log in: %w", err)
}

func (t *CheckPostsTask) markProcessed(p *post.Post) error {
	err := t.postRepo.MarkProcessed(database.ProcessedPost{
		ID:     p.ID,
		Title:  p.Title,
		URL:    p.URL,
		Author: p.Author,
	})
	if err != nil {
		return fmt.Errorf("failed to mark post %d processed: %w", p.ID, err)
	}
	return nil
}
