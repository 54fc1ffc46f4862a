package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/izumikawa/forum-watch/app/database"
	"github.com/izumikawa/forum-watch/app/tasks"
)

func NewHandler(postRepo database.PostRepository, scheduler tasks.TaskSchedulerInterface,
	session LoginReporter, newCheckTask func() tasks.TaskInterface) *Handler {
	return &Handler{
		postRepo:     postRepo,
		scheduler:    scheduler,
		session:      session,
		newCheckTask: newCheckTask,
		startedAt:    time.Now(),
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"logged_in": h.session.LoggedIn(),
	}

	if count, err := h.postRepo.GetCount(); err == nil {
		health["processed_posts"] = count
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"uptime":    time.Since(h.startedAt).String(),
		"logged_in": h.session.LoggedIn(),
	}

	if count, err := h.postRepo.GetCount(); err == nil {
		stats["processed_posts"] = count
	}

	if lastID, err := h.postRepo.LastPostID(); err == nil {
		stats["last_post_id"] = lastID
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) APIListPosts(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = parsed
	}

	posts, err := h.postRepo.GetRecent(limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_recent", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	result := make([]map[string]interface{}, 0, len(posts))
	for _, p := range posts {
		result = append(result, map[string]interface{}{
			"id":      p.ID,
			"title":   p.Title,
			"url":     p.URL,
			"author":  p.Author,
			"sent_at": p.SentAt,
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"posts": result,
		"total": len(result),
	})
}

func (h *Handler) APITriggerCheck(c *gin.Context) {
	task := h.newCheckTask()

	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing check task", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue check task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Check task enqueued successfully",
		"task": gin.H{
			"id":   task.GetID(),
			"type": task.GetType(),
		},
	})
}
