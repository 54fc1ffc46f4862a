package api

import (
	"time"

	"github.com/izumikawa/forum-watch/app/database"
	"github.com/izumikawa/forum-watch/app/tasks"
)

// LoginReporter exposes the forum session state for status endpoints.
type LoginReporter interface {
	LoggedIn() bool
}

type Handler struct {
	postRepo     database.PostRepository
	scheduler    tasks.TaskSchedulerInterface
	session      LoginReporter
	newCheckTask func() tasks.TaskInterface
	startedAt    time.Time
}
