package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/izumikawa/forum-watch/app/api"
	"github.com/izumikawa/forum-watch/app/cfg"
	"github.com/izumikawa/forum-watch/app/database"
	"github.com/izumikawa/forum-watch/app/forum"
	"github.com/izumikawa/forum-watch/app/post"
	"github.com/izumikawa/forum-watch/app/tasks"
	"github.com/izumikawa/forum-watch/app/telegram"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting Forum Watch", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	postRepo := database.NewPostRepository(db)

	rules, err := post.LoadRules(appCfg.RulesFile)
	if err != nil {
		slog.Error("Failed to load watch rules", "file", appCfg.RulesFile, "error", err)
		os.Exit(1)
	}
	slog.Info("Watch rules loaded", "file", appCfg.RulesFile, "filters", len(rules.Filters))

	forumClient, err := forum.NewClient(appCfg.ForumBaseURL, appCfg.ForumUsername,
		appCfg.ForumPassword, appCfg.WorkDir, appCfg.UserAgent)
	if err != nil {
		slog.Error("Failed to create forum client", "error", err)
		os.Exit(1)
	}

	var lister tasks.PostLister = forumClient
	if appCfg.UseRSS {
		slog.Info("Using RSS feed for thread discovery")
		lister = forum.NewRSSSource(appCfg.ForumBaseURL, appCfg.UserAgent, forumClient)
	}

	notifier, err := telegram.NewClient(appCfg.TelegramBotToken, appCfg.TelegramChannelID, appCfg.TelegramAdminID)
	if err != nil {
		slog.Error("Failed to create telegram client", "error", err)
		os.Exit(1)
	}

	filterer := post.NewFilterer()

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount, "interval", appCfg.CheckInterval)
	scheduler := tasks.NewScheduler(lister, forumClient, notifier, postRepo, filterer, rules)
	scheduler.Start()
	defer scheduler.Stop()

	newCheckTask := func() tasks.TaskInterface {
		return tasks.NewCheckPostsTask(lister, forumClient, notifier, postRepo, filterer, rules, appCfg.MaxPostsPerCheck)
	}

	apiHandler := api.NewHandler(postRepo, scheduler, forumClient, newCheckTask)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	slog.Info("Forum Watch started")

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	slog.Info("Shutdown complete")
}
