package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	// Test default version
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}

	// Test that version is at least "dev" or "unknown"
	version := GetVersion()
	if version != "dev" && version != "unknown" {
		// This is fine, version could be set at build time
		t.Logf("Version: %s", version)
	}
}

func TestConfigFields(t *testing.T) {
	// Create a config instance to test field access
	cfg := &Cfg{
		ForumBaseURL:      "https://forum.example.com",
		ForumUsername:     "watcher",
		ForumPassword:     "secret",
		UseRSS:            true,
		TelegramBotToken:  "token",
		TelegramChannelID: -100123,
		TelegramAdminID:   42,
		DBPath:            "./test.db",
		RulesFile:         "./rules.yml",
		WorkDir:           ".",
		Port:              "8080",
		CheckInterval:     300,
		MaxPostsPerCheck:  20,
		WorkerCount:       2,
		APIAccessKey:      "test-key",
		UserAgent:         "Test Agent",
		Timezone:          "UTC",
		Debug:             true,
		Version:           "test-version",
	}

	// Test direct field access
	if cfg.ForumBaseURL != "https://forum.example.com" {
		t.Errorf("Expected forum URL 'https://forum.example.com', got '%s'", cfg.ForumBaseURL)
	}
	if cfg.ForumUsername != "watcher" {
		t.Errorf("Expected forum username 'watcher', got '%s'", cfg.ForumUsername)
	}
	if !cfg.UseRSS {
		t.Error("Expected RSS discovery to be enabled")
	}
	if cfg.TelegramChannelID != -100123 {
		t.Errorf("Expected channel id -100123, got %d", cfg.TelegramChannelID)
	}
	if cfg.TelegramAdminID != 42 {
		t.Errorf("Expected admin id 42, got %d", cfg.TelegramAdminID)
	}
	if cfg.DBPath != "./test.db" {
		t.Errorf("Expected DB path './test.db', got '%s'", cfg.DBPath)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", cfg.Port)
	}
	if cfg.CheckInterval != 300 {
		t.Errorf("Expected check interval 300, got %d", cfg.CheckInterval)
	}
	if cfg.MaxPostsPerCheck != 20 {
		t.Errorf("Expected max posts 20, got %d", cfg.MaxPostsPerCheck)
	}
	if cfg.WorkerCount != 2 {
		t.Errorf("Expected worker count 2, got %d", cfg.WorkerCount)
	}
	if cfg.APIAccessKey != "test-key" {
		t.Errorf("Expected API key 'test-key', got '%s'", cfg.APIAccessKey)
	}
	if cfg.UserAgent != "Test Agent" {
		t.Errorf("Expected user agent 'Test Agent', got '%s'", cfg.UserAgent)
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("Expected timezone 'UTC', got '%s'", cfg.Timezone)
	}
	if !cfg.Debug {
		t.Error("Expected debug to be enabled")
	}
	if cfg.Version != "test-version" {
		t.Errorf("Expected version 'test-version', got '%s'", cfg.Version)
	}
}
