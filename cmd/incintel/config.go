package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds all incintel server configuration.
// Priority: env vars > settings.json > defaults.
type Config struct {
	ListenAddr    string `json:"listen_addr"`
	DBPath        string `json:"db_path"`
	LogLevel      string `json:"log_level"`
	RAGEndpoint   string `json:"rag_endpoint"`
	IndexDir      string `json:"index_dir"`
	IndexSchedule string `json:"index_schedule"`
	ThinkDelayMs  int    `json:"think_delay_ms"`
}

func defaultConfig() Config {
	return Config{
		ListenAddr:    ":4200",
		DBPath:        filepath.Join(incintelDir(), "incintel.db"),
		LogLevel:      "info",
		RAGEndpoint:   "http://localhost:8001/ask",
		IndexDir:      filepath.Join(incintelDir(), "index"),
		IndexSchedule: "* * * * *",
		ThinkDelayMs:  600,
	}
}

func incintelDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".incintel"
	}
	return filepath.Join(home, ".incintel")
}

func settingsPath() string {
	return filepath.Join(incintelDir(), "settings.json")
}

func loadConfig() Config {
	cfg := defaultConfig()

	// Layer 2: settings.json (ignore if missing).
	if data, err := os.ReadFile(settingsPath()); err == nil {
		_ = json.Unmarshal(data, &cfg)
	}

	// Layer 3: env vars override.
	if v := os.Getenv("INCINTEL_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("INCINTEL_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("INCINTEL_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("INCINTEL_RAG_ENDPOINT"); v != "" {
		cfg.RAGEndpoint = v
	}
	if v := os.Getenv("INCINTEL_INDEX_DIR"); v != "" {
		cfg.IndexDir = v
	}
	if v := os.Getenv("INCINTEL_INDEX_SCHEDULE"); v != "" {
		cfg.IndexSchedule = v
	}
	if v := os.Getenv("INCINTEL_THINK_DELAY_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ThinkDelayMs = n
		}
	}

	return cfg
}
