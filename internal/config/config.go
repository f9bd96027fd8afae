package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/joho/godotenv"
)

const DefaultAPIURL = "http://localhost:1337/api"

type Config struct {
	APIURL                string `json:"api_url"`
	DBPath                string `json:"db_path"`
	PageSize              int    `json:"page_size"`
	SortBy                string `json:"sort_by"`
	WebPort               int    `json:"web_port"`
	LogLevel              string `json:"log_level"`
	LogPath               string `json:"log_path"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"`
}

func Default() Config {
	return Config{
		APIURL:   DefaultAPIURL,
		PageSize: model.DefaultPageSize,
		SortBy:   string(model.SortNewest),
		WebPort:  8080,
		LogLevel: "info",
	}
}

func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "lazytodo", "config.json"), nil
}

func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

func Load(path string) (Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config.withDefaults(path), nil
		}
		return Config{}, err
	}

	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return config.withDefaults(path), nil
}

func Save(path string, cfg Config) error {
	if err := EnsureDir(path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// ApplyEnv loads a .env file from the working directory when present and
// lets LAZYTODO_* variables override the file values.
func ApplyEnv(cfg *Config) {
	_ = godotenv.Load()

	if v := strings.TrimSpace(os.Getenv("LAZYTODO_API_URL")); v != "" {
		cfg.APIURL = v
	}
	if v := strings.TrimSpace(os.Getenv("LAZYTODO_DB")); v != "" {
		cfg.DBPath = v
	}
	if v := strings.TrimSpace(os.Getenv("LAZYTODO_LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("LAZYTODO_WEB_PORT")); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			cfg.WebPort = port
		}
	}
	cfg.APIURL = strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
}

func (c Config) withDefaults(path string) Config {
	dir := filepath.Dir(path)
	if c.DBPath == "" {
		c.DBPath = filepath.Join(dir, "lazytodo.db")
	}
	if c.LogPath == "" {
		c.LogPath = filepath.Join(dir, "lazytodo.log")
	}
	if !model.ValidPageSize(c.PageSize) {
		c.PageSize = model.DefaultPageSize
	}
	if _, err := model.ParseSortOrder(c.SortBy); err != nil {
		c.SortBy = string(model.SortNewest)
	}
	if c.WebPort == 0 {
		c.WebPort = 8080
	}
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	return c
}

// ViewState is the list screen's initial state from the configured defaults.
func (c Config) ViewState() model.ViewState {
	state := model.DefaultViewState()
	if model.ValidPageSize(c.PageSize) {
		state.PageSize = c.PageSize
	}
	if sortOrder, err := model.ParseSortOrder(c.SortBy); err == nil {
		state.Sort = sortOrder
	}
	return state
}
