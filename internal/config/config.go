package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/PabloViniegra/how-are-u/internal/constants"
)

type Config struct {
	API     APIConfig
	Preview PreviewConfig
	Web     WebConfig
	Log     LogConfig
}

type APIConfig struct {
	URL     string
	Key     string
	Timeout time.Duration // defaults to 2 minutes
}

type PreviewConfig struct {
	Dir  string // where preview thumbnails are written (defaults to a temp dir)
	Size int    // longest thumbnail edge in pixels, defaults to 512
}

type WebConfig struct {
	PublicURL      string   // public base URL used for share links (e.g., https://how-are-u.example.com)
	AllowedOrigins []string // extra CORS origins, localhost is always allowed
}

type LogConfig struct {
	Level  string
	Format string
}

// ShareURL returns the public link to the summary page of an analysis.
// Returns empty string if PublicURL is not set.
func (c *WebConfig) ShareURL(id string) string {
	if c.PublicURL == "" || id == "" {
		return ""
	}
	return strings.TrimSuffix(c.PublicURL, "/") + "/summary/" + id
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFirst returns the first non-empty value among keys.
func envFirst(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

// envList splits a comma separated variable, dropping empty entries.
func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func Load() *Config {
	defaultTimeout := int(constants.DefaultUploadTimeout / time.Second)

	return &Config{
		API: APIConfig{
			URL:     envFirst("API_URL", "VITE_API_URL"),
			Key:     envFirst("API_KEY", "VITE_API_KEY"),
			Timeout: time.Duration(envInt("API_TIMEOUT_SECONDS", defaultTimeout)) * time.Second,
		},
		Preview: PreviewConfig{
			Dir:  os.Getenv("PREVIEW_DIR"),
			Size: envInt("PREVIEW_SIZE", constants.DefaultPreviewSize),
		},
		Web: WebConfig{
			PublicURL:      os.Getenv("PUBLIC_URL"),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
		Log: LogConfig{
			Level:  os.Getenv("LOG_LEVEL"),
			Format: os.Getenv("LOG_FORMAT"),
		},
	}
}

// Validate checks the settings needed to talk to the analysis API.
func (c *Config) Validate() error {
	if c.API.URL == "" {
		return fmt.Errorf("API_URL environment variable is required")
	}
	if c.API.Key == "" {
		return fmt.Errorf("API_KEY environment variable is required")
	}
	return nil
}
