package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port string

	// Corpus roots
	OrgDir    string
	ExtraDirs []string

	// Auth: empty disables bearer auth on /api routes
	APIKey string

	// Parsing
	StrictParse  bool
	TodoKeywords []string
	DoneKeywords []string

	// Build
	WorkerCount  int
	MaxFileBytes int64

	// Query defaults
	DefaultSearchLimit int
	DefaultSnippetSize int

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		OrgDir:    os.Getenv("ORG_DIR"),
		ExtraDirs: envList("EXTRA_DIRS", nil),

		APIKey: os.Getenv("ORGDEX_API_KEY"),

		StrictParse:  envBool("STRICT_PARSE", false),
		TodoKeywords: envList("TODO_KEYWORDS", []string{"TODO"}),
		DoneKeywords: envList("DONE_KEYWORDS", []string{"DONE"}),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxFileBytes: envInt64("MAX_FILE_BYTES", 10485760), // 10MB

		DefaultSearchLimit: envInt("DEFAULT_SEARCH_LIMIT", 10),
		DefaultSnippetSize: envInt("DEFAULT_SNIPPET_SIZE", 100),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = 10485760
	}
	if cfg.DefaultSearchLimit <= 0 {
		cfg.DefaultSearchLimit = 10
	}
	if cfg.DefaultSnippetSize <= 0 {
		cfg.DefaultSnippetSize = 100
	}

	return cfg
}

func (c Config) Validate() error {
	if c.OrgDir == "" {
		return fmt.Errorf("ORG_DIR is required")
	}
	return nil
}

// Roots returns ORG_DIR followed by the extra directories.
func (c Config) Roots() []string {
	return append([]string{c.OrgDir}, c.ExtraDirs...)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// envList parses a comma- or colon-separated list, dropping empty entries.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	sep := ","
	if !strings.Contains(v, ",") && strings.Contains(v, ":") {
		sep = ":"
	}
	var out []string
	for _, part := range strings.Split(v, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
