package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// GetSessionRoot returns the folder the session tools operate on. The whole
// system is rooted here: scanning, document indexing and file streaming never
// resolve a path outside it.
func GetSessionRoot() string {
	if customPath := os.Getenv("SESSION_ROOT"); customPath != "" {
		return customPath
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if can't get home dir
		return filepath.Join(".", "sessions")
	}

	return filepath.Join(homeDir, "TTRPG", "Sessions")
}

// GetServerPort returns the HTTP port for serve mode.
func GetServerPort() int {
	if portStr := os.Getenv("SERVER_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			return port
		}
	}
	return 8080
}

// GetCORSOrigins returns the origins the player UI may call the API from.
// The defaults cover the Vite dev and preview servers the UI runs under;
// override with CORS_ORIGINS (comma-separated) for anything else.
func GetCORSOrigins() []string {
	origins := os.Getenv("CORS_ORIGINS")
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:4173"
	}
	return strings.Split(origins, ",")
}

// GetLogPath returns the rotating log file location, empty for console-only.
func GetLogPath() string {
	return os.Getenv("LOG_PATH")
}

// GetLogLevel returns the configured log level, defaulting to info.
func GetLogLevel() string {
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		return level
	}
	return "info"
}

// Supported extensions per file kind. These are configuration constants of
// the folder convention, not a protocol detail.
var (
	MarkdownExtensions = map[string]bool{
		".md":       true,
		".markdown": true,
		".mdown":    true,
	}

	ImageExtensions = map[string]bool{
		".png":  true,
		".jpg":  true,
		".jpeg": true,
		".gif":  true,
		".webp": true,
		".svg":  true,
		".bmp":  true,
		".avif": true,
	}

	AudioExtensions = map[string]bool{
		".mp3":  true,
		".flac": true,
		".ogg":  true,
		".wav":  true,
		".m4a":  true,
		".aac":  true,
		".opus": true,
	}
)

// DurationLabels are the words the plan-duration hint extractor looks for
// near a minutes range. Locale-specific wording belongs here, not in the
// extractor; override with DURATION_LABELS (comma-separated).
func DurationLabels() []string {
	if labels := os.Getenv("DURATION_LABELS"); labels != "" {
		parts := strings.Split(labels, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return []string{"duration", "length", "expected", "time"}
}
