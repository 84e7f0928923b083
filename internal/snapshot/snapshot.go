// Package snapshot writes listing page HTML to the local filesystem when
// selector discovery fails, so the selector chain can be debugged against
// the markup that defeated it.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config captures the parameters for the snapshot sink.
type Config struct {
	// BaseDir is the root directory where snapshots are stored.
	BaseDir string `mapstructure:"base_dir"`
}

// Sink writes debug HTML snapshots to the local filesystem.
type Sink struct {
	baseDir string
}

// New creates a filesystem-backed snapshot sink, verifying the base
// directory exists and is writable up front.
func New(cfg Config) (*Sink, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}

	info, err := os.Stat(cfg.BaseDir)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat base directory: %w", err)
		}
		if mkErr := os.MkdirAll(cfg.BaseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("create base directory: %w", mkErr)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("base directory path is not a directory")
	}

	testFile := filepath.Join(cfg.BaseDir, ".writable_test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("base directory is not writable: %w", err)
	}
	if err := os.Remove(testFile); err != nil {
		return nil, fmt.Errorf("clean up test file: %w", err)
	}

	return &Sink{baseDir: cfg.BaseDir}, nil
}

// Save writes one snapshot named after the city and timestamp, returning
// the written path.
func (s *Sink) Save(city string, capturedAt time.Time, body []byte) (string, error) {
	city = sanitizeName(city)
	name := fmt.Sprintf("%s-%s.html", city, capturedAt.UTC().Format("20060102T150405"))
	fullPath := filepath.Join(s.baseDir, name)

	if err := os.WriteFile(fullPath, body, 0o600); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return fullPath, nil
}

func sanitizeName(city string) string {
	city = strings.TrimSpace(strings.ToLower(city))
	if city == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range city {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
