package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/docpipe/internal/logfields"
)

// Manager owns one scratch directory for the lifetime of an operation.
type Manager struct {
	baseDir string
	dir     string
	logger  *slog.Logger
}

// NewManager creates a workspace manager rooted at baseDir (os.TempDir when empty).
func NewManager(baseDir string, logger *slog.Logger) *Manager {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{baseDir: baseDir, logger: logger}
}

// Create creates a timestamped workspace directory.
func (m *Manager) Create() error {
	if err := os.MkdirAll(m.baseDir, 0o750); err != nil {
		return fmt.Errorf("failed to create workspace base: %w", err)
	}
	dir, err := os.MkdirTemp(m.baseDir, "docpipe-"+time.Now().Format("20060102-150405")+"-*")
	if err != nil {
		return fmt.Errorf("failed to create workspace directory: %w", err)
	}
	m.dir = dir
	m.logger.Debug("Created workspace", logfields.Path(dir))
	return nil
}

// GetPath returns the path to the workspace directory
func (m *Manager) GetPath() string {
	return m.dir
}

// TempFile creates a new file inside the workspace. The caller closes it;
// Cleanup removes it.
func (m *Manager) TempFile(pattern string) (*os.File, error) {
	if m.dir == "" {
		return nil, fmt.Errorf("workspace not created")
	}
	f, err := os.CreateTemp(m.dir, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	return f, nil
}

// CreateSubdir creates a subdirectory within the workspace
func (m *Manager) CreateSubdir(name string) (string, error) {
	if m.dir == "" {
		return "", fmt.Errorf("workspace not created")
	}
	subdir := filepath.Join(m.dir, name)
	if err := os.MkdirAll(subdir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create subdirectory: %w", err)
	}
	return subdir, nil
}

// Cleanup removes the workspace directory and everything in it.
func (m *Manager) Cleanup() error {
	if m.dir == "" {
		return nil
	}
	if err := os.RemoveAll(m.dir); err != nil {
		return fmt.Errorf("failed to cleanup workspace: %w", err)
	}
	m.logger.Debug("Cleaned up workspace", logfields.Path(m.dir))
	m.dir = ""
	return nil
}
