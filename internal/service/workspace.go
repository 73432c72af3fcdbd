package service

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/bnema/shrink/internal/domain"
	"github.com/bnema/shrink/internal/infrastructure/logger"
)

// WorkspaceManager hands out per-job scratch directories under a fixed base
// and tears them down when the run ends.
type WorkspaceManager struct {
	baseDir string
}

func NewWorkspaceManager(baseDir string) *WorkspaceManager {
	return &WorkspaceManager{baseDir: baseDir}
}

// Open creates a uniquely named scratch directory. The base directory must
// already exist and be writable.
func (m *WorkspaceManager) Open() (string, error) {
	path := filepath.Join(m.baseDir, "job_"+uuid.NewString())
	if err := os.Mkdir(path, 0755); err != nil {
		return "", domain.NewError(domain.CodeFilesystem,
			fmt.Sprintf("could not create a working directory under %s", m.baseDir), err)
	}
	return path, nil
}

// Close deletes every regular file directly inside the workspace, then the
// directory itself if it is empty afterwards. Individual deletion failures
// are logged, never raised: partial cleanup must not abort the surrounding
// flow. Closing an already-removed workspace is a no-op.
func (m *WorkspaceManager) Close(path string) {
	if path == "" {
		return
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn.Printf("could not read workspace %s for cleanup: %v", path, err)
		}
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := filepath.Join(path, entry.Name())
		if err := os.Remove(name); err != nil {
			logger.Warn.Printf("could not remove workspace file %s: %v", name, err)
		}
	}

	remaining, err := os.ReadDir(path)
	if err != nil || len(remaining) > 0 {
		logger.Warn.Printf("workspace %s not empty after cleanup, leaving directory", path)
		return
	}
	if err := os.Remove(path); err != nil {
		logger.Warn.Printf("could not remove workspace directory %s: %v", path, err)
	}
}
