// Package storage persists uploaded document files on the local filesystem.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// allowedExtensions is the upload allowlist. Everything else is rejected
// before a byte hits disk.
var allowedExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".xls":  true,
	".xlsx": true,
}

// Store defines the upload storage operations.
type Store interface {
	// Save validates and writes an upload, returning the stored path.
	Save(originalName string, content []byte) (string, error)

	// Remove deletes a stored file. Missing files are not an error.
	Remove(path string) error
}

// UploadStore implements Store on the local filesystem. All files land under
// a single base directory; paths outside it are rejected.
type UploadStore struct {
	baseDir string
	maxSize int64
	logger  *zap.Logger
}

// NewUploadStore creates an upload store rooted at baseDir with the given
// size cap in bytes.
func NewUploadStore(baseDir string, maxSize int64, logger *zap.Logger) *UploadStore {
	return &UploadStore{
		baseDir: baseDir,
		maxSize: maxSize,
		logger:  logger,
	}
}

// Save validates the upload and writes it under a unique generated name.
// Returns the path of the stored file.
func (s *UploadStore) Save(originalName string, content []byte) (string, error) {
	if int64(len(content)) > s.maxSize {
		return "", fmt.Errorf("file exceeds the %d byte limit", s.maxSize)
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("file type %q is not allowed", ext)
	}

	storedName := fmt.Sprintf("document-%d-%s%s", time.Now().UnixMilli(), uuid.NewString()[:8], ext)
	fullPath := filepath.Join(s.baseDir, storedName)
	if err := s.validatePath(fullPath); err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		s.logger.Error("Failed to create upload directory",
			zap.String("path", s.baseDir), zap.Error(err))
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		s.logger.Error("Failed to write upload",
			zap.String("path", fullPath), zap.Error(err))
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	s.logger.Debug("Upload stored",
		zap.String("path", fullPath), zap.Int("size", len(content)))
	return fullPath, nil
}

// Remove deletes a stored file after confirming it lives under the base
// directory.
func (s *UploadStore) Remove(path string) error {
	if err := s.validatePath(path); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

// validatePath checks that the path resolves inside the base directory.
func (s *UploadStore) validatePath(fullPath string) error {
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) && absPath != absBase {
		return fmt.Errorf("path escapes base directory: %s", fullPath)
	}
	return nil
}
