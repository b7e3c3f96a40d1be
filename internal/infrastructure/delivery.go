package infrastructure

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// FileDelivery writes finished MP4 buffers into the completed-downloads
// directory. It is the service-side counterpart of the browser save action:
// existing files are never overwritten, a numeric suffix is added instead.
type FileDelivery struct {
	completedDir string
	logger       *zap.Logger
}

// NewFileDelivery creates the delivery target, ensuring the directory exists
func NewFileDelivery(completedDir string, logger *zap.Logger) (*FileDelivery, error) {
	if err := os.MkdirAll(completedDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create completed directory: %w", err)
	}
	return &FileDelivery{completedDir: completedDir, logger: logger}, nil
}

// Deliver saves the buffer under filename and returns the final path
func (d *FileDelivery) Deliver(filename string, data []byte) (string, error) {
	path := d.uniquePath(filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	if d.logger != nil {
		d.logger.Info("File delivered",
			zap.String("path", path),
			zap.Int("bytes", len(data)))
	}
	return path, nil
}

// uniquePath returns a path in the completed directory that does not clash
// with an existing file
func (d *FileDelivery) uniquePath(filename string) string {
	base := filepath.Base(filename)
	path := filepath.Join(d.completedDir, base)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}

	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for i := 1; ; i++ {
		candidate := filepath.Join(d.completedDir, fmt.Sprintf("%s_%d%s", stem, i, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}
