package generate

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// WriteFiles writes outputs, leaving files whose content is unchanged
// untouched so downstream builds do not recompile them.
func WriteFiles(logger *slog.Logger, outputs []OutputFile) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	written := 0
	for _, file := range outputs {
		if existing, err := os.ReadFile(file.Path); err == nil && bytes.Equal(existing, file.Content) {
			logger.Debug("unchanged", "path", file.Path)
			continue
		}
		if err := os.MkdirAll(filepath.Dir(file.Path), dirPerm); err != nil {
			return fmt.Errorf("create dir %s: %w", filepath.Dir(file.Path), err)
		}
		if err := os.WriteFile(file.Path, file.Content, filePerm); err != nil {
			return fmt.Errorf("write file %s: %w", file.Path, err)
		}
		logger.Debug("wrote", "path", file.Path, "bytes", len(file.Content))
		written++
	}
	logger.Info("outputs written", "written", written, "unchanged", len(outputs)-written)
	return nil
}
