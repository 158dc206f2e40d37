package logx

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"texbuild/internal/paths"
)

// New creates a logger that writes to a timestamped file inside the
// document's logs directory. The returned closer should be closed when
// logging is no longer needed.
func New(p paths.DocumentPaths) (*log.Logger, io.Closer, error) {
	if err := os.MkdirAll(p.LogsDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("ensure logs directory: %w", err)
	}

	filename := p.Base + "-" + time.Now().Format("20060102-150405") + ".log"
	filePath := filepath.Join(p.LogsDir, filename)
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	logger := log.New(file, "", log.LstdFlags|log.Lmicroseconds)
	return logger, file, nil
}

// WithPrefix returns a logger sharing l's output with prefix prepended to
// every message, so concurrent builds can be told apart in one file.
func WithPrefix(l *log.Logger, prefix string) *log.Logger {
	return log.New(l.Writer(), prefix, l.Flags()|log.Lmsgprefix)
}
