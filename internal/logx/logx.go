package logx

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"
)

// New creates a logger writing to a timestamped file inside dir. The
// returned closer should be closed when logging is no longer needed.
func New(dir string) (*log.Logger, io.Closer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("ensure log directory: %w", err)
	}

	filename := time.Now().Format("20060102-150405") + ".log"
	file, err := os.OpenFile(filepath.Join(dir, filename), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	return log.New(file, "", log.LstdFlags|log.Lmicroseconds), file, nil
}
