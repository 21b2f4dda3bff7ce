package validator

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const maxFailureLogBytes = 1 * 1024 * 1024

// FailureLog is a timestamped, append-only log of subscription failures,
// rotated to ".old" once it exceeds 1 MiB.
type FailureLog struct {
	mu   sync.Mutex
	path string
}

// NewFailureLog builds a FailureLog writing to path. The file and its
// parent directory are created lazily on first write.
func NewFailureLog(path string) *FailureLog {
	return &FailureLog{path: path}
}

// Append adds one line to the log, rotating first if the file has grown
// past the size cap.
func (l *FailureLog) Append(url string, reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.path == "" {
		return nil
	}

	if err := l.rotateIfNeeded(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("cannot create failure log dir: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("cannot open failure log: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("%s\t%s\t%s\n", time.Now().UTC().Format(time.RFC3339), url, reason)

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("cannot append to failure log: %w", err)
	}

	return nil
}

func (l *FailureLog) rotateIfNeeded() error {
	info, err := os.Stat(l.path)
	if os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return nil //nolint: nilerr
	}

	if info.Size() < maxFailureLogBytes {
		return nil
	}

	if err := os.Rename(l.path, l.path+".old"); err != nil {
		return fmt.Errorf("cannot rotate failure log: %w", err)
	}

	return nil
}
