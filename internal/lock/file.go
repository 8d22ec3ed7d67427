package lock

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hayan-web/health-auto-blog-sub000/infrastructure/logger"
)

// FileLocker holds a lock file created with O_EXCL beside the state file.
// A lock file older than ttl is treated as left behind by a crashed run.
type FileLocker struct {
	path  string
	ttl   time.Duration
	wait  time.Duration
	token string
	log   logger.Logger
}

// NewFileLocker creates a locker for statePath.
func NewFileLocker(statePath string, ttl, wait time.Duration, log logger.Logger) *FileLocker {
	if log == nil {
		log = logger.NewNop()
	}
	return &FileLocker{path: statePath + ".lock", ttl: ttl, wait: wait, log: log}
}

// Path returns the lock file path.
func (l *FileLocker) Path() string {
	return l.path
}

// Acquire creates the lock file.
func (l *FileLocker) Acquire(ctx context.Context) error {
	token := uuid.NewString()
	err := acquire(ctx, l.wait, func(context.Context) error {
		return l.tryCreate(token)
	})
	if err != nil {
		return err
	}
	l.token = token
	return nil
}

func (l *FileLocker) tryCreate(token string) error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if errors.Is(err, fs.ErrExist) {
		if !l.removeStale() {
			l.log.Debug("Run lock busy, waiting", logger.String("path", l.path))
		}
		return ErrLockHeld
	}
	if err != nil {
		return fmt.Errorf("create lock file %s: %w", l.path, err)
	}

	_, werr := f.WriteString(token)
	cerr := f.Close()
	if err = errors.Join(werr, cerr); err != nil {
		_ = os.Remove(l.path)
		return fmt.Errorf("write lock file %s: %w", l.path, err)
	}
	return nil
}

// removeStale deletes a lock file older than ttl and reports whether it did.
func (l *FileLocker) removeStale() bool {
	if l.ttl <= 0 {
		return false
	}
	info, err := os.Stat(l.path)
	if err != nil || time.Since(info.ModTime()) < l.ttl {
		return false
	}
	if err = os.Remove(l.path); err != nil {
		return false
	}
	l.log.Warn("Removed stale run lock", logger.String("path", l.path), logger.Time("modified", info.ModTime()))
	return true
}

// Release removes the lock file if it still carries this locker's token.
func (l *FileLocker) Release(context.Context) error {
	if l.token == "" {
		return ErrNotHeld
	}
	token := l.token
	l.token = ""

	b, err := os.ReadFile(l.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotHeld, err)
	}
	if strings.TrimSpace(string(b)) != token {
		return fmt.Errorf("%w: lock file %s owned by another run", ErrNotHeld, l.path)
	}
	return os.Remove(l.path)
}
