package store

import (
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Journal appends timestamped progress lines to a log file so headless runs
// can be monitored with tail. Write failures are logged and swallowed: the
// journal must never fail a request.
type Journal struct {
	path   string
	logger *zap.Logger
	mutex  sync.Mutex
}

// NewJournal creates a journal writing to path. An empty path disables
// writing entirely.
func NewJournal(path string, logger *zap.Logger) *Journal {
	return &Journal{
		path:   path,
		logger: logger,
	}
}

// Event appends one formatted line with a millisecond timestamp.
func (j *Journal) Event(format string, args ...any) {
	if j.path == "" {
		return
	}

	line := fmt.Sprintf("[%s] %s\n", time.Now().Format("15:04:05.000"), fmt.Sprintf(format, args...))

	j.mutex.Lock()
	defer j.mutex.Unlock()

	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		j.logger.Debug("Journal open failed", zap.Error(err))
		return
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		j.logger.Debug("Journal write failed", zap.Error(err))
	}
}
