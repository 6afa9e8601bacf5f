// Package activity keeps the short, user-facing list of status lines.
package activity

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/AlexZinkM/browse-wallet/internal/model"
)

// Capacity is the number of entries retained: 10 kept plus the newest one.
const Capacity = 11

const timeLayout = "15:04:05"

// Log is an append-only, capped, in-memory ring. Oldest entries are evicted first.
type Log struct {
	mu      sync.Mutex
	entries []model.ActivityEntry
	now     func() time.Time
	logger  *slog.Logger
}

func New(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{
		entries: make([]model.ActivityEntry, 0, Capacity+1),
		now:     time.Now,
		logger:  logger,
	}
}

// Append records message with the current wall-clock time
func (l *Log) Append(message string) {
	entry := model.ActivityEntry{Time: l.now(), Message: message}

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	if len(l.entries) > Capacity {
		n := copy(l.entries, l.entries[len(l.entries)-Capacity:])
		l.entries = l.entries[:n]
	}
	l.mu.Unlock()

	l.logger.Info("activity", "message", message)
}

// Appendf is Append with fmt.Sprintf formatting
func (l *Log) Appendf(format string, args ...any) {
	l.Append(fmt.Sprintf(format, args...))
}

// Entries returns a copy, oldest first
func (l *Log) Entries() []model.ActivityEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.ActivityEntry(nil), l.entries...)
}

// Latest returns up to n newest entries, oldest first
func (l *Log) Latest(n int) []model.ActivityEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n <= 0 {
		return nil
	}
	if n > len(l.entries) {
		n = len(l.entries)
	}
	return append([]model.ActivityEntry(nil), l.entries[len(l.entries)-n:]...)
}

// Lines renders entries as "[15:04:05] message"
func (l *Log) Lines() []string {
	entries := l.Entries()
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = Format(e)
	}
	return lines
}

func Format(e model.ActivityEntry) string {
	return "[" + e.Time.Format(timeLayout) + "] " + e.Message
}
