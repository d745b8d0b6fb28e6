package engine

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"
)

// auditEntry is one pending audit record, enqueued by the executor path
// and consumed by AuditLog's background writer.
type auditEntry struct {
	at        time.Time
	operation string
	table     string
	sql       string
	success   bool
	errText   string
}

// AuditLog appends pipe-delimited audit records to <dir>/audit.log via a
// dedicated background writer fed by a channel buffered to 4096 entries,
// so a slow disk never blocks the statement that triggered the entry;
// while that buffer is full, new entries are dropped. The underlying
// file is rotated by lumberjack to bound its growth over a long-lived
// process.
type AuditLog struct {
	entries chan auditEntry
	writer  *lumberjack.Logger
	group   *errgroup.Group
	log     *slog.Logger
	closed  chan struct{}
	once    sync.Once
}

// NewAuditLog opens <dir>/audit.log (creating/rotating via lumberjack)
// and starts the background writer goroutine.
func NewAuditLog(dir string) *AuditLog {
	a := &AuditLog{
		entries: make(chan auditEntry, 4096),
		writer: &lumberjack.Logger{
			Filename:   filepath.Join(dir, "audit.log"),
			MaxSize:    50, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
		},
		log:    slog.Default(),
		closed: make(chan struct{}),
	}
	group := &errgroup.Group{}
	group.Go(a.run)
	a.group = group
	return a
}

// Enqueue records one non-Select statement's outcome. Non-blocking: the
// channel is generously buffered, and a full channel drops the entry
// with a log warning rather than stalling the caller's statement.
func (a *AuditLog) Enqueue(operation, table, sql string, success bool, errText string) {
	entry := auditEntry{
		at:        time.Now().UTC(),
		operation: operation,
		table:     table,
		sql:       strings.ReplaceAll(sql, "\n", " "),
		success:   success,
		errText:   errText,
	}
	select {
	case a.entries <- entry:
	default:
		a.log.Warn("audit log channel full, dropping entry", "operation", operation, "table", table)
	}
}

func (a *AuditLog) run() error {
	for entry := range a.entries {
		line := a.format(entry)
		if _, err := a.writer.Write([]byte(line)); err != nil {
			// audit-log write failures are logged but never fail the
			// statement that produced them.
			a.log.Error("audit log write failed", "error", err)
		}
	}
	return nil
}

func (a *AuditLog) format(e auditEntry) string {
	status := "FAILURE"
	if e.success {
		status = "SUCCESS"
	}
	return fmt.Sprintf("%s|%s|%s|system|%s|%s|%s\n",
		e.at.Format(time.RFC3339), e.operation, e.table, status, e.sql, e.errText)
}

// Close drains and stops the background writer within a bounded grace
// period, then closes the underlying rotating file.
func (a *AuditLog) Close() error {
	a.once.Do(func() {
		close(a.entries)
		close(a.closed)
	})

	done := make(chan error, 1)
	go func() { done <- a.group.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			return err
		}
	case <-time.After(5 * time.Second):
		a.log.Warn("audit log drain exceeded grace period, closing anyway")
	}
	return a.writer.Close()
}
