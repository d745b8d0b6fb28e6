package engine

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/emberql/ember/buffer"
	"github.com/emberql/ember/config"
	"github.com/emberql/ember/errs"
	"github.com/emberql/ember/lexer"
	"github.com/emberql/ember/parser"
	"github.com/emberql/ember/storage"
	"github.com/emberql/ember/table"
	"github.com/emberql/ember/txn"
)

// Engine is the single entry point embedding applications call: start it
// against a database name and data directory, then drive it entirely
// through ExecuteSQL/PrepareStatement/ExecutePrepared.
type Engine struct {
	mu      sync.Mutex
	running bool

	dbName string
	dir    string
	cfg    *config.Config

	disk   *storage.DiskManager
	pool   *buffer.Pool
	locks  *txn.LockManager
	txns   *txn.Manager
	db     *table.Database
	exec   *Executor
	cache  *Cache
	stats  *StatsBuffer
	audit  *AuditLog
	log    *slog.Logger
}

// New creates an Engine configured from cfg but does not yet start it.
func New(cfg *config.Config) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Engine{cfg: cfg, log: slog.Default()}
}

// Start opens the database file, wires every subsystem, and loads a
// previously persisted database if one exists. Calling Start while
// already running is a no-op (idempotent).
func (e *Engine) Start(dbName, dataDir string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return nil
	}

	disk, err := storage.Open(dataDir, dbName)
	if err != nil {
		return err
	}
	pool, err := buffer.New(disk, e.cfg.BufferPoolSize())
	if err != nil {
		return err
	}
	db, err := LoadDatabase(pool, dbName)
	if err != nil {
		return err
	}

	locks := txn.NewLockManager()
	txns := txn.NewManager(locks)

	e.dbName = dbName
	e.dir = dataDir
	e.disk = disk
	e.pool = pool
	e.locks = locks
	e.txns = txns
	e.db = db
	e.exec = NewExecutor(db, locks, txns)
	e.cache = NewCache(0, 0)
	e.stats = NewStatsBuffer()
	e.audit = NewAuditLog(dataDir)
	e.running = true
	return nil
}

// Stop persists the current database state, flushes the buffer pool,
// closes the disk file and audit logger, and marks the engine as not
// running. Calling Stop while not running is a no-op (idempotent).
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return nil
	}

	if err := PersistDatabase(e.pool, e.db); err != nil {
		return err
	}
	if err := e.pool.FlushAll(); err != nil {
		return err
	}
	if err := e.disk.Close(); err != nil {
		return err
	}
	if err := e.audit.Close(); err != nil {
		e.log.Error("audit log close failed", "error", err)
	}
	e.running = false
	return nil
}

// ExecuteSQL is the single statement entry point: cache lookup, parse,
// execute, cache/invalidate/audit/record-stats, in that order. Only
// Select statements are routed through the cache's singleflight-backed
// GetOrCompute — coalescing concurrent identical INSERT/UPDATE/DELETE
// statements onto one execution would silently drop every duplicate
// caller's actual write, so every other statement kind always calls
// parseAndExecute directly, uncached and uncoalesced.
func (e *Engine) ExecuteSQL(text string) (*QueryResult, error) {
	e.mu.Lock()
	running := e.running
	e.mu.Unlock()
	if !running {
		return nil, &ExecutionError{Cause: &errs.StateError{Detail: "engine is not running"}}
	}

	start := time.Now()
	var result *QueryResult
	var err error
	var fromCache bool
	if isSelectText(text) {
		result, err, fromCache = e.cache.GetOrCompute(text, func() (*QueryResult, error) {
			return e.parseAndExecute(text)
		})
	} else {
		result, err = e.parseAndExecute(text)
	}
	if fromCache {
		return result, nil
	}
	duration := time.Since(start)

	if err != nil {
		operation, tableName := statementSummary(text)
		if !isParseFailure(err) && !isSelectText(text) {
			e.audit.Enqueue(operation, tableName, text, false, err.Error())
		}
		e.stats.Append(QueryStats{SQL: text, Duration: duration, Success: false, Timestamp: start})
		return nil, &ExecutionError{Cause: err}
	}

	if result.Kind != SelectResult {
		operation := result.Kind.String()
		tableName := extractTableName(text)
		e.cache.InvalidateTable(tableName)
		e.audit.Enqueue(operation, tableName, text, true, "")
	}
	e.stats.Append(QueryStats{SQL: text, Duration: duration, Success: true, Timestamp: start})
	return result, nil
}

func (e *Engine) parseAndExecute(text string) (*QueryResult, error) {
	p := parser.New(lexer.New(text))
	stmt := p.ParseStatement()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, &parseFailure{detail: strings.Join(errs, "; ")}
	}
	return e.exec.Execute(stmt)
}

// parseFailure wraps the parser's accumulated error strings as an
// errs.ParseError, identifiable separately from execution errors so
// ExecuteSQL can skip auditing (parse failures never reach the executor,
// so there is no table or operation to attribute them to).
type parseFailure struct{ detail string }

func (p *parseFailure) Error() string { return (&errs.ParseError{Detail: p.detail}).Error() }

func (p *parseFailure) Unwrap() error { return &errs.ParseError{Detail: p.detail} }

func isParseFailure(err error) bool {
	_, ok := err.(*parseFailure)
	return ok
}

// isSelectText reports whether text's leading keyword is SELECT, used to
// gate cache/singleflight routing before the statement is parsed. A
// leading-keyword check is sufficient here: every statement kind this
// engine accepts starts with its own distinct keyword, so this cannot
// misclassify a write as a Select.
func isSelectText(text string) bool {
	fields := strings.Fields(text)
	return len(fields) > 0 && strings.EqualFold(fields[0], "SELECT")
}

// statementSummary best-effort extracts an operation keyword and table
// name from raw SQL text for audit purposes when parsing itself failed.
func statementSummary(text string) (operation, tableName string) {
	fields := strings.Fields(text)
	if len(fields) > 0 {
		operation = strings.ToUpper(fields[0])
	}
	return operation, extractTableName(text)
}

// extractTableName is a best-effort scan for the table name following
// FROM/INTO/TABLE/UPDATE, used only for audit/cache-invalidation
// attribution, never for execution semantics.
func extractTableName(text string) string {
	upper := strings.ToUpper(text)
	for _, kw := range []string{"INTO", "FROM", "UPDATE", "TABLE"} {
		idx := strings.Index(upper, kw+" ")
		if idx == -1 {
			continue
		}
		rest := strings.TrimSpace(text[idx+len(kw)+1:])
		fields := strings.Fields(rest)
		if len(fields) > 0 {
			return strings.Trim(fields[0], "(),;")
		}
	}
	return ""
}

// PrepareStatement returns a parameter holder for sql.
func (e *Engine) PrepareStatement(sql string) *PreparedStatement {
	return Prepare(sql)
}

// ExecutePrepared renders ps's bound parameters into its SQL text and
// executes the result via ExecuteSQL.
func (e *Engine) ExecutePrepared(ps *PreparedStatement) (*QueryResult, error) {
	rendered, err := ps.Render()
	if err != nil {
		return nil, &ExecutionError{Cause: err}
	}
	return e.ExecuteSQL(rendered)
}

// Stats returns every entry currently in the query-stats ring buffer.
func (e *Engine) Stats() []QueryStats { return e.stats.Recent() }

// Backup writes a full textual backup of the running database to the
// given path, suitable for later Restore.
func (e *Engine) Backup(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("engine: create backup file: %w", err)
	}
	defer f.Close()
	return ExportBackup(f, e.db)
}

// Restore executes every statement in the backup file at path, in order,
// against the running database.
func (e *Engine) Restore(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("engine: open backup file: %w", err)
	}
	defer f.Close()
	return ImportBackup(f, func(sql string) error {
		_, err := e.ExecuteSQL(sql)
		return err
	})
}

// DataPath joins name onto the engine's data directory. Backup and
// Restore use the path they are given as is.
func (e *Engine) DataPath(name string) string {
	return filepath.Join(e.dir, name)
}

// dbDisplayName names the running database and its data directory, or
// "(not started)" before Start.
func (e *Engine) dbDisplayName() string {
	if e.dbName == "" {
		return "(not started)"
	}
	return fmt.Sprintf("%s (%s)", e.dbName, e.dir)
}
