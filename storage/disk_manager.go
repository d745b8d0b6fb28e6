package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DiskManager owns a single append-and-seek capable file holding every
// page of one database. Page p lives at byte offset p*PageSize.
type DiskManager struct {
	mu   sync.Mutex
	file *os.File
	path string
	log  *slog.Logger
}

// Open creates the data directory if missing and opens (or creates)
// <dir>/<dbName>.ndb for reading and writing.
func Open(dir, dbName string) (*DiskManager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create data directory: %w", err)
	}
	path := filepath.Join(dir, dbName+".ndb")
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	return &DiskManager{file: f, path: path, log: slog.Default()}, nil
}

// Path returns the underlying file path.
func (d *DiskManager) Path() string { return d.path }

// ReadPage reads the page at pageID. A read entirely past end-of-file
// returns (nil, nil) — the caller constructs a fresh empty page for a
// miss. A short read is logged and also treated as a miss.
func (d *DiskManager) ReadPage(pageID int32) (*Page, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	offset := int64(pageID) * PageSize
	info, err := d.file.Stat()
	if err != nil {
		return nil, fmt.Errorf("storage: stat %s: %w", d.path, err)
	}
	if offset >= info.Size() {
		return nil, nil
	}

	buf := make([]byte, PageSize)
	n, err := d.file.ReadAt(buf, offset)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("storage: read page %d: %w", pageID, err)
	}
	if n != PageSize {
		d.log.Warn("short page read, treating as miss", "page_id", pageID, "bytes_read", n)
		return nil, nil
	}

	page, err := DeserializePage(buf, pageID)
	if err != nil {
		return nil, fmt.Errorf("storage: fatal: %w", err)
	}
	return page, nil
}

// WritePage writes p at its page-aligned offset and syncs the file
// before returning. A transient write failure is retried with bounded
// exponential backoff; persistent failure is a fatal I/O error.
func (d *DiskManager) WritePage(p *Page) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	buf := p.Serialize()
	offset := int64(p.ID) * PageSize

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 2 * time.Second
	err := backoff.Retry(func() error {
		_, werr := d.file.WriteAt(buf, offset)
		return werr
	}, bo)
	if err != nil {
		return fmt.Errorf("storage: fatal: write page %d: %w", p.ID, err)
	}
	if err := d.file.Sync(); err != nil {
		return fmt.Errorf("storage: fatal: sync after writing page %d: %w", p.ID, err)
	}
	p.MarkClean()
	return nil
}

// AllocateNewPage extends the file by one page and returns a fresh empty
// Page for the newly allocated id.
func (d *DiskManager) AllocateNewPage() (*Page, error) {
	d.mu.Lock()
	info, err := d.file.Stat()
	if err != nil {
		d.mu.Unlock()
		return nil, fmt.Errorf("storage: stat %s: %w", d.path, err)
	}
	newID := int32(info.Size() / PageSize)
	blank := NewPage(newID).Serialize()
	if _, err := d.file.WriteAt(blank, int64(newID)*PageSize); err != nil {
		d.mu.Unlock()
		return nil, fmt.Errorf("storage: fatal: extend file for page %d: %w", newID, err)
	}
	d.mu.Unlock()
	return NewPage(newID), nil
}

// Close syncs and closes the underlying file.
func (d *DiskManager) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.file.Sync(); err != nil {
		return fmt.Errorf("storage: sync on close: %w", err)
	}
	return d.file.Close()
}
