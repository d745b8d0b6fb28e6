// Package storage implements the fixed-size paged layout backing each
// database file: a Page in-memory image and the DiskManager that reads
// and writes pages at page-aligned offsets.
package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// PageSize is the fixed size of every page, in bytes.
	PageSize = 4096
	// HeaderSize is the size of a page's header: page_id, record_count,
	// free_space, and a reserved word, each a 4-byte big-endian integer.
	HeaderSize = 16
)

// ErrPageFull is returned by InsertRecord when a record does not fit in
// the page's remaining free space.
var ErrPageFull = errors.New("storage: page is full")

// ErrPageIDMismatch is returned when a page loaded from disk carries a
// different id than the one it was read at — a fatal, unrecoverable
// corruption signal per the on-disk format's invariant.
var ErrPageIDMismatch = errors.New("storage: page id mismatch on load")

// Page is the in-memory image of one fixed-size page: a header plus a
// sequentially packed list of length-prefixed records.
type Page struct {
	ID      int32
	records [][]byte
	dirty   bool
}

// NewPage returns a fresh, empty page with the given id.
func NewPage(id int32) *Page {
	return &Page{ID: id}
}

// RecordCount returns the number of records currently resident in p.
func (p *Page) RecordCount() int {
	return len(p.records)
}

func (p *Page) usedBytes() int {
	used := 0
	for _, r := range p.records {
		used += 4 + len(r)
	}
	return used
}

// FreeSpace returns the number of bytes available for additional records.
func (p *Page) FreeSpace() int {
	return PageSize - HeaderSize - p.usedBytes()
}

// Dirty reports whether p has been mutated since it was last flushed.
func (p *Page) Dirty() bool { return p.dirty }

// MarkClean clears the dirty bit, called after a successful flush.
func (p *Page) MarkClean() { p.dirty = false }

// InsertRecord appends data as a new record and returns its slot index.
func (p *Page) InsertRecord(data []byte) (int, error) {
	if 4+len(data) > p.FreeSpace() {
		return -1, ErrPageFull
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	p.records = append(p.records, cp)
	p.dirty = true
	return len(p.records) - 1, nil
}

// ReadRecord returns the record at slot, or false if slot is out of range.
func (p *Page) ReadRecord(slot int) ([]byte, bool) {
	if slot < 0 || slot >= len(p.records) {
		return nil, false
	}
	return p.records[slot], true
}

// DeleteRecord removes the record at slot, shifting later slots down by
// one. Returns whether a record was removed.
func (p *Page) DeleteRecord(slot int) bool {
	if slot < 0 || slot >= len(p.records) {
		return false
	}
	p.records = append(p.records[:slot], p.records[slot+1:]...)
	p.dirty = true
	return true
}

// Records returns every resident record, in slot order. The caller must
// not mutate the returned slices.
func (p *Page) Records() [][]byte {
	return p.records
}

// Serialize encodes p into exactly PageSize bytes: the header followed by
// each record's 4-byte length prefix and payload, zero-padded to PageSize.
func (p *Page) Serialize() []byte {
	buf := make([]byte, PageSize)
	binary.BigEndian.PutUint32(buf[0:4], uint32(p.ID))
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(p.records)))
	binary.BigEndian.PutUint32(buf[8:12], uint32(p.FreeSpace()))
	// buf[12:16] is reserved and left zero.

	off := HeaderSize
	for _, r := range p.records {
		binary.BigEndian.PutUint32(buf[off:off+4], uint32(len(r)))
		off += 4
		copy(buf[off:off+len(r)], r)
		off += len(r)
	}
	return buf
}

// DeserializePage parses PageSize bytes read from disk into a Page,
// validating that the embedded page id matches expectedID. A mismatch is
// a fatal load error per the format's invariant.
func DeserializePage(buf []byte, expectedID int32) (*Page, error) {
	if len(buf) != PageSize {
		return nil, fmt.Errorf("storage: short page read: got %d bytes, want %d", len(buf), PageSize)
	}
	id := int32(binary.BigEndian.Uint32(buf[0:4]))
	if id != expectedID {
		return nil, ErrPageIDMismatch
	}
	recordCount := binary.BigEndian.Uint32(buf[4:8])

	p := &Page{ID: id}
	off := HeaderSize
	for i := uint32(0); i < recordCount; i++ {
		if off+4 > PageSize {
			return nil, fmt.Errorf("storage: truncated record header at offset %d", off)
		}
		length := int(binary.BigEndian.Uint32(buf[off : off+4]))
		off += 4
		if off+length > PageSize {
			return nil, fmt.Errorf("storage: truncated record body at offset %d", off)
		}
		rec := make([]byte, length)
		copy(rec, buf[off:off+length])
		p.records = append(p.records, rec)
		off += length
	}
	return p, nil
}
