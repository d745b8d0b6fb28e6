package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPageInsertAndReadRecord(t *testing.T) {
	p := NewPage(3)
	slot, err := p.InsertRecord([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 0, slot)

	got, ok := p.ReadRecord(slot)
	require.True(t, ok)
	require.Equal(t, "hello", string(got))
	require.True(t, p.Dirty())
}

func TestPageFreeSpaceAccounting(t *testing.T) {
	p := NewPage(1)
	want := PageSize - HeaderSize
	require.Equal(t, want, p.FreeSpace())

	_, err := p.InsertRecord([]byte("abcde"))
	require.NoError(t, err)
	require.Equal(t, want-(4+5), p.FreeSpace())
	require.Equal(t, 1, p.RecordCount())
}

func TestPageInsertRecordTooLargeFails(t *testing.T) {
	p := NewPage(1)
	_, err := p.InsertRecord(make([]byte, PageSize))
	require.ErrorIs(t, err, ErrPageFull)
}

func TestPageDeleteRecordShiftsSlots(t *testing.T) {
	p := NewPage(1)
	_, _ = p.InsertRecord([]byte("a"))
	_, _ = p.InsertRecord([]byte("b"))
	_, _ = p.InsertRecord([]byte("c"))

	require.True(t, p.DeleteRecord(1))
	got, ok := p.ReadRecord(1)
	require.True(t, ok)
	require.Equal(t, "c", string(got))
	require.Equal(t, 2, p.RecordCount())
}

func TestPageSerializeRoundTrip(t *testing.T) {
	p := NewPage(7)
	_, _ = p.InsertRecord([]byte("alpha"))
	_, _ = p.InsertRecord([]byte("beta"))

	buf := p.Serialize()
	require.Len(t, buf, PageSize)

	loaded, err := DeserializePage(buf, 7)
	require.NoError(t, err)
	require.Equal(t, int32(7), loaded.ID)
	require.Equal(t, p.RecordCount(), loaded.RecordCount())

	for i := 0; i < p.RecordCount(); i++ {
		want, _ := p.ReadRecord(i)
		got, _ := loaded.ReadRecord(i)
		require.Equal(t, want, got)
	}
}

func TestDeserializePageRejectsIDMismatch(t *testing.T) {
	p := NewPage(2)
	buf := p.Serialize()
	_, err := DeserializePage(buf, 99)
	require.ErrorIs(t, err, ErrPageIDMismatch)
}
