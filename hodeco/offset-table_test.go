package hodeco

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fxamacker/cbor/v2"
)

func encodeTables(t *testing.T, entries ...offsetTableEntry) *bytes.Buffer {
	var buf bytes.Buffer
	for _, entry := range entries {
		data, err := cbor.Marshal(entry)
		if err != nil {
			t.Fatal(err)
		}
		buf.Write(data)
	}
	return &buf
}

func TestOffsetTableLengths(t *testing.T) {
	table := OffsetTable{0, 1, 3, 4}
	if table.CompressedLength() != 3 {
		t.Error("wrong compressed length ", table.CompressedLength())
	}
	if table.DecompressedLength() != 4 {
		t.Error("wrong decompressed length ", table.DecompressedLength())
	}
}

func TestReadOffsetTables(t *testing.T) {
	buf := encodeTables(t,
		offsetTableEntry{Name: "ctg1", Offsets: []int64{0, 1, 3, 4}},
		offsetTableEntry{Name: "ctg2", Offsets: []int64{0, 2, 4}},
	)
	store, err := ReadOffsetTables(buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(store) != 2 {
		t.Fatal("wrong number of offset tables ", len(store))
	}
	table, err := store.Get("ctg1")
	if err != nil {
		t.Fatal(err)
	}
	if table.CompressedLength() != 3 || table.DecompressedLength() != 4 {
		t.Error("offset table for ctg1 decoded incorrectly")
	}
	if _, err := store.Get("ctg3"); err == nil {
		t.Error("expected an error for a missing offset table")
	}
}

func TestReadOffsetTablesLastWins(t *testing.T) {
	buf := encodeTables(t,
		offsetTableEntry{Name: "ctg1", Offsets: []int64{0, 1, 2}},
		offsetTableEntry{Name: "ctg1", Offsets: []int64{0, 3, 6}},
	)
	store, err := ReadOffsetTables(buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(store) != 1 {
		t.Fatal("wrong number of offset tables ", len(store))
	}
	table, err := store.Get("ctg1")
	if err != nil {
		t.Fatal(err)
	}
	if table.DecompressedLength() != 6 {
		t.Error("expected the last table for a duplicated sequence name to win")
	}
}

func TestReadOffsetTablesInvalid(t *testing.T) {
	invalid := [][]int64{
		nil,
		{1, 2},
		{0, 2, 1},
	}
	for _, offsets := range invalid {
		buf := encodeTables(t, offsetTableEntry{Name: "ctg1", Offsets: offsets})
		if _, err := ReadOffsetTables(buf); err == nil {
			t.Error("expected a validation error for offset table ", offsets)
		}
	}
}

func TestReadOffsetTablesMalformed(t *testing.T) {
	garbage, err := cbor.Marshal(5)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ReadOffsetTables(bytes.NewReader(garbage)); err == nil {
		t.Error("expected an error for a stream that is not a sequence of pairs")
	}
	buf := encodeTables(t, offsetTableEntry{Name: "ctg1", Offsets: []int64{0, 1, 2}})
	truncated := buf.Bytes()[:buf.Len()-1]
	if _, err := ReadOffsetTables(bytes.NewReader(truncated)); err == nil {
		t.Error("expected an error for a truncated stream")
	}
}

func TestLoadOffsetTables(t *testing.T) {
	buf := encodeTables(t, offsetTableEntry{Name: "ctg1", Offsets: []int64{0, 1, 3, 4}})
	name := filepath.Join(t.TempDir(), "tables.cbor")
	if err := os.WriteFile(name, buf.Bytes(), 0666); err != nil {
		t.Fatal(err)
	}
	store, err := LoadOffsetTables(name, 4096)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get("ctg1"); err != nil {
		t.Error(err)
	}
	if _, err := LoadOffsetTables(filepath.Join(t.TempDir(), "missing.cbor"), 4096); err == nil {
		t.Error("expected an error for a missing file")
	}
}
