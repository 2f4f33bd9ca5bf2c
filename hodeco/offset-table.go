// Package hodeco rewrites PAF records that were computed against
// homopolymer-compressed sequences so that all coordinates, alignment
// operations and derived statistics refer to the decompressed
// sequence space.
package hodeco

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// An OffsetTable maps positions in a homopolymer-compressed sequence
// to positions in the corresponding decompressed sequence. A table
// for a compressed sequence of length n has n+1 entries: entry i is
// the decompressed position of compressed position i, entry 0 is 0,
// and entry n is the full decompressed sequence length. Entries are
// non-decreasing.
//
// Offset tables are built once before the pipeline starts and are
// never mutated afterwards, so they can be shared by all worker
// threads without locking.
type OffsetTable []int64

// CompressedLength returns the length of the compressed sequence the
// table describes.
func (table OffsetTable) CompressedLength() int64 {
	return int64(len(table)) - 1
}

// DecompressedLength returns the length of the decompressed sequence
// the table describes.
func (table OffsetTable) DecompressedLength() int64 {
	return table[len(table)-1]
}

func (table OffsetTable) validate(name string) error {
	if len(table) == 0 {
		return fmt.Errorf("empty offset table for sequence %v", name)
	}
	if table[0] != 0 {
		return fmt.Errorf("offset table for sequence %v does not start at zero", name)
	}
	for i := 1; i < len(table); i++ {
		if table[i] < table[i-1] {
			return fmt.Errorf("offset table for sequence %v decreases at position %v", name, i)
		}
	}
	return nil
}

// An OffsetTableStore maps sequence names to their offset tables.
// Query and target sequences share a single namespace.
type OffsetTableStore map[string]OffsetTable

// Get returns the offset table for the sequence with the given name.
func (store OffsetTableStore) Get(name string) (OffsetTable, error) {
	if table, found := store[name]; found {
		return table, nil
	}
	return nil, fmt.Errorf("missing offset table for sequence %v", name)
}

// offsetTableEntry mirrors the (name, offsets) pairs in the map file,
// which are encoded as 2-element CBOR arrays.
type offsetTableEntry struct {
	_       struct{} `cbor:",toarray"`
	Name    string
	Offsets []int64
}

// ReadOffsetTables decodes a stream of CBOR-encoded (name, offsets)
// pairs into an OffsetTableStore. Every table is validated. If the
// stream contains the same sequence name more than once, the last
// occurrence wins.
func ReadOffsetTables(r io.Reader) (OffsetTableStore, error) {
	store := make(OffsetTableStore)
	decoder := cbor.NewDecoder(r)
	for {
		var entry offsetTableEntry
		if err := decoder.Decode(&entry); err == io.EOF {
			return store, nil
		} else if err != nil {
			return nil, fmt.Errorf("%v, while reading an offset table stream", err)
		}
		table := OffsetTable(entry.Offsets)
		if err := table.validate(entry.Name); err != nil {
			return nil, err
		}
		store[entry.Name] = table
	}
}

// LoadOffsetTables reads all offset tables from the file with the
// given name. The whole file is loaded before the pipeline starts;
// there is no partial or streaming load.
func LoadOffsetTables(name string, bufferSize int) (store OffsetTableStore, err error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer func() {
		nerr := file.Close()
		if err == nil {
			err = nerr
		}
	}()
	return ReadOffsetTables(bufio.NewReaderSize(file, bufferSize))
}
