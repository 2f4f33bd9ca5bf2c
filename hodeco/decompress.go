package hodeco

import (
	"fmt"

	"github.com/sebschmi/minimap2-homopolymer-decompression/paf"
)

// index returns table[i], reporting inconsistencies between a record
// and its table as errors instead of panicking.
func (table OffsetTable) index(name string, i int64) (int64, error) {
	if i < 0 || i >= int64(len(table)) {
		return 0, fmt.Errorf("position %v out of range for the offset table of sequence %v", i, name)
	}
	return table[i], nil
}

// runLength returns the decompressed length of the n compressed
// positions starting at cursor.
func (table OffsetTable) runLength(name string, cursor, n int64) (int64, error) {
	start, err := table.index(name, cursor)
	if err != nil {
		return 0, err
	}
	end, err := table.index(name, cursor+n)
	if err != nil {
		return 0, err
	}
	return end - start, nil
}

// decompressSequence re-expands a run of gap characters. Character i
// of seq is aligned against compressed position cursor+i and is
// repeated once per decompressed base of that position.
func (table OffsetTable) decompressSequence(name string, cursor int64, seq string) (string, error) {
	if _, err := table.index(name, cursor); err != nil {
		return "", err
	}
	if _, err := table.index(name, cursor+int64(len(seq))); err != nil {
		return "", err
	}
	decompressed := make([]byte, 0, len(seq))
	for i := range seq {
		for n := table[cursor+int64(i)+1] - table[cursor+int64(i)]; n > 0; n-- {
			decompressed = append(decompressed, seq[i])
		}
	}
	return string(decompressed), nil
}

// DecompressRecord rewrites the given record from homopolymer-compressed
// to decompressed coordinate space, using the offset tables registered
// for its query and target sequence names. The record is mutated in
// place; the store is never modified.
//
// Any inconsistency between the record and its tables is returned as
// an error: missing tables, length mismatches, empty coordinate spans
// after remapping, unsupported alignment operations, and out-of-range
// table positions.
func (store OffsetTableStore) DecompressRecord(rec *paf.Record) error {
	queryTable, err := store.Get(rec.QName)
	if err != nil {
		return err
	}
	targetTable, err := store.Get(rec.TName)
	if err != nil {
		return err
	}
	if rec.QLength != queryTable.CompressedLength() {
		return fmt.Errorf("query length %v of PAF record %v inconsistent with its offset table of compressed length %v",
			rec.QLength, rec.QName, queryTable.CompressedLength())
	}
	if rec.TLength != targetTable.CompressedLength() {
		return fmt.Errorf("target length %v of PAF record %v inconsistent with its offset table of compressed length %v",
			rec.TLength, rec.QName, targetTable.CompressedLength())
	}

	oldQLength := rec.QLength
	queryStart, targetStart := rec.QStart, rec.TStart

	rec.QLength = queryTable.DecompressedLength()
	rec.TLength = targetTable.DecompressedLength()
	if rec.QStart, err = queryTable.index(rec.QName, queryStart); err != nil {
		return err
	}
	if rec.QEnd, err = queryTable.index(rec.QName, rec.QEnd); err != nil {
		return err
	}
	if rec.TStart, err = targetTable.index(rec.TName, targetStart); err != nil {
		return err
	}
	if rec.TEnd, err = targetTable.index(rec.TName, rec.TEnd); err != nil {
		return err
	}
	if rec.QEnd <= rec.QStart {
		return fmt.Errorf("empty query span [%v, %v) after decompressing PAF record %v", rec.QStart, rec.QEnd, rec.QName)
	}
	if rec.TEnd <= rec.TStart {
		return fmt.Errorf("empty target span [%v, %v) after decompressing PAF record %v", rec.TStart, rec.TEnd, rec.QName)
	}

	if value, found := rec.TAGS.Get(paf.CG); found {
		cigar, ok := value.([]paf.CigarOperation)
		if !ok {
			return fmt.Errorf("cg tag of PAF record %v is not a CIGAR string", rec.QName)
		}
		if err := decompressCigar(rec, cigar, queryTable, targetTable, queryStart, targetStart); err != nil {
			return err
		}
	}

	if value, found := rec.TAGS.Get(paf.CS); found {
		diff, ok := value.([]paf.DiffOperation)
		if !ok {
			return fmt.Errorf("cs tag of PAF record %v is not a difference string", rec.QName)
		}
		if err := decompressDiff(rec, diff, queryTable, targetTable, queryStart, targetStart); err != nil {
			return err
		}
	}

	// The divergence tags follow the query length, so they are rescaled
	// by the factor the query grew.
	scale := float64(rec.QLength) / float64(oldQLength)
	if value, found := rec.TAGS.Get(paf.DV); found {
		divergence, ok := value.(float64)
		if !ok {
			return fmt.Errorf("dv tag of PAF record %v is not a float", rec.QName)
		}
		rec.TAGS.Set(paf.DV, divergence*scale)
	}
	if value, found := rec.TAGS.Get(paf.DE); found {
		divergence, ok := value.(float64)
		if !ok {
			return fmt.Errorf("de tag of PAF record %v is not a float", rec.QName)
		}
		rec.TAGS.Set(paf.DE, divergence*scale)
	}
	return nil
}

// decompressCigar expands every run in the cg tag to the number of
// decompressed bases it spans, and recomputes the residue match count
// and the alignment block length from the expanded runs.
func decompressCigar(rec *paf.Record, cigar []paf.CigarOperation, queryTable, targetTable OffsetTable, queryCursor, targetCursor int64) error {
	var matches, alignmentLength int64
	for i := range cigar {
		op := &cigar[i]
		n := op.Length
		switch op.Operation {
		case 'M':
			length, err := queryTable.runLength(rec.QName, queryCursor, n)
			if err != nil {
				return err
			}
			op.Length = length
			matches += length
			queryCursor += n
			targetCursor += n
		case 'I':
			length, err := queryTable.runLength(rec.QName, queryCursor, n)
			if err != nil {
				return err
			}
			op.Length = length
			queryCursor += n
		case 'D':
			length, err := targetTable.runLength(rec.TName, targetCursor, n)
			if err != nil {
				return err
			}
			op.Length = length
			targetCursor += n
		default:
			return fmt.Errorf("unsupported CIGAR operation %c in PAF record %v", op.Operation, rec.QName)
		}
		alignmentLength += op.Length
	}
	rec.Matches = matches
	rec.AlignmentLength = alignmentLength
	return nil
}

// A diffSplice records that count copies of the entry at index must be
// inserted directly after it. Splices are collected during the walk
// and applied afterwards in reverse index order, so that earlier
// insertions do not shift the positions of later ones.
type diffSplice struct {
	index int
	count int64
}

// decompressDiff expands every entry in the cs tag. A mismatch entry
// describes exactly one compressed query base; if that base stands for
// a collapsed homopolymer run, the entry is duplicated once per
// additional decompressed base. The accumulated count of additional
// mismatches and decompressed gap bases replaces an existing NM tag.
func decompressDiff(rec *paf.Record, diff []paf.DiffOperation, queryTable, targetTable OffsetTable, queryCursor, targetCursor int64) error {
	var mismatchesAndGaps int64
	var splices []diffSplice
	for i := range diff {
		entry := &diff[i]
		switch entry.Operation {
		case ':':
			n := entry.Length
			length, err := queryTable.runLength(rec.QName, queryCursor, n)
			if err != nil {
				return err
			}
			entry.Length = length
			queryCursor += n
			targetCursor += n
		case '+':
			decompressed, err := queryTable.decompressSequence(rec.QName, queryCursor, entry.Sequence)
			if err != nil {
				return err
			}
			queryCursor += int64(len(entry.Sequence))
			entry.Sequence = decompressed
			mismatchesAndGaps += int64(len(decompressed))
		case '-':
			decompressed, err := targetTable.decompressSequence(rec.TName, targetCursor, entry.Sequence)
			if err != nil {
				return err
			}
			targetCursor += int64(len(entry.Sequence))
			entry.Sequence = decompressed
			mismatchesAndGaps += int64(len(decompressed))
		case '*':
			length, err := queryTable.runLength(rec.QName, queryCursor, 1)
			if err != nil {
				return err
			}
			// The compressed base itself accounts for one decompressed base.
			count := length - 1
			if count < 0 {
				return fmt.Errorf("mismatch at compressed query position %v of PAF record %v maps to zero decompressed bases", queryCursor, rec.QName)
			}
			if count > 0 {
				splices = append(splices, diffSplice{i, count})
			}
			mismatchesAndGaps += count
			queryCursor++
			targetCursor++
		default:
			return fmt.Errorf("unsupported difference operation %c in PAF record %v", entry.Operation, rec.QName)
		}
	}
	for i := len(splices) - 1; i >= 0; i-- {
		splice := splices[i]
		copies := make([]paf.DiffOperation, splice.count)
		for j := range copies {
			copies[j] = diff[splice.index]
		}
		diff = append(diff[:splice.index+1], append(copies, diff[splice.index+1:]...)...)
	}
	rec.TAGS.Set(paf.CS, diff)
	if value, found := rec.TAGS.Get(paf.NM); found {
		if _, ok := value.(int64); !ok {
			return fmt.Errorf("NM tag of PAF record %v is not an integer", rec.QName)
		}
		rec.TAGS.Set(paf.NM, mismatchesAndGaps)
	}
	return nil
}
