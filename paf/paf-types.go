// Package paf implements reading, writing and in-memory representation
// of PAF pairwise mapping files, as produced by minimap2 and compatible
// mappers.
package paf

import (
	"fmt"
	"strconv"

	"github.com/sebschmi/minimap2-homopolymer-decompression/utils"
)

// A Record represents a single line in a PAF file.
//
// All coordinates are 0-based and half-open. Target coordinates always
// refer to the forward strand of the target sequence, also for records
// with Strand '-'.
type Record struct {
	QName           string
	QLength         int64
	QStart          int64
	QEnd            int64
	Strand          byte
	TName           string
	TLength         int64
	TStart          int64
	TEnd            int64
	Matches         int64
	AlignmentLength int64
	MapQ            byte
	TAGS            utils.SmallMap
}

// NewRecord allocates and initializes an empty PAF record.
func NewRecord() *Record {
	return &Record{TAGS: make(utils.SmallMap, 0, 8)}
}

// Symbols for the optional PAF tags that the homopolymer decompression
// algorithm reads or rewrites. All other tags pass through unchanged.
var (
	// CG is the run-length encoded alignment (CIGAR) tag.
	CG = utils.Intern("cg")
	// CS is the base-level difference string tag.
	CS = utils.Intern("cs")
	// NM is the total number of mismatches and gaps in the alignment.
	NM = utils.Intern("NM")
	// DV is the approximate per-base sequence divergence.
	DV = utils.Intern("dv")
	// DE is the gap-compressed per-base sequence divergence.
	DE = utils.Intern("de")
)

const cigarOperations = "MIDNSHP=X"

var cigarOperationsTable = make(map[byte]byte, len(cigarOperations))

func init() {
	for i := 0; i < len(cigarOperations); i++ {
		c := cigarOperations[i]
		cigarOperationsTable[c] = c
	}
}

func isDigit(char byte) bool { return ('0' <= char) && (char <= '9') }

func isBase(char byte) bool {
	return (('a' <= char) && (char <= 'z')) || (('A' <= char) && (char <= 'Z'))
}

// A CigarOperation is a single run in a cg tag.
type CigarOperation struct {
	Length    int64
	Operation byte
}

func newCigarOperation(cigar string, i int) (op CigarOperation, j int, err error) {
	for j = i; ; j++ {
		if j >= len(cigar) {
			err = fmt.Errorf("truncated CIGAR operation at the end of %v", cigar)
			return
		}
		if char := cigar[j]; !isDigit(char) {
			length, nerr := strconv.ParseInt(cigar[i:j], 10, 64)
			if nerr != nil {
				err = nerr
				return
			}
			if operation := cigarOperationsTable[char]; operation != 0 {
				op = CigarOperation{length, operation}
				j++
			} else {
				err = fmt.Errorf("invalid CIGAR operation %c", char)
			}
			return
		}
	}
}

// ScanCigarString parses a CIGAR string into a slice of CIGAR
// operations.
func ScanCigarString(cigar string) (slice []CigarOperation, err error) {
	for i := 0; i < len(cigar); {
		cigarOperation, j, err := newCigarOperation(cigar, i)
		if err != nil {
			return nil, fmt.Errorf("%v, while scanning CIGAR string %v", err, cigar)
		}
		slice = append(slice, cigarOperation)
		i = j
	}
	return slice, nil
}

// FormatCigarString appends the textual form of the given CIGAR
// operations to out.
func FormatCigarString(out []byte, cigar []CigarOperation) []byte {
	for _, op := range cigar {
		out = append(strconv.AppendInt(out, op.Length, 10), op.Operation)
	}
	return out
}

// A DiffOperation is a single entry in a cs difference string (short
// form). Operation is one of ':', '+', '-' and '*'. Length is only
// valid for ':' entries, Sequence only for '+' and '-' entries, and
// RefBase/QueryBase only for '*' entries.
type DiffOperation struct {
	Operation byte
	Length    int64
	Sequence  string
	RefBase   byte
	QueryBase byte
}

// ScanDiffString parses a cs difference string in its short form into
// a slice of difference operations.
func ScanDiffString(cs string) (slice []DiffOperation, err error) {
	for i := 0; i < len(cs); {
		switch op := cs[i]; op {
		case ':':
			j := i + 1
			for j < len(cs) && isDigit(cs[j]) {
				j++
			}
			length, nerr := strconv.ParseInt(cs[i+1:j], 10, 64)
			if nerr != nil {
				return nil, fmt.Errorf("%v, while scanning a match run in cs string %v", nerr, cs)
			}
			slice = append(slice, DiffOperation{Operation: ':', Length: length})
			i = j
		case '+', '-':
			j := i + 1
			for j < len(cs) && isBase(cs[j]) {
				j++
			}
			if j == i+1 {
				return nil, fmt.Errorf("missing sequence after %c in cs string %v", op, cs)
			}
			slice = append(slice, DiffOperation{Operation: op, Sequence: cs[i+1 : j]})
			i = j
		case '*':
			if i+2 >= len(cs) || !isBase(cs[i+1]) || !isBase(cs[i+2]) {
				return nil, fmt.Errorf("truncated mismatch entry in cs string %v", cs)
			}
			slice = append(slice, DiffOperation{Operation: '*', RefBase: cs[i+1], QueryBase: cs[i+2]})
			i += 3
		default:
			return nil, fmt.Errorf("invalid difference operation %c in cs string %v", op, cs)
		}
	}
	return slice, nil
}

// FormatDiffString appends the textual form of the given difference
// operations to out.
func FormatDiffString(out []byte, diff []DiffOperation) []byte {
	for _, entry := range diff {
		switch entry.Operation {
		case ':':
			out = strconv.AppendInt(append(out, ':'), entry.Length, 10)
		case '+', '-':
			out = append(append(out, entry.Operation), entry.Sequence...)
		case '*':
			out = append(out, '*', entry.RefBase, entry.QueryBase)
		}
	}
	return out
}
