package paf

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/klauspost/compress/gzip"

	"github.com/sebschmi/minimap2-homopolymer-decompression/utils"
)

// DefaultBufferSize is the default size in bytes of the buffers for
// reading and writing PAF files.
const DefaultBufferSize = 0x4000000

func (sc *StringScanner) doString() string {
	if sc.err != nil {
		return ""
	}
	value, ok := sc.readUntil('\t')
	if !ok {
		if sc.err == nil {
			sc.err = fmt.Errorf("missing tabulator in PAF record")
		}
		return ""
	}
	return value
}

func (sc *StringScanner) doInt64() int64 {
	if sc.err != nil {
		return 0
	}
	value, err := strconv.ParseInt(sc.doString(), 10, 64)
	if (err != nil) && (sc.err == nil) {
		sc.err = err
	}
	return value
}

// ParseOptionalField parses a single typed PAF tag of the form
// tg:T:value. The cg and cs tags are parsed into their structured
// representations; all other tags are parsed according to their type
// byte.
func (sc *StringScanner) ParseOptionalField() (tag utils.Symbol, value interface{}) {
	if sc.err != nil {
		return nil, nil
	}
	tagname, ok := sc.readUntil(':')
	if !ok || (len(tagname) != 2) {
		if sc.err == nil {
			sc.err = fmt.Errorf("invalid field tag %v in PAF record", tagname)
		}
		return nil, nil
	}
	typebyte, ok := sc.readByteUntil(':')
	if !ok {
		if sc.err == nil {
			sc.err = fmt.Errorf("invalid field type %v in PAF record", typebyte)
		}
		return nil, nil
	}
	raw, _ := sc.readUntil('\t')
	if sc.err != nil {
		return nil, nil
	}
	tag = utils.Intern(tagname)
	switch typebyte {
	case 'A':
		if len(raw) != 1 {
			sc.err = fmt.Errorf("invalid character field %v in PAF record", raw)
			return nil, nil
		}
		return tag, raw[0]
	case 'i':
		val, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			sc.err = err
			return nil, nil
		}
		return tag, val
	case 'f':
		val, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			sc.err = err
			return nil, nil
		}
		return tag, val
	case 'Z':
		switch tag {
		case CG:
			ops, err := ScanCigarString(raw)
			if err != nil {
				sc.err = err
				return nil, nil
			}
			return tag, ops
		case CS:
			diff, err := ScanDiffString(raw)
			if err != nil {
				sc.err = err
				return nil, nil
			}
			return tag, diff
		default:
			return tag, raw
		}
	default:
		sc.err = fmt.Errorf("invalid field type %c in PAF record", typebyte)
		return nil, nil
	}
}

// ParseRecord parses one line of a PAF file into a freshly allocated
// Record. The line must not contain the trailing line feed.
func ParseRecord(line []byte) (*Record, error) {
	var sc StringScanner
	sc.Reset(string(line))
	rec := NewRecord()

	rec.QName = sc.doString()
	rec.QLength = sc.doInt64()
	rec.QStart = sc.doInt64()
	rec.QEnd = sc.doInt64()
	rec.Strand, _ = sc.readByteUntil('\t')
	rec.TName = sc.doString()
	rec.TLength = sc.doInt64()
	rec.TStart = sc.doInt64()
	rec.TEnd = sc.doInt64()
	rec.Matches = sc.doInt64()
	rec.AlignmentLength = sc.doInt64()
	if mapq, _ := sc.readUntil('\t'); sc.err == nil {
		val, err := strconv.ParseUint(mapq, 10, 8)
		if err != nil {
			sc.err = err
		}
		rec.MapQ = byte(val)
	}

	for sc.Len() > 0 {
		rec.TAGS.Set(sc.ParseOptionalField())
	}

	if err := sc.Err(); err != nil {
		return nil, err
	}
	if (rec.Strand != '+') && (rec.Strand != '-') {
		return nil, fmt.Errorf("invalid strand %c in PAF record %v", rec.Strand, rec.QName)
	}
	return rec, nil
}

func formatTag(out []byte, tag utils.Symbol, value interface{}) ([]byte, error) {
	out = append(out, '\t')
	out = append(out, *tag...)

	switch val := value.(type) {
	case byte:
		out = append(append(out, ":A:"...), val)
	case int64:
		out = strconv.AppendInt(append(out, ":i:"...), val, 10)
	case float64:
		out = strconv.AppendFloat(append(out, ":f:"...), val, 'g', -1, 64)
	case string:
		out = append(append(out, ":Z:"...), val...)
	case []CigarOperation:
		out = FormatCigarString(append(out, ":Z:"...), val)
	case []DiffOperation:
		out = FormatDiffString(append(out, ":Z:"...), val)
	default:
		return nil, fmt.Errorf("unknown PAF tag type %T for tag %v", value, *tag)
	}

	return out, nil
}

// Format appends the tab-delimited textual form of the record plus a
// trailing line feed to out.
func (rec *Record) Format(out []byte) ([]byte, error) {
	out = append(append(out, rec.QName...), '\t')
	out = append(strconv.AppendInt(out, rec.QLength, 10), '\t')
	out = append(strconv.AppendInt(out, rec.QStart, 10), '\t')
	out = append(strconv.AppendInt(out, rec.QEnd, 10), '\t')
	out = append(append(out, rec.Strand), '\t')
	out = append(append(out, rec.TName...), '\t')
	out = append(strconv.AppendInt(out, rec.TLength, 10), '\t')
	out = append(strconv.AppendInt(out, rec.TStart, 10), '\t')
	out = append(strconv.AppendInt(out, rec.TEnd, 10), '\t')
	out = append(strconv.AppendInt(out, rec.Matches, 10), '\t')
	out = append(strconv.AppendInt(out, rec.AlignmentLength, 10), '\t')
	out = strconv.AppendUint(out, uint64(rec.MapQ), 10)

	var err error
	for _, entry := range rec.TAGS {
		if out, err = formatTag(out, entry.Key, entry.Value); err != nil {
			return nil, err
		}
	}

	return append(out, '\n'), nil
}

type (
	// InputFile represents a PAF file for input.
	InputFile struct {
		rc   io.ReadCloser
		gz   *gzip.Reader
		buf  *bufio.Reader
		err  error
		data interface{}
	}

	// OutputFile represents a PAF file for output.
	OutputFile struct {
		wc io.WriteCloser
		gz *gzip.Writer
		*bufio.Writer
	}
)

// GzExt is the filename extension that selects transparent gzip
// (de)compression.
const GzExt = ".gz"

// Open a PAF file for input.
//
// If the filename extension is .gz, the input is transparently
// decompressed. If the name is "/dev/stdin", the input is read from
// os.Stdin.
func Open(name string, bufferSize int) (*InputFile, error) {
	var file *os.File
	if name == "/dev/stdin" {
		file = os.Stdin
	} else {
		var err error
		if file, err = os.Open(name); err != nil {
			return nil, err
		}
	}
	input := &InputFile{rc: file}
	if filepath.Ext(name) == GzExt {
		gz, err := gzip.NewReader(file)
		if err != nil {
			_ = file.Close()
			return nil, err
		}
		input.gz = gz
		input.buf = bufio.NewReaderSize(gz, bufferSize)
	} else {
		input.buf = bufio.NewReaderSize(file, bufferSize)
	}
	return input, nil
}

// NewInputFile returns an InputFile that reads PAF records from the
// given reader.
func NewInputFile(r io.Reader) *InputFile {
	return &InputFile{rc: io.NopCloser(r), buf: bufio.NewReader(r)}
}

// Close closes the PAF input file.
func (f *InputFile) Close() error {
	if f.gz != nil {
		if err := f.gz.Close(); err != nil {
			return err
		}
	}
	if f.rc != os.Stdin {
		return f.rc.Close()
	}
	return nil
}

// Err implements the method of the pipeline.Source interface.
func (f *InputFile) Err() error {
	if f.err != io.EOF {
		return f.err
	}
	return nil
}

// Prepare implements the method of the pipeline.Source interface.
func (f *InputFile) Prepare(_ context.Context) int {
	return -1
}

// Fetch implements the method of the pipeline.Source interface. It
// fetches up to size lines from the input, without their trailing
// line feeds. Empty lines are skipped.
func (f *InputFile) Fetch(size int) int {
	if f.err != nil {
		f.data = nil
		return 0
	}
	lines := make([][]byte, 0, size)
	for len(lines) < size {
		line, err := f.buf.ReadBytes('\n')
		if n := len(line); n > 0 && line[n-1] == '\n' {
			line = line[:n-1]
		}
		if len(line) > 0 {
			lines = append(lines, line)
		}
		if err != nil {
			f.err = err
			break
		}
	}
	f.data = lines
	return len(lines)
}

// Data implements the method of the pipeline.Source interface.
func (f *InputFile) Data() interface{} {
	return f.data
}

// Create a PAF file for output.
//
// If the filename extension is .gz, the output is transparently
// compressed. If the name is "/dev/stdout", the output is written to
// os.Stdout.
func Create(name string, bufferSize int) (*OutputFile, error) {
	var file *os.File
	if name == "/dev/stdout" {
		file = os.Stdout
	} else {
		var err error
		if file, err = os.Create(name); err != nil {
			return nil, err
		}
	}
	output := &OutputFile{wc: file}
	if filepath.Ext(name) == GzExt {
		output.gz = gzip.NewWriter(file)
		output.Writer = bufio.NewWriterSize(output.gz, bufferSize)
	} else {
		output.Writer = bufio.NewWriterSize(file, bufferSize)
	}
	return output, nil
}

// NewOutputFile returns an OutputFile that writes PAF records to the
// given writer.
func NewOutputFile(w io.Writer) *OutputFile {
	return &OutputFile{Writer: bufio.NewWriter(w)}
}

// Close flushes and closes the PAF output file.
func (f *OutputFile) Close() error {
	if err := f.Flush(); err != nil {
		return err
	}
	if f.gz != nil {
		if err := f.gz.Close(); err != nil {
			return err
		}
	}
	if f.wc != nil && f.wc != os.Stdout {
		return f.wc.Close()
	}
	return nil
}
