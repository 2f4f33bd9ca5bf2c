package paf

import (
	"strings"
	"testing"
)

func TestParseRecord(t *testing.T) {
	line := "read1\t100\t10\t90\t+\tctg1\t200\t50\t130\t75\t80\t60\ttp:A:P\tcm:i:12\tNM:i:5\tcg:Z:30M2I28M2D20M\tcs:Z::30+ac:28-tt:20\tdv:f:0.0012"
	rec, err := ParseRecord([]byte(line))
	if err != nil {
		t.Fatal(err)
	}
	if rec.QName != "read1" || rec.QLength != 100 || rec.QStart != 10 || rec.QEnd != 90 {
		t.Error("query fields parsed incorrectly")
	}
	if rec.Strand != '+' {
		t.Error("strand parsed incorrectly")
	}
	if rec.TName != "ctg1" || rec.TLength != 200 || rec.TStart != 50 || rec.TEnd != 130 {
		t.Error("target fields parsed incorrectly")
	}
	if rec.Matches != 75 || rec.AlignmentLength != 80 || rec.MapQ != 60 {
		t.Error("statistics fields parsed incorrectly")
	}
	if value, found := rec.TAGS.Get(NM); !found || value.(int64) != 5 {
		t.Error("NM tag parsed incorrectly")
	}
	if value, found := rec.TAGS.Get(DV); !found || value.(float64) != 0.0012 {
		t.Error("dv tag parsed incorrectly")
	}
	value, found := rec.TAGS.Get(CG)
	if !found {
		t.Fatal("cg tag missing")
	}
	cigar := value.([]CigarOperation)
	expectedCigar := []CigarOperation{{30, 'M'}, {2, 'I'}, {28, 'M'}, {2, 'D'}, {20, 'M'}}
	if len(cigar) != len(expectedCigar) {
		t.Fatal("cg tag has the wrong number of operations")
	}
	for i, op := range expectedCigar {
		if cigar[i] != op {
			t.Error("cg operation ", i, " parsed incorrectly")
		}
	}
	value, found = rec.TAGS.Get(CS)
	if !found {
		t.Fatal("cs tag missing")
	}
	diff := value.([]DiffOperation)
	expectedDiff := []DiffOperation{
		{Operation: ':', Length: 30},
		{Operation: '+', Sequence: "ac"},
		{Operation: ':', Length: 28},
		{Operation: '-', Sequence: "tt"},
		{Operation: ':', Length: 20},
	}
	if len(diff) != len(expectedDiff) {
		t.Fatal("cs tag has the wrong number of entries")
	}
	for i, entry := range expectedDiff {
		if diff[i] != entry {
			t.Error("cs entry ", i, " parsed incorrectly")
		}
	}
}

func TestRecordRoundTrip(t *testing.T) {
	lines := []string{
		"read1\t100\t10\t90\t+\tctg1\t200\t50\t130\t75\t80\t60\ttp:A:P\tcm:i:12\tNM:i:5\tcg:Z:30M2I28M2D20M\tcs:Z::30+ac:28-tt:20\tdv:f:0.0012\tde:f:0.001",
		"read2\t50\t0\t50\t-\tctg2\t60\t5\t55\t50\t50\t0",
		"read3\t10\t0\t10\t+\tctg1\t200\t0\t10\t10\t10\t255\tSA:Z:ctg2,5,+,10M,60,0\tcs:Z:*ac*gt",
	}
	for _, line := range lines {
		rec, err := ParseRecord([]byte(line))
		if err != nil {
			t.Fatal(err)
		}
		out, err := rec.Format(nil)
		if err != nil {
			t.Fatal(err)
		}
		if string(out) != line+"\n" {
			t.Error("round trip failed: got ", string(out), " want ", line)
		}
	}
}

func TestParseRecordErrors(t *testing.T) {
	lines := []string{
		"",
		"read1\t100\t10",
		"read1\t100\t10\t90\t",
		"read1\t100\t10\t90\t+",
		"read1\t100\t10\t90\tx\tctg1\t200\t50\t130\t75\t80\t60",
		"read1\t100\t10\t90\t+\tctg1\t200\t50\t130\t75\t80\tabc",
		"read1\tnot-a-number\t10\t90\t+\tctg1\t200\t50\t130\t75\t80\t60",
		"read1\t100\t10\t90\t+\tctg1\t200\t50\t130\t75\t80\t60\txx:Q:1",
		"read1\t100\t10\t90\t+\tctg1\t200\t50\t130\t75\t80\t60\tcg:Z:3Q",
		"read1\t100\t10\t90\t+\tctg1\t200\t50\t130\t75\t80\t60\tcs:Z:~",
	}
	for _, line := range lines {
		if _, err := ParseRecord([]byte(line)); err == nil {
			t.Error("expected a parse error for PAF line ", line)
		}
	}
}

func TestStringScannerTruncated(t *testing.T) {
	var sc StringScanner
	sc.Reset("a\t")
	if _, found := sc.readUntil('\t'); !found {
		t.Fatal("expected to find the tabulator")
	}
	if _, found := sc.readByteUntil('\t'); found {
		t.Error("expected no byte at the end of the string")
	}
	if sc.Err() == nil {
		t.Error("expected an error when reading a byte past the end of the string")
	}
}

func TestScanCigarString(t *testing.T) {
	cigar, err := ScanCigarString("5M1D3M")
	if err != nil {
		t.Fatal(err)
	}
	expected := []CigarOperation{{5, 'M'}, {1, 'D'}, {3, 'M'}}
	if len(cigar) != len(expected) {
		t.Fatal("wrong number of CIGAR operations")
	}
	for i, op := range expected {
		if cigar[i] != op {
			t.Error("CIGAR operation ", i, " scanned incorrectly")
		}
	}
	for _, bad := range []string{"M", "5", "5Q", "5M3"} {
		if _, err := ScanCigarString(bad); err == nil {
			t.Error("expected an error for CIGAR string ", bad)
		}
	}
}

func TestScanDiffString(t *testing.T) {
	diff, err := ScanDiffString(":6-ata:10*ag+c")
	if err != nil {
		t.Fatal(err)
	}
	expected := []DiffOperation{
		{Operation: ':', Length: 6},
		{Operation: '-', Sequence: "ata"},
		{Operation: ':', Length: 10},
		{Operation: '*', RefBase: 'a', QueryBase: 'g'},
		{Operation: '+', Sequence: "c"},
	}
	if len(diff) != len(expected) {
		t.Fatal("wrong number of cs entries")
	}
	for i, entry := range expected {
		if diff[i] != entry {
			t.Error("cs entry ", i, " scanned incorrectly")
		}
	}
	for _, bad := range []string{":", ":x", "+", "-", "*a", "=acgt", "x"} {
		if _, err := ScanDiffString(bad); err == nil {
			t.Error("expected an error for cs string ", bad)
		}
	}
}

func TestInputFileFetch(t *testing.T) {
	input := NewInputFile(strings.NewReader("line1\nline2\nline3"))
	if fetched := input.Fetch(2); fetched != 2 {
		t.Fatal("expected to fetch 2 lines, got ", fetched)
	}
	lines := input.Data().([][]byte)
	if string(lines[0]) != "line1" || string(lines[1]) != "line2" {
		t.Error("fetched lines are incorrect")
	}
	if fetched := input.Fetch(2); fetched != 1 {
		t.Fatal("expected to fetch 1 line, got ", fetched)
	}
	lines = input.Data().([][]byte)
	if string(lines[0]) != "line3" {
		t.Error("final unterminated line is incorrect")
	}
	if fetched := input.Fetch(2); fetched != 0 {
		t.Error("expected no more lines, got ", fetched)
	}
	if err := input.Err(); err != nil {
		t.Error("EOF must not be reported as a source error: ", err)
	}
}
