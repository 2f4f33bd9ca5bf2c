package hodeco

import (
	"fmt"

	"github.com/exascience/pargo/pipeline"

	"github.com/sebschmi/minimap2-homopolymer-decompression/paf"
)

const (
	// DefaultQueueSize is the default number of records per batch
	// travelling between the pipeline stages.
	DefaultQueueSize = 32768

	// DefaultNrOfThreads is the default number of worker threads
	// decompressing records. Worker count is a throughput knob only;
	// output order is independent of it.
	DefaultNrOfThreads = 1
)

// LinesToRecords returns a pargo pipeline.Filter that parses batches
// of raw PAF lines into slices of freshly allocated Record values. A
// parse failure aborts the whole pipeline.
func LinesToRecords() pipeline.Filter {
	return func(p *pipeline.Pipeline, _ pipeline.NodeKind, _ *int) (receiver pipeline.Receiver, _ pipeline.Finalizer) {
		receiver = func(_ int, data interface{}) interface{} {
			lines := data.([][]byte)
			records := make([]*paf.Record, 0, len(lines))
			for _, line := range lines {
				rec, err := paf.ParseRecord(line)
				if err != nil {
					p.SetErr(fmt.Errorf("%v, while parsing PAF record %v", err, string(line)))
					return records
				}
				records = append(records, rec)
			}
			return records
		}
		return
	}
}

// DecompressRecords returns a pargo pipeline.Filter that applies
// store.DecompressRecord to every record it receives. The store is
// shared read-only state across all workers.
func DecompressRecords(store OffsetTableStore) pipeline.Filter {
	return func(p *pipeline.Pipeline, _ pipeline.NodeKind, _ *int) (receiver pipeline.Receiver, _ pipeline.Finalizer) {
		receiver = func(_ int, data interface{}) interface{} {
			records := data.([]*paf.Record)
			for _, rec := range records {
				if err := store.DecompressRecord(rec); err != nil {
					p.SetErr(err)
					return records
				}
			}
			return records
		}
		return
	}
}

// RecordsToBytes returns a pargo pipeline.Filter that formats slices
// of Record pointers into slices of bytes representing these records
// in the PAF text format, one line per record.
func RecordsToBytes() pipeline.Filter {
	return func(p *pipeline.Pipeline, _ pipeline.NodeKind, _ *int) (receiver pipeline.Receiver, _ pipeline.Finalizer) {
		receiver = func(_ int, data interface{}) interface{} {
			records := data.([]*paf.Record)
			lines := make([][]byte, 0, len(records))
			var buf []byte
			var err error
			for _, rec := range records {
				buf, err = rec.Format(buf)
				if err != nil {
					p.SetErr(fmt.Errorf("%v in RecordsToBytes", err))
					return lines
				}
				lines = append(lines, append([]byte(nil), buf...))
				buf = buf[:0]
			}
			return lines
		}
		return
	}
}

// RunPipeline streams all records from input through the decompression
// workers into output. nrOfThreads bounds the number of parallel
// workers, queueSize the number of records per batch between the
// stages; values below 1 select the defaults. The ordered sink keeps
// output order equal to input order for every worker count.
//
// The first error observed by any stage tears down the pipeline and is
// returned; a run either transforms and writes every input record, or
// fails without any guarantee about how much output was flushed.
func RunPipeline(input *paf.InputFile, output *paf.OutputFile, store OffsetTableStore, nrOfThreads, queueSize int) error {
	if nrOfThreads < 1 {
		nrOfThreads = DefaultNrOfThreads
	}
	if queueSize < 1 {
		queueSize = DefaultQueueSize
	}
	var p pipeline.Pipeline
	p.Source(input)
	p.SetVariableBatchSize(queueSize, queueSize)
	p.Add(
		pipeline.LimitedPar(nrOfThreads, LinesToRecords()),
		pipeline.LimitedPar(nrOfThreads, DecompressRecords(store)),
		pipeline.LimitedPar(0, RecordsToBytes()),
		pipeline.StrictOrd(pipeline.Receive(func(_ int, data interface{}) interface{} {
			var err error
			for _, line := range data.([][]byte) {
				if _, err = output.Write(line); err != nil {
					break
				}
			}
			if err != nil {
				p.SetErr(fmt.Errorf("%v, while writing PAF records to output", err))
			}
			return data
		})),
	)
	p.Run()
	return p.Err()
}
