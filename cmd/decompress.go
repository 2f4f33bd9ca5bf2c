package cmd

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/sebschmi/minimap2-homopolymer-decompression/hodeco"
	"github.com/sebschmi/minimap2-homopolymer-decompression/paf"
)

// DecompressHelp is the help string for the decompress command.
const DecompressHelp = "\nminimap2-homopolymer-decompression decompress paf-input paf-output\n" +
	"--hodeco-map file\n" +
	"[--nr-of-threads number]\n" +
	"[--queue-size number]\n" +
	"[--io-buffer-size number]\n" +
	"[--timed]\n" +
	"[--profile file]\n" +
	"[--log-path path]\n"

// Decompress parses the command line for the decompress command,
// loads the offset tables, and runs the decompression pipeline.
func Decompress() error {
	var flags flag.FlagSet

	var (
		hodecoMap    string
		nrOfThreads  int
		queueSize    int
		ioBufferSize int
		timed        bool
		profile      string
		logPath      string
	)

	flags.StringVar(&hodecoMap, "hodeco-map", "", "file containing the homopolymer decompression offset tables")
	flags.IntVar(&nrOfThreads, "nr-of-threads", hodeco.DefaultNrOfThreads, "number of worker threads")
	flags.IntVar(&queueSize, "queue-size", hodeco.DefaultQueueSize, "number of records per batch between the pipeline stages")
	flags.IntVar(&ioBufferSize, "io-buffer-size", paf.DefaultBufferSize, "size of the I/O buffers in bytes")
	flags.BoolVar(&timed, "timed", false, "measure the runtime")
	flags.StringVar(&profile, "profile", "", "write a runtime profile to the specified file(s)")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")

	parseFlags(flags, 4, DecompressHelp)

	input := getFilename(os.Args[2], DecompressHelp)
	output := getFilename(os.Args[3], DecompressHelp)

	setLogOutput(logPath)

	// sanity checks

	var sanityChecksFailed bool

	if !checkExist("", input) {
		sanityChecksFailed = true
	}
	if !checkCreate("", output) {
		sanityChecksFailed = true
	}
	if hodecoMap == "" {
		sanityChecksFailed = true
		log.Println("Error: Missing --hodeco-map parameter.")
	} else if !checkExist("--hodeco-map", hodecoMap) {
		sanityChecksFailed = true
	}
	if nrOfThreads < 1 {
		sanityChecksFailed = true
		log.Println("Error: Invalid nr-of-threads: ", nrOfThreads)
	}
	if queueSize < 1 {
		sanityChecksFailed = true
		log.Println("Error: Invalid queue-size: ", queueSize)
	}
	if ioBufferSize < 1 {
		sanityChecksFailed = true
		log.Println("Error: Invalid io-buffer-size: ", ioBufferSize)
	}
	if profile != "" && !checkCreate("--profile", profile) {
		sanityChecksFailed = true
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, DecompressHelp)
		os.Exit(1)
	}

	var command bytes.Buffer
	fmt.Fprint(&command, os.Args[0], " decompress ", input, " ", output,
		" --hodeco-map ", hodecoMap,
		" --nr-of-threads ", nrOfThreads,
		" --queue-size ", queueSize,
		" --io-buffer-size ", ioBufferSize,
	)
	log.Println("Executing command:\n", command.String())

	var tables hodeco.OffsetTableStore
	phase := int64(1)
	err := timedRun(timed, profile, "Loading hodeco map.", phase, func() (err error) {
		tables, err = hodeco.LoadOffsetTables(hodecoMap, ioBufferSize)
		return err
	})
	if err != nil {
		return err
	}

	phase++
	return timedRun(timed, profile, "Decompressing PAF records.", phase, func() (err error) {
		pafInput, err := paf.Open(input, ioBufferSize)
		if err != nil {
			return err
		}
		defer func() {
			nerr := pafInput.Close()
			if err == nil {
				err = nerr
			}
		}()
		pafOutput, err := paf.Create(output, ioBufferSize)
		if err != nil {
			return err
		}
		defer func() {
			nerr := pafOutput.Close()
			if err == nil {
				err = nerr
			}
		}()
		return hodeco.RunPipeline(pafInput, pafOutput, tables, nrOfThreads, queueSize)
	})
}
