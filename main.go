// minimap2-homopolymer-decompression rewrites PAF mapping records that
// were computed against homopolymer-compressed sequences so that all
// coordinates, alignment operations and derived statistics refer to
// the original, decompressed sequences.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/sebschmi/minimap2-homopolymer-decompression/cmd"
)

func printHelp() {
	fmt.Fprintln(os.Stderr, "Available commands: decompress")
	fmt.Fprint(os.Stderr, "\n", cmd.DecompressHelp)
}

func main() {
	fmt.Fprintln(os.Stderr, cmd.ProgramMessage)
	if len(os.Args) < 2 {
		log.Println("Incorrect number of parameters.")
		fmt.Fprint(os.Stderr, cmd.HelpMessage, "\n")
		printHelp()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "decompress":
		err = cmd.Decompress()
	case "help", "-help", "--help", "-h", "--h":
		printHelp()
	default:
		log.Println("Unknown command: ", os.Args[1])
		fmt.Fprint(os.Stderr, cmd.HelpMessage, "\n")
		printHelp()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal(err)
	}
}
