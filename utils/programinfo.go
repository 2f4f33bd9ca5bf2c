package utils

const (
	// ProgramName is the name of the binary
	ProgramName = "minimap2-homopolymer-decompression"

	// ProgramVersion is the version of the binary
	ProgramVersion = "1.0.0"

	// ProgramURL is the repository for the source code
	ProgramURL = "https://github.com/sebschmi/minimap2-homopolymer-decompression"
)
