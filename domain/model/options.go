package model

// BatchOptions configures one batch run. It is plain data: validation
// happens in the orchestrator via ResolveParameters and the scanner.
type BatchOptions struct {
	// InputDir is the root directory to search for source files
	InputDir string

	// Format selects the output container/codec
	Format Format

	// Quality selects the bitrate tier; only meaningful for MP3
	Quality Quality

	// OutputDir, when set, receives the converted files with the input
	// subdirectory structure mirrored beneath it. Empty means each output
	// is written next to its input.
	OutputDir string

	// Recursive enables descending into subdirectories of InputDir
	Recursive bool

	// Workers bounds concurrent conversions; values <= 1 run sequentially
	Workers int
}
