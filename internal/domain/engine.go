package domain

import "context"

// ProgressFunc receives fractional completion in the range [0,1] while a
// remux operation runs.
type ProgressFunc func(fraction float64)

// RemuxEngine is the narrow boundary to the media toolchain. The pipeline
// writes one transport-stream input, runs a single container remux, reads
// the result back and removes both scratch files. Implementations own their
// scratch storage; callers never see paths, only names scoped to the engine.
type RemuxEngine interface {
	// WriteInput stores the concatenated transport stream under name
	WriteInput(name string, data []byte) error

	// Remux repackages the named input into an MP4 output without
	// re-encoding, reporting fractional progress through onProgress
	Remux(ctx context.Context, inputName, outputName string, onProgress ProgressFunc) error

	// ReadOutput returns the produced MP4 bytes
	ReadOutput(name string) ([]byte, error)

	// Remove deletes a scratch file; missing files are not an error
	Remove(name string) error
}
