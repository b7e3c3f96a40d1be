package hls

// Concat merges the downloaded segment buffers into one contiguous
// transport stream. Byte-for-byte concatenation in input order, no framing
// added; the output length equals the sum of the input lengths.
func Concat(segments [][]byte) []byte {
	total := 0
	for _, segment := range segments {
		total += len(segment)
	}

	combined := make([]byte, total)
	offset := 0
	for _, segment := range segments {
		copy(combined[offset:], segment)
		offset += len(segment)
	}
	return combined
}
