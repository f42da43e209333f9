package audio

// DefaultChunkSize is the segment size used when none is configured (1 MiB).
const DefaultChunkSize = 1 << 20

// Segment is a contiguous byte range of the source audio.
type Segment struct {
	Index int
	Data  []byte
}

// Split partitions data into consecutive segments of size bytes.
// The last segment may be shorter; empty input yields no segments.
// Segments share the backing array of data.
func Split(data []byte, size int) []Segment {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if len(data) == 0 {
		return nil
	}

	segments := make([]Segment, 0, Count(len(data), size))
	for start, idx := 0, 0; start < len(data); start, idx = start+size, idx+1 {
		end := start + size
		if end > len(data) {
			end = len(data)
		}
		segments = append(segments, Segment{
			Index: idx,
			Data:  data[start:end:end],
		})
	}
	return segments
}

// Count returns how many segments Split produces for a buffer of the given length.
func Count(length, size int) int {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if length <= 0 {
		return 0
	}
	return (length + size - 1) / size
}
