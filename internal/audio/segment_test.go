package audio

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestSplitReassembles(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for _, size := range []int{1, 3, 7, 64, 1024} {
		for _, length := range []int{0, 1, size - 1, size, size + 1, 5*size + 3} {
			if length < 0 {
				continue
			}
			data := make([]byte, length)
			rng.Read(data)

			segments := Split(data, size)
			if got, want := len(segments), Count(length, size); got != want {
				t.Fatalf("size=%d len=%d: expected %d segments, got %d", size, length, want, got)
			}

			var joined []byte
			for i, seg := range segments {
				if seg.Index != i {
					t.Fatalf("size=%d len=%d: segment %d has index %d", size, length, i, seg.Index)
				}
				if len(seg.Data) == 0 {
					t.Fatalf("size=%d len=%d: segment %d is empty", size, length, i)
				}
				if i < len(segments)-1 && len(seg.Data) != size {
					t.Fatalf("size=%d len=%d: segment %d has length %d", size, length, i, len(seg.Data))
				}
				joined = append(joined, seg.Data...)
			}
			if !bytes.Equal(joined, data) {
				t.Fatalf("size=%d len=%d: reassembled data differs", size, length)
			}
		}
	}
}

func TestSplitEmpty(t *testing.T) {
	if segments := Split(nil, DefaultChunkSize); len(segments) != 0 {
		t.Fatalf("expected no segments, got %d", len(segments))
	}
	if segments := Split([]byte{}, 4); len(segments) != 0 {
		t.Fatalf("expected no segments, got %d", len(segments))
	}
}

func TestSplitSmallBufferSingleSegment(t *testing.T) {
	data := []byte("0123456789")
	segments := Split(data, DefaultChunkSize)
	if len(segments) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segments))
	}
	if len(segments[0].Data) != 10 {
		t.Fatalf("expected 10 bytes, got %d", len(segments[0].Data))
	}
}

func TestSplitLastSegmentLength(t *testing.T) {
	data := make([]byte, 10)
	segments := Split(data, 4)
	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segments))
	}
	if got := len(segments[2].Data); got != 2 {
		t.Fatalf("expected last segment of 2 bytes, got %d", got)
	}
}

func TestSplitSegmentsCannotGrowIntoNeighbour(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6}
	segments := Split(data, 3)

	_ = append(segments[0].Data, 0xff)
	if data[3] != 4 {
		t.Fatalf("append to segment 0 overwrote segment 1")
	}
}

func TestSplitNonPositiveSizeUsesDefault(t *testing.T) {
	data := make([]byte, DefaultChunkSize+1)
	if got := len(Split(data, 0)); got != 2 {
		t.Fatalf("expected 2 segments, got %d", got)
	}
	if got := Count(len(data), -1); got != 2 {
		t.Fatalf("expected count 2, got %d", got)
	}
}
