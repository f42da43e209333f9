package pipeline

import (
	"strings"

	"github.com/nikhilbhutani/chunkscribe/internal/transcription"
)

const (
	// Separator follows every segment's text in the assembled transcript.
	Separator = "\n"
	// Placeholder stands in for a segment whose transcription failed.
	Placeholder = "[Error transcribing chunk]"
)

// State is a stage of a pipeline run.
type State string

const (
	StateIdle         State = "idle"
	StateFetching     State = "fetching"
	StateSegmenting   State = "segmenting"
	StateTranscribing State = "transcribing"
	StateAssembling   State = "assembling"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// SegmentResult is the outcome for one segment, in ordinal position Index.
type SegmentResult struct {
	Index  int    `json:"index"`
	Text   string `json:"text"`
	Failed bool   `json:"failed,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Transcript is the ordered set of segment results for one source.
type Transcript struct {
	Source    string             `json:"source"`
	Bytes     int                `json:"bytes"`
	ChunkSize int                `json:"chunk_size"`
	Task      transcription.Task `json:"task"`
	Segments  []SegmentResult    `json:"segments"`
}

// Text joins segment texts in order, each followed by Separator.
func (t *Transcript) Text() string {
	var b strings.Builder
	for _, s := range t.Segments {
		b.WriteString(s.Text)
		b.WriteString(Separator)
	}
	return b.String()
}

// Failures counts segments that hold Placeholder.
func (t *Transcript) Failures() int {
	n := 0
	for _, s := range t.Segments {
		if s.Failed {
			n++
		}
	}
	return n
}
