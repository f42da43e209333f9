package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/nikhilbhutani/chunkscribe/internal/models"
	"github.com/nikhilbhutani/chunkscribe/internal/transcription"
)

// Options decodes the task mode stored with a job.
func Options(job *models.TranscriptionJob) (transcription.Options, error) {
	var opts transcription.Options
	if len(job.Options) == 0 {
		return opts, nil
	}
	if err := json.Unmarshal(job.Options, &opts); err != nil {
		return opts, fmt.Errorf("decode job options: %w", err)
	}
	return opts, nil
}
