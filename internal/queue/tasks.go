package queue

const (
	TypeTranscriptionRun = "transcription:run"
)

type TranscriptionRunPayload struct {
	JobID string `json:"job_id"`
}
