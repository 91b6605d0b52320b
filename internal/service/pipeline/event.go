package pipeline

// Frame types pushed to the client during a pipeline run.
const (
	EventASRResult   = "asr_result"
	EventLLMResponse = "llm_response"
	EventTTSAudio    = "tts_audio"
	EventError       = "error"
)

// Event is one outbound frame. Deliverables are pushed incrementally
// as each stage completes, never batched. AudioURL is always present
// on the wire: a failed synthesis delivers an explicit empty
// reference, not a missing key.
type Event struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	AudioURL string `json:"audio_url"`
	Message  string `json:"message,omitempty"`
}

// ErrorEvent builds an error frame for unexpected pipeline failures.
func ErrorEvent(message string) Event {
	return Event{Type: EventError, Message: message}
}
