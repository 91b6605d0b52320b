package tts

import "context"

// Synthesizer renders reply text into a playable audio artifact and
// returns its serving path (e.g. "/audio/<uuid>.mp3"). Artifacts are
// write-once; this component never overwrites or deletes them.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (string, error)
}
