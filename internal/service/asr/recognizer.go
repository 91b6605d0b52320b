package asr

import "context"

// Recognizer converts one discrete audio unit into text. An empty
// string with a nil error means the backend heard nothing; the caller
// decides what a recognition failure degrades to.
type Recognizer interface {
	Recognize(ctx context.Context, audio []byte) (string, error)
}
