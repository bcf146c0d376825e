package recognize

import (
	"context"
)

// Recognition is the raw text result from an external recognition service.
type Recognition struct {
	Text       string
	Confidence float64 // 0..100
	Warnings   []string
}

// Recognizer is the external recognition collaborator boundary. It may be
// slow or unavailable; callers wrap every invocation with a timeout and
// treat failure as a stage failure, not a crash.
type Recognizer interface {
	Name() string
	Recognize(ctx context.Context, png []byte) (Recognition, error)
}
