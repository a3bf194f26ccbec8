package llm

import (
	"context"
)

// Image is an encoded photo attached to a completion request.
type Image struct {
	Data     []byte
	MimeType string
}

// Request is a single-turn completion: one system instruction, one user
// message, and an optional inline image.
type Request struct {
	System      string
	Prompt      string
	Image       *Image
	MaxTokens   int
	Temperature float64
}

// Completer is implemented by every hosted or local model backend. It returns
// the raw reply text; interpreting it is the caller's job.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// NormaliseMIME maps browser MIME types to the set vision APIs accept
// (jpeg, png, gif, webp). Unknown types are coerced to jpeg.
func NormaliseMIME(mimeType string) string {
	switch mimeType {
	case "image/png", "image/gif", "image/webp":
		return mimeType
	default:
		return "image/jpeg"
	}
}
