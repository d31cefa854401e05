// Package generation abstracts calls to external image-generation
// services. Clients return a discriminated Result: ordinary generation
// failure (provider error, timeout, empty response) is data, not a Go
// error, so a single flaky item can never abort its siblings in a
// dispatch batch.
package generation

import "context"

// Kind selects the artwork variant to generate.
type Kind string

// Artwork kinds.
const (
	KindPortrait        Kind = "portrait"
	KindCharacterSketch Kind = "character_sketch"
	KindIllustration    Kind = "illustration"
	KindPageSketch      Kind = "page_sketch"
)

// Request describes a single generation call.
type Request struct {
	Kind          Kind
	Prompt        string
	ReferenceURLs []string
}

// Result is the discriminated outcome of a generation call. Exactly one
// of Data or FailureReason is meaningful, selected by Success.
type Result struct {
	Success       bool
	Data          []byte
	ContentType   string
	FailureReason string
}

// Failure creates a failed Result with the given reason.
func Failure(reason string) Result {
	return Result{FailureReason: reason}
}

// Client generates artwork from prompts and reference images.
type Client interface {
	Generate(ctx context.Context, req Request) Result
}
