// Package artifact provides the typed artifact-reference value used by
// character and page records. A Ref wraps the persisted text column and
// discriminates between "not yet generated", "generated" (a blob URL),
// and "generation failed" (an error sentinel). The sentinel encoding is
// a persisted contract: historical rows and external callers store
// failures as "error:" prefixed strings in the same column as URLs.
package artifact

import (
	"encoding/json"
	"strings"
)

// FailedPrefix marks a persisted artifact reference as a failure sentinel.
const FailedPrefix = "error:"

// State discriminates the condition of an artifact reference.
type State int

// Artifact reference states.
const (
	StateNotStarted State = iota
	StateReady
	StateFailed
)

// Ref is an immutable artifact reference. The zero value is NotStarted.
type Ref struct {
	raw string
}

// Parse interprets a persisted column value as a Ref.
func Parse(raw string) Ref {
	return Ref{raw: raw}
}

// Ready creates a Ref holding a generated artifact URL.
func Ready(url string) Ref {
	return Ref{raw: url}
}

// Failed creates a Ref holding a failure sentinel with the given reason.
func Failed(reason string) Ref {
	return Ref{raw: FailedPrefix + reason}
}

// None returns the NotStarted Ref.
func None() Ref {
	return Ref{}
}

// State returns the discriminated state of the reference.
func (r Ref) State() State {
	switch {
	case r.raw == "":
		return StateNotStarted
	case strings.HasPrefix(r.raw, FailedPrefix):
		return StateFailed
	default:
		return StateReady
	}
}

// URL returns the artifact URL when the reference is Ready.
func (r Ref) URL() (string, bool) {
	if r.State() != StateReady {
		return "", false
	}
	return r.raw, true
}

// FailureReason returns the recorded reason when the reference is Failed.
func (r Ref) FailureReason() (string, bool) {
	if r.State() != StateFailed {
		return "", false
	}
	return strings.TrimPrefix(r.raw, FailedPrefix), true
}

// NeedsGeneration reports whether this reference is in retry scope:
// either never generated or holding a failure sentinel.
func (r Ref) NeedsGeneration() bool {
	return r.State() != StateReady
}

// String returns the persisted column form of the reference.
func (r Ref) String() string {
	return r.raw
}

// MarshalJSON serializes the reference as its persisted string form.
func (r Ref) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.raw)
}

// UnmarshalJSON restores a reference from its persisted string form.
func (r *Ref) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &r.raw)
}
