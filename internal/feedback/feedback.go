// Package feedback implements the revision-feedback ledger embedded in
// character and page records. A State carries the live feedback note,
// the admin reply and conversation thread layered on top of it, and the
// append-only history of archived notes. History entries are never
// edited or removed once written, and a revision round stamped onto an
// entry never changes.
package feedback

import "time"

// Author values for conversation messages.
const (
	AuthorAdmin    = "admin"
	AuthorCustomer = "customer"
)

// Message is a single exchange in a conversation thread.
type Message struct {
	Author string    `json:"author"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// Entry is an archived feedback note. Append-only once written.
type Entry struct {
	Note          string    `json:"note"`
	CreatedAt     time.Time `json:"created_at"`
	RevisionRound int       `json:"revision_round,omitempty"`
	Thread        []Message `json:"thread,omitempty"`
}

// State is the full feedback condition of a single item. The zero value
// is a resolved item with no history.
type State struct {
	Notes      string    `json:"notes,omitempty"`
	Resolved   bool      `json:"resolved"`
	AdminReply string    `json:"admin_reply,omitempty"`
	Thread     []Message `json:"thread,omitempty"`
	History    []Entry   `json:"history,omitempty"`
}

// Open reports whether the item carries an unresolved revision request.
func (s *State) Open() bool {
	return !s.Resolved && s.Notes != ""
}

// Submit installs a live feedback note on an item with no open request.
// Use ReplaceRequest to supersede an existing note.
func (s *State) Submit(note string) error {
	if note == "" {
		return ErrEmptyNote
	}
	if s.Open() {
		return ErrOpenFeedback
	}

	s.Notes = note
	s.Resolved = false
	return nil
}

// Reply records the admin's response to the live feedback note.
func (s *State) Reply(text string) error {
	if text == "" {
		return ErrEmptyNote
	}
	if !s.Open() {
		return ErrNotOpen
	}

	s.AdminReply = text
	return nil
}

// AppendFollowUp records a customer message sent after an admin reply.
// The pending reply and the customer text are appended to the
// conversation thread as two messages, and the reply slot is cleared so
// a new admin response is required. The live note is preserved verbatim:
// a follow-up continues the conversation, it does not supersede the
// original request.
func (s *State) AppendFollowUp(text string, now time.Time) error {
	if text == "" {
		return ErrEmptyNote
	}
	if !s.Open() {
		return ErrNotOpen
	}
	if s.AdminReply == "" {
		return ErrNoAdminReply
	}

	s.Thread = append(s.Thread,
		Message{Author: AuthorAdmin, Text: s.AdminReply, SentAt: now},
		Message{Author: AuthorCustomer, Text: text, SentAt: now},
	)
	s.AdminReply = ""
	return nil
}

// ResolveByRegeneration archives the live note when regeneration is
// triggered in response to it. The note and its conversation thread move
// into history stamped with the given revision round; the reply slot and
// thread are cleared and the item becomes resolved.
func (s *State) ResolveByRegeneration(round int, now time.Time) {
	s.archive(round, now)
	s.Notes = ""
	s.AdminReply = ""
	s.Thread = nil
	s.Resolved = true
}

// ResolveManually marks the item resolved without regenerating. When an
// admin reply exists, the note and reply remain visible as a resolved
// comment instead of being archived; otherwise this behaves like
// ResolveByRegeneration.
func (s *State) ResolveManually(round int, now time.Time) {
	if s.AdminReply != "" {
		s.Thread = nil
		s.Resolved = true
		return
	}
	s.ResolveByRegeneration(round, now)
}

// ReplaceRequest supersedes the current note with a new one. The old
// note, if any, is always archived first; the new note is installed
// live and unresolved with a cleared reply slot and thread.
func (s *State) ReplaceRequest(note string, round int, now time.Time) error {
	if note == "" {
		return ErrEmptyNote
	}

	s.archive(round, now)
	s.Notes = note
	s.AdminReply = ""
	s.Thread = nil
	s.Resolved = false
	return nil
}

func (s *State) archive(round int, now time.Time) {
	if s.Notes == "" {
		return
	}

	entry := Entry{
		Note:          s.Notes,
		CreatedAt:     now,
		RevisionRound: round,
	}
	if len(s.Thread) > 0 {
		entry.Thread = append([]Message(nil), s.Thread...)
	}
	s.History = append(s.History, entry)
}
