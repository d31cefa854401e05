package feedback_test

import (
	"errors"
	"testing"
	"time"

	"github.com/atelierworks/atelier/internal/feedback"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestZeroValueIsResolved(t *testing.T) {
	var s feedback.State
	if s.Open() {
		t.Error("zero value should not be open")
	}
}

func TestSubmit(t *testing.T) {
	s := feedback.State{Resolved: true}

	if err := s.Submit("make the hair longer"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if !s.Open() {
		t.Error("state should be open after submit")
	}
	if s.Notes != "make the hair longer" {
		t.Errorf("notes = %q", s.Notes)
	}
	if s.Resolved {
		t.Error("resolved should be false after submit")
	}
}

func TestSubmitEmptyNote(t *testing.T) {
	var s feedback.State
	if err := s.Submit(""); !errors.Is(err, feedback.ErrEmptyNote) {
		t.Errorf("Submit(\"\") error = %v, want ErrEmptyNote", err)
	}
}

func TestSubmitWhileOpen(t *testing.T) {
	s := feedback.State{Notes: "original request", Resolved: false}

	if err := s.Submit("second request"); !errors.Is(err, feedback.ErrOpenFeedback) {
		t.Errorf("Submit() on open state error = %v, want ErrOpenFeedback", err)
	}
	if s.Notes != "original request" {
		t.Errorf("open note should be untouched, got %q", s.Notes)
	}
}

func TestReply(t *testing.T) {
	s := feedback.State{Notes: "change the background", Resolved: false}

	if err := s.Reply("we can darken it"); err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	if s.AdminReply != "we can darken it" {
		t.Errorf("admin reply = %q", s.AdminReply)
	}
}

func TestReplyWithoutOpenNote(t *testing.T) {
	s := feedback.State{Resolved: true}
	if err := s.Reply("hello"); !errors.Is(err, feedback.ErrNotOpen) {
		t.Errorf("Reply() error = %v, want ErrNotOpen", err)
	}
}

func TestAppendFollowUp(t *testing.T) {
	s := feedback.State{
		Notes:      "change the background",
		Resolved:   false,
		AdminReply: "we can darken it",
	}

	if err := s.AppendFollowUp("darker than the sample?", now); err != nil {
		t.Fatalf("AppendFollowUp() error = %v", err)
	}

	if len(s.Thread) != 2 {
		t.Fatalf("thread length = %d, want 2", len(s.Thread))
	}
	if s.Thread[0].Author != feedback.AuthorAdmin || s.Thread[0].Text != "we can darken it" {
		t.Errorf("thread[0] = %+v", s.Thread[0])
	}
	if s.Thread[1].Author != feedback.AuthorCustomer || s.Thread[1].Text != "darker than the sample?" {
		t.Errorf("thread[1] = %+v", s.Thread[1])
	}
	if s.AdminReply != "" {
		t.Error("admin reply slot should be cleared after follow-up")
	}
	if s.Notes != "change the background" {
		t.Error("follow-up must preserve the original note")
	}
	if !s.Open() {
		t.Error("state should remain open after follow-up")
	}
}

func TestAppendFollowUpRequiresReply(t *testing.T) {
	s := feedback.State{Notes: "change it", Resolved: false}
	if err := s.AppendFollowUp("still waiting", now); !errors.Is(err, feedback.ErrNoAdminReply) {
		t.Errorf("AppendFollowUp() error = %v, want ErrNoAdminReply", err)
	}
}

func TestResolveByRegeneration(t *testing.T) {
	s := feedback.State{
		Notes:      "change the background",
		Resolved:   false,
		AdminReply: "on it",
		Thread: []feedback.Message{
			{Author: feedback.AuthorAdmin, Text: "on it", SentAt: now},
		},
	}

	s.ResolveByRegeneration(2, now)

	if s.Open() {
		t.Error("state should be closed after regeneration")
	}
	if s.Notes != "" || s.AdminReply != "" || s.Thread != nil {
		t.Errorf("live fields should be cleared: %+v", s)
	}
	if len(s.History) != 1 {
		t.Fatalf("history length = %d, want 1", len(s.History))
	}

	entry := s.History[0]
	if entry.Note != "change the background" {
		t.Errorf("archived note = %q", entry.Note)
	}
	if entry.RevisionRound != 2 {
		t.Errorf("archived round = %d, want 2", entry.RevisionRound)
	}
	if len(entry.Thread) != 1 {
		t.Errorf("archived thread length = %d, want 1", len(entry.Thread))
	}
}

func TestResolveManuallyWithReplyRetainsNote(t *testing.T) {
	s := feedback.State{
		Notes:      "is the cat too small?",
		Resolved:   false,
		AdminReply: "the cat matches the reference sheet",
	}

	s.ResolveManually(1, now)

	if s.Open() {
		t.Error("state should be closed after manual resolve")
	}
	if s.Notes != "is the cat too small?" {
		t.Error("manual resolve with a reply should retain the note as a visible comment")
	}
	if s.AdminReply != "the cat matches the reference sheet" {
		t.Error("manual resolve with a reply should retain the reply")
	}
	if len(s.History) != 0 {
		t.Errorf("history length = %d, want 0", len(s.History))
	}
}

func TestResolveManuallyWithoutReplyArchives(t *testing.T) {
	s := feedback.State{Notes: "please adjust", Resolved: false}

	s.ResolveManually(3, now)

	if s.Notes != "" {
		t.Error("manual resolve without a reply should clear the note")
	}
	if len(s.History) != 1 {
		t.Fatalf("history length = %d, want 1", len(s.History))
	}
	if s.History[0].RevisionRound != 3 {
		t.Errorf("archived round = %d, want 3", s.History[0].RevisionRound)
	}
}

func TestReplaceRequest(t *testing.T) {
	s := feedback.State{
		Notes:      "first request",
		Resolved:   false,
		AdminReply: "noted",
	}

	if err := s.ReplaceRequest("second request", 1, now); err != nil {
		t.Fatalf("ReplaceRequest() error = %v", err)
	}

	if s.Notes != "second request" {
		t.Errorf("notes = %q, want second request", s.Notes)
	}
	if !s.Open() {
		t.Error("state should be open with the new request")
	}
	if s.AdminReply != "" || s.Thread != nil {
		t.Error("reply slot and thread should be cleared for the new request")
	}
	if len(s.History) != 1 || s.History[0].Note != "first request" {
		t.Errorf("old note should be archived: %+v", s.History)
	}
}

func TestReplaceRequestOnResolvedState(t *testing.T) {
	s := feedback.State{Resolved: true}

	if err := s.ReplaceRequest("fresh request", 1, now); err != nil {
		t.Fatalf("ReplaceRequest() error = %v", err)
	}

	if len(s.History) != 0 {
		t.Error("replacing with no prior note should archive nothing")
	}
	if !s.Open() {
		t.Error("state should be open with the new request")
	}
}

func TestHistoryIsAppendOnly(t *testing.T) {
	var s feedback.State

	rounds := []string{"round one note", "round two note", "round three note"}
	for i, note := range rounds {
		if err := s.Submit(note); err != nil {
			t.Fatalf("Submit(%q) error = %v", note, err)
		}
		s.ResolveByRegeneration(i+1, now.Add(time.Duration(i)*time.Hour))
	}

	if len(s.History) != 3 {
		t.Fatalf("history length = %d, want 3", len(s.History))
	}
	for i, entry := range s.History {
		if entry.Note != rounds[i] {
			t.Errorf("history[%d].Note = %q, want %q", i, entry.Note, rounds[i])
		}
		if entry.RevisionRound != i+1 {
			t.Errorf("history[%d].RevisionRound = %d, want %d", i, entry.RevisionRound, i+1)
		}
	}
}

func TestConversationAcrossRounds(t *testing.T) {
	var s feedback.State

	if err := s.Submit("the dog should be brown"); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if err := s.Reply("brown like the cover sample?"); err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	if err := s.AppendFollowUp("yes, exactly that shade", now); err != nil {
		t.Fatalf("AppendFollowUp() error = %v", err)
	}
	if err := s.Reply("will regenerate with that shade"); err != nil {
		t.Fatalf("second Reply() error = %v", err)
	}

	s.ResolveByRegeneration(1, now)

	if len(s.History) != 1 {
		t.Fatalf("history length = %d, want 1", len(s.History))
	}
	if got := len(s.History[0].Thread); got != 2 {
		t.Errorf("archived thread length = %d, want 2", got)
	}
	if s.Open() {
		t.Error("state should be closed")
	}

	if err := s.Submit("now the tail looks off"); err != nil {
		t.Fatalf("Submit() after resolve error = %v", err)
	}
	if len(s.Thread) != 0 {
		t.Error("new round should start with an empty thread")
	}
}
