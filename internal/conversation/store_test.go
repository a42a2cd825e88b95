package conversation

import (
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(nil, filepath.Join(t.TempDir(), "history.json"))
}

func TestAppendPreservesOrder(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	s.Append("+15550001", RoleUser, DirectionInbound, "m1")
	s.Append("+15550001", RoleUser, DirectionInbound, "m2")
	s.Append("+15550002", RoleUser, DirectionInbound, "other")

	entries, total := s.History("+15550001", 0)
	if total != 2 || len(entries) != 2 {
		t.Fatalf("History() = %d entries, total %d, want 2/2", len(entries), total)
	}
	if entries[0].Text != "m1" || entries[1].Text != "m2" {
		t.Fatalf("history out of order: %q then %q", entries[0].Text, entries[1].Text)
	}
}

func TestHistoryLimitKeepsMostRecent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	for _, text := range []string{"a", "b", "c", "d"} {
		s.Append("+15550001", RoleUser, DirectionInbound, text)
	}

	entries, total := s.History("+15550001", 2)
	if total != 4 {
		t.Fatalf("total = %d, want 4", total)
	}
	if len(entries) != 2 || entries[0].Text != "c" || entries[1].Text != "d" {
		t.Fatalf("limited history = %+v, want [c d]", entries)
	}
}

func TestHistoryReturnsCopy(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	s.Append("+15550001", RoleUser, DirectionInbound, "original")

	entries, _ := s.History("+15550001", 0)
	entries[0].Text = "mutated"

	again, _ := s.History("+15550001", 0)
	if again[0].Text != "original" {
		t.Fatal("History() exposed internal state to mutation")
	}
}

func TestRegisterCreatesRecord(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	if !s.Register("+15550001") {
		t.Fatal("Register() = false for new phone")
	}
	if s.Register("+15550001") {
		t.Fatal("Register() = true for already registered phone")
	}
	if !s.IsRegistered("+15550001") {
		t.Fatal("IsRegistered() = false after Register")
	}
	if _, total := s.History("+15550001", 0); total != 0 {
		t.Fatalf("new registration has %d history entries, want 0", total)
	}
}

func TestClearRemovesEverything(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	s.Register("+15550001")
	s.Append("+15550001", RoleUser, DirectionInbound, "hello")
	s.SetSessionHandle("+15550001", "sess-1")

	handle, existed := s.Clear("+15550001")
	if !existed || handle != "sess-1" {
		t.Fatalf("Clear() = (%q, %v), want (sess-1, true)", handle, existed)
	}
	if s.IsRegistered("+15550001") {
		t.Fatal("phone still registered after Clear")
	}
	if _, total := s.History("+15550001", 0); total != 0 {
		t.Fatal("history not empty after Clear")
	}
	if s.SessionHandle("+15550001") != "" {
		t.Fatal("session handle survived Clear")
	}
}

func TestUnregisterKeepsHistory(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	s.Register("+15550001")
	s.Append("+15550001", RoleUser, DirectionInbound, "kept")

	s.Unregister("+15550001")
	if s.IsRegistered("+15550001") {
		t.Fatal("still registered after Unregister")
	}
	if _, total := s.History("+15550001", 0); total != 1 {
		t.Fatal("Unregister dropped history")
	}
}

func TestStoreSurvivesReload(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "history.json")

	first := NewStore(nil, path)
	first.Register("+15550001")
	first.Append("+15550001", RoleUser, DirectionInbound, "persisted")
	first.SetSessionHandle("+15550001", "sess-9")

	second := NewStore(nil, path)
	if !second.IsRegistered("+15550001") {
		t.Fatal("registration lost across reload")
	}
	entries, total := second.History("+15550001", 0)
	if total != 1 || entries[0].Text != "persisted" {
		t.Fatalf("history lost across reload: %+v", entries)
	}
	if second.SessionHandle("+15550001") != "sess-9" {
		t.Fatal("session handle lost across reload")
	}
}

func TestUserTurns(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	s.Append("+15550001", RoleUser, DirectionInbound, "q1")
	s.Append("+15550001", RoleAssistant, DirectionOutbound, "a1")
	s.Append("+15550001", RoleUser, DirectionInbound, "q2")
	s.Append("+15550001", RoleSystem, DirectionOutbound, "note")
	s.Append("+15550001", RoleUser, DirectionInbound, "q3")

	turns := s.UserTurns("+15550001", 2)
	if len(turns) != 2 || turns[0] != "q2" || turns[1] != "q3" {
		t.Fatalf("UserTurns() = %v, want [q2 q3]", turns)
	}
}

func TestRegisteredIsSorted(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	s.Register("+15550003")
	s.Register("+15550001")
	s.Append("+15550009", RoleUser, DirectionInbound, "unregistered traffic")

	got := s.Registered()
	if len(got) != 2 || got[0] != "+15550001" || got[1] != "+15550003" {
		t.Fatalf("Registered() = %v", got)
	}
}
