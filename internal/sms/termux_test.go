package sms

import (
	"testing"
	"time"
)

func TestParseListFiltersInbox(t *testing.T) {
	t.Parallel()
	out := []byte(`[
		{"_id": 101, "number": "+15550001", "body": "hello", "type": "inbox", "received": "2026-08-20 10:15:00"},
		{"_id": 102, "number": "+15550001", "body": "reply", "type": "sent", "received": "2026-08-20 10:16:00"},
		{"_id": 103, "number": "", "body": "no sender", "type": "inbox", "received": "2026-08-20 10:17:00"},
		{"_id": 104, "number": "+15550002", "body": "second", "type": "inbox", "received": "2026-08-20 10:18:00"}
	]`)

	messages, err := parseList(out)
	if err != nil {
		t.Fatalf("parseList() error = %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("parseList() = %d messages, want 2", len(messages))
	}
	if messages[0].ID != "101" || messages[0].PhoneNumber != "+15550001" || messages[0].Text != "hello" {
		t.Fatalf("first message = %+v", messages[0])
	}
	if messages[1].ID != "104" {
		t.Fatalf("second message id = %q, want 104", messages[1].ID)
	}
	want := time.Date(2026, 8, 20, 10, 15, 0, 0, time.Local)
	if !messages[0].ReceivedAt.Equal(want) {
		t.Fatalf("ReceivedAt = %v, want %v", messages[0].ReceivedAt, want)
	}
}

func TestParseListBadTimestampFallsBack(t *testing.T) {
	t.Parallel()
	out := []byte(`[{"_id": 7, "number": "+15550001", "body": "x", "type": "inbox", "received": "nope"}]`)
	messages, err := parseList(out)
	if err != nil {
		t.Fatalf("parseList() error = %v", err)
	}
	if len(messages) != 1 || messages[0].ReceivedAt.IsZero() {
		t.Fatalf("expected one message with non-zero timestamp, got %+v", messages)
	}
}

func TestParseListMalformed(t *testing.T) {
	t.Parallel()
	if _, err := parseList([]byte("not json")); err == nil {
		t.Fatal("parseList(malformed) error = nil, want error")
	}
}
