package session

import (
	"testing"
	"time"
)

func TestGetOrCreateReturnsSameSession(t *testing.T) {
	m := NewMemoryManager(time.Minute)
	s := m.GetOrCreate("+51900000001")
	s.State = StateAwaitingCurrency

	got, ok := m.Get("+51900000001")
	if !ok {
		t.Fatal("expected session to exist")
	}
	if got != s {
		t.Fatal("expected the same session instance")
	}
	if got.State != StateAwaitingCurrency {
		t.Fatalf("state = %q", got.State)
	}
}

func TestGetAbsent(t *testing.T) {
	m := NewMemoryManager(time.Minute)
	if _, ok := m.Get("+51900000001"); ok {
		t.Fatal("expected no session")
	}
}

func TestClearDestroysSession(t *testing.T) {
	m := NewMemoryManager(time.Minute)
	m.GetOrCreate("+51900000001")
	m.Clear("+51900000001")
	if _, ok := m.Get("+51900000001"); ok {
		t.Fatal("expected session to be gone")
	}
}

func TestSessionsExpire(t *testing.T) {
	m := NewMemoryManager(20 * time.Millisecond)
	m.GetOrCreate("+51900000001")
	time.Sleep(50 * time.Millisecond)
	if _, ok := m.Get("+51900000001"); ok {
		t.Fatal("expected session to expire")
	}
}

func TestSendersAreIsolated(t *testing.T) {
	m := NewMemoryManager(time.Minute)
	a := m.GetOrCreate("+51900000001")
	b := m.GetOrCreate("+51900000002")
	if a == b {
		t.Fatal("senders must not share sessions")
	}
	a.State = StateAwaitingCategory
	if b.State == StateAwaitingCategory {
		t.Fatal("state leaked between senders")
	}
}
