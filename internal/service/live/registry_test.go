package live

import (
	"errors"
	"testing"
)

func TestRegistryAddAndGet(t *testing.T) {
	r := NewRegistry()
	sess := newSession("s-1", "")

	if err := r.Add(sess); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	got, err := r.Get("s-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != sess {
		t.Fatal("expected the same session instance")
	}
}

func TestRegistryDuplicateAdd(t *testing.T) {
	r := NewRegistry()
	if err := r.Add(newSession("s-1", "")); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	err := r.Add(newSession("s-1", ""))
	if !errors.Is(err, ErrSessionExists) {
		t.Fatalf("expected ErrSessionExists, got %v", err)
	}
}

func TestRegistryGetUnknown(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Get("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestRegistryRemoveIdempotent(t *testing.T) {
	r := NewRegistry()
	if err := r.Add(newSession("s-1", "")); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	r.Remove("s-1")
	r.Remove("s-1")

	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got %d entries", r.Len())
	}
}

func TestRegistryList(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"a", "b", "c"} {
		if err := r.Add(newSession(id, "")); err != nil {
			t.Fatalf("add %s failed: %v", id, err)
		}
	}

	if got := len(r.List()); got != 3 {
		t.Fatalf("expected 3 sessions, got %d", got)
	}
}
