package stream

import (
	"sync"
	"testing"
	"time"
)

func TestRegistryCreateAndStatus(t *testing.T) {
	r := NewRegistry()

	if err := r.Create("abc123", nil); err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	status, ok := r.Status("abc123")
	if !ok {
		t.Fatal("Expected job to exist")
	}
	if status != StatusPending {
		t.Errorf("Expected StatusPending, got %v", status)
	}
}

func TestRegistryUnknownIDIsNotStarted(t *testing.T) {
	r := NewRegistry()

	if _, ok := r.Status("deadbeef"); ok {
		t.Error("Expected unknown id to not exist")
	}
	if p := r.Process("deadbeef"); p != nil {
		t.Error("Expected nil process for unknown id")
	}
	if ch := r.Finished("deadbeef"); ch != nil {
		t.Error("Expected nil completion channel for unknown id")
	}
}

func TestRegistryRejectsDuplicateCreate(t *testing.T) {
	r := NewRegistry()

	if err := r.Create("abc123", nil); err != nil {
		t.Fatal(err)
	}
	if err := r.Create("abc123", nil); err == nil {
		t.Error("Expected error for duplicate job id")
	}
}

func TestRegistrySetStatusNotifiesWaiters(t *testing.T) {
	r := NewRegistry()
	if err := r.Create("abc123", nil); err != nil {
		t.Fatal(err)
	}

	done := r.Finished("abc123")
	select {
	case <-done:
		t.Fatal("Completion channel closed before SetStatus")
	default:
	}

	r.SetStatus("abc123", StatusFinished)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Completion channel not closed after SetStatus")
	}

	// Setting finished again must not re-close the channel.
	r.SetStatus("abc123", StatusFinished)
}

func TestRegistryClaim(t *testing.T) {
	r := NewRegistry()
	if err := r.Create("abc123", nil); err != nil {
		t.Fatal(err)
	}

	if r.Claim("abc123") {
		t.Error("Expected Claim to fail for a pending job")
	}

	r.SetStatus("abc123", StatusFinished)

	if !r.Claim("abc123") {
		t.Error("Expected first Claim on a finished job to succeed")
	}
	if r.Claim("abc123") {
		t.Error("Expected second Claim to fail")
	}
	if r.Claim("missing") {
		t.Error("Expected Claim on an unknown id to fail")
	}
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry()
	if err := r.Create("abc123", nil); err != nil {
		t.Fatal(err)
	}

	if !r.Remove("abc123") {
		t.Error("Expected Remove to report existence")
	}
	if r.Remove("abc123") {
		t.Error("Expected second Remove to report absence")
	}
	if r.Len() != 0 {
		t.Errorf("Expected empty registry, got %d entries", r.Len())
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	ids := []string{"a1", "b2", "c3", "d4", "e5"}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := r.Create(id, nil); err != nil {
				t.Errorf("Create(%s) error: %v", id, err)
				return
			}
			r.SetStatus(id, StatusFinished)
			if !r.Claim(id) {
				t.Errorf("Claim(%s) failed", id)
			}
			r.Remove(id)
		}(id)
	}
	wg.Wait()

	if r.Len() != 0 {
		t.Errorf("Expected empty registry after concurrent churn, got %d", r.Len())
	}
}
