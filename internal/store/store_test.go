package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	seen, err := s.Contains(ctx, "abcd1234abcd1234")
	if err != nil {
		t.Fatalf("contains failed: %v", err)
	}
	if seen {
		t.Fatal("expected empty store to report unseen")
	}

	if err := s.Add(ctx, "abcd1234abcd1234"); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	seen, err = s.Contains(ctx, "abcd1234abcd1234")
	if err != nil {
		t.Fatalf("contains failed: %v", err)
	}
	if !seen {
		t.Fatal("expected fingerprint to be recorded")
	}

	seen, err = s.Contains(ctx, "ffff0000ffff0000")
	if err != nil {
		t.Fatalf("contains failed: %v", err)
	}
	if seen {
		t.Fatal("expected unrelated fingerprint to be unseen")
	}
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fp := fmt.Sprintf("%016x", i)
			if err := s.Add(ctx, fp); err != nil {
				t.Errorf("add failed: %v", err)
			}
			if _, err := s.Contains(ctx, fp); err != nil {
				t.Errorf("contains failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 32; i++ {
		seen, err := s.Contains(ctx, fmt.Sprintf("%016x", i))
		if err != nil {
			t.Fatalf("contains failed: %v", err)
		}
		if !seen {
			t.Fatalf("fingerprint %d missing after concurrent adds", i)
		}
	}
}
