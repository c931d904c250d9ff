//go:build unix

package flock

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/kbhost/internal/apperr"
)

// flock(2) locks belong to the open file description, so two os.Open calls in
// one process contend like two processes would.
func openTwice(t *testing.T) (*os.File, *os.File) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kb.yaml")
	if err := os.WriteFile(path, []byte("version: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	a, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	b, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		a.Close()
		b.Close()
	})
	return a, b
}

func TestSharedLocksCoexist(t *testing.T) {
	a, b := openTwice(t)
	ctx := context.Background()
	if err := Lock(ctx, a, Shared, 0); err != nil {
		t.Fatalf("Lock a: %v", err)
	}
	if err := Lock(ctx, b, Shared, 50*time.Millisecond); err != nil {
		t.Fatalf("Lock b: %v", err)
	}
}

func TestExclusiveTimesOut(t *testing.T) {
	a, b := openTwice(t)
	ctx := context.Background()
	if err := Lock(ctx, a, Exclusive, 0); err != nil {
		t.Fatalf("Lock a: %v", err)
	}
	err := Lock(ctx, b, Shared, 30*time.Millisecond)
	if !errors.Is(err, apperr.ErrLockTimeout) {
		t.Fatalf("expected ErrLockTimeout, got %v", err)
	}

	if err := Unlock(a); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if err := Lock(ctx, b, Shared, 30*time.Millisecond); err != nil {
		t.Fatalf("Lock after unlock: %v", err)
	}
}

func TestLockWaitHonoursContext(t *testing.T) {
	a, b := openTwice(t)
	if err := Lock(context.Background(), a, Exclusive, 0); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Lock(ctx, b, Exclusive, time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
