package index

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/kbhost/internal/bookmark"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func startWatch(t *testing.T, db *DB, base string, cb EventCallback) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = Watch(ctx, db, base, quietLogger(), cb)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	time.Sleep(100 * time.Millisecond)
}

func TestWatcher_NewBookmarkIndexed(t *testing.T) {
	db := testDB(t)
	base := t.TempDir()

	var mu sync.Mutex
	var events []string
	startWatch(t, db, base, func(kind, path string) {
		mu.Lock()
		events = append(events, kind+":"+filepath.Base(path))
		mu.Unlock()
	})

	p := createBookmark(t, base, "fresh", "Fresh", "2024-05-01", "# Fresh")

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum(p)
		return cs != ""
	}, "new bookmark not indexed by watcher")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range events {
			if e == "indexed:fresh" {
				return true
			}
		}
		return false
	}, "expected indexed:fresh callback")
}

func TestWatcher_StagedBookmarkIndexed(t *testing.T) {
	db := testDB(t)
	base := t.TempDir()
	startWatch(t, db, base, nil)

	got, err := bookmark.New(bookmark.WithStagedCreate(true)).Create(
		context.Background(), base, "staged", sprintfMeta("staged", "Staged", "2024-05-01"), "body")
	if err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum(got.Path)
		return cs != ""
	}, "staged bookmark not indexed by watcher")

	_, total, _ := db.List(base, 0, 0)
	if total != 1 {
		t.Errorf("staging directory catalogued: total = %d", total)
	}
}

func TestWatcher_MetaEditReindexed(t *testing.T) {
	db := testDB(t)
	base := t.TempDir()
	p := createBookmark(t, base, "edit", "Before", "2024-05-01", "body")
	if err := Sync(db, base, quietLogger()); err != nil {
		t.Fatal(err)
	}
	startWatch(t, db, base, nil)

	meta := sprintfMeta("edit", "After", "2024-05-01")
	if err := os.WriteFile(filepath.Join(p, bookmark.MetaFile), []byte(meta), 0o644); err != nil {
		t.Fatal(err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		b, err := db.GetBookmark(p)
		return err == nil && b.Title == "After"
	}, "edited meta.yaml not re-indexed")
}

func TestWatcher_DeleteRemovesFromIndex(t *testing.T) {
	db := testDB(t)
	base := t.TempDir()
	p := createBookmark(t, base, "del", "Delete Me", "2024-05-01", "body")
	if err := Sync(db, base, quietLogger()); err != nil {
		t.Fatal(err)
	}
	if cs, _ := db.GetChecksum(p); cs == "" {
		t.Fatal("precondition: bookmark should be indexed")
	}

	startWatch(t, db, base, nil)
	_ = os.RemoveAll(p)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		cs, _ := db.GetChecksum(p)
		return cs == ""
	}, "deleted bookmark still in index")
}

func TestWatcher_RenameReconciles(t *testing.T) {
	db := testDB(t)
	base := t.TempDir()
	old := createBookmark(t, base, "old", "Rename", "2024-05-01", "body")
	if err := Sync(db, base, quietLogger()); err != nil {
		t.Fatal(err)
	}
	startWatch(t, db, base, nil)

	renamed := filepath.Join(base, "renamed")
	_ = os.Rename(old, renamed)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		oldCS, _ := db.GetChecksum(old)
		newCS, _ := db.GetChecksum(renamed)
		return oldCS == "" && newCS != ""
	}, "rename reconciliation failed: old path should be removed and new path indexed")
}
