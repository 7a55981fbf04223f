package store

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/recondor/recondor/internal/engine"
)

func TestMemory_CreateAndLoad(t *testing.T) {
	m := NewMemory()

	scan := m.Create("example.com", engine.DefaultOptions())
	if scan.ID == "" {
		t.Fatal("expected a generated scan ID")
	}
	if scan.Status != engine.StatusPending {
		t.Errorf("status = %s, want pending", scan.Status)
	}
	if scan.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	got, err := m.Load(scan.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Target != "example.com" {
		t.Errorf("target = %q", got.Target)
	}

	// Two creates never collide.
	other := m.Create("example.org", engine.DefaultOptions())
	if other.ID == scan.ID {
		t.Error("duplicate scan IDs")
	}
}

func TestMemory_LoadUnknown(t *testing.T) {
	m := NewMemory()
	if _, err := m.Load("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMemory_SaveSnapshotsState(t *testing.T) {
	m := NewMemory()
	scan := m.Create("example.com", engine.Options{})

	scan.Status = engine.StatusRunning
	scan.Progress = 40
	if err := m.Save(scan); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// Mutating the caller's copy after Save must not leak into the store.
	scan.Progress = 99
	scan.Results[engine.ModuleWAF] = engine.Completed(engine.WAFData{})

	got, err := m.Load(scan.ID)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Progress != 40 {
		t.Errorf("progress = %d, want 40 (snapshot at Save time)", got.Progress)
	}
	if len(got.Results) != 0 {
		t.Errorf("results leaked into stored snapshot: %v", got.Results)
	}
}

func TestMemory_SaveRejectsEmptyID(t *testing.T) {
	m := NewMemory()
	if err := m.Save(&engine.Scan{}); err == nil {
		t.Error("expected error saving scan without ID")
	}
	if err := m.Save(nil); err == nil {
		t.Error("expected error saving nil scan")
	}
}

func TestMemory_ListNewestFirst(t *testing.T) {
	m := NewMemory()

	a := m.Create("a.example.com", engine.Options{})
	// CreatedAt has UTC nanosecond resolution; force distinct ordering.
	b := m.Create("b.example.com", engine.Options{})
	bCopy, _ := m.Load(b.ID)
	bCopy.CreatedAt = time.Now().UTC().Add(time.Second)
	if err := m.Save(bCopy); err != nil {
		t.Fatalf("Save: %v", err)
	}

	list := m.List()
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	if list[0].ID != b.ID || list[1].ID != a.ID {
		t.Errorf("order = [%s %s], want newest first", list[0].Target, list[1].Target)
	}
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	m := NewMemory()
	scan := m.Create("example.com", engine.Options{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			s, err := m.Load(scan.ID)
			if err != nil {
				t.Errorf("Load: %v", err)
				return
			}
			s.Progress = n * 10
			if err := m.Save(s); err != nil {
				t.Errorf("Save: %v", err)
			}
		}(i)
		go func() {
			defer wg.Done()
			m.List()
		}()
	}
	wg.Wait()
}
