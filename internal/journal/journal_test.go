package journal

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestRecordAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs", "build.jsonl.zst")
	w, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	entries := []Entry{
		{Region: "a", Phase: "terrain", Elapsed: 3 * time.Millisecond, Detail: map[string]any{"columns": 4}},
		{Region: "a", Phase: "network", Elapsed: time.Millisecond},
		{Region: "a", Phase: "done"},
	}
	for _, e := range entries {
		if err := w.Record(e); err != nil {
			t.Fatalf("Record(%s): %v", e.Phase, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != len(entries) {
		t.Fatalf("Read() returned %d entries, want %d", len(got), len(entries))
	}
	for i, e := range got {
		if e.Phase != entries[i].Phase || e.Region != "a" || e.Elapsed != entries[i].Elapsed {
			t.Errorf("entry %d = %+v, want %+v", i, e, entries[i])
		}
		if e.Time.IsZero() {
			t.Errorf("entry %d has no time", i)
		}
	}
	if cols, _ := got[0].Detail["columns"].(float64); cols != 4 {
		t.Errorf("Detail[columns] = %v, want 4", got[0].Detail["columns"])
	}
}

func TestConcurrentRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "build.jsonl.zst")
	w, err := Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				if err := w.Record(Entry{Region: "r", Phase: "terrain"}); err != nil {
					t.Errorf("Record: %v", err)
				}
			}
		}()
	}
	wg.Wait()
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 200 {
		t.Errorf("Read() returned %d entries, want 200", len(got))
	}
}

func TestRecordAfterClose(t *testing.T) {
	w, err := Create(filepath.Join(t.TempDir(), "j.jsonl.zst"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close() = %v, want nil", err)
	}
	if err := w.Record(Entry{Phase: "done"}); err == nil {
		t.Error("Record after Close succeeded, want error")
	}
}

func TestReadMissing(t *testing.T) {
	if _, err := Read(filepath.Join(t.TempDir(), "nope.zst")); !os.IsNotExist(err) {
		t.Errorf("Read(missing) error = %v, want not-exist", err)
	}
}
