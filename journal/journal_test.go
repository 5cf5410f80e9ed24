package journal

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"flowedit/change"
	"flowedit/model"
)

func openTemp(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "nested", "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestSaveRestore(t *testing.T) {
	ctx := context.Background()
	j := openTemp(t)

	big := strings.Repeat(`<entity name="A"><property name="_location" class="Location" value="[0, 0]"/></entity>`, 200)
	src := change.NewUndoStack(10)
	src.Restore([]change.Entry{{Script: `<deleteEntity name="A"/>`, Description: "add"}},
		[]change.Entry{{Context: ".top.K", Script: big, Description: "delete"}})

	if err := j.Save(ctx, "doc.moml", "fp1", src); err != nil {
		t.Fatalf("Save: %v", err)
	}

	dst := change.NewUndoStack(10)
	if err := j.Restore(ctx, "doc.moml", "fp1", dst); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	undo, redo := dst.Entries()
	if len(undo) != 1 || undo[0].Description != "add" || undo[0].Script != `<deleteEntity name="A"/>` {
		t.Errorf("undo = %+v", undo)
	}
	if len(redo) != 1 || redo[0].Context != ".top.K" || redo[0].Script != big {
		t.Errorf("redo entry did not survive compression")
	}
}

func TestSaveReplacesStacks(t *testing.T) {
	ctx := context.Background()
	j := openTemp(t)
	s := change.NewUndoStack(10)
	for i := 0; i < 3; i++ {
		s.Push(change.Entry{Script: "<group/>", Description: "step"})
	}
	if err := j.Save(ctx, "doc", "fp", s); err != nil {
		t.Fatal(err)
	}
	s.Clear()
	s.Push(change.Entry{Script: "<group/>", Description: "only"})
	if err := j.Save(ctx, "doc", "fp", s); err != nil {
		t.Fatal(err)
	}

	got := change.NewUndoStack(10)
	if err := j.Restore(ctx, "doc", "fp", got); err != nil {
		t.Fatal(err)
	}
	if u, r := got.Stats(); u != 1 || r != 0 {
		t.Errorf("stats = %d/%d, want 1/0", u, r)
	}
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	j := openTemp(t)
	s := change.NewUndoStack(10)
	s.Push(change.Entry{Script: "<group/>"})
	if err := j.Save(ctx, "doc", "fp", s); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name        string
		document    string
		fingerprint string
		wantErr     error
		wantUndo    int
	}{
		{"matching", "doc", "fp", nil, 1},
		{"edited elsewhere", "doc", "other", ErrStale, 0},
		{"never saved", "unknown", "fp", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := change.NewUndoStack(10)
			err := j.Restore(ctx, tt.document, tt.fingerprint, got)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Restore() = %v, want %v", err, tt.wantErr)
			}
			if u, _ := got.Stats(); u != tt.wantUndo {
				t.Errorf("undo depth = %d, want %d", u, tt.wantUndo)
			}
		})
	}
}

func TestRecorderWritesHistory(t *testing.T) {
	ctx := context.Background()
	j := openTemp(t)
	root := model.NewTopLevel("top", "TypedCompositeActor")
	q := change.NewQueue(root, change.WithErrorReporter(func(*change.Request, error) {}))
	q.AddListener(j.NewRecorder("doc"))

	if err := q.RequestChange(ctx, change.NewRequest("cli", "add A", "", `<entity name="A"/>`)); err != nil {
		t.Fatal(err)
	}
	if err := q.RequestChange(ctx, change.NewRequest("cli", "bad", "", `<link port="nope" relation="r"/>`)); err == nil {
		t.Fatal("bad script accepted")
	}

	records, err := j.History(ctx, "doc", 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %+v", records)
	}
	if records[0].Description != "bad" || records[0].Outcome != OutcomeFailed || records[0].Error == "" {
		t.Errorf("newest record = %+v", records[0])
	}
	if records[1].Description != "add A" || records[1].Outcome != OutcomeExecuted || records[1].Origin != "cli" {
		t.Errorf("oldest record = %+v", records[1])
	}

	limited, err := j.History(ctx, "doc", 1)
	if err != nil || len(limited) != 1 || limited[0].ID != records[0].ID {
		t.Errorf("History(limit 1) = %+v, %v", limited, err)
	}
	if err := j.Forget(ctx, "doc"); err != nil {
		t.Fatal(err)
	}
	if after, _ := j.History(ctx, "doc", 0); len(after) != 0 {
		t.Errorf("Forget left %d records", len(after))
	}
}

func TestPragmasOnEveryConnection(t *testing.T) {
	ctx := context.Background()
	j := openTemp(t)

	// Hold one connection so the pool has to open a second.
	first, err := j.conn.Conn(ctx)
	if err != nil {
		t.Fatalf("Conn: %v", err)
	}
	defer first.Close()
	second, err := j.conn.Conn(ctx)
	if err != nil {
		t.Fatalf("Conn: %v", err)
	}
	defer second.Close()

	for i, c := range []*sql.Conn{first, second} {
		var timeout int
		if err := c.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout); err != nil {
			t.Fatalf("connection %d: %v", i, err)
		}
		if timeout != busyTimeout {
			t.Errorf("connection %d: busy_timeout = %d, want %d", i, timeout, busyTimeout)
		}
		var mode string
		if err := c.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode); err != nil {
			t.Fatalf("connection %d: %v", i, err)
		}
		if !strings.EqualFold(mode, "wal") {
			t.Errorf("connection %d: journal_mode = %s", i, mode)
		}
	}
}
