package sink

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/botirk38/noteinsights/types"
)

func TestInsert(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		position types.InsertPosition
		want     string
	}{
		{"top of empty", "", types.InsertTop, "INS\n"},
		{"top", "body\n", types.InsertTop, "INS\n\nbody\n"},
		{"top after front matter", "---\ntags: [a]\n---\nbody\n", types.InsertTop, "---\ntags: [a]\n---\nINS\n\nbody\n"},
		{"top after front matter only", "---\ntags: [a]\n---", types.InsertTop, "---\ntags: [a]\n---\nINS\n"},
		{"unclosed front matter is body", "---\nbody\n", types.InsertTop, "INS\n\n---\nbody\n"},
		{"bottom of empty", "", types.InsertBottom, "INS\n"},
		{"bottom", "body\n", types.InsertBottom, "body\n\nINS\n"},
		{"bottom without newline", "body", types.InsertBottom, "body\n\nINS\n"},
		{"cursor", "before {{cursor}} after\n", types.InsertCursor, "before INS after\n"},
		{"cursor first marker only", "{{cursor}}{{cursor}}", types.InsertCursor, "INS{{cursor}}"},
		{"cursor falls back to bottom", "body\n", types.InsertCursor, "body\n\nINS\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Insert(tt.content, "INS\n\n", tt.position)
			if err != nil {
				t.Fatalf("Insert() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Insert() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInsert_UnknownPosition(t *testing.T) {
	if _, err := Insert("body", "x", "middle"); err == nil {
		t.Error("expected error for unknown position")
	}
}

func TestFileSink(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "insights.md")
	if err := os.WriteFile(path, []byte("# Insights\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	s := NewFileSink(path)
	if err := s.Insert(t.Context(), "generated", types.InsertBottom); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "# Insights\n\ngenerated\n" {
		t.Errorf("file = %q", got)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %v", entries)
	}
}

func TestFileSink_CreatesMissingNote(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.md")
	if err := NewFileSink(path).Insert(t.Context(), "hello", types.InsertTop); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "hello\n" {
		t.Errorf("file = %q", got)
	}
}

func TestFileSink_Cancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.md")
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	if err := NewFileSink(path).Insert(ctx, "x", types.InsertBottom); err == nil {
		t.Error("expected context error")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("note must not be written after cancellation")
	}
}

func TestWriterSink(t *testing.T) {
	var buf bytes.Buffer
	if err := (WriterSink{W: &buf}).Insert(t.Context(), "result\n\n", types.InsertTop); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "result\n" {
		t.Errorf("output = %q", buf.String())
	}
}
