// Package sink inserts the final text of a run into a note.
package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/botirk38/noteinsights/types"
)

// CursorMarker marks the insertion point for types.InsertCursor.
const CursorMarker = "{{cursor}}"

// Sink receives the final text of a successful run.
type Sink interface {
	Insert(ctx context.Context, text string, position types.InsertPosition) error
}

// Insert splices text into content. Top places it after any YAML front
// matter, bottom appends it, and cursor replaces the first CursorMarker,
// falling back to bottom when the note has none.
func Insert(content, text string, position types.InsertPosition) (string, error) {
	block := strings.TrimRight(text, "\n") + "\n"

	switch position {
	case types.InsertTop:
		front, body := splitFrontMatter(content)
		if front != "" && !strings.HasSuffix(front, "\n") {
			front += "\n"
		}
		if body == "" {
			return front + block, nil
		}
		return front + block + "\n" + body, nil
	case types.InsertCursor:
		if i := strings.Index(content, CursorMarker); i >= 0 {
			return content[:i] + strings.TrimRight(text, "\n") + content[i+len(CursorMarker):], nil
		}
		return appendBlock(content, block), nil
	case types.InsertBottom:
		return appendBlock(content, block), nil
	}
	return "", fmt.Errorf("unknown insert position %q", position)
}

func appendBlock(content, block string) string {
	switch {
	case content == "":
		return block
	case strings.HasSuffix(content, "\n"):
		return content + "\n" + block
	default:
		return content + "\n\n" + block
	}
}

// splitFrontMatter separates a leading "---" delimited block from the body.
func splitFrontMatter(content string) (front, body string) {
	if !strings.HasPrefix(content, "---\n") && !strings.HasPrefix(content, "---\r\n") {
		return "", content
	}
	rest := content[strings.Index(content, "\n")+1:]
	for off := 0; off < len(rest); {
		end := strings.IndexByte(rest[off:], '\n')
		line := rest[off:]
		if end >= 0 {
			line = rest[off : off+end]
		}
		if strings.TrimRight(line, "\r") == "---" {
			cut := len(content) - len(rest) + off + len(line)
			if end >= 0 {
				cut++
			}
			return content[:cut], content[cut:]
		}
		if end < 0 {
			break
		}
		off += end + 1
	}
	return "", content
}

// FileSink inserts into a markdown file on disk.
type FileSink struct {
	Path string
}

// NewFileSink returns a sink writing to the note at path.
func NewFileSink(path string) *FileSink {
	return &FileSink{Path: path}
}

// Insert rewrites the note with text spliced in. A missing note is created.
// The new content replaces the old one atomically.
func (s *FileSink) Insert(ctx context.Context, text string, position types.InsertPosition) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	mode := os.FileMode(0o644)
	content, err := os.ReadFile(s.Path)
	switch {
	case err == nil:
		if info, statErr := os.Stat(s.Path); statErr == nil {
			mode = info.Mode().Perm()
		}
	case os.IsNotExist(err):
	default:
		return fmt.Errorf("reading %s: %w", s.Path, err)
	}

	updated, err := Insert(string(content), text, position)
	if err != nil {
		return err
	}
	return writeFileAtomic(s.Path, []byte(updated), mode)
}

func writeFileAtomic(path string, data []byte, mode os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// WriterSink writes the text to w, ignoring the position.
type WriterSink struct {
	W io.Writer
}

func (s WriterSink) Insert(ctx context.Context, text string, _ types.InsertPosition) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := io.WriteString(s.W, strings.TrimRight(text, "\n")+"\n")
	return err
}
