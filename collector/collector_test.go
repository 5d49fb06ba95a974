package collector

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botirk38/noteinsights/types"
)

func testVault() *DirVault {
	return NewFSVault(fstest.MapFS{
		"inbox.md":               {Data: []byte("inbox note")},
		"journal/2024-01-01.md":  {Data: []byte("new year")},
		"journal/2024-01-02.md":  {Data: []byte("second day")},
		"private/secret.md":      {Data: []byte("do not send")},
		"private/deep/nested.md": {Data: []byte("also private")},
		"projects/plan.md":       {Data: []byte("project plan")},
		"projects/empty.md":      {Data: []byte("  \n")},
		"projects/diagram.png":   {Data: []byte{0x89, 'P', 'N', 'G'}},
		".obsidian/workspace.md": {Data: []byte("editor state")},
		"privateer/notes.md":     {Data: []byte("not under private")},
	})
}

func ids(sources []types.Source) []string {
	return Paths(sources)
}

func TestDirVault_ListNotes(t *testing.T) {
	paths, err := testVault().ListNotes(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"inbox.md",
		"journal/2024-01-01.md",
		"journal/2024-01-02.md",
		"private/deep/nested.md",
		"private/secret.md",
		"privateer/notes.md",
		"projects/empty.md",
		"projects/plan.md",
	}, paths)
}

func TestDirVault_OnDisk(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "a"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a", "one.md"), []byte("one"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "two.md"), []byte("two"), 0o644))

	v := NewDirVault(dir)
	paths, err := v.ListNotes(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"a/one.md", "two.md"}, paths)

	text, err := v.ReadNote(t.Context(), "a/one.md")
	require.NoError(t, err)
	assert.Equal(t, "one", text)

	_, err = v.ReadNote(t.Context(), "missing.md")
	assert.Error(t, err)
}

func TestCollect(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want []string
	}{
		{
			name: "all notes, empty skipped",
			want: []string{"inbox.md", "journal/2024-01-01.md", "journal/2024-01-02.md", "private/deep/nested.md", "private/secret.md", "privateer/notes.md", "projects/plan.md"},
		},
		{
			name: "folder exclusion covers nested folders",
			cfg:  Config{ExcludeFolders: []string{"private"}},
			want: []string{"inbox.md", "journal/2024-01-01.md", "journal/2024-01-02.md", "privateer/notes.md", "projects/plan.md"},
		},
		{
			name: "excluded folder with slashes",
			cfg:  Config{ExcludeFolders: []string{"/journal/", "private/deep"}},
			want: []string{"inbox.md", "private/secret.md", "privateer/notes.md", "projects/plan.md"},
		},
		{
			name: "include glob",
			cfg:  Config{IncludePatterns: []string{"journal/*.md"}},
			want: []string{"journal/2024-01-01.md", "journal/2024-01-02.md"},
		},
		{
			name: "include by base name",
			cfg:  Config{IncludePatterns: []string{"*plan*"}},
			want: []string{"projects/plan.md"},
		},
		{
			name: "exclusion wins over include",
			cfg:  Config{IncludePatterns: []string{"private/*.md", "inbox.md"}, ExcludeFolders: []string{"private"}},
			want: []string{"inbox.md"},
		},
		{
			name: "test mode caps files",
			cfg:  Config{TestMode: types.TestMode{Enabled: true, MaxFiles: 2}},
			want: []string{"inbox.md", "journal/2024-01-01.md"},
		},
		{
			name: "test mode disabled ignores caps",
			cfg:  Config{TestMode: types.TestMode{MaxFiles: 1, MaxTokens: 1}, ExcludeFolders: []string{"private", "privateer", "journal"}},
			want: []string{"inbox.md", "projects/plan.md"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Collect(t.Context(), testVault(), tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestCollect_TestModeTokenCap(t *testing.T) {
	vault := NewFSVault(fstest.MapFS{
		"a.md": {Data: []byte(strings.Repeat("a", 40))},
		"b.md": {Data: []byte("first line of b\nsecond line of b\nthird line of b\n")},
		"c.md": {Data: []byte("never reached")},
	})

	// 10 tokens for a.md, then the first two lines (9 tokens) of b.md
	got, err := Collect(t.Context(), vault, Config{TestMode: types.TestMode{Enabled: true, MaxTokens: 19}})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a.md", got[0].ID)
	assert.Equal(t, "b.md", got[1].ID)
	assert.Equal(t, "first line of b\nsecond line of b\n", got[1].Text)
}

func TestCollect_InputErrors(t *testing.T) {
	tests := []struct {
		name  string
		vault Vault
		cfg   Config
	}{
		{name: "empty vault", vault: NewFSVault(fstest.MapFS{})},
		{name: "everything excluded", vault: testVault(), cfg: Config{ExcludeFolders: []string{"inbox.md", "journal", "private", "privateer", "projects"}}},
		{name: "no include match", vault: testVault(), cfg: Config{IncludePatterns: []string{"*.txt"}}},
		{name: "only empty notes", vault: testVault(), cfg: Config{IncludePatterns: []string{"projects/empty.md"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Collect(t.Context(), tt.vault, tt.cfg)
			var ie *types.InputError
			assert.True(t, errors.As(err, &ie), "error = %v", err)
		})
	}
}

func TestCollect_InvalidPattern(t *testing.T) {
	_, err := Collect(t.Context(), testVault(), Config{IncludePatterns: []string{"[a-"}})
	require.Error(t, err)
	var ie *types.InputError
	assert.False(t, errors.As(err, &ie))
}

func TestCollect_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := Collect(ctx, testVault(), Config{})
	assert.ErrorIs(t, err, context.Canceled)
}
