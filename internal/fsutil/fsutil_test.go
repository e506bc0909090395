package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPathToRoot(t *testing.T) {
	require.Equal(t, "", PathToRoot("page.md"))
	require.Equal(t, "../", PathToRoot("guide/page.md"))
	require.Equal(t, "../../", PathToRoot("guide/advanced/page.md"))
	require.Equal(t, "", PathToRoot("index.html"))
}

func TestWriteFile_CreatesParents(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, WriteFile(dir, "a/b/c.html", []byte("hello")))

	data, err := os.ReadFile(filepath.Join(dir, "a", "b", "c.html"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))
}

func TestCopyFilesExceptExt(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(src, "images"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "chapter.md"), []byte("# hi"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "style.css"), []byte("body{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "images", "logo.png"), []byte("png"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, ".hidden"), []byte("x"), 0o644))

	copied, err := CopyFilesExceptExt(src, dst, "md")
	require.NoError(t, err)
	require.Equal(t, 2, copied)

	require.FileExists(t, filepath.Join(dst, "style.css"))
	require.FileExists(t, filepath.Join(dst, "images", "logo.png"))
	require.NoFileExists(t, filepath.Join(dst, "chapter.md"))
	require.NoFileExists(t, filepath.Join(dst, ".hidden"))
}

func TestCopyFilesExceptExt_AvoidsDir(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()

	nested := filepath.Join(src, "book")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "stale.css"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "keep.css"), []byte("y"), 0o644))

	copied, err := CopyFilesExceptExt(src, dst, "md", nested)
	require.NoError(t, err)
	require.Equal(t, 1, copied)

	require.FileExists(t, filepath.Join(dst, "keep.css"))
	require.NoFileExists(t, filepath.Join(dst, "book", "stale.css"))
}
