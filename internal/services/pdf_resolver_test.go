package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHash = "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

// writeFile creates root/rel with the given content, creating parents.
func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

// canonicalRoot returns a temp dir with symlinks resolved, matching what
// Root reports on systems where the temp dir is itself a link.
func canonicalRoot(t *testing.T) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return root
}

func TestPDFResolver_StoredRelative(t *testing.T) {
	r := NewPDFResolver("/data/pdfs", []string{"/files/"})

	tests := []struct {
		name   string
		stored string
		want   string
	}{
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"legacy prefix", "/files/invoices/inbox/foo.pdf", "invoices/inbox/foo.pdf"},
		{"legacy prefix with extra slashes", "/files//a.pdf", "a.pdf"},
		{"other absolute path keeps base name", "/srv/archive/2024/a.pdf", "a.pdf"},
		{"windows drive path", `C:\scans\inbox\b.pdf`, "b.pdf"},
		{"backslashes in relative path", `inbox\c.pdf`, "inbox/c.pdf"},
		{"bare name", "d.pdf", "d.pdf"},
		{"relative path", "2024/03/e.pdf", "2024/03/e.pdf"},
		{"prefix is case sensitive", "/FILES/f.pdf", "f.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.StoredRelative(tt.stored))
		})
	}
}

func TestPDFResolver_PrefixNormalization(t *testing.T) {
	withSlash := NewPDFResolver("/data", []string{"/files/"})
	withoutSlash := NewPDFResolver("/data", []string{"/files"})

	assert.Equal(t, withSlash.StoredRelative("/files/x/y.pdf"), withoutSlash.StoredRelative("/files/x/y.pdf"))
	// "/filesystem/..." does not start with the normalized "/files/".
	assert.Equal(t, "z.pdf", withoutSlash.StoredRelative("/filesystem/z.pdf"))
}

func TestPDFResolver_Root(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		_, err := NewPDFResolver("", nil).Root()
		assert.ErrorIs(t, err, ErrRootNotConfigured)
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := NewPDFResolver(filepath.Join(t.TempDir(), "nope"), nil).Root()
		assert.ErrorIs(t, err, ErrRootUnavailable)
	})

	t.Run("file instead of directory", func(t *testing.T) {
		p := writeFile(t, t.TempDir(), "plain.txt", "x")
		_, err := NewPDFResolver(p, nil).Root()
		assert.ErrorIs(t, err, ErrRootUnavailable)
	})

	t.Run("canonical", func(t *testing.T) {
		root := canonicalRoot(t)
		got, err := NewPDFResolver(root+string(filepath.Separator)+".", nil).Root()
		require.NoError(t, err)
		assert.Equal(t, root, got)
	})
}

func TestPDFResolver_Resolve(t *testing.T) {
	root := canonicalRoot(t)
	inbox := writeFile(t, root, "invoices/inbox/foo.pdf", "%PDF-1.4 foo")
	byName := writeFile(t, root, "bar.pdf", "%PDF-1.4 bar")
	byHash := writeFile(t, root, testHash+".pdf", "%PDF-1.4 hash")

	r := NewPDFResolver(root, []string{"/files/"})

	t.Run("legacy prefixed path", func(t *testing.T) {
		got, err := r.Resolve("/files/invoices/inbox/foo.pdf", "")
		require.NoError(t, err)
		assert.Equal(t, inbox, got)
	})

	t.Run("relative path", func(t *testing.T) {
		got, err := r.Resolve("invoices/inbox/foo.pdf", "")
		require.NoError(t, err)
		assert.Equal(t, inbox, got)
	})

	t.Run("absolute path outside prefixes uses base name", func(t *testing.T) {
		got, err := r.Resolve("/old/host/path/bar.pdf", "")
		require.NoError(t, err)
		assert.Equal(t, byName, got)
	})

	t.Run("falls back to content hash", func(t *testing.T) {
		got, err := r.Resolve("/files/gone.pdf", testHash)
		require.NoError(t, err)
		assert.Equal(t, byHash, got)
	})

	t.Run("empty path and no hash", func(t *testing.T) {
		_, err := r.Resolve("", "")
		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("hash that is not hex is ignored", func(t *testing.T) {
		_, err := r.Resolve("", "../../etc/passwd")
		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("traversal in stored path", func(t *testing.T) {
		_, err := r.Resolve("../outside.pdf", testHash)
		assert.ErrorIs(t, err, ErrPathTraversal)
	})

	t.Run("directory is not a file", func(t *testing.T) {
		_, err := r.Resolve("invoices/inbox", "")
		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("root unavailable", func(t *testing.T) {
		_, err := NewPDFResolver(filepath.Join(root, "missing"), nil).Resolve("bar.pdf", "")
		assert.ErrorIs(t, err, ErrRootUnavailable)
	})
}

func TestPDFResolver_ResolveRelative(t *testing.T) {
	parent := canonicalRoot(t)
	root := filepath.Join(parent, "pdfs")
	require.NoError(t, os.MkdirAll(root, 0o755))

	inside := writeFile(t, root, "a/b.pdf", "%PDF-1.4")
	writeFile(t, parent, "secret.pdf", "secret")

	r := NewPDFResolver(root, nil)

	t.Run("inside root", func(t *testing.T) {
		got, err := r.ResolveRelative("a/b.pdf")
		require.NoError(t, err)
		assert.Equal(t, inside, got)
	})

	t.Run("dot segments that stay inside", func(t *testing.T) {
		got, err := r.ResolveRelative("a/../a/b.pdf")
		require.NoError(t, err)
		assert.Equal(t, inside, got)
	})

	for _, rel := range []string{"../secret.pdf", "../../etc/passwd", "a/../../secret.pdf", `..\secret.pdf`} {
		t.Run("traversal "+rel, func(t *testing.T) {
			_, err := r.ResolveRelative(rel)
			assert.ErrorIs(t, err, ErrPathTraversal)
		})
	}

	t.Run("traversal to missing target is still refused", func(t *testing.T) {
		_, err := r.ResolveRelative("../does-not-exist.pdf")
		assert.ErrorIs(t, err, ErrPathTraversal)
	})

	t.Run("leading slash stays under root", func(t *testing.T) {
		got, err := r.ResolveRelative("/a/b.pdf")
		require.NoError(t, err)
		assert.Equal(t, inside, got)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := r.ResolveRelative("")
		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := r.ResolveRelative("a/missing.pdf")
		assert.ErrorIs(t, err, ErrFileNotFound)
	})
}

func TestPDFResolver_SymlinkEscape(t *testing.T) {
	parent := canonicalRoot(t)
	root := filepath.Join(parent, "pdfs")
	require.NoError(t, os.MkdirAll(root, 0o755))
	outside := writeFile(t, parent, "outside/secret.pdf", "secret")
	inside := writeFile(t, root, "real.pdf", "%PDF-1.4")

	if err := os.Symlink(outside, filepath.Join(root, "link.pdf")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	require.NoError(t, os.Symlink(filepath.Dir(outside), filepath.Join(root, "linkdir")))
	require.NoError(t, os.Symlink(inside, filepath.Join(root, "alias.pdf")))

	r := NewPDFResolver(root, nil)

	_, err := r.ResolveRelative("link.pdf")
	assert.ErrorIs(t, err, ErrPathTraversal)

	_, err = r.ResolveRelative("linkdir/secret.pdf")
	assert.ErrorIs(t, err, ErrPathTraversal)

	_, err = r.Resolve("link.pdf", "")
	assert.ErrorIs(t, err, ErrPathTraversal)

	got, err := r.ResolveRelative("alias.pdf")
	require.NoError(t, err)
	assert.Equal(t, inside, got)
}

func TestIsContentHash(t *testing.T) {
	assert.True(t, IsContentHash(testHash))
	assert.True(t, IsContentHash(strings.ToUpper(testHash)))
	assert.False(t, IsContentHash(""))
	assert.False(t, IsContentHash(testHash[:63]))
	assert.False(t, IsContentHash(testHash+"0"))
	assert.False(t, IsContentHash(strings.Repeat("g", 64)))
}
