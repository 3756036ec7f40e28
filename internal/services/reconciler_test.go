package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speeditsch-ui/invoice-frontend/internal/models"
)

func touch(t *testing.T, p string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.Chtimes(p, mtime, mtime))
}

func strPtr(s string) *string { return &s }

func filenames(entries []models.FileEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Filename
	}
	return out
}

func TestReconciler_OrdersNewestFirst(t *testing.T) {
	root := canonicalRoot(t)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	touch(t, writeFile(t, root, "old.pdf", "a"), base)
	touch(t, writeFile(t, root, "inbox/new.pdf", "bb"), base.Add(2*time.Hour))
	touch(t, writeFile(t, root, "b-same.pdf", "c"), base.Add(time.Hour))
	touch(t, writeFile(t, root, "a-same.PDF", "d"), base.Add(time.Hour))
	writeFile(t, root, "notes.txt", "ignored")
	writeFile(t, root, "scan.png", "ignored")

	entries, err := NewReconciler(NewPDFResolver(root, nil)).Reconcile(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"inbox/new.pdf", "a-same.PDF", "b-same.pdf", "old.pdf"}, filenames(entries))
	assert.EqualValues(t, 2, entries[0].Size)
	assert.True(t, entries[0].Modified.Equal(base.Add(2*time.Hour)))
	for _, e := range entries {
		assert.Nil(t, e.InvoiceID)
	}
}

func TestReconciler_MatchesRecords(t *testing.T) {
	root := canonicalRoot(t)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	touch(t, writeFile(t, root, "invoices/inbox/foo.pdf", "x"), base.Add(4*time.Hour))
	touch(t, writeFile(t, root, "archive/bar.pdf", "x"), base.Add(3*time.Hour))
	touch(t, writeFile(t, root, testHash+".pdf", "x"), base.Add(2*time.Hour))
	touch(t, writeFile(t, root, "orphan.pdf", "x"), base.Add(time.Hour))

	refs := []models.FileRef{
		{ID: 1, StoredPath: "/files/invoices/inbox/foo.pdf", SupplierName: strPtr("ACME"), InvoiceNumber: strPtr("R-1")},
		{ID: 2, StoredPath: "/var/old/bar.pdf", SupplierName: strPtr("Globex")},
		{ID: 3, StoredPath: "", ContentHash: testHash},
	}

	entries, err := NewReconciler(NewPDFResolver(root, []string{"/files/"})).Reconcile(context.Background(), refs)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	byName := make(map[string]models.FileEntry, len(entries))
	for _, e := range entries {
		byName[e.Filename] = e
	}

	foo := byName["invoices/inbox/foo.pdf"]
	require.NotNil(t, foo.InvoiceID)
	assert.EqualValues(t, 1, *foo.InvoiceID)
	assert.Equal(t, "ACME", *foo.SupplierName)
	assert.Equal(t, "R-1", *foo.InvoiceNumber)

	bar := byName["archive/bar.pdf"]
	require.NotNil(t, bar.InvoiceID)
	assert.EqualValues(t, 2, *bar.InvoiceID)
	assert.Nil(t, bar.InvoiceNumber)

	hashed := byName[testHash+".pdf"]
	require.NotNil(t, hashed.InvoiceID)
	assert.EqualValues(t, 3, *hashed.InvoiceID)

	assert.Nil(t, byName["orphan.pdf"].InvoiceID)
}

func TestReconciler_PathMatchBeatsNameMatch(t *testing.T) {
	root := canonicalRoot(t)
	writeFile(t, root, "2023/report.pdf", "x")
	writeFile(t, root, "2024/report.pdf", "x")

	refs := []models.FileRef{
		{ID: 10, StoredPath: "2023/report.pdf"},
		{ID: 20, StoredPath: "2024/report.pdf"},
	}

	entries, err := NewReconciler(NewPDFResolver(root, nil)).Reconcile(context.Background(), refs)
	require.NoError(t, err)

	for _, e := range entries {
		require.NotNil(t, e.InvoiceID, e.Filename)
		switch e.Filename {
		case "2023/report.pdf":
			assert.EqualValues(t, 10, *e.InvoiceID)
		case "2024/report.pdf":
			assert.EqualValues(t, 20, *e.InvoiceID)
		}
	}
}

func TestReconciler_FirstRecordWinsOnDuplicates(t *testing.T) {
	root := canonicalRoot(t)
	writeFile(t, root, "dup.pdf", "x")

	refs := []models.FileRef{
		{ID: 7, StoredPath: "dup.pdf"},
		{ID: 5, StoredPath: "/files/dup.pdf"},
	}

	entries, err := NewReconciler(NewPDFResolver(root, []string{"/files/"})).Reconcile(context.Background(), refs)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].InvoiceID)
	assert.EqualValues(t, 7, *entries[0].InvoiceID)
}

func TestReconciler_DoesNotFollowSymlinks(t *testing.T) {
	parent := canonicalRoot(t)
	root := filepath.Join(parent, "pdfs")
	require.NoError(t, os.MkdirAll(root, 0o755))
	outside := writeFile(t, parent, "outside/secret.pdf", "x")
	writeFile(t, root, "real.pdf", "x")

	if err := os.Symlink(outside, filepath.Join(root, "link.pdf")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	require.NoError(t, os.Symlink(filepath.Dir(outside), filepath.Join(root, "linkdir")))

	entries, err := NewReconciler(NewPDFResolver(root, nil)).Reconcile(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"real.pdf"}, filenames(entries))
}

func TestReconciler_RootErrors(t *testing.T) {
	t.Run("missing root lists nothing", func(t *testing.T) {
		r := NewReconciler(NewPDFResolver(filepath.Join(t.TempDir(), "missing"), nil))
		entries, err := r.Reconcile(context.Background(), []models.FileRef{{ID: 1, StoredPath: "a.pdf"}})
		require.NoError(t, err)
		assert.NotNil(t, entries)
		assert.Empty(t, entries)
	})

	t.Run("unconfigured root is an error", func(t *testing.T) {
		_, err := NewReconciler(NewPDFResolver("", nil)).Reconcile(context.Background(), nil)
		assert.ErrorIs(t, err, ErrRootNotConfigured)
	})

	t.Run("canceled context", func(t *testing.T) {
		root := canonicalRoot(t)
		writeFile(t, root, "a.pdf", "x")

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewReconciler(NewPDFResolver(root, nil)).Reconcile(ctx, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
