package services

import (
	"context"
	"errors"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/speeditsch-ui/invoice-frontend/internal/models"
)

const pdfExt = ".pdf"

// Reconciler lists every PDF below the root and links each one to the record
// it belongs to, if any.
type Reconciler interface {
	Reconcile(ctx context.Context, refs []models.FileRef) ([]models.FileEntry, error)
}

type reconciler struct {
	resolver PDFResolver
}

func NewReconciler(resolver PDFResolver) Reconciler {
	return &reconciler{resolver: resolver}
}

// Reconcile returns files newest first. A missing root yields an empty list.
func (r *reconciler) Reconcile(ctx context.Context, refs []models.FileRef) ([]models.FileEntry, error) {
	root, err := r.resolver.Root()
	if err != nil {
		if errors.Is(err, ErrRootUnavailable) {
			return []models.FileEntry{}, nil
		}
		return nil, err
	}

	files, err := walkPDFs(ctx, root)
	if err != nil {
		return nil, err
	}

	index := newFileIndex(r.resolver, refs)
	entries := make([]models.FileEntry, 0, len(files))
	for _, f := range files {
		entry := models.FileEntry{
			Filename: f.rel,
			Size:     f.info.Size(),
			Modified: f.info.ModTime().UTC(),
		}
		if ref := index.match(f.rel); ref != nil {
			id := ref.ID
			entry.InvoiceID = &id
			entry.SupplierName = ref.SupplierName
			entry.InvoiceNumber = ref.InvoiceNumber
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

type pdfFile struct {
	rel  string
	info fs.FileInfo
}

// walkPDFs collects regular *.pdf files below root, most recently modified
// first. Symlinks are not followed.
func walkPDFs(ctx context.Context, root string) ([]pdfFile, error) {
	var files []pdfFile

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			// Unreadable subdirectories are skipped, an unreadable root is not.
			if p != root && d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			if p == root {
				return walkErr
			}
			return nil
		}
		if !d.Type().IsRegular() || !strings.EqualFold(filepath.Ext(d.Name()), pdfExt) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			// Removed between listing and stat.
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		files = append(files, pdfFile{rel: filepath.ToSlash(rel), info: info})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(files, func(i, j int) bool {
		ti, tj := files[i].info.ModTime(), files[j].info.ModTime()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return files[i].rel < files[j].rel
	})

	return files, nil
}

// fileIndex is rebuilt for every listing from the current records.
type fileIndex struct {
	byPath map[string]*models.FileRef
	byName map[string]*models.FileRef
	byHash map[string]*models.FileRef
}

func newFileIndex(resolver PDFResolver, refs []models.FileRef) *fileIndex {
	idx := &fileIndex{
		byPath: make(map[string]*models.FileRef, len(refs)),
		byName: make(map[string]*models.FileRef, len(refs)),
		byHash: make(map[string]*models.FileRef, len(refs)),
	}

	for i := range refs {
		ref := &refs[i]
		if rel := resolver.StoredRelative(ref.StoredPath); rel != "" {
			rel = path.Clean(rel)
			putFirst(idx.byPath, rel, ref)
			putFirst(idx.byName, path.Base(rel), ref)
		}
		if ref.ContentHash != "" {
			putFirst(idx.byHash, strings.ToLower(ref.ContentHash), ref)
		}
	}

	return idx
}

// match tries the relative path, then the bare file name, then the file stem
// as a content hash.
func (idx *fileIndex) match(rel string) *models.FileRef {
	if ref, ok := idx.byPath[rel]; ok {
		return ref
	}
	name := path.Base(rel)
	if ref, ok := idx.byName[name]; ok {
		return ref
	}
	stem := strings.TrimSuffix(name, path.Ext(name))
	if ref, ok := idx.byHash[strings.ToLower(stem)]; ok {
		return ref
	}
	return nil
}

func putFirst(m map[string]*models.FileRef, key string, ref *models.FileRef) {
	if _, exists := m[key]; !exists {
		m[key] = ref
	}
}
