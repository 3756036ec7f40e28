package services

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var (
	ErrRootNotConfigured = errors.New("pdf root is not configured")
	ErrRootUnavailable   = errors.New("pdf root is not accessible")
	ErrPathTraversal     = errors.New("path escapes pdf root")
	ErrFileNotFound      = errors.New("file not found")
)

// PDFResolver maps stored pdf_path values onto files below one root directory.
//
// Stored paths come in several historical formats:
//   - empty: the record has no file
//   - a legacy container prefix such as "/files/": stripped, rest is root-relative
//   - any other absolute path: only the base name is kept
//   - a bare name or relative path: root-relative as is
//
// Resolve falls back to "{root}/{content hash}.pdf" when the stored path does
// not lead to a file. Nothing outside the canonical root is ever returned.
type PDFResolver interface {
	Root() (string, error)
	StoredRelative(stored string) string
	Resolve(stored, contentHash string) (string, error)
	ResolveRelative(rel string) (string, error)
}

type pdfResolver struct {
	root           string
	legacyPrefixes []string
}

func NewPDFResolver(root string, legacyPrefixes []string) PDFResolver {
	prefixes := make([]string, 0, len(legacyPrefixes))
	for _, p := range legacyPrefixes {
		p = strings.TrimSpace(strings.ReplaceAll(p, `\`, "/"))
		if p == "" || p == "/" {
			continue
		}
		if !strings.HasSuffix(p, "/") {
			p += "/"
		}
		prefixes = append(prefixes, p)
	}

	return &pdfResolver{
		root:           strings.TrimSpace(root),
		legacyPrefixes: prefixes,
	}
}

// Root returns the absolute, symlink-free root directory.
func (r *pdfResolver) Root() (string, error) {
	if r.root == "" {
		return "", ErrRootNotConfigured
	}

	abs, err := filepath.Abs(r.root)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRootUnavailable, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRootUnavailable, err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRootUnavailable, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: not a directory", ErrRootUnavailable)
	}

	return resolved, nil
}

// StoredRelative normalizes a stored path to a "/"-separated path relative to
// the root. It returns "" when the record has no file.
func (r *pdfResolver) StoredRelative(stored string) string {
	p := strings.TrimSpace(strings.ReplaceAll(stored, `\`, "/"))
	if p == "" {
		return ""
	}

	for _, prefix := range r.legacyPrefixes {
		if strings.HasPrefix(p, prefix) {
			return strings.TrimLeft(p[len(prefix):], "/")
		}
	}

	if path.IsAbs(p) || hasDriveLetter(p) {
		return path.Base(p)
	}

	return p
}

func (r *pdfResolver) Resolve(stored, contentHash string) (string, error) {
	root, err := r.Root()
	if err != nil {
		return "", err
	}

	if rel := r.StoredRelative(stored); rel != "" {
		found, err := locate(root, rel)
		if err == nil {
			return found, nil
		}
		if errors.Is(err, ErrPathTraversal) {
			return "", err
		}
	}

	if IsContentHash(contentHash) {
		if found, err := locate(root, contentHash+".pdf"); err == nil {
			return found, nil
		}
	}

	return "", ErrFileNotFound
}

func (r *pdfResolver) ResolveRelative(rel string) (string, error) {
	root, err := r.Root()
	if err != nil {
		return "", err
	}
	rel = strings.ReplaceAll(rel, `\`, "/")
	if strings.TrimSpace(rel) == "" {
		return "", ErrFileNotFound
	}
	return locate(root, rel)
}

// locate joins rel onto root and checks containment twice: lexically, so ".."
// is refused whether or not the target exists, and after resolving symlinks.
func locate(root, rel string) (string, error) {
	candidate := filepath.Join(root, filepath.FromSlash(rel))
	if !within(root, candidate) {
		return "", ErrPathTraversal
	}

	resolved, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrFileNotFound, rel)
	}
	if !within(root, resolved) {
		return "", ErrPathTraversal
	}

	info, err := os.Stat(resolved)
	if err != nil || !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s", ErrFileNotFound, rel)
	}

	return resolved, nil
}

func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil || filepath.IsAbs(rel) {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func hasDriveLetter(p string) bool {
	return len(p) >= 3 && p[1] == ':' && p[2] == '/' &&
		(('a' <= p[0] && p[0] <= 'z') || ('A' <= p[0] && p[0] <= 'Z'))
}

// IsContentHash reports whether s looks like a hex SHA-256 digest.
func IsContentHash(s string) bool {
	if len(s) != 64 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return false
		}
	}
	return true
}
