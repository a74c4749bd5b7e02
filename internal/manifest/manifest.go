// Package manifest implements the preamble manifest (SPEC_FULL §4.H):
// a per-file content fingerprint of the common-axiom/sort-declaration
// source files a batch check's preamble is drawn from, used to detect
// drift between the files on disk and what was last emitted to a
// solver session.
package manifest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// FileEntry is the recorded fingerprint of one source file.
type FileEntry struct {
	Path    string
	SHA256  string
	Size    int64
	ModTime time.Time
}

// Manifest is a snapshot of every tracked file's fingerprint, plus the
// set of files that could not be read.
type Manifest struct {
	Files      map[string]FileEntry
	Unreadable map[string]error
}

// Option configures a Manager.
type Option func(*Manager)

// Manager scans a directory of preamble source files and produces
// Manifests. It is configured through functional options; the only
// option is the per-file size cap (WithMaxFileSize).
type Manager struct {
	maxFileSize int64
}

// DefaultMaxFileSize bounds how much of one file is hashed.
const DefaultMaxFileSize = 64 * 1024 * 1024

// WithMaxFileSize overrides the default per-file size cap.
func WithMaxFileSize(n int64) Option {
	return func(m *Manager) { m.maxFileSize = n }
}

// NewManager constructs a Manager with opts applied over the defaults.
func NewManager(opts ...Option) *Manager {
	m := &Manager{maxFileSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// maxHashWorkers bounds how many files are fingerprinted concurrently,
// mirroring the priority-group fan-out shape used for independent work
// elsewhere in this codebase's ancestry.
const maxHashWorkers = 8

// Scan walks dir, fingerprinting every regular file. Hashing is fanned
// out across maxHashWorkers goroutines since it dominates scan time on a
// preamble directory with many axiom files; honors context cancellation
// both during the walk and while hashing is in flight. Unreadable files
// are recorded in Manifest.Unreadable rather than aborting the scan.
func (m *Manager) Scan(ctx context.Context, dir string) (*Manifest, error) {
	result := &Manifest{
		Files:      make(map[string]FileEntry),
		Unreadable: make(map[string]error),
	}
	var mu sync.Mutex

	type found struct {
		path string
		info fs.FileInfo
	}
	var files []found

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			result.Unreadable[path] = err
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			result.Unreadable[path] = err
			return nil
		}
		files = append(files, found{path: path, info: info})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("manifest: scan %q: %w", dir, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxHashWorkers)
	for _, f := range files {
		f := f
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sum, err := hashFile(f.path, m.maxFileSize)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Unreadable[f.path] = err
				return nil
			}
			result.Files[f.path] = FileEntry{
				Path:    f.path,
				SHA256:  sum,
				Size:    f.info.Size(),
				ModTime: f.info.ModTime(),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("manifest: scan %q: %w", dir, err)
	}
	return result, nil
}

func hashFile(path string, maxSize int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.CopyN(h, f, maxSize); err != nil && err != io.EOF {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Diff is the result of comparing two Manifests.
type Diff struct {
	Added    []string
	Modified []string
	Deleted  []string
}

// Changed reports whether the diff is non-empty.
func (d Diff) Changed() bool {
	return len(d.Added) > 0 || len(d.Modified) > 0 || len(d.Deleted) > 0
}

// Compare diffs prev against cur: files present in cur but not prev are
// Added, files present in both with a differing SHA-256 are Modified,
// files present in prev but not cur are Deleted.
func Compare(prev, cur *Manifest) Diff {
	var d Diff
	for path, curEntry := range cur.Files {
		prevEntry, ok := prev.Files[path]
		if !ok {
			d.Added = append(d.Added, path)
			continue
		}
		if prevEntry.SHA256 != curEntry.SHA256 {
			d.Modified = append(d.Modified, path)
		}
	}
	for path := range prev.Files {
		if _, ok := cur.Files[path]; !ok {
			d.Deleted = append(d.Deleted, path)
		}
	}
	return d
}
