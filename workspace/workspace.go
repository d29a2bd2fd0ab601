// Package workspace maintains the set of open query-language documents,
// aggregates their schema declarations into registries, and computes
// per-document diagnostics. Documents in the same directory share one
// schema registry; documents elsewhere never affect each other.
package workspace

import (
	"context"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	hls "github.com/HelixDB/hls"
)

type document struct {
	path       string
	text       string
	epoch      uint64
	file       *hls.File
	parseDiags []hls.Diagnostic
}

// Workspace holds the open documents. All mutation goes through
// SetDocument/CloseDocument; analysis reads an immutable snapshot, so a
// rebuild never exposes a half-built registry to a concurrent reader.
type Workspace struct {
	logger *slog.Logger

	mu         sync.RWMutex
	docs       map[string]*document
	generation uint64

	snapshot atomic.Pointer[Snapshot]
}

// Snapshot is one immutable view of the workspace: parsed files, parse
// diagnostics, and a schema registry per directory. Holders of an old
// snapshot keep operating against a coherent, stale-but-consistent view.
type Snapshot struct {
	generation uint64
	files      map[string]*hls.File
	parseDiags map[string][]hls.Diagnostic
	epochs     map[string]uint64
	registries map[string]*registryEntry // keyed by directory
}

type registryEntry struct {
	registry *hls.SchemaRegistry
	diags    []hls.Diagnostic
}

func New(logger *slog.Logger) *Workspace {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workspace{
		logger: logger,
		docs:   make(map[string]*document),
	}
}

// SetDocument adds or replaces a document. Parsing happens immediately
// (it is a pure function of the text); the document's epoch advances so
// any in-flight diagnostic computation for the old text is superseded.
func (w *Workspace) SetDocument(path, text string) {
	file, diags := hls.ParseString(path, text)
	w.mu.Lock()
	defer w.mu.Unlock()
	doc := w.docs[path]
	if doc == nil {
		doc = &document{path: path}
		w.docs[path] = doc
	}
	doc.text = text
	doc.epoch++
	doc.file = file
	doc.parseDiags = diags
	w.generation++
	w.logger.Debug("document updated", slog.String("path", path), slog.Uint64("epoch", doc.epoch))
}

// CloseDocument removes a document from the workspace.
func (w *Workspace) CloseDocument(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.docs[path]; !ok {
		return
	}
	delete(w.docs, path)
	w.generation++
	w.logger.Debug("document closed", slog.String("path", path))
}

// Text returns the stored text of a document.
func (w *Workspace) Text(path string) (string, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	doc, ok := w.docs[path]
	if !ok {
		return "", false
	}
	return doc.text, true
}

// Epoch returns the current epoch of a document, 0 if absent.
func (w *Workspace) Epoch(path string) uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if doc, ok := w.docs[path]; ok {
		return doc.epoch
	}
	return 0
}

// Paths returns the open document paths, sorted.
func (w *Workspace) Paths() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	paths := make([]string, 0, len(w.docs))
	for path := range w.docs {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Snapshot returns the current immutable analysis snapshot, rebuilding
// it if any document changed since the last build. The replacement is
// atomic: concurrent readers either get the old complete snapshot or the
// new complete one.
func (w *Workspace) Snapshot() *Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if snap := w.snapshot.Load(); snap != nil && snap.generation == w.generation {
		return snap
	}
	snap := &Snapshot{
		generation: w.generation,
		files:      make(map[string]*hls.File, len(w.docs)),
		parseDiags: make(map[string][]hls.Diagnostic, len(w.docs)),
		epochs:     make(map[string]uint64, len(w.docs)),
		registries: make(map[string]*registryEntry),
	}
	byDir := make(map[string][]*hls.File)
	dirPaths := make(map[string][]string)
	for path, doc := range w.docs {
		snap.files[path] = doc.file
		snap.parseDiags[path] = doc.parseDiags
		snap.epochs[path] = doc.epoch
		dir := filepath.Dir(path)
		dirPaths[dir] = append(dirPaths[dir], path)
	}
	for dir, paths := range dirPaths {
		// deterministic order so duplicate-schema diagnostics always
		// blame the same declaration
		sort.Strings(paths)
		for _, path := range paths {
			byDir[dir] = append(byDir[dir], snap.files[path])
		}
	}
	for dir, files := range byDir {
		registry, diags := hls.BuildRegistry(files...)
		snap.registries[dir] = &registryEntry{registry: registry, diags: diags}
	}
	w.snapshot.Store(snap)
	return snap
}

// Registry returns the schema registry governing the given document.
func (s *Snapshot) Registry(path string) *hls.SchemaRegistry {
	if entry := s.registries[filepath.Dir(path)]; entry != nil {
		return entry.registry
	}
	return nil
}

// File returns the parsed AST of the given document.
func (s *Snapshot) File(path string) *hls.File {
	return s.files[path]
}

// Diagnose computes the full diagnostic list for one document under this
// snapshot: parse findings, schema aggregation findings attributed to the
// document, and semantic validation findings.
func (s *Snapshot) Diagnose(path string) []hls.Diagnostic {
	file, ok := s.files[path]
	if !ok {
		return nil
	}
	diags := append([]hls.Diagnostic(nil), s.parseDiags[path]...)
	entry := s.registries[filepath.Dir(path)]
	if entry != nil {
		for _, d := range entry.diags {
			if d.Span.Filename == path {
				diags = append(diags, d)
			}
		}
		diags = append(diags, hls.Validate(file, entry.registry)...)
	}
	hls.SortDiagnostics(diags)
	return diags
}

// Diagnostics computes diagnostics for one document with newest-wins
// semantics: the result is returned only if the document has not changed
// since the computation started. A false return means the result was
// superseded (or the document is gone) and the caller should not publish
// it.
func (w *Workspace) Diagnostics(path string) ([]hls.Diagnostic, bool) {
	snap := w.Snapshot()
	startEpoch, ok := snap.epochs[path]
	if !ok {
		return nil, false
	}
	diags := snap.Diagnose(path)
	if w.Epoch(path) != startEpoch {
		w.logger.Debug("diagnostics superseded", slog.String("path", path))
		return nil, false
	}
	return diags, true
}

// ValidateAll computes diagnostics for every document concurrently. The
// snapshot is immutable and documents are independent, so the work
// parallelizes freely.
func (w *Workspace) ValidateAll(ctx context.Context) (map[string][]hls.Diagnostic, error) {
	snap := w.Snapshot()
	results := make(map[string][]hls.Diagnostic, len(snap.files))
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for path := range snap.files {
		path := path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			diags := snap.Diagnose(path)
			mu.Lock()
			results[path] = diags
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
