// Package registry tracks known project roots and their package names.
// It resolves a document path to its owning project root via longest-prefix
// match, which in turn anchors the synthetic root key of the lineage views.
package registry

import (
	"path/filepath"
	"strings"
	"sync"
)

// ProjectRegistry maps project roots to package names for document
// resolution. All lookups degrade to ok=false, never to errors.
type ProjectRegistry struct {
	mu sync.RWMutex

	// byRoot maps a project root path to its package name:
	// "/work/jaffle" → "jaffle_shop"
	byRoot map[string]string
}

// NewProjectRegistry creates a new empty registry.
func NewProjectRegistry() *ProjectRegistry {
	return &ProjectRegistry{
		byRoot: make(map[string]string),
	}
}

// Register adds or replaces a project root with its package name.
func (r *ProjectRegistry) Register(root, packageName string) {
	if root == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byRoot[filepath.Clean(root)] = packageName
}

// Unregister removes a project root.
func (r *ProjectRegistry) Unregister(root string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byRoot, filepath.Clean(root))
}

// RootFor resolves a document path to its owning project root. When roots
// nest, the longest matching prefix wins.
func (r *ProjectRegistry) RootFor(documentPath string) (string, bool) {
	if documentPath == "" {
		return "", false
	}
	path := filepath.Clean(documentPath)

	r.mu.RLock()
	defer r.mu.RUnlock()

	best := ""
	for root := range r.byRoot {
		if !isUnder(root, path) {
			continue
		}
		if len(root) > len(best) {
			best = root
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}

// PackageName returns the package name registered for a project root.
func (r *ProjectRegistry) PackageName(root string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.byRoot[filepath.Clean(root)]
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// PackageFor resolves a document path directly to its package name.
func (r *ProjectRegistry) PackageFor(documentPath string) (string, bool) {
	root, ok := r.RootFor(documentPath)
	if !ok {
		return "", false
	}
	return r.PackageName(root)
}

// Count returns the number of registered project roots.
func (r *ProjectRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byRoot)
}

// isUnder reports whether path sits at or below root.
func isUnder(root, path string) bool {
	if root == path {
		return true
	}
	sep := string(filepath.Separator)
	if !strings.HasSuffix(root, sep) {
		root += sep
	}
	return strings.HasPrefix(path, root)
}
