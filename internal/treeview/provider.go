package treeview

import (
	"log/slog"
	"sync"

	"github.com/leapstack-labs/leappanel/internal/manifest"
	"github.com/leapstack-labs/leappanel/internal/registry"
)

// Views coordinates the three lineage tree providers. It owns the active
// document state and fans manifest-change and focus-change events out as
// tree-change notifications the host subscribes to.
type Views struct {
	store    *manifest.Store
	projects *registry.ProjectRegistry
	logger   *slog.Logger

	mu        sync.RWMutex
	activeDoc string

	listenerMu sync.Mutex
	listeners  []func(manifest.Relation)

	providers map[manifest.Relation]*Provider
}

// NewViews creates the provider set over a snapshot store and project
// registry, one provider per relation.
func NewViews(store *manifest.Store, projects *registry.ProjectRegistry, logger *slog.Logger) *Views {
	if logger == nil {
		logger = slog.Default()
	}
	v := &Views{
		store:     store,
		projects:  projects,
		logger:    logger,
		providers: make(map[manifest.Relation]*Provider, 3),
	}
	for _, rel := range manifest.Relations() {
		v.providers[rel] = &Provider{relation: rel, views: v}
	}
	return v
}

// View returns the provider registered for a relation.
func (v *Views) View(rel manifest.Relation) (*Provider, bool) {
	p, ok := v.providers[rel]
	return p, ok
}

// Store exposes the underlying snapshot store.
func (v *Views) Store() *manifest.Store {
	return v.store
}

// RegisterProject pre-registers a project root so documents under it
// resolve before the first manifest event arrives.
func (v *Views) RegisterProject(root, name string) {
	v.projects.Register(root, name)
}

// OnDidChangeTreeData registers a listener invoked once per relation
// whenever a view's displayed tree is invalidated. Notifications are
// fire-and-forget; listeners must not block.
func (v *Views) OnDidChangeTreeData(fn func(manifest.Relation)) {
	if fn == nil {
		return
	}
	v.listenerMu.Lock()
	defer v.listenerMu.Unlock()
	v.listeners = append(v.listeners, fn)
}

// SetActiveDocument records the focused document and triggers a redraw of
// all views. No snapshot state is mutated.
func (v *Views) SetActiveDocument(path string) {
	v.mu.Lock()
	v.activeDoc = path
	v.mu.Unlock()

	v.logger.Debug("active document changed", "path", path)
	v.notifyAll()
}

// ActiveDocument returns the currently focused document path, if any.
func (v *Views) ActiveDocument() (string, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.activeDoc, v.activeDoc != ""
}

// ApplyManifestChange consumes one manifest-change batch: project registry
// entries follow the added/removed roots, the snapshot store is updated,
// and all views are invalidated when anything changed.
func (v *Views) ApplyManifestChange(ev manifest.ChangeEvent) bool {
	for _, added := range ev.Added {
		v.projects.Register(added.ProjectRoot, added.ProjectName)
	}
	for _, removed := range ev.Removed {
		v.projects.Unregister(removed.ProjectRoot)
	}

	changed := v.store.ApplyChange(ev)
	if changed {
		v.logger.Debug("manifest changed",
			"added", len(ev.Added),
			"removed", len(ev.Removed),
			"projects", v.store.Count())
		v.notifyAll()
	}
	return changed
}

func (v *Views) notifyAll() {
	v.listenerMu.Lock()
	listeners := make([]func(manifest.Relation), len(v.listeners))
	copy(listeners, v.listeners)
	v.listenerMu.Unlock()

	for _, fn := range listeners {
		for _, rel := range manifest.Relations() {
			fn(rel)
		}
	}
}

// rootContext resolves the active document to its snapshot and synthetic
// root key. Any absent piece of context degrades to ok=false.
func (v *Views) rootContext() (*manifest.Snapshot, string, bool) {
	doc, ok := v.ActiveDocument()
	if !ok {
		return nil, "", false
	}
	root, ok := v.projects.RootFor(doc)
	if !ok {
		return nil, "", false
	}
	snap, ok := v.store.Get(root)
	if !ok {
		return nil, "", false
	}
	pkg, ok := v.projects.PackageName(root)
	if !ok {
		pkg = snap.ProjectName
	}
	key := RootKey(doc, pkg)
	if key == "" {
		return nil, "", false
	}
	return snap, key, true
}

// Provider is one lineage tree view, bound to a single relation. It
// implements the host's tree-data-provider capability.
type Provider struct {
	relation manifest.Relation
	views    *Views
}

// Relation returns the relation this provider traverses.
func (p *Provider) Relation() manifest.Relation {
	return p.relation
}

// GetChildren returns the children of item, or the root-level items when
// item is nil. Absent context always yields an empty list.
func (p *Provider) GetChildren(item *DisplayItem) []DisplayItem {
	if item == nil {
		snap, key, ok := p.views.rootContext()
		if !ok {
			return nil
		}
		return ResolveChildren(key, p.relation, snap)
	}

	snap, ok := p.views.store.Get(item.ProjectRoot)
	if !ok {
		return nil
	}
	return ResolveChildren(item.Key, p.relation, snap)
}

// GetTreeItem returns the renderable form of item.
func (p *Provider) GetTreeItem(item DisplayItem) TreeItem {
	return TreeItemFor(item)
}
