package treeview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leappanel/internal/manifest"
	"github.com/leapstack-labs/leappanel/internal/registry"
)

func newTestViews(t *testing.T) (*Views, *manifest.Store, *registry.ProjectRegistry) {
	t.Helper()
	store := manifest.NewStore()
	projects := registry.NewProjectRegistry()
	return NewViews(store, projects, nil), store, projects
}

func jaffleEvent() manifest.ChangeEvent {
	return manifest.ChangeEvent{
		Added: []manifest.AddedProject{{
			ProjectRoot: "/work/jaffle",
			ProjectName: "jaffle_shop",
			GraphMetaMap: manifest.GraphMetaMap{
				manifest.RelationParents: {
					"model.jaffle_shop.orders": {
						{Key: "model.jaffle_shop.stg_orders", Label: "stg_orders", Kind: manifest.KindModel, DisplayInModelTree: true},
					},
					"model.jaffle_shop.stg_orders": {},
				},
				manifest.RelationTests: {
					"model.jaffle_shop.orders": {
						{Key: "test.jaffle_shop.not_null_orders", Label: "not_null_orders", Kind: manifest.KindTest, DisplayInModelTree: true},
					},
				},
			},
		}},
	}
}

func TestViews_RootWithoutActiveDocument(t *testing.T) {
	views, _, _ := newTestViews(t)
	views.ApplyManifestChange(jaffleEvent())

	for _, rel := range manifest.Relations() {
		p, ok := views.View(rel)
		require.True(t, ok)
		assert.Empty(t, p.GetChildren(nil), "no active document must yield empty root for %s", rel)
	}
}

func TestViews_RootFromActiveDocument(t *testing.T) {
	views, _, _ := newTestViews(t)
	views.ApplyManifestChange(jaffleEvent())
	views.SetActiveDocument("/work/jaffle/models/orders.sql")

	parents, ok := views.View(manifest.RelationParents)
	require.True(t, ok)

	items := parents.GetChildren(nil)
	require.Len(t, items, 1)
	assert.Equal(t, "model.jaffle_shop.stg_orders", items[0].Key)
	assert.Equal(t, ItemChainLeaf, items[0].Kind)
	assert.Equal(t, "/work/jaffle", items[0].ProjectRoot)

	tests, ok := views.View(manifest.RelationTests)
	require.True(t, ok)

	items = tests.GetChildren(nil)
	require.Len(t, items, 1)
	assert.Equal(t, ItemTest, items[0].Kind)
}

func TestViews_RootFallsBackToProjectName(t *testing.T) {
	views, store, projects := newTestViews(t)

	// Snapshot installed directly, without a registry package name.
	store.Upsert(&manifest.Snapshot{
		ProjectRoot: "/work/jaffle",
		ProjectName: "jaffle_shop",
		GraphMetaMap: manifest.GraphMetaMap{
			manifest.RelationChildren: {
				"model.jaffle_shop.stg_orders": {
					{Key: "model.jaffle_shop.orders", Label: "orders", Kind: manifest.KindModel, DisplayInModelTree: true},
				},
			},
		},
	})
	projects.Register("/work/jaffle", "")

	views.SetActiveDocument("/work/jaffle/models/stg_orders.sql")

	children, ok := views.View(manifest.RelationChildren)
	require.True(t, ok)

	items := children.GetChildren(nil)
	require.Len(t, items, 1, "package name must fall back to the project's own name")
	assert.Equal(t, "model.jaffle_shop.orders", items[0].Key)
}

func TestViews_DocumentOutsideAnyProject(t *testing.T) {
	views, _, _ := newTestViews(t)
	views.ApplyManifestChange(jaffleEvent())
	views.SetActiveDocument("/tmp/scratch.sql")

	p, ok := views.View(manifest.RelationParents)
	require.True(t, ok)
	assert.Empty(t, p.GetChildren(nil))
}

func TestViews_ExpandItem(t *testing.T) {
	views, _, _ := newTestViews(t)
	views.ApplyManifestChange(jaffleEvent())

	p, ok := views.View(manifest.RelationParents)
	require.True(t, ok)

	item := &DisplayItem{Key: "model.jaffle_shop.orders", Kind: ItemModel, ProjectRoot: "/work/jaffle"}
	children := p.GetChildren(item)
	require.Len(t, children, 1)
	assert.Equal(t, "model.jaffle_shop.stg_orders", children[0].Key)

	// Items pointing at an untracked project resolve to nothing.
	orphan := &DisplayItem{Key: "model.other.orders", Kind: ItemModel, ProjectRoot: "/work/ghost"}
	assert.Empty(t, p.GetChildren(orphan))
}

func TestViews_ManifestRemoval(t *testing.T) {
	views, store, _ := newTestViews(t)
	views.ApplyManifestChange(jaffleEvent())
	views.SetActiveDocument("/work/jaffle/models/orders.sql")

	changed := views.ApplyManifestChange(manifest.ChangeEvent{
		Removed: []manifest.RemovedProject{{ProjectRoot: "/work/jaffle"}},
	})
	assert.True(t, changed)
	assert.Equal(t, 0, store.Count())

	p, ok := views.View(manifest.RelationParents)
	require.True(t, ok)
	assert.Empty(t, p.GetChildren(nil), "lookups after removal must return empty")
}

func TestViews_ChangeNotifications(t *testing.T) {
	views, _, _ := newTestViews(t)

	var fired []manifest.Relation
	views.OnDidChangeTreeData(func(rel manifest.Relation) {
		fired = append(fired, rel)
	})

	views.ApplyManifestChange(jaffleEvent())
	assert.Len(t, fired, 3, "manifest change must invalidate all three views")

	fired = nil
	views.SetActiveDocument("/work/jaffle/models/orders.sql")
	assert.Len(t, fired, 3, "focus change must trigger a redraw of all views")

	fired = nil
	changed := views.ApplyManifestChange(manifest.ChangeEvent{})
	assert.False(t, changed)
	assert.Empty(t, fired, "empty batches must not notify")
}

func TestProvider_GetTreeItem(t *testing.T) {
	views, _, _ := newTestViews(t)
	p, ok := views.View(manifest.RelationChildren)
	require.True(t, ok)
	assert.Equal(t, manifest.RelationChildren, p.Relation())

	item := p.GetTreeItem(DisplayItem{Key: "model.jaffle_shop.orders", Label: "orders", Kind: ItemModel})
	assert.Equal(t, "orders", item.Label)
	assert.Equal(t, CollapsibleCollapsed, item.Collapsible)
}
