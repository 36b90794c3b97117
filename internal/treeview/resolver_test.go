package treeview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leappanel/internal/manifest"
)

func node(key string, kind manifest.NodeKind, visible bool) manifest.GraphNode {
	return manifest.GraphNode{
		Key:                key,
		Label:              key,
		Kind:               kind,
		DisplayInModelTree: visible,
	}
}

func testSnapshot(meta manifest.GraphMetaMap) *manifest.Snapshot {
	return &manifest.Snapshot{
		ProjectRoot:  "/work/jaffle",
		ProjectName:  "jaffle_shop",
		GraphMetaMap: meta,
	}
}

func TestResolveChildren_MissingEntry(t *testing.T) {
	snap := testSnapshot(manifest.GraphMetaMap{
		manifest.RelationParents: {
			"model.jaffle.orders": {node("model.jaffle.stg_orders", manifest.KindModel, true)},
		},
	})

	for _, rel := range manifest.Relations() {
		assert.Empty(t, ResolveChildren("model.jaffle.unknown", rel, snap),
			"missing key under %s must resolve to empty", rel)
	}

	// A relation with no adjacency map at all behaves the same.
	assert.Empty(t, ResolveChildren("model.jaffle.orders", manifest.RelationChildren, snap))
}

func TestResolveChildren_NilSnapshotAndEmptyKey(t *testing.T) {
	assert.Empty(t, ResolveChildren("model.jaffle.orders", manifest.RelationParents, nil))

	snap := testSnapshot(manifest.GraphMetaMap{})
	assert.Empty(t, ResolveChildren("", manifest.RelationParents, snap))
}

func TestResolveChildren_TestKeysAreLeaves(t *testing.T) {
	// Even a manifest that (incorrectly) records children for a test key
	// must yield nothing.
	snap := testSnapshot(manifest.GraphMetaMap{
		manifest.RelationChildren: {
			"test.jaffle.not_null_orders": {node("model.jaffle.orders", manifest.KindModel, true)},
		},
	})

	assert.Empty(t, ResolveChildren("test.jaffle.not_null_orders", manifest.RelationChildren, snap))
}

func TestResolveChildren_VisibilityFilterPreservesOrder(t *testing.T) {
	snap := testSnapshot(manifest.GraphMetaMap{
		manifest.RelationChildren: {
			"model.jaffle.stg_orders": {
				node("model.jaffle.orders", manifest.KindModel, true),
				node("model.jaffle.hidden", manifest.KindModel, false),
				node("model.jaffle.revenue", manifest.KindModel, true),
				node("source.jaffle.raw_orders", manifest.KindSource, false),
				node("model.jaffle.audit", manifest.KindModel, true),
			},
		},
	})

	items := ResolveChildren("model.jaffle.stg_orders", manifest.RelationChildren, snap)
	require.Len(t, items, 3)

	keys := make([]string, len(items))
	for i, it := range items {
		keys[i] = it.Key
	}
	assert.Equal(t, []string{"model.jaffle.orders", "model.jaffle.revenue", "model.jaffle.audit"}, keys,
		"relative neighbor order must be preserved")
}

func TestResolveChildren_Classification(t *testing.T) {
	snap := testSnapshot(manifest.GraphMetaMap{
		manifest.RelationParents: {
			"model.jaffle.root": {
				node("model.jaffle.mid", manifest.KindModel, true),
				node("model.jaffle.edge", manifest.KindModel, true),
				node("snapshot.jaffle.orders_snap", manifest.KindSnapshot, true),
				node("source.jaffle.raw_orders", manifest.KindSource, true),
				node("test.jaffle.not_null", manifest.KindTest, true),
			},
			// mid has a visible model parent: standard expandable model.
			"model.jaffle.mid": {node("model.jaffle.stg", manifest.KindModel, true)},
			// edge's only transform parent is hidden: chain leaf.
			"model.jaffle.edge": {
				node("model.jaffle.hidden", manifest.KindModel, false),
				node("source.jaffle.raw", manifest.KindSource, true),
			},
			// the snapshot node has no parents recorded at all: chain leaf.
		},
	})

	items := ResolveChildren("model.jaffle.root", manifest.RelationParents, snap)
	require.Len(t, items, 5)

	kinds := map[string]ItemKind{}
	for _, it := range items {
		kinds[it.Key] = it.Kind
	}

	assert.Equal(t, ItemModel, kinds["model.jaffle.mid"])
	assert.Equal(t, ItemChainLeaf, kinds["model.jaffle.edge"])
	assert.Equal(t, ItemChainLeaf, kinds["snapshot.jaffle.orders_snap"])
	assert.Equal(t, ItemSource, kinds["source.jaffle.raw_orders"])
	assert.Equal(t, ItemTest, kinds["test.jaffle.not_null"])
}

func TestResolveChildren_ChainLeafScenario(t *testing.T) {
	// parents["model.pkg.b"] = [model.pkg.a visible], parents["model.pkg.a"] = []
	snap := testSnapshot(manifest.GraphMetaMap{
		manifest.RelationParents: {
			"model.pkg.b": {node("model.pkg.a", manifest.KindModel, true)},
			"model.pkg.a": {},
		},
	})

	items := ResolveChildren("model.pkg.b", manifest.RelationParents, snap)
	require.Len(t, items, 1)
	assert.Equal(t, "model.pkg.a", items[0].Key)
	assert.Equal(t, ItemChainLeaf, items[0].Kind)
	assert.False(t, items[0].Expandable())
}

func TestResolveChildren_TestKindNeighborDoesNotAnchorChain(t *testing.T) {
	// A neighbor whose key carries the test prefix is classified as a test
	// even if its kind says model, and never counts as a transform
	// descendant of its siblings.
	snap := testSnapshot(manifest.GraphMetaMap{
		manifest.RelationTests: {
			"model.jaffle.orders": {
				node("test.jaffle.unique_orders", manifest.KindModel, true),
			},
		},
	})

	items := ResolveChildren("model.jaffle.orders", manifest.RelationTests, snap)
	require.Len(t, items, 1)
	assert.Equal(t, ItemTest, items[0].Kind)
}

func TestRootKey(t *testing.T) {
	tests := []struct {
		name string
		path string
		pkg  string
		want string
	}{
		{name: "sql model", path: "/work/jaffle/models/staging/stg_orders.sql", pkg: "jaffle_shop", want: "model.jaffle_shop.stg_orders"},
		{name: "extension stripped once", path: "/work/jaffle/models/orders.tar.sql", pkg: "jaffle_shop", want: "model.jaffle_shop.orders.tar"},
		{name: "no extension", path: "/work/jaffle/models/orders", pkg: "jaffle_shop", want: "model.jaffle_shop.orders"},
		{name: "empty path", path: "", pkg: "jaffle_shop", want: ""},
		{name: "empty package", path: "/work/jaffle/models/orders.sql", pkg: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RootKey(tt.path, tt.pkg))
		})
	}
}

func TestTreeItemFor(t *testing.T) {
	model := DisplayItem{Key: "model.jaffle.orders", Label: "orders", Kind: ItemModel, FilePath: "/work/jaffle/models/orders.sql"}
	item := TreeItemFor(model)
	assert.Equal(t, CollapsibleCollapsed, item.Collapsible)
	assert.Equal(t, "model", item.Icon)
	assert.Equal(t, "model", item.ContextTag)
	assert.Equal(t, "/work/jaffle/models/orders.sql", item.ResourceURI)

	leaf := TreeItemFor(DisplayItem{Key: "model.jaffle.stg", Kind: ItemChainLeaf})
	assert.Equal(t, CollapsibleNone, leaf.Collapsible)
	assert.Equal(t, "model-terminal", leaf.Icon)

	test := TreeItemFor(DisplayItem{Key: "test.jaffle.not_null", Kind: ItemTest})
	assert.Equal(t, CollapsibleNone, test.Collapsible)
	assert.Equal(t, "test", test.ContextTag)

	// A node-supplied icon wins over the kind default.
	custom := TreeItemFor(DisplayItem{Key: "source.jaffle.raw", Kind: ItemSource, IconPath: "media/raw.svg"})
	assert.Equal(t, "media/raw.svg", custom.Icon)
}
