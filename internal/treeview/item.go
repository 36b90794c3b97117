// Package treeview implements the lineage tree views of the panel: for a
// graph node and a relation (tests, parents, children) it resolves the
// ordered, visibility-filtered, classified set of neighbor nodes to show
// as tree children. Resolution is a pure read over manifest snapshots.
package treeview

import "github.com/leapstack-labs/leappanel/internal/manifest"

// ItemKind classifies a display item for icon and behavior selection.
type ItemKind string

const (
	// ItemModel is a standard expandable model node.
	ItemModel ItemKind = "model"
	// ItemChainLeaf is a model or snapshot with no further model/snapshot
	// neighbors in the traversed relation; rendered terminal.
	ItemChainLeaf ItemKind = "chain_leaf"
	// ItemSource is an external source table; always terminal.
	ItemSource ItemKind = "source"
	// ItemTest is a data test; always terminal.
	ItemTest ItemKind = "test"
)

// presentation holds the per-kind default display attributes. Variants
// differ only in these defaults, so they live in a lookup table instead of
// a type hierarchy.
type presentation struct {
	Icon       string
	Expandable bool
	ContextTag string
}

var presentations = map[ItemKind]presentation{
	ItemModel:     {Icon: "model", Expandable: true, ContextTag: "model"},
	ItemChainLeaf: {Icon: "model-terminal", Expandable: false, ContextTag: "model"},
	ItemSource:    {Icon: "source", Expandable: false, ContextTag: "source"},
	ItemTest:      {Icon: "test", Expandable: false, ContextTag: "test"},
}

// DisplayItem is the renderable representation of a graph node in a
// lineage view.
type DisplayItem struct {
	Key         string            `json:"key"`
	Label       string            `json:"label"`
	Kind        ItemKind          `json:"kind"`
	NodeKind    manifest.NodeKind `json:"node_kind"`
	FilePath    string            `json:"file_path,omitempty"`
	IconPath    string            `json:"icon_path,omitempty"`
	ProjectRoot string            `json:"project_root"`
}

// CollapsibleState mirrors the host tree-view contract: terminal items may
// not be expanded.
type CollapsibleState string

const (
	CollapsibleNone      CollapsibleState = "none"
	CollapsibleCollapsed CollapsibleState = "collapsed"
)

// TreeItem is the wire form the host renders for one display item.
type TreeItem struct {
	Key         string           `json:"key"`
	Label       string           `json:"label"`
	Collapsible CollapsibleState `json:"collapsible"`
	Icon        string           `json:"icon"`
	ContextTag  string           `json:"context_tag"`
	ResourceURI string           `json:"resource_uri,omitempty"`
}

// TreeItemFor converts a display item into its renderable form, applying
// the kind's presentation defaults. A node-supplied icon path overrides
// the default icon.
func TreeItemFor(item DisplayItem) TreeItem {
	p := presentations[item.Kind]

	collapsible := CollapsibleNone
	if p.Expandable {
		collapsible = CollapsibleCollapsed
	}

	icon := p.Icon
	if item.IconPath != "" {
		icon = item.IconPath
	}

	return TreeItem{
		Key:         item.Key,
		Label:       item.Label,
		Collapsible: collapsible,
		Icon:        icon,
		ContextTag:  p.ContextTag,
		ResourceURI: item.FilePath,
	}
}

// Expandable reports whether the item may have children in the view.
func (d DisplayItem) Expandable() bool {
	return presentations[d.Kind].Expandable
}
