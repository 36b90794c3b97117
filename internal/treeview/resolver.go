package treeview

import (
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/leappanel/internal/manifest"
)

// ResolveChildren returns the ordered, filtered, classified direct
// neighbors of elementKey in the given relation. Every "not found" path
// degrades to an empty result; it never errors.
//
// Test nodes are leaves: a key with the test prefix yields no children
// regardless of manifest contents.
func ResolveChildren(elementKey string, rel manifest.Relation, snap *manifest.Snapshot) []DisplayItem {
	if snap == nil || elementKey == "" {
		return nil
	}
	if strings.HasPrefix(elementKey, manifest.TestPrefix) {
		return nil
	}

	neighbors := snap.GraphMetaMap.Neighbors(rel, elementKey)
	if len(neighbors) == 0 {
		return nil
	}

	items := make([]DisplayItem, 0, len(neighbors))
	for _, node := range neighbors {
		if !node.DisplayInModelTree {
			continue
		}
		items = append(items, DisplayItem{
			Key:         node.Key,
			Label:       node.Label,
			Kind:        classify(node, rel, snap),
			NodeKind:    node.Kind,
			FilePath:    node.FilePath,
			IconPath:    node.IconPath,
			ProjectRoot: snap.ProjectRoot,
		})
	}
	return items
}

// classify picks the display variant for one neighbor node.
//
// The chain-leaf check recomputes the neighbor's own filtered neighbor set
// per sibling with no memoization; sibling lists stay small.
func classify(node manifest.GraphNode, rel manifest.Relation, snap *manifest.Snapshot) ItemKind {
	switch {
	case node.IsTest():
		return ItemTest
	case node.Kind == manifest.KindSource:
		return ItemSource
	case node.Kind.IsTransform():
		if hasVisibleTransformNeighbor(node.Key, rel, snap) {
			return ItemModel
		}
		return ItemChainLeaf
	default:
		return ItemModel
	}
}

// hasVisibleTransformNeighbor reports whether key has at least one visible
// model or snapshot neighbor in the same relation.
func hasVisibleTransformNeighbor(key string, rel manifest.Relation, snap *manifest.Snapshot) bool {
	for _, n := range snap.GraphMetaMap.Neighbors(rel, key) {
		if n.DisplayInModelTree && n.Kind.IsTransform() && !n.IsTest() {
			return true
		}
	}
	return false
}

// RootKey synthesizes the graph-node key anchoring the root of a lineage
// view: "model.<package>.<filename>" with the extension stripped. The
// package name falls back to the project's own name when no registry
// entry exists.
func RootKey(documentPath, packageName string) string {
	if documentPath == "" || packageName == "" {
		return ""
	}
	base := filepath.Base(documentPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" {
		return ""
	}
	return "model." + packageName + "." + base
}
