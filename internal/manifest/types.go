// Package manifest defines the project manifest snapshot model consumed by
// the lineage panel. A snapshot is an immutable view of one project's
// dependency graph, produced by the host's manifest subsystem and delivered
// to the panel as a change event. This package never parses project files
// or builds graphs itself.
package manifest

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NodeKind identifies the variant of a graph node.
type NodeKind string

const (
	KindModel    NodeKind = "model"
	KindSnapshot NodeKind = "snapshot"
	KindSource   NodeKind = "source"
	KindTest     NodeKind = "test"
)

// Valid reports whether k is one of the known node kinds.
func (k NodeKind) Valid() bool {
	switch k {
	case KindModel, KindSnapshot, KindSource, KindTest:
		return true
	}
	return false
}

// IsTransform reports whether the kind participates in the model/snapshot
// transformation chain.
func (k NodeKind) IsTransform() bool {
	return k == KindModel || k == KindSnapshot
}

// Relation selects which edge direction of the dependency graph is traversed.
type Relation string

const (
	RelationTests    Relation = "tests"
	RelationParents  Relation = "parents"
	RelationChildren Relation = "children"
)

// Relations lists all relations in registration order.
func Relations() []Relation {
	return []Relation{RelationTests, RelationParents, RelationChildren}
}

// ParseRelation converts a string into a Relation.
func ParseRelation(s string) (Relation, error) {
	switch Relation(strings.ToLower(s)) {
	case RelationTests:
		return RelationTests, nil
	case RelationParents:
		return RelationParents, nil
	case RelationChildren:
		return RelationChildren, nil
	}
	return "", fmt.Errorf("unknown relation %q (want tests, parents, or children)", s)
}

// TestPrefix is the key prefix shared by all test nodes. Test nodes are
// always leaves in the lineage tree.
const TestPrefix = "test."

// GraphNode is a single node of a project's dependency graph.
type GraphNode struct {
	// Key is the globally unique node identifier within one snapshot,
	// e.g. "model.jaffle_shop.stg_customers".
	Key string `json:"key"`

	// Label is the human-readable display name.
	Label string `json:"label"`

	// Kind is the node variant discriminant.
	Kind NodeKind `json:"kind"`

	// FilePath points at the file backing the node, if any.
	FilePath string `json:"file_path,omitempty"`

	// IconPath optionally overrides the kind's default icon.
	IconPath string `json:"icon_path,omitempty"`

	// DisplayInModelTree controls visibility in the lineage views.
	DisplayInModelTree bool `json:"display_in_model_tree"`
}

// IsTest reports whether the node is a test, either by kind or by key
// prefix. Upstream producers are not always consistent about the two, so
// both are honored.
func (n GraphNode) IsTest() bool {
	return n.Kind == KindTest || strings.HasPrefix(n.Key, TestPrefix)
}

// GraphMetaMap maps a relation to that relation's adjacency lists.
// Neighbor order is insertion order from graph construction and is
// preserved as-is.
type GraphMetaMap map[Relation]map[string][]GraphNode

// Neighbors returns the neighbor list for key under relation. A missing
// relation or key yields a nil slice, a normal terminal state.
func (m GraphMetaMap) Neighbors(rel Relation, key string) []GraphNode {
	if m == nil {
		return nil
	}
	nodes, ok := m[rel]
	if !ok {
		return nil
	}
	return nodes[key]
}

// Snapshot is one project's parsed dependency graph at a point in time.
// Snapshots are shared-but-immutable: the panel holds read-only references
// and replaces them wholesale on manifest-change events.
type Snapshot struct {
	ProjectRoot  string       `json:"project_root"`
	ProjectName  string       `json:"project_name"`
	GraphMetaMap GraphMetaMap `json:"graph_meta_map"`
}

// AddedProject describes a project whose manifest was produced or replaced.
type AddedProject struct {
	ProjectRoot  string       `json:"project_root"`
	ProjectName  string       `json:"project_name"`
	GraphMetaMap GraphMetaMap `json:"graph_meta_map"`
}

// RemovedProject describes a project whose manifest was discarded.
type RemovedProject struct {
	ProjectRoot string `json:"project_root"`
}

// ChangeEvent is one batch from the manifest-change event stream.
type ChangeEvent struct {
	Added   []AddedProject   `json:"added,omitempty"`
	Removed []RemovedProject `json:"removed,omitempty"`
}

// DecodeSnapshot decodes a snapshot from its JSON wire form.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if snap.ProjectRoot == "" {
		return nil, fmt.Errorf("snapshot missing project_root")
	}
	return &snap, nil
}

// EncodeSnapshot encodes a snapshot to its JSON wire form.
func EncodeSnapshot(snap *Snapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}
