package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leappanel/internal/manifest"
	"github.com/leapstack-labs/leappanel/internal/treeview"
)

// defaultTreeDepth bounds traversal; lineage graphs may contain cycles.
const defaultTreeDepth = 10

var (
	treeKeyStyle    = lipgloss.NewStyle().Bold(true)
	treeLabelStyles = map[treeview.ItemKind]lipgloss.Style{
		treeview.ItemModel:     lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		treeview.ItemChainLeaf: lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		treeview.ItemSource:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		treeview.ItemTest:      lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	}
	treeMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// treeNode is the JSON form of a rendered subtree.
type treeNode struct {
	Key      string             `json:"key"`
	Label    string             `json:"label"`
	Kind     treeview.ItemKind  `json:"kind"`
	Children []treeNode         `json:"children,omitempty"`
}

// NewTreeCommand creates the tree command.
func NewTreeCommand() *cobra.Command {
	var (
		snapshotPath string
		view         string
		key          string
		document     string
		depth        int
	)

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Render a lineage tree from a snapshot file",
		Long: `Render one lineage view of a project snapshot as a tree.

The starting node is given by --key, or derived from --document the way
the panel derives it from the editor's active document.`,
		Example: `  # Children of a model
  leappanel tree --snapshot manifest.json --key model.jaffle_shop.orders

  # Upstream view for the model behind a SQL file
  leappanel tree --snapshot manifest.json --view parents --document models/orders.sql`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := GetConfig(cmd.Context())

			snap, err := loadSnapshot(snapshotPath)
			if err != nil {
				return err
			}

			if view == "" {
				view = cfg.DefaultView
			}
			rel, err := manifest.ParseRelation(view)
			if err != nil {
				return err
			}

			start := key
			if start == "" {
				if document == "" {
					return fmt.Errorf("either --key or --document is required")
				}
				start = treeview.RootKey(document, snap.ProjectName)
			}

			root := buildTree(start, rel, snap, depth, map[string]bool{start: true})
			if cfg.Output == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(root)
			}

			renderTree(cmd.OutOrStdout(), root)
			return nil
		},
	}

	cmd.Flags().StringVarP(&snapshotPath, "snapshot", "s", "", "Snapshot file (JSON or YAML)")
	cmd.Flags().StringVar(&view, "view", "", "Relation to traverse (tests|parents|children)")
	cmd.Flags().StringVarP(&key, "key", "k", "", "Starting node key")
	cmd.Flags().StringVarP(&document, "document", "d", "", "Document path to derive the starting key from")
	cmd.Flags().IntVar(&depth, "depth", defaultTreeDepth, "Maximum traversal depth")
	_ = cmd.MarkFlagRequired("snapshot")

	return cmd
}

// buildTree resolves the subtree under key, stopping at terminal items,
// the depth bound, and keys already on the current path.
func buildTree(key string, rel manifest.Relation, snap *manifest.Snapshot, depth int, onPath map[string]bool) treeNode {
	node := treeNode{Key: key, Label: keyLabel(key), Kind: treeview.ItemModel}

	if depth <= 0 {
		return node
	}
	for _, child := range treeview.ResolveChildren(key, rel, snap) {
		cn := treeNode{Key: child.Key, Label: child.Label, Kind: child.Kind}
		if child.Expandable() && !onPath[child.Key] {
			onPath[child.Key] = true
			cn = buildTree(child.Key, rel, snap, depth-1, onPath)
			cn.Label = child.Label
			cn.Kind = child.Kind
			delete(onPath, child.Key)
		}
		node.Children = append(node.Children, cn)
	}
	return node
}

func renderTree(w io.Writer, root treeNode) {
	_, _ = fmt.Fprintln(w, treeKeyStyle.Render(root.Key))
	renderBranch(w, root.Children, "")
}

func renderBranch(w io.Writer, nodes []treeNode, prefix string) {
	for i, n := range nodes {
		connector, childPrefix := "├── ", prefix+"│   "
		if i == len(nodes)-1 {
			connector, childPrefix = "└── ", prefix+"    "
		}

		style, ok := treeLabelStyles[n.Kind]
		if !ok {
			style = treeMutedStyle
		}
		label := n.Label
		if label == "" {
			label = n.Key
		}
		_, _ = fmt.Fprintf(w, "%s%s%s %s\n", prefix, connector, style.Render(label), treeMutedStyle.Render("("+string(n.Kind)+")"))

		renderBranch(w, n.Children, childPrefix)
	}
}

// keyLabel extracts the trailing name segment of a node key.
func keyLabel(key string) string {
	if i := strings.LastIndex(key, "."); i >= 0 {
		return key[i+1:]
	}
	return key
}
