package commands

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leappanel/internal/manifest"
	"github.com/leapstack-labs/leappanel/internal/treeview"
)

// nodeSummary is one row of the nodes listing.
type nodeSummary struct {
	Key      string `json:"key"`
	Tests    int    `json:"tests"`
	Parents  int    `json:"parents"`
	Children int    `json:"children"`
}

// NewNodesCommand creates the nodes command.
func NewNodesCommand() *cobra.Command {
	var (
		snapshotPath string
		key          string
	)

	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "List graph nodes recorded in a snapshot",
		Long: `List the nodes of a project snapshot.

Without --key, every node with recorded neighbors is listed with its
neighbor counts. With --key, the node's visible neighbors are listed per
relation, classified the way the panel classifies them.`,
		Example: `  # Overview of all nodes
  leappanel nodes --snapshot manifest.json

  # Neighbors of one model
  leappanel nodes --snapshot manifest.json --key model.jaffle_shop.orders`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := GetConfig(cmd.Context())

			snap, err := loadSnapshot(snapshotPath)
			if err != nil {
				return err
			}

			if key != "" {
				return renderNeighbors(cmd, snap, key, cfg.Output == "json")
			}
			return renderSummaries(cmd, snap, cfg.Output == "json")
		},
	}

	cmd.Flags().StringVarP(&snapshotPath, "snapshot", "s", "", "Snapshot file (JSON or YAML)")
	cmd.Flags().StringVarP(&key, "key", "k", "", "List the neighbors of this node")
	_ = cmd.MarkFlagRequired("snapshot")

	return cmd
}

func renderSummaries(cmd *cobra.Command, snap *manifest.Snapshot, asJSON bool) error {
	counts := map[string]*nodeSummary{}
	for rel, adjacency := range snap.GraphMetaMap {
		for key, nodes := range adjacency {
			s, ok := counts[key]
			if !ok {
				s = &nodeSummary{Key: key}
				counts[key] = s
			}
			switch rel {
			case manifest.RelationTests:
				s.Tests = len(nodes)
			case manifest.RelationParents:
				s.Parents = len(nodes)
			case manifest.RelationChildren:
				s.Children = len(nodes)
			}
		}
	}

	summaries := make([]nodeSummary, 0, len(counts))
	for _, s := range counts {
		summaries = append(summaries, *s)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Key < summaries[j].Key })

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"KEY", "TESTS", "PARENTS", "CHILDREN"})
	for _, s := range summaries {
		t.AppendRow(table.Row{s.Key, s.Tests, s.Parents, s.Children})
	}
	t.Render()
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "(%d nodes)\n", len(summaries))
	return nil
}

func renderNeighbors(cmd *cobra.Command, snap *manifest.Snapshot, key string, asJSON bool) error {
	type neighbor struct {
		Relation string            `json:"relation"`
		Key      string            `json:"key"`
		Label    string            `json:"label"`
		Kind     treeview.ItemKind `json:"kind"`
	}

	var neighbors []neighbor
	for _, rel := range manifest.Relations() {
		for _, item := range treeview.ResolveChildren(key, rel, snap) {
			neighbors = append(neighbors, neighbor{
				Relation: string(rel),
				Key:      item.Key,
				Label:    item.Label,
				Kind:     item.Kind,
			})
		}
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(neighbors)
	}

	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"RELATION", "KEY", "LABEL", "KIND"})
	for _, n := range neighbors {
		t.AppendRow(table.Row{n.Relation, n.Key, n.Label, n.Kind})
	}
	t.Render()
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "(%d neighbors)\n", len(neighbors))
	return nil
}
