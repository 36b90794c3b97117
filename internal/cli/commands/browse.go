package commands

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leappanel/internal/manifest"
	"github.com/leapstack-labs/leappanel/internal/treeview"
	"github.com/leapstack-labs/leappanel/internal/tui"
)

// NewBrowseCommand creates the browse command.
func NewBrowseCommand() *cobra.Command {
	var (
		snapshotPath string
		view         string
		key          string
		document     string
	)

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse a snapshot's lineage interactively",
		Long: `Open an interactive terminal browser over a project snapshot.

Navigate the lineage with the arrow keys, drill into models with enter,
and switch between the tests, parents and children views with tab.`,
		Example: `  # Browse downstream lineage of a model
  leappanel browse --snapshot manifest.json --key model.jaffle_shop.orders

  # Start from the model behind a SQL file
  leappanel browse --snapshot manifest.json --document models/orders.sql`,
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

			p := tea.NewProgram(tui.New(snap, rel, start), tea.WithOutput(cmd.OutOrStdout()))
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().StringVarP(&snapshotPath, "snapshot", "s", "", "Snapshot file (JSON or YAML)")
	cmd.Flags().StringVar(&view, "view", "", "Relation to start in (tests|parents|children)")
	cmd.Flags().StringVarP(&key, "key", "k", "", "Starting node key")
	cmd.Flags().StringVarP(&document, "document", "d", "", "Document path to derive the starting key from")
	_ = cmd.MarkFlagRequired("snapshot")

	return cmd
}
