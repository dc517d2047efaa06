package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewRepairCmd creates the repair command.
func NewRepairCmd() *cobra.Command {
	var owner string
	var all bool

	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Reconcile the task graph after partial failures",
		Long: "Drops dangling parent and dependency references and rebuilds " +
			"the subtask and depended-on-by mirrors from the authoritative sides",
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, cleanup, err := openGateway()
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := context.Background()
			owners, err := resolveOwners(ctx, gw, owner, all)
			if err != nil {
				return err
			}

			for _, id := range owners {
				st, err := session(ctx, gw, id)
				if err != nil {
					return err
				}
				report, err := st.Repair(ctx)
				if err != nil {
					return fmt.Errorf("repair failed for %s: %w", id, err)
				}
				if !report.Changed() {
					fmt.Printf("%s: clean\n", id)
					continue
				}
				fmt.Printf("%s: parents cleared %d, dependencies dropped %d, subtask lists rebuilt %d, inverse edges rebuilt %d, tasks persisted %d\n",
					id,
					report.ParentsCleared,
					report.DependenciesDropped,
					report.SubtaskListsRebuilt,
					report.InverseEdgesRebuilt,
					report.TasksPersisted,
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Owner id")
	cmd.Flags().BoolVar(&all, "all", false, "Repair every owner")
	return cmd
}
