package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewSweepCmd creates the sweep command.
func NewSweepCmd() *cobra.Command {
	var owner string
	var all bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Generate tasks for every due recurring template",
		Long: "Runs the same generation pass the worker runs on login, " +
			"stamping out tasks for templates whose next-due time has passed",
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

			now := time.Now()
			for _, id := range owners {
				st, err := session(ctx, gw, id)
				if err != nil {
					return err
				}
				generated, err := st.GenerateDueRecurring(ctx, now)
				if err != nil {
					return fmt.Errorf("sweep failed for %s: %w", id, err)
				}
				fmt.Printf("%s: %d tasks generated\n", id, len(generated))
				for _, task := range generated {
					fmt.Printf("    %s  %s\n", task.ID, task.Title)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Owner id")
	cmd.Flags().BoolVar(&all, "all", false, "Sweep every owner")
	return cmd
}
