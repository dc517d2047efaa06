package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewTasksCmd creates the tasks command.
func NewTasksCmd() *cobra.Command {
	var owner string
	var includeCompleted bool

	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List one owner's tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			if owner == "" {
				return fmt.Errorf("--owner is required")
			}

			gw, cleanup, err := openGateway()
			if err != nil {
				return err
			}
			defer cleanup()

			st, err := session(context.Background(), gw, owner)
			if err != nil {
				return err
			}

			tasks := st.ListTasks()
			shown := 0
			for _, t := range tasks {
				if t.Completed && !includeCompleted {
					continue
				}
				shown++
				state := "open"
				switch {
				case t.Completed:
					state = "done"
				case t.Archived:
					state = "archived"
				}
				fmt.Printf("%s  [%s]  %s\n", t.ID, state, t.Title)
				if len(t.DependsOn) > 0 {
					fmt.Printf("    depends on: %v\n", t.DependsOn)
				}
			}
			fmt.Printf("%d of %d tasks shown\n", shown, len(tasks))
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Owner id (required)")
	cmd.Flags().BoolVar(&includeCompleted, "completed", false, "Include completed tasks")
	return cmd
}
