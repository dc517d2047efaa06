package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewOwnersCmd creates the owners command.
func NewOwnersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "owners",
		Short: "List every owner with stored data",
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, cleanup, err := openGateway()
			if err != nil {
				return err
			}
			defer cleanup()

			if gw.Owners == nil {
				return fmt.Errorf("this backend cannot enumerate owners")
			}
			owners, err := gw.Owners(context.Background())
			if err != nil {
				return fmt.Errorf("failed to list owners: %w", err)
			}

			if len(owners) == 0 {
				fmt.Println("No owners found")
				return nil
			}
			for _, id := range owners {
				fmt.Println(id)
			}
			return nil
		},
	}
}
