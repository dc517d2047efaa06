package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nicunursekatie/adhd-planner/cmd/admin/commands"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "planner-admin",
		Short: "Admin tool for the planner backend",
		Long:  "CLI tool for inspecting and repairing per-owner planner data",
	}

	rootCmd.AddCommand(commands.NewOwnersCmd())
	rootCmd.AddCommand(commands.NewTasksCmd())
	rootCmd.AddCommand(commands.NewRepairCmd())
	rootCmd.AddCommand(commands.NewSweepCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
