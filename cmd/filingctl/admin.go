package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List the source file names stored in the vector store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		files, err := components.Vector.ListFileNames(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list files: %w", err)
		}
		for _, f := range files {
			cmd.Println(f)
		}
		cmd.Printf("%d files\n", len(files))
		return nil
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge [ticker]",
	Short: "Delete every stored chunk for a ticker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ticker := strings.ToUpper(strings.TrimSpace(args[0]))
		if err := components.Vector.DeleteByTicker(cmd.Context(), ticker); err != nil {
			return fmt.Errorf("failed to purge %s: %w", ticker, err)
		}
		cmd.Printf("Purged all entries for %s\n", ticker)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(filesCmd, purgeCmd)
}
