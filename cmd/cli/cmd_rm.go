package main

import (
	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm <name>",
	Args:  cobra.ExactArgs(1),
	Short: "Remove an existing script from the catalog",
	Run:   rmCmdRun,
}

func init() {
	rootCmd.AddCommand(rmCmd)

	rmCmd.Flags().Bool("delete-file", false, "Also delete the script's body file")
}

func rmCmdRun(cmd *cobra.Command, args []string) {
	repo, err := openRepository(cmd)
	if err != nil {
		cmd.PrintErrf("failed to open the script catalog: %v\n", err)
		return
	}

	deleteFile, _ := cmd.Flags().GetBool("delete-file")
	outcome, err := repo.Remove(cmd.Context(), args[0], deleteFile)
	if err != nil {
		cmd.PrintErrf("failed to remove script: %v\n", err)
		return
	}

	cmd.Printf("Script removed\n")
	if outcome.BodyErr != nil {
		// Metadata removal and body deletion are independent outcomes
		cmd.PrintErrf("warning: body file was not deleted: %v\n", outcome.BodyErr)
	}
}
