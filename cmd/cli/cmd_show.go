package main

import (
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <name>",
	Args:  cobra.ExactArgs(1),
	Short: "Show a script's metadata and SQL text",
	Run:   showCmdRun,
}

var searchCmd = &cobra.Command{
	Use:   "search <category>",
	Args:  cobra.ExactArgs(1),
	Short: "List the scripts of a category",
	Run:   searchCmdRun,
}

func init() {
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(searchCmd)
}

func showCmdRun(cmd *cobra.Command, args []string) {
	repo, err := openRepository(cmd)
	if err != nil {
		cmd.PrintErrf("failed to open the script catalog: %v\n", err)
		return
	}

	rec, err := repo.Index().FindByName(args[0])
	if err != nil {
		cmd.PrintErrf("%v\n", err)
		return
	}

	text, err := repo.Resolve(cmd.Context(), rec)
	if err != nil {
		cmd.PrintErrf("%v\n", err)
		return
	}

	cmd.Printf("Name: %s\n", rec.Name)
	cmd.Printf("Category: %s\n", rec.Category)
	cmd.Printf("Description: %s\n", rec.Description)
	cmd.Printf("Body: %s\n", bodyLabel(rec.Body))
	cmd.Printf("\n%s\n", text)
}

func searchCmdRun(cmd *cobra.Command, args []string) {
	repo, err := openRepository(cmd)
	if err != nil {
		cmd.PrintErrf("failed to open the script catalog: %v\n", err)
		return
	}

	renderRecords(cmd.OutOrStdout(), repo.Index().FindByCategory(args[0]))
}
