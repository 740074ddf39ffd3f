package main

import (
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "list all the scripts in the catalog",
	Run:     listCmdRun,
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "list all the categories in use",
	Run:   categoriesCmdRun,
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(categoriesCmd)
}

func listCmdRun(cmd *cobra.Command, args []string) {
	repo, err := openRepository(cmd)
	if err != nil {
		cmd.PrintErrf("failed to open the script catalog: %v\n", err)
		return
	}

	renderRecords(cmd.OutOrStdout(), repo.Index().All())
}

func categoriesCmdRun(cmd *cobra.Command, args []string) {
	repo, err := openRepository(cmd)
	if err != nil {
		cmd.PrintErrf("failed to open the script catalog: %v\n", err)
		return
	}

	for _, category := range repo.Index().Categories() {
		cmd.Printf("%s\n", category)
	}
}
