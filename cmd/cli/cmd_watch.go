package main

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/numkem/sqlscript/store"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the metadata file and re-list the catalog on every change",
	Run:   watchCmdRun,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func watchCmdRun(cmd *cobra.Command, args []string) {
	path := cmd.Flag("metadata").Value.String()

	err := store.WatchMetadata(cmd.Context(), path, func(string) {
		repo, err := openRepository(cmd)
		if err != nil {
			log.Errorf("failed to reload the script catalog: %v", err)
			return
		}

		renderRecords(cmd.OutOrStdout(), repo.Index().All())
	})
	if err != nil {
		log.Fatalf("%v", err)
	}
}
