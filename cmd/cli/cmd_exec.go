package main

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var execCmd = &cobra.Command{
	Use:   "exec <name>",
	Args:  cobra.ExactArgs(1),
	Short: "Execute a cataloged script against the database",
	Run:   execCmdRun,
}

func init() {
	rootCmd.AddCommand(execCmd)

	execCmd.Flags().StringArrayP("param", "p", nil, "Bind a placeholder value as key=value (repeatable)")
	execCmd.Flags().Int("category-index", -1, "Treat <name> as a category and run its i-th script")
	execCmd.Flags().Bool("trace", false, "Emit OpenTelemetry traces for this execution")
}

func execCmdRun(cmd *cobra.Command, args []string) {
	pairs, _ := cmd.Flags().GetStringArray("param")
	params, err := parseParams(pairs)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if traced, _ := cmd.Flags().GetBool("trace"); traced {
		shutdown, err := setupOTelSDK(cmd.Context())
		if err != nil {
			log.Fatalf("failed to set up tracing: %v", err)
		}
		defer shutdown(cmd.Context())
	}

	engine, db, err := openEngine(cmd)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer db.Close()

	index, _ := cmd.Flags().GetInt("category-index")
	if index >= 0 {
		result, err := engine.ExecuteFromCategory(cmd.Context(), args[0], index, params)
		if err != nil {
			log.Fatalf("%v", err)
		}
		renderRows(cmd.OutOrStdout(), result)
		return
	}

	result, err := engine.ExecuteByName(cmd.Context(), args[0], params)
	if err != nil {
		log.Fatalf("%v", err)
	}

	renderRows(cmd.OutOrStdout(), result)
}
