package main

import (
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/numkem/sqlscript/executor"
)

var txCmd = &cobra.Command{
	Use:   "tx <name>...",
	Args:  cobra.MinimumNArgs(1),
	Short: "Execute several scripts as one all-or-nothing transaction",
	Long: `tx runs the named scripts strictly in the order given inside a single
database transaction. The i-th --params flag binds to the i-th script; pass
an empty string for scripts without placeholders. Any failure rolls the whole
transaction back.`,
	Run: txCmdRun,
}

func init() {
	rootCmd.AddCommand(txCmd)

	txCmd.Flags().StringArray("params", nil, "Comma separated key=value parameter set for the script at the same position (repeatable)")
	txCmd.Flags().Bool("strict", false, "Exit with the triggering error instead of only reporting failure")
	txCmd.Flags().Bool("trace", false, "Emit OpenTelemetry traces for this execution")
}

func txCmdRun(cmd *cobra.Command, args []string) {
	sets, _ := cmd.Flags().GetStringArray("params")

	var paramSets []executor.Params
	if len(sets) > 0 {
		for _, set := range sets {
			var pairs []string
			if set != "" {
				pairs = strings.Split(set, ",")
			}

			params, err := parseParams(pairs)
			if err != nil {
				log.Fatalf("%v", err)
			}
			paramSets = append(paramSets, params)
		}
	}

	if traced, _ := cmd.Flags().GetBool("trace"); traced {
		shutdown, err := setupOTelSDK(cmd.Context())
		if err != nil {
			log.Fatalf("failed to set up tracing: %v", err)
		}
		defer shutdown(cmd.Context())
	}

	var opts []executor.Option
	if strict, _ := cmd.Flags().GetBool("strict"); strict {
		opts = append(opts, executor.WithStrictErrors())
	}

	engine, db, err := openEngine(cmd, opts...)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer db.Close()

	ok, err := engine.ExecuteTransaction(cmd.Context(), args, paramSets)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if !ok {
		log.Fatal("transaction rolled back")
	}

	cmd.Printf("Transaction committed (%d scripts)\n", len(args))
}
