package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/numkem/sqlscript"
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a script to the catalog from a file or inline content",
	Run:   addCmdRun,
}

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().StringP("name", "n", "", "The name of the script (required)")
	addCmd.Flags().StringP("category", "c", "", "The category of the script (required)")
	addCmd.Flags().StringP("description", "d", "", "A free text description of the script")
	addCmd.Flags().String("content", "", "The SQL text of the script")
	addCmd.Flags().StringP("file", "f", "", "Path to a file holding the SQL text")
	addCmd.Flags().Bool("inline", false, "Embed the body in the metadata instead of a file under the scripts directory")
	addCmd.MarkFlagRequired("name")
	addCmd.MarkFlagRequired("category")
}

func addCmdRun(cmd *cobra.Command, args []string) {
	content := cmd.Flag("content").Value.String()
	filename := cmd.Flag("file").Value.String()
	if content == "" && filename == "" {
		log.Fatal("either --content or --file is required")
	}

	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			log.Fatalf("failed to read script file %s: %v", filename, err)
		}
		content = string(data)
	}

	repo, err := openRepository(cmd)
	if err != nil {
		log.Fatalf("failed to open the script catalog: %v", err)
	}

	name := cmd.Flag("name").Value.String()
	category := cmd.Flag("category").Value.String()
	inline, _ := cmd.Flags().GetBool("inline")

	rec, err := repo.Add(cmd.Context(), &sqlscript.ScriptRecord{
		Name:        name,
		Category:    category,
		Description: cmd.Flag("description").Value.String(),
	}, content, inline)
	if err != nil {
		log.Fatalf("Failed to add script: %v", err)
	}

	fmt.Printf("Script added successfully to category %s named %s\n", rec.Category, rec.Name)
}
