package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	importUsername string
	importFile     string
)

var importQuestionsCmd = &cobra.Command{
	Use:   "import-questions",
	Short: "Ask questions in bulk from an NDJSON file",
	Long: `Read one question per line ({"title","summary","text","tags"}) and ask
each as the given user. Reputation rules apply per line; rejected lines
are listed in the printed report.

Examples:
  qa-admin import-questions --username alice --file questions.ndjson`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(importFile)
		if err != nil {
			return err
		}
		defer f.Close()

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := context.Background()
		services, repos := e.services()
		user, err := repos.User.GetByUsername(ctx, importUsername)
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("user %q not found", importUsername)
		}

		report, err := services.Import.ImportQuestions(ctx, user.ID, f)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	importQuestionsCmd.Flags().StringVar(&importUsername, "username", "", "User the questions are asked as")
	importQuestionsCmd.Flags().StringVar(&importFile, "file", "", "NDJSON file to import")
	_ = importQuestionsCmd.MarkFlagRequired("username")
	_ = importQuestionsCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importQuestionsCmd)
}
