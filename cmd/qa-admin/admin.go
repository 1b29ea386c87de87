package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	adminUsername string
	adminPassword string
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an administrator account",
	Long: `Create an administrator with 1000 reputation. The account email is
the lowercased username at the admin mail domain.

Examples:
  qa-admin create-admin --username root --password s3cret`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		services, _ := e.services()
		user, err := services.User.CreateAdmin(context.Background(), adminUsername, adminPassword)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s) id=%s\n", user.Username, user.Email, user.ID)
		return nil
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminUsername, "username", "", "Admin username")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "Admin password")
	_ = createAdminCmd.MarkFlagRequired("username")
	_ = createAdminCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(createAdminCmd)
}
