package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	model "task-tracker.com/task-tracker/internal/models"
	repository "task-tracker.com/task-tracker/internal/repositories"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage the user directory",
}

var (
	newUsername string
	newFullName string
	newEmail    string
)

var usersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a user and print its id",
	RunE: func(cmd *cobra.Command, args []string) error {
		username := strings.TrimSpace(newUsername)
		fullName := strings.TrimSpace(newFullName)
		if username == "" || fullName == "" {
			return fmt.Errorf("--username and --name are required")
		}

		_, db, err := bootstrap()
		if err != nil {
			return err
		}
		defer closeDatabase(db)

		user := &model.User{
			ID:        uuid.NewString(),
			Username:  username,
			FullName:  fullName,
			Email:     strings.TrimSpace(newEmail),
			CreatedAt: time.Now().UTC(),
		}
		if err := repository.NewUserRepository(db).Create(cmd.Context(), user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), user.ID)
		return nil
	},
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := bootstrap()
		if err != nil {
			return err
		}
		defer closeDatabase(db)

		users, err := repository.NewUserRepository(db).List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}

		for _, u := range users {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", u.ID, u.Username, u.FullName)
		}
		return nil
	},
}

func init() {
	usersAddCmd.Flags().StringVar(&newUsername, "username", "", "unique login name")
	usersAddCmd.Flags().StringVar(&newFullName, "name", "", "display name")
	usersAddCmd.Flags().StringVar(&newEmail, "email", "", "email address")

	usersCmd.AddCommand(usersAddCmd, usersListCmd)
	rootCmd.AddCommand(usersCmd)
}
