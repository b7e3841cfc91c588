// Package user provides commands for managing store users
package user

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tphakala/birdnet-annotations/internal/app"
	"github.com/tphakala/birdnet-annotations/internal/datastore/entities"
	"github.com/tphakala/birdnet-annotations/internal/errors"
	"github.com/tphakala/birdnet-annotations/internal/logger"
)

// Command creates and returns the user command
func Command(appCtx *app.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users that imports are attributed to",
	}

	var name, email string
	addCmd := &cobra.Command{
		Use:   "add <username>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u := entities.User{
				UUID:      uuid.New(),
				Username:  args[0],
				Name:      name,
				Email:     email,
				CreatedOn: time.Now().UTC(),
			}
			if err := appCtx.Store.DB().WithContext(cmd.Context()).Create(&u).Error; err != nil {
				return errors.New(err).
					Component("cli").
					Category(errors.CategoryDatabase).
					Context("username", u.Username).
					Build()
			}

			appCtx.Logger.Module("cli").Info("user created",
				logger.String("username", u.Username),
				logger.Uint("id", u.ID))
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", u.Username, u.UUID)
			return nil
		},
	}
	addCmd.Flags().StringVar(&name, "name", "", "Display name")
	addCmd.Flags().StringVar(&email, "email", "", "Email address")

	cmd.AddCommand(addCmd)
	return cmd
}
