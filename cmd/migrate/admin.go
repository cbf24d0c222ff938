package main

import (
	"context"
	"time"

	"github.com/onixgym/backend/internal/domain/membership"
	"github.com/onixgym/backend/internal/infrastructure/persistence"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (c *cli) createAdminCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create-admin <username> <email> <password>",
		Short: "Create an administrator account",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := membership.NewAccount(args[0], args[1], args[2], membership.RoleAdmin)
			if err != nil {
				return err
			}

			db, err := persistence.Open(&c.cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			if err := persistence.NewGormAccountRepository(db.DB).Create(ctx, account); err != nil {
				return err
			}
			c.log.Info("Admin account created", zap.String("username", account.Username))
			return nil
		},
	}
}
