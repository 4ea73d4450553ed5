package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tablekit/backend/internal/bootstrap"
	"github.com/tablekit/backend/internal/onboarding"
	"github.com/tablekit/backend/internal/store"
	"github.com/tablekit/backend/pkg/queue"
)

var inviteEmail string

// tablectl invite
var inviteCmd = &cobra.Command{
	Use:   "invite",
	Short: "Email a fresh password setup link to an existing user",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, db, logger, err := boot(ctx)
		if err != nil {
			return err
		}
		defer db.Close()
		defer logger.Sync()

		rdb := bootstrap.OpenRedis(ctx, cfg, logger)
		if rdb == nil {
			return errors.New("redis is required to issue setup links")
		}
		defer rdb.Close()

		u, err := db.Users().GetByEmail(ctx, store.NormalizeEmail(inviteEmail))
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no user with email %s", inviteEmail)
		}
		if err != nil {
			return err
		}
		restaurantName := ""
		if u.RestaurantID != nil {
			if r, err := db.Restaurants().GetByID(ctx, *u.RestaurantID); err == nil {
				restaurantName = r.Name
			}
		}

		notifier := onboarding.NewNotifier(
			onboarding.NewTokenStore(rdb.Client, cfg.App.SetupTokenTTL),
			queue.NewQueue(rdb.Client, logger),
			cfg.App.PublicURL,
			logger,
		)
		if err := notifier.Invite(ctx, u, restaurantName); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "setup link queued for %s\n", u.Email)
		return nil
	},
}

func init() {
	inviteCmd.Flags().StringVar(&inviteEmail, "email", "", "email of the user to invite")
	_ = inviteCmd.MarkFlagRequired("email")
}
