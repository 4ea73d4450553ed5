package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tablekit/backend/config"
	"github.com/tablekit/backend/internal/apperr"
	"github.com/tablekit/backend/internal/bootstrap"
	"github.com/tablekit/backend/internal/models"
	"github.com/tablekit/backend/internal/store"
	"github.com/tablekit/backend/internal/validation"
)

// boot loads config and opens the postgres store. The in-memory driver is refused
// since nothing written here would outlive the command.
func boot(ctx context.Context) (*config.Config, *bootstrap.Store, *zap.Logger, error) {
	logger := bootstrap.NewLogger()
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.Store.Driver != config.StorePostgres {
		return nil, nil, nil, fmt.Errorf("tablectl needs STORE_DRIVER=%s, got %q", config.StorePostgres, cfg.Store.Driver)
	}
	db, err := bootstrap.OpenStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, db, logger, nil
}

// tablectl migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, logger, err := boot(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()
		defer logger.Sync()
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	},
}

type adminInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,phone"`
	Password string `json:"password" validate:"required,min=8"`
}

var admin adminInput

// tablectl create-admin
var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create a platform ADMIN account",
	Long:  "ADMIN accounts cannot be created through the API. Use this command to bootstrap the first one.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		admin.Email = store.NormalizeEmail(admin.Email)
		if err := validation.Struct(admin); err != nil {
			return err
		}
		_, db, logger, err := boot(ctx)
		if err != nil {
			return err
		}
		defer db.Close()
		defer logger.Sync()

		u := &models.User{
			Name:     admin.Name,
			Email:    admin.Email,
			Phone:    admin.Phone,
			Password: admin.Password,
			Role:     models.RoleAdmin,
			IsActive: true,
		}
		if err := db.Users().Create(ctx, u); err != nil {
			if errors.Is(err, store.ErrDuplicateEmail) {
				return apperr.DuplicateEmail()
			}
			return err
		}
		logger.Info("admin created", zap.String("user_id", u.ID.String()))
		fmt.Fprintf(cmd.OutOrStdout(), "admin %s created (%s)\n", u.Email, u.ID)
		return nil
	},
}

func init() {
	f := createAdminCmd.Flags()
	f.StringVar(&admin.Name, "name", "", "display name")
	f.StringVar(&admin.Email, "email", "", "login email")
	f.StringVar(&admin.Phone, "phone", "", "contact phone")
	f.StringVar(&admin.Password, "password", "", "initial password (at least 8 characters)")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")
}
