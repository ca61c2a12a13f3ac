package cli

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Shivanand-hulikatti/coursedesk/internal/auth"
	"github.com/Shivanand-hulikatti/coursedesk/internal/config"
	"github.com/Shivanand-hulikatti/coursedesk/internal/database"
	"github.com/Shivanand-hulikatti/coursedesk/internal/model"
	"github.com/Shivanand-hulikatti/coursedesk/internal/service"
)

func buildMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			if cfg.Storage.Driver == config.DriverMemory {
				return pkgerrors.New("migrate needs storage.driver postgres")
			}

			ctx := log.WithContext(cmd.Context())
			pool, err := database.NewPool(ctx, cfg.Database, log)
			if err != nil {
				return pkgerrors.Wrap(err, "database")
			}
			defer pool.Close()
			return database.Migrate(ctx, pool, log)
		},
	}
}

func buildRecomputeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "recompute-capacity",
		Short: "Recompute every course's full flag from its active enrollments",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			ctx := log.WithContext(cmd.Context())
			store, err := openStore(ctx, cfg, log, false)
			if err != nil {
				return err
			}
			defer store.Close()

			changed, err := service.NewEnrollmentService(service.Deps{Store: store}).RecomputeAll(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d course flag(s) corrected\n", changed)
			return nil
		},
	}
}

func buildUserCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage back-office accounts",
	}
	cmd.AddCommand(buildUserAddCommand(opts))
	return cmd
}

func buildUserAddCommand(opts *rootOptions) *cobra.Command {
	var req model.NewUserRequest

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a back-office account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			ctx := log.WithContext(cmd.Context())
			store, err := openStore(ctx, cfg, log, false)
			if err != nil {
				return err
			}
			defer store.Close()

			// Creating an account never touches sessions.
			u, err := auth.NewService(store, auth.NewMemorySessionStore(nil), auth.Options{}).CreateUser(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s user %s (%s)\n", u.Role, u.Email, u.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "login email")
	cmd.Flags().StringVar(&req.Name, "name", "", "display name")
	cmd.Flags().StringVar(&req.Role, "role", string(model.RoleUser), "admin, manager, user or guest")
	cmd.Flags().StringVar(&req.Password, "password", "", "initial password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
