// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package commands implements the operator subcommands of the CLI.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"codeberg.org/oliverandrich/accounts-api/internal/config"
	"codeberg.org/oliverandrich/accounts-api/internal/database"
	"codeberg.org/oliverandrich/accounts-api/internal/repository"
	"codeberg.org/oliverandrich/accounts-api/internal/server"
	"codeberg.org/oliverandrich/accounts-api/internal/services/auth"
	"codeberg.org/oliverandrich/accounts-api/internal/services/email"
	"codeberg.org/oliverandrich/accounts-api/internal/services/signup"
	"github.com/urfave/cli/v3"
	"github.com/vinovest/sqlx"
)

// All returns the subcommands of the root command.
func All() []*cli.Command {
	return []*cli.Command{
		migrateCommand(),
		createAccountCommand("create-superuser", "Create an active superuser account", true),
		createAccountCommand("create-staff", "Create an active staff account", false),
		setRolesCommand(),
		deleteAccountCommand(),
		purgeSignupTokensCommand(),
	}
}

// setup reads the configuration inherited from the root command and
// configures logging.
func setup(cmd *cli.Command) *config.Config {
	cfg := config.NewFromCLI(cmd)
	server.SetupLogger(cfg.Log.Level, cfg.Log.Format)
	return cfg
}

// withDB opens the migrated database, runs fn and closes the database.
func withDB(cfg *config.Config, fn func(db *sqlx.DB) error) error {
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()
	return fn(db)
}

func migrateCommand() *cli.Command {
	step := func(name, usage string, run func(db *sqlx.DB) error) *cli.Command {
		return &cli.Command{
			Name:  name,
			Usage: usage,
			Action: func(_ context.Context, cmd *cli.Command) error {
				cfg := setup(cmd)
				db, err := database.Connect(cfg.Database.DSN)
				if err != nil {
					return fmt.Errorf("failed to open database: %w", err)
				}
				defer func() { _ = db.Close() }()

				if err := run(db); err != nil {
					return fmt.Errorf("migrate %s: %w", name, err)
				}
				version, err := database.Version(db.DB)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.Root().Writer, "schema version: %d\n", version)
				return err
			},
		}
	}

	return &cli.Command{
		Name:  "migrate",
		Usage: "Manage the database schema",
		Commands: []*cli.Command{
			step("up", "Apply all pending migrations", func(db *sqlx.DB) error { return database.RunMigrations(db.DB) }),
			step("down", "Roll back the last migration", func(db *sqlx.DB) error { return database.MigrateDown(db.DB) }),
			step("reset", "Roll back all migrations", func(db *sqlx.DB) error { return database.MigrateReset(db.DB) }),
			step("status", "Print the current schema version", func(*sqlx.DB) error { return nil }),
		},
	}
}

func createAccountCommand(name, usage string, superuser bool) *cli.Command {
	return &cli.Command{
		Name:  name,
		Usage: usage,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "email",
				Usage:    "Email address of the account",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "password",
				Usage:    "Password of the account",
				Sources:  cli.EnvVars(config.EnvPrefix + "ACCOUNT_PASSWORD"),
				Required: true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := setup(cmd)

			return withDB(cfg, func(db *sqlx.DB) error {
				repo := repository.New(db)
				svc := auth.NewService(repo, nil, nil, email.LogMailer{})

				account, err := svc.CreateAccount(ctx, auth.CreateAccountParams{
					Email:     cmd.String("email"),
					Password:  cmd.String("password"),
					Active:    true,
					Staff:     true,
					Superuser: superuser,
				})
				if err != nil {
					return describe(err)
				}

				slog.InfoContext(ctx, "account_created", "account_id", account.ID, "email", account.Email, "superuser", account.IsSuperuser)
				_, err = fmt.Fprintf(cmd.Root().Writer, "created %s\n", account.Email)
				return err
			})
		},
	}
}

// describe turns validation errors into a single readable error.
func describe(err error) error {
	var verr *auth.ValidationError
	if errors.As(err, &verr) && len(verr.Notes) > 0 {
		return fmt.Errorf("%s: %s", verr.Message, strings.Join(verr.Notes, " "))
	}
	return err
}

func setRolesCommand() *cli.Command {
	return &cli.Command{
		Name:  "set-roles",
		Usage: "Grant or revoke the staff and superuser roles of an account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Usage: "Email address of the account", Required: true},
			&cli.BoolFlag{Name: "staff", Usage: "Staff role"},
			&cli.BoolFlag{Name: "superuser", Usage: "Superuser role, implies staff"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := setup(cmd)

			return withDB(cfg, func(db *sqlx.DB) error {
				repo := repository.New(db)
				account, err := repo.GetAccountByEmail(ctx, auth.NormalizeEmail(cmd.String("email")))
				if err != nil {
					return fmt.Errorf("failed to get account: %w", err)
				}

				superuser := cmd.Bool("superuser")
				staff := cmd.Bool("staff") || superuser
				if err := repo.SetAccountRoles(ctx, account.ID, staff, superuser, time.Now()); err != nil {
					return err
				}

				slog.InfoContext(ctx, "account_roles_changed", "account_id", account.ID, "staff", staff, "superuser", superuser)
				_, err = fmt.Fprintf(cmd.Root().Writer, "%s: staff=%t superuser=%t\n", account.Email, staff, superuser)
				return err
			})
		},
	}
}

func deleteAccountCommand() *cli.Command {
	return &cli.Command{
		Name:  "delete-account",
		Usage: "Delete an account and its pending confirmation",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Usage: "Email address of the account", Required: true},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := setup(cmd)

			return withDB(cfg, func(db *sqlx.DB) error {
				repo := repository.New(db)
				account, err := repo.GetAccountByEmail(ctx, auth.NormalizeEmail(cmd.String("email")))
				if err != nil {
					return fmt.Errorf("failed to get account: %w", err)
				}
				if err := repo.DeleteAccount(ctx, account.ID); err != nil {
					return err
				}

				slog.InfoContext(ctx, "account_deleted", "account_id", account.ID, "email", account.Email)
				_, err = fmt.Fprintf(cmd.Root().Writer, "deleted %s\n", account.Email)
				return err
			})
		},
	}
}

func purgeSignupTokensCommand() *cli.Command {
	return &cli.Command{
		Name:  "purge-signup-tokens",
		Usage: "Delete expired email confirmation tokens",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := setup(cmd)

			return withDB(cfg, func(db *sqlx.DB) error {
				repo := repository.New(db)
				svc := signup.NewService(repo, cfg.Optimus.Codec(), cfg.Auth.SignupTokenExpiry, cfg.App.BaseURL)

				purged, err := svc.PurgeExpired(ctx, time.Now())
				if err != nil {
					return err
				}

				_, err = fmt.Fprintf(cmd.Root().Writer, "purged %d expired signup tokens\n", purged)
				return err
			})
		},
	}
}
