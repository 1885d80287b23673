package authctl

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server"
	"github.com/dmitrijs2005/gophauth/internal/server/accounts"
	"github.com/spf13/cobra"
)

var errPasswordMismatch = errors.New("passwords do not match")

// NewRootCmd creates the authctl command tree.
func (a *App) NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "authctl",
		Short:        "Manage gophauth accounts",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "config file path")
	cmd.PersistentFlags().StringVarP(&a.dsn, "dsn", "d", "", "database DSN (\"memory\" for the in-memory directory)")

	cmd.AddCommand(a.newRegisterCmd())
	cmd.AddCommand(a.newLoginCmd())
	cmd.AddCommand(a.newWhoAmICmd())
	cmd.AddCommand(a.newMigrateCmd())
	cmd.AddCommand(a.newSecretCmd())

	return cmd
}

func (a *App) newRegisterCmd() *cobra.Command {
	var in accounts.RegisterInput

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if in.Username == "" {
				if in.Username, err = GetSimpleText(a.in, "Enter user name", cmd.ErrOrStderr()); err != nil {
					return err
				}
			}
			if in.Email == "" {
				if in.Email, err = GetSimpleText(a.in, "Enter email", cmd.ErrOrStderr()); err != nil {
					return err
				}
			}

			pw, err := a.readNewPassword(cmd)
			if err != nil {
				return err
			}
			in.Password = string(pw)
			common.WipeByteArray(pw)

			return a.withBackend(cmd, false, func(ctx context.Context, b *server.Backend) error {
				acc, err := b.Accounts.Register(ctx, in)
				if err != nil {
					return err
				}
				return a.printJSON(acc.View())
			})
		},
	}

	cmd.Flags().StringVarP(&in.Username, "username", "u", "", "user name")
	cmd.Flags().StringVarP(&in.Email, "email", "e", "", "email address")
	cmd.Flags().StringVar(&in.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&in.LastName, "last-name", "", "last name")

	return cmd
}

// readNewPassword asks for the password twice.
func (a *App) readNewPassword(cmd *cobra.Command) ([]byte, error) {
	pw, err := GetPassword(cmd.ErrOrStderr(), "Enter password")
	if err != nil {
		return nil, err
	}
	again, err := GetPassword(cmd.ErrOrStderr(), "Repeat password")
	if err != nil {
		common.WipeByteArray(pw)
		return nil, err
	}
	defer common.WipeByteArray(again)

	if string(pw) != string(again) {
		common.WipeByteArray(pw)
		return nil, errPasswordMismatch
	}
	return pw, nil
}

func (a *App) newLoginCmd() *cobra.Command {
	var identifier string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and print an access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if identifier == "" {
				if identifier, err = GetSimpleText(a.in, "Enter user name or email", cmd.ErrOrStderr()); err != nil {
					return err
				}
			}
			pw, err := GetPassword(cmd.ErrOrStderr(), "Enter password")
			if err != nil {
				return err
			}
			password := string(pw)
			common.WipeByteArray(pw)

			return a.withBackend(cmd, false, func(ctx context.Context, b *server.Backend) error {
				res, err := b.Accounts.Authenticate(ctx, identifier, password)
				if err != nil {
					return err
				}
				return a.printJSON(res)
			})
		},
	}

	cmd.Flags().StringVarP(&identifier, "username", "u", "", "user name or email")

	return cmd
}

func (a *App) newWhoAmICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami [token]",
		Short: "Resolve an access token to its account",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var token string
			if len(args) == 1 {
				token = args[0]
			} else {
				var err error
				if token, err = GetSimpleText(a.in, "Enter access token", cmd.ErrOrStderr()); err != nil {
					return err
				}
			}

			return a.withBackend(cmd, false, func(ctx context.Context, b *server.Backend) error {
				acc, err := b.Accounts.ResolveIdentity(ctx, token)
				if err != nil {
					return err
				}
				return a.printJSON(acc.View())
			})
		},
	}
}

func (a *App) newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if cfg.UsesMemory() {
				cmd.Println("In-memory directory configured, nothing to migrate")
				return nil
			}

			cmd.Println("Running migrations...")
			err = a.withBackend(cmd, true, func(context.Context, *server.Backend) error { return nil })
			if err != nil {
				return err
			}
			cmd.Println("Migrations completed successfully")
			return nil
		},
	}
}

func (a *App) newSecretCmd() *cobra.Command {
	var size int

	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Generate a random token signing key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if size <= 0 {
				return fmt.Errorf("invalid size %d", size)
			}
			s, err := common.MakeRandHexString(size)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(a.out, s)
			return err
		},
	}

	cmd.Flags().IntVarP(&size, "bytes", "n", 32, "number of random bytes")

	return cmd
}
