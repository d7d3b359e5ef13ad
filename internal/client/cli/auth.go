package cli

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cloudstorage/internal/client/client"
	"github.com/dmitrijs2005/cloudstorage/internal/common"
	"github.com/spf13/cobra"
)

func (a *App) newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login [username]",
		Short: "Log in and keep the session token",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var userName string
			if len(args) == 1 {
				userName = args[0]
			} else {
				name, err := GetSimpleText(a.in, "-Enter username", a.out)
				if err != nil {
					return err
				}
				userName = name
			}

			password, err := GetPassword(a.out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(password)

			c, ctx, cleanup, err := a.session(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer cleanup()

			token, err := c.Login(ctx, userName, string(password))
			if err != nil {
				return fmt.Errorf("login unsuccessful: %w", err)
			}
			if err := a.tokenStore().Save(token); err != nil {
				return err
			}

			fmt.Fprintln(a.out, "Login successful")
			return nil
		},
	}
}

func (a *App) newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ctx, cleanup, err := a.session(cmd.Context(), true)
			if errors.Is(err, client.ErrNotLoggedIn) {
				fmt.Fprintln(a.out, "Not logged in")
				return nil
			}
			if err != nil {
				return err
			}
			defer cleanup()

			// a token the server no longer accepts is dropped all the same
			if err := c.Logout(ctx); err != nil && !errors.Is(err, client.ErrInvalidInput) {
				return err
			}
			if err := a.tokenStore().Clear(); err != nil {
				return err
			}

			fmt.Fprintln(a.out, "Logged out")
			return nil
		},
	}
}
