package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/rowset/pkg/auth"
	"github.com/mesh-intelligence/rowset/pkg/types"
)

func newTokenCmd(a *app) *cobra.Command {
	var users string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue and verify user access tokens",
	}
	cmd.PersistentFlags().StringVar(&users, "users", "Users", "entity holding user records")
	cmd.AddCommand(newTokenIssueCmd(a, &users), newTokenVerifyCmd(a, &users))
	return cmd
}

func (a *app) tokenSecret() (string, error) {
	secret := a.cfg.GetString(cfgKeyTokenSecret)
	if secret == "" {
		return "", userError(errors.New("no token secret; set token_secret in config.yaml or ROWSET_TOKEN_SECRET"))
	}
	return secret, nil
}

func newTokenIssueCmd(a *app, users *string) *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "issue <user-id>",
		Short: "Sign a token for a user and store it in the user's token column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := a.tokenSecret()
			if err != nil {
				return err
			}
			id := args[0]
			return a.withSession(func(s *session) error {
				c, err := s.collection(*users)
				if err != nil {
					return err
				}
				user, err := c.FindByID(id, 0)
				if err != nil {
					return err
				}
				if user == nil {
					return fmt.Errorf("%w: %s %q", types.ErrNotFound, *users, id)
				}
				token, err := auth.IssueAccessToken(map[string]any{"id": id}, secret, ttl)
				if err != nil {
					return err
				}
				user[auth.TokenColumn] = token
				if _, err := c.Update(id, user); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			})
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime; 0 never expires")
	return cmd
}

func newTokenVerifyCmd(a *app, users *string) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <token>",
		Short: "Print the user owning a token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := a.tokenSecret()
			if err != nil {
				return err
			}
			return a.withSession(func(s *session) error {
				c, err := s.collection(*users)
				if err != nil {
					return err
				}
				user, err := auth.ValidateAccessToken(args[0], secret, c)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), user)
			})
		},
	}
}
