package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"freightdesk/internal/access"
	"freightdesk/internal/listquery"
	"freightdesk/internal/model"
	"freightdesk/internal/notify"
	"freightdesk/internal/session"
)

func (c *Console) newLoginCommand() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and save the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if strings.TrimSpace(email) == "" {
				if email, err = c.prompt("Email: "); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = c.promptSecret("Password: "); err != nil {
					return err
				}
			}

			env := c.api.Auth.Login(cmd.Context(), strings.TrimSpace(email), password)
			if !env.Success {
				notify.Error(c.notifier, env.Message)
				return errReported
			}

			if err := c.session.Login(env.Data.Token, env.Data.User); err != nil {
				return fmt.Errorf("save session: %w", err)
			}

			notify.Success(c.notifier, fmt.Sprintf("Signed in as %s", env.Data.User.FullName()))
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&email, "email", "e", "", "account email (prompted when empty)")
	fs.StringVarP(&password, "password", "p", "", "account password (prompted without echo when empty)")

	return cmd
}

func (c *Console) newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session on the backend and forget it locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !c.session.Authenticated() {
				if err := c.session.Logout(); err != nil {
					return err
				}
				notify.Info(c.notifier, "Not signed in")
				return nil
			}

			// the local session is dropped even when the backend call fails
			env := c.api.Auth.Logout(cmd.Context())
			if err := c.session.Logout(); err != nil {
				return err
			}
			if !env.Success {
				c.logger.Warn("backend logout failed", "message", env.Message)
			}

			notify.Success(c.notifier, "Signed out")
			return nil
		},
	}
}

func (c *Console) newWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and the permissions of their role",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.requireSession(); err != nil {
				return err
			}
			ctx := cmd.Context()

			me := c.api.Auth.Me(ctx)
			if !me.Success {
				notify.Error(c.notifier, me.Message)
				return errReported
			}
			if err := c.session.Login(c.session.Token(), me.Data); err != nil {
				return fmt.Errorf("refresh session: %w", err)
			}

			roles := access.New(map[string]access.Operations[model.Role]{
				model.CollectionRoles: access.FromResource(c.api.Roles),
			}, c.notifier)
			query := listquery.Query{Page: 1, Limit: 100}
			if env := roles.GetData(ctx, model.CollectionRoles, query.Encode()); env.Success {
				c.session.SetRoles(env.Data)
			}

			user := me.Data
			w := tabwriter.NewWriter(c.streams.Out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Name\t%s\n", user.FullName())
			fmt.Fprintf(w, "Email\t%s\n", user.Email)
			fmt.Fprintf(w, "Role\t%s\n", user.Role)
			fmt.Fprintf(w, "Active\t%t\n", user.IsActive)
			fmt.Fprintf(w, "Permissions\t%s\n", permissionsOf(c.session, user.Role))
			return w.Flush()
		},
	}
}

func permissionsOf(sess *session.Context, role string) string {
	if sess.HasPermission(session.PermissionAll) {
		return "all"
	}

	for _, r := range sess.Roles() {
		if r.IsActive && (r.Name == role || r.ID == role) && len(r.Permissions) > 0 {
			return strings.Join(r.Permissions, ", ")
		}
	}
	return "none"
}
