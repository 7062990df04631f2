package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	quizClient "github.com/MrEthical07/quizClient"
	"github.com/MrEthical07/quizClient/api"
	"github.com/spf13/cobra"
)

const avatarWait = 5 * time.Second

func newLoginCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Log in and keep the session",
		Long: `Log in to QuizHacker. Accounts that are not verified yet get a code by
email; finish with "quizctl verify <code>".

Examples:
  quizctl login alice --password secret
  QUIZCTL_PASSWORD=secret quizctl login alice`,
		Args: cobra.ExactArgs(1),
		RunE: a.runLogin,
	}
	cmd.Flags().String("password", "", "account password (or QUIZCTL_PASSWORD)")
	return cmd
}

func newSignupCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signup <username>",
		Short: "Register a new account",
		Long: `Register a new account. When the backend asks for email verification the
code must be passed to "quizctl verify".

Examples:
  quizctl signup alice --email alice@example.com --password secret`,
		Args: cobra.ExactArgs(1),
		RunE: a.runSignup,
	}
	cmd.Flags().String("email", "", "email address")
	cmd.Flags().String("password", "", "account password (or QUIZCTL_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <code>",
		Short: "Submit the emailed verification code",
		Args:  cobra.ExactArgs(1),
		RunE:  a.runVerify,
	}
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE:  a.runLogout,
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE:  a.runStatus,
	}
}

// password prefers the flag and falls back to QUIZCTL_PASSWORD or the config file.
func (a *app) password(cmd *cobra.Command) (string, error) {
	if f := cmd.Flags().Lookup("password"); f != nil && f.Changed {
		return f.Value.String(), nil
	}
	if p := a.v.GetString("password"); p != "" {
		return p, nil
	}
	return "", errors.New("password is required (--password or QUIZCTL_PASSWORD)")
}

func (a *app) runLogin(cmd *cobra.Command, args []string) error {
	password, err := a.password(cmd)
	if err != nil {
		return err
	}

	outcome, err := a.client.Login(cmd.Context(), args[0], password)
	if err != nil {
		return err
	}

	if outcome == api.LoginVerificationRequired {
		if a.jsonOut() {
			return printJSON(a.out, map[string]string{"status": outcome.String()})
		}
		fmt.Fprintln(a.out, "The verification code was sent to your email. Run: quizctl verify <code>")
		return nil
	}

	sess, _ := a.manager.Session()
	if a.jsonOut() {
		return printJSON(a.out, map[string]string{
			"status":  outcome.String(),
			"user_id": sess.UserID,
			"role":    sess.Role,
		})
	}
	fmt.Fprintf(a.out, "Logged in as %s (user %s, role %s)\n", args[0], sess.UserID, sess.Role)
	return nil
}

func (a *app) runSignup(cmd *cobra.Command, args []string) error {
	password, err := a.password(cmd)
	if err != nil {
		return err
	}
	email, _ := cmd.Flags().GetString("email")

	outcome, err := a.client.Signup(cmd.Context(), api.SignupRequest{
		Username: args[0],
		Email:    email,
		Password: password,
	})
	if err != nil {
		return err
	}

	if a.jsonOut() {
		return printJSON(a.out, map[string]string{"status": outcome.String()})
	}
	if outcome == api.SignupVerificationRequired {
		fmt.Fprintln(a.out, "The verification code was sent to your email. Run: quizctl verify <code>")
		return nil
	}
	fmt.Fprintln(a.out, "Registration went well. You can log in now")
	return nil
}

func (a *app) runVerify(cmd *cobra.Command, args []string) error {
	if err := a.client.Verify(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Verification went well. You can log in now")
	return nil
}

func (a *app) runLogout(cmd *cobra.Command, _ []string) error {
	if err := a.client.Logout(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

type statusView struct {
	State     string `json:"state"`
	UserID    string `json:"user_id,omitempty"`
	Role      string `json:"role,omitempty"`
	PendingID string `json:"pending_id,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	Expires   string `json:"expires,omitempty"`
}

func (a *app) runStatus(cmd *cobra.Command, _ []string) error {
	view := statusView{State: a.manager.State().String()}

	switch st := a.manager.State().(type) {
	case quizClient.Pending:
		view.PendingID = st.Verification.PendingID
	case quizClient.Authenticated:
		view.UserID = st.Session.UserID
		view.Role = st.Session.Role

		ctx, cancel := context.WithTimeout(cmd.Context(), avatarWait)
		avatar, err := a.manager.WaitAvatar(ctx)
		cancel()
		if err == nil {
			if ready, ok := avatar.(quizClient.AvatarReady); ok {
				view.Avatar = ready.URL
			}
		}
		if claims, err := a.manager.TokenClaims(); err == nil && !claims.Expiry().IsZero() {
			view.Expires = claims.Expiry().Format(time.RFC3339)
		}
	}

	if a.jsonOut() {
		return printJSON(a.out, view)
	}

	w := newTable(a.out)
	fmt.Fprintf(w, "STATE\t%s\n", view.State)
	for _, row := range [][2]string{
		{"USER", view.UserID},
		{"ROLE", view.Role},
		{"PENDING", view.PendingID},
		{"AVATAR", view.Avatar},
		{"EXPIRES", view.Expires},
	} {
		if row[1] != "" {
			fmt.Fprintf(w, "%s\t%s\n", row[0], row[1])
		}
	}
	return w.Flush()
}
