package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/tgienger/deck/internal/errors"
	"golang.org/x/term"
)

// readSecret returns flag, or reads the secret from stdin when the flag is empty.
// A terminal gets a prompt with echo turned off; piped input is read one line at a time.
func readSecret(cmd *cobra.Command, flag, prompt string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), prompt)

	if f, ok := cmd.InOrStdin().(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		secret, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", errors.Wrap(err, errors.ErrCodeInvalidInput, "failed to read password")
		}
		if len(secret) == 0 {
			return "", errors.InvalidInput("no password given")
		}
		return string(secret), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.InvalidInput("no password given")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLoginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the access token",
		RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			pw, err := readSecret(cmd, password, "Password: ")
			if err != nil {
				return err
			}
			user, err := e.stores.Auth.Login(ctx, email, pw)
			if err != nil {
				return err
			}
			return e.printer.Message(user, "Signed in as %s <%s>", user.Name, user.Email)
		}),
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (read from stdin when omitted)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newRegisterCmd() *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account; a verification email follows",
		RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			pw, err := readSecret(cmd, password, "Password: ")
			if err != nil {
				return err
			}
			resp, err := e.stores.Auth.Register(ctx, name, email, pw)
			if err != nil {
				return err
			}
			msg := resp.Message
			if msg == "" {
				msg = "Registration successful. Check your email to verify the account."
			}
			return e.printer.Message(resp, "%s", msg)
		}),
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Display name")
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (read from stdin when omitted)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "verify <token>",
		Short: "Confirm an email address with the token from the verification link",
		Args:  cobra.MaximumNArgs(1),
		RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			token := ""
			if len(args) == 1 {
				token = args[0]
			}
			resp, err := e.stores.Auth.Verify(ctx, token, email)
			if err != nil {
				return err
			}
			if u := e.stores.Auth.User(); u != nil && email != "" {
				return e.printer.Message(resp, "%s Signed in as %s.", resp.Message, u.Name)
			}
			return e.printer.Message(resp, "%s", resp.Message)
		}),
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Email from the link; signs in on success")
	return cmd
}

func newResendVerificationCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "resend-verification",
		Short: "Request a new verification email",
		RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			if err := e.stores.Auth.ResendVerification(ctx, email); err != nil {
				return err
			}
			return e.printer.Message(map[string]string{"email": email}, "Verification email sent to %s", email)
		}),
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			if err := e.stores.Auth.Logout(); err != nil {
				return err
			}
			return e.printer.Message(map[string]bool{"signedIn": false}, "Signed out")
		}),
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: withEnv(func(ctx context.Context, cmd *cobra.Command, e *env, args []string) error {
			u := e.stores.Auth.User()
			if u == nil {
				return errors.New(errors.ErrCodeUnauthorized, "You are not signed in")
			}
			state := "active"
			if e.stores.Auth.Expired() {
				state = "expired"
			}
			out := struct {
				ID      string `json:"id" yaml:"id"`
				Name    string `json:"name" yaml:"name"`
				Email   string `json:"email" yaml:"email"`
				Session string `json:"session" yaml:"session"`
			}{u.ID, u.Name, u.Email, state}
			return e.printer.Message(out, "%s <%s> (session %s)", u.Name, u.Email, state)
		}),
	}
}
