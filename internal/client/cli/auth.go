package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/audioscribe/internal/client/apiclient"
	"github.com/dmitrijs2005/audioscribe/internal/client/session"
	"github.com/dmitrijs2005/audioscribe/internal/common"
	"github.com/spf13/cobra"
)

func newRegisterCommand(c *commandContext) *cobra.Command {
	var in apiclient.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: c.run(func(cmd *cobra.Command, app *App, args []string) error {
			return app.Register(cmd.Context(), in)
		}),
	}
	cmd.Flags().StringVar(&in.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&in.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&in.Email, "email", "", "email address")
	cmd.Flags().StringVar(&in.ContactNo, "contact", "", "ten digit contact number")
	cmd.Flags().StringVar(&in.Password, "password", "", "optional password")
	return cmd
}

// Register asks for missing fields, checks them locally and creates the
// account.
func (a *App) Register(ctx context.Context, in apiclient.RegisterRequest) error {
	var err error
	if in.FirstName, err = a.promptIfEmpty(in.FirstName, "First name"); err != nil {
		return err
	}
	if in.LastName, err = a.promptIfEmpty(in.LastName, "Last name"); err != nil {
		return err
	}
	if in.Email, err = a.promptIfEmpty(in.Email, "Email"); err != nil {
		return err
	}
	if in.ContactNo, err = a.promptIfEmpty(in.ContactNo, "Contact number"); err != nil {
		return err
	}

	if err := validateRegistration(in); err != nil {
		return err
	}
	in.ContactNo = common.NormalizeContactNo(in.ContactNo)

	id, err := a.api.Register(ctx, in)
	if err != nil {
		return err
	}
	a.printf("Registration successful (user id %d). You can now login.\n", id)
	return nil
}

func validateRegistration(in apiclient.RegisterRequest) error {
	var problems []string
	if !common.IsPersonName(in.FirstName) {
		problems = append(problems, "first name may contain letters and spaces only")
	}
	if !common.IsPersonName(in.LastName) {
		problems = append(problems, "last name may contain letters and spaces only")
	}
	if !common.IsEmail(strings.TrimSpace(in.Email)) {
		problems = append(problems, "email address is not valid")
	}
	if !common.IsContactNo(in.ContactNo) {
		problems = append(problems, "contact number must have 10 digits")
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func newLoginCommand(c *commandContext) *cobra.Command {
	var email, otp string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login with a one-time password sent by email",
		RunE: c.run(func(cmd *cobra.Command, app *App, args []string) error {
			return app.Login(cmd.Context(), email, otp)
		}),
	}
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&otp, "otp", "", "one-time password, prompted for when empty")
	return cmd
}

// Login requests an OTP for email, reads it and stores the new session.
func (a *App) Login(ctx context.Context, email, otp string) error {
	email, err := a.promptIfEmpty(email, "Enter email")
	if err != nil {
		return err
	}
	if !common.IsEmail(email) {
		return errors.New("please enter a valid email address")
	}

	challenge, err := a.api.SendOTP(ctx, email)
	if err != nil {
		if apiclient.IsNotFound(err) {
			return errors.New("user not found, please register first")
		}
		return err
	}
	a.printf("%s\n", challenge.Message)
	if challenge.DevOTP != "" {
		a.printf("Development OTP: %s\n", challenge.DevOTP)
	}

	code := []byte(otp)
	if otp == "" {
		code, err = GetSecret(a.reader, a.in, "Enter OTP", a.out)
		if err != nil {
			return err
		}
	}
	defer common.WipeByteArray(code)

	res, err := a.api.VerifyOTP(ctx, email, strings.TrimSpace(string(code)))
	if err != nil {
		return err
	}

	sess := &session.Session{
		Email:   res.User.Email,
		Token:   res.Token,
		Cookies: a.api.Cookies(),
	}
	if sess.Email == "" {
		sess.Email = email
	}
	if exp, err := session.TokenExpiry(res.Token); err == nil {
		sess.ExpiresAt = exp
	}
	if err := a.setSession(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	a.printf("%s\n", res.Message)
	if name := strings.TrimSpace(res.User.FirstName + " " + res.User.LastName); name != "" {
		a.printf("Welcome, %s!\n", name)
	}
	return nil
}

func newLogoutCommand(c *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the local session",
		RunE: c.run(func(cmd *cobra.Command, app *App, args []string) error {
			return app.Logout(cmd.Context())
		}),
	}
}

// Logout revokes the session on the server and clears it locally. The local
// session is cleared even when the server cannot be reached.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.printf("Not logged in.\n")
		return nil
	}
	if err := a.api.SignOut(ctx); err != nil {
		a.printf("Warning: server sign out failed: %v\n", err)
	}
	if err := a.clearSession(ctx); err != nil {
		return err
	}
	a.printf("Logged out successfully.\n")
	return nil
}

func newSessionCommand(c *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Show the current session",
		RunE: c.run(func(cmd *cobra.Command, app *App, args []string) error {
			return app.ShowSession(cmd.Context())
		}),
	}
}

func (a *App) ShowSession(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.printf("Not logged in.\n")
		return nil
	}

	var st *apiclient.SessionStatus
	err := a.authed(ctx, func(ctx context.Context) error {
		var err error
		st, err = a.api.CheckSession(ctx)
		return err
	})
	if err != nil {
		return err
	}

	a.printf("%s\n", st.Message)
	a.printf("Email:   %s\n", st.User.Email)
	a.printf("User ID: %d\n", st.User.ID)
	if sess := a.currentSession(); sess != nil && !sess.ExpiresAt.IsZero() {
		a.printf("Expires: %s (%s)\n", sess.ExpiresAt.Local().Format("2006-01-02 15:04:05"), formatWhen(sess.ExpiresAt))
	}
	return nil
}
