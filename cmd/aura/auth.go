package main

import (
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/TheRajesh1612/Aura-ChatBot/internal/client"
	"github.com/TheRajesh1612/Aura-ChatBot/internal/transcript"
)

func newSignupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			email, err := a.prompt.Required("Email: ")
			if err != nil {
				return err
			}
			password, err := a.prompt.Password("Password: ")
			if err != nil {
				return err
			}
			confirm, err := a.prompt.Password("Confirm password: ")
			if err != nil {
				return err
			}
			if password != confirm {
				return errors.New("passwords do not match")
			}

			account, err := a.api.Signup(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			cmd.Printf("Account created for %s. Run `aura login` to sign in.\n", account.Email)
			return nil
		},
	}
}

func newLoginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			email, err := a.prompt.Required("Email: ")
			if err != nil {
				return err
			}
			password, err := a.prompt.Password("Password: ")
			if err != nil {
				return err
			}

			msg, err := a.api.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}

			me, err := a.api.Me(cmd.Context())
			if err != nil {
				return err
			}
			profile := transcript.Profile{
				Email:        me.Email,
				SessionToken: a.api.SessionToken(),
				ServerURL:    a.serverURL,
			}
			if err := a.store.SaveProfile(cmd.Context(), profile); err != nil {
				return err
			}
			a.profile = &profile
			cmd.Println(msg)
			return nil
		},
	}
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget it locally",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := a.requireProfile(); err != nil {
				return err
			}
			msg, err := a.api.Logout(cmd.Context())
			// The local profile goes even if the server already dropped the session
			if clearErr := a.store.ClearProfile(cmd.Context()); clearErr != nil {
				return clearErr
			}
			a.profile = nil
			if err != nil {
				return err
			}
			cmd.Println(msg)
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := a.requireProfile(); err != nil {
				return err
			}
			me, err := a.api.Me(cmd.Context())
			if client.IsStatus(err, http.StatusUnauthorized) {
				_ = a.store.ClearProfile(cmd.Context())
				return errors.New("session expired: run `aura login` again")
			}
			if err != nil {
				return err
			}
			cmd.Printf("%s (%s)\n", me.Email, me.ID)
			return nil
		},
	}
}

// newForgotCmd walks through request-otp, verify-otp and reset-password
func newForgotCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "forgot",
		Short: "Reset a forgotten password with an emailed code",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			email, err := a.prompt.Required("Email: ")
			if err != nil {
				return err
			}
			msg, err := a.api.RequestOTP(ctx, email)
			if err != nil {
				return err
			}
			cmd.Println(msg)

			var code string
			for {
				code, err = a.prompt.Required("Code (or \"resend\"): ")
				if err != nil {
					return err
				}
				if code == "resend" {
					if msg, err = a.api.RequestOTP(ctx, email); err != nil {
						return err
					}
					cmd.Println(msg)
					continue
				}
				msg, err = a.api.VerifyOTP(ctx, email, code)
				if err == nil {
					cmd.Println(msg)
					break
				}
				if client.IsStatus(err, http.StatusBadRequest) {
					cmd.Println(err.Error())
					continue
				}
				return err
			}

			password, err := a.prompt.Password("New password: ")
			if err != nil {
				return err
			}
			msg, err = a.api.ResetPassword(ctx, email, code, password)
			if err != nil {
				return err
			}
			cmd.Println(msg)
			return nil
		},
	}
}
