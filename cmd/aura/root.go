package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/TheRajesh1612/Aura-ChatBot/internal/client"
	"github.com/TheRajesh1612/Aura-ChatBot/internal/transcript"
)

const defaultServerURL = "http://localhost:3000"

var errNotLoggedIn = errors.New("not logged in: run `aura login` first")

// app holds what every subcommand needs once the root has run
type app struct {
	serverURL string
	dataPath  string

	api     *client.Client
	store   *transcript.Store
	profile *transcript.Profile
	prompt  *prompter
}

// NewRootCmd creates the root command for the Aura CLI.
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "aura",
		Short: "Aura - chat with the Aura assistant from your terminal",
		Long: `Aura is a terminal client for the Aura chat assistant. It manages your
account (signup, login, password reset) and keeps chat transcripts locally.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return a.close()
		},
	}

	cmd.PersistentFlags().StringVar(&a.serverURL, "server", envOr("AURA_SERVER", defaultServerURL), "Aura server URL")
	cmd.PersistentFlags().StringVar(&a.dataPath, "data", envOr("AURA_DATA", ""), "local transcript database (default: <user config dir>/aura/aura.db)")

	cmd.AddCommand(newSignupCmd(a))
	cmd.AddCommand(newLoginCmd(a))
	cmd.AddCommand(newLogoutCmd(a))
	cmd.AddCommand(newForgotCmd(a))
	cmd.AddCommand(newWhoamiCmd(a))
	cmd.AddCommand(newChatCmd(a))
	cmd.AddCommand(newHistoryCmd(a))

	return cmd
}

func (a *app) open(cmd *cobra.Command) error {
	if a.dataPath == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return err
		}
		a.dataPath = filepath.Join(dir, "aura", "aura.db")
	}
	if err := os.MkdirAll(filepath.Dir(a.dataPath), 0o700); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := transcript.Open(ctx, a.dataPath)
	if err != nil {
		return err
	}
	a.store = store

	api, err := client.New(a.serverURL)
	if err != nil {
		_ = a.close()
		return err
	}
	a.api = api

	profile, err := store.LoadProfile(ctx)
	if err != nil {
		_ = a.close()
		return err
	}
	// A session is only valid against the server that issued it
	if profile != nil && profile.ServerURL == a.serverURL {
		a.profile = profile
		api.SetSessionToken(profile.SessionToken)
	}

	a.prompt = newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
	return nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

// requireProfile returns the signed-in user or errNotLoggedIn
func (a *app) requireProfile() (*transcript.Profile, error) {
	if a.profile == nil {
		return nil, errNotLoggedIn
	}
	return a.profile, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
