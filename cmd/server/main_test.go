package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheRajesh1612/Aura-ChatBot/internal/config"
	"github.com/TheRajesh1612/Aura-ChatBot/internal/service"
)

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	for _, sub := range []string{"serve", "migrate", "cleanup"} {
		assert.Contains(t, buf.String(), sub, "Help missing %q command", sub)
	}
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	t.Setenv("PORT", "4000")
	t.Setenv("DB_URI", "sqlite://./env.db")

	cfg := loadConfig(&serverFlags{port: "5000"})
	assert.Equal(t, "5000", cfg.ServerPort)
	assert.Equal(t, "sqlite://./env.db", cfg.DatabaseURI)

	cfg = loadConfig(&serverFlags{dbURI: "sqlite://./flag.db"})
	assert.Equal(t, "4000", cfg.ServerPort)
	assert.Equal(t, "sqlite://./flag.db", cfg.DatabaseURI)
}

func TestMigrateAndCleanupCommands(t *testing.T) {
	uri := "sqlite://" + t.TempDir() + "/aura.db"

	for _, args := range [][]string{{"migrate"}, {"cleanup"}} {
		cmd := NewRootCmd()
		buf := new(bytes.Buffer)
		cmd.SetOut(buf)
		cmd.SetErr(buf)
		cmd.SetArgs(append(args, "--db", uri))

		require.NoError(t, cmd.Execute(), buf.String())
	}
}

func TestNewMailer(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	mailer, err := newMailer(ctx, &config.Config{}, logger)
	require.NoError(t, err)
	assert.Nil(t, mailer)

	mailer, err = newMailer(ctx, &config.Config{
		MailUser:     "aura@gmail.com",
		MailPassword: "app-password",
		SMTPHost:     "smtp.gmail.com",
		SMTPPort:     587,
	}, logger)
	require.NoError(t, err)
	smtpMailer, ok := mailer.(*service.SMTPMailer)
	require.True(t, ok)
	assert.Equal(t, "aura@gmail.com", smtpMailer.From)

	_, err = newMailer(ctx, &config.Config{
		MailAPIKey: "missing-secret",
		MailSender: "no-reply@aura.app",
		AWSRegion:  "us-east-1",
	}, logger)
	assert.Error(t, err, "malformed MAIL_API_KEY")
}

func getStatus(t *testing.T, url string) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		return 0
	}
	resp.Body.Close()
	return resp.StatusCode
}

func TestServeReportsStartupThenReady(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("unavailable while storage is connecting", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		base := "http://" + ln.Addr().String()

		cfg := &config.Config{
			// Nothing listens on port 1, so the ping keeps startup busy.
			DatabaseURI:  "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=2000&connectTimeoutMS=500",
			DatabaseName: "aura",
		}
		done := make(chan error, 1)
		go func() { done <- serve(context.Background(), ln, cfg, logger) }()

		assert.Equal(t, http.StatusServiceUnavailable, getStatus(t, base+"/healthz"))
		assert.Equal(t, http.StatusOK, getStatus(t, base+"/"), "liveness answers during startup")
		assert.Equal(t, http.StatusServiceUnavailable, getStatus(t, base+"/api/users/me"))

		select {
		case err := <-done:
			assert.Error(t, err, "unreachable storage fails startup")
		case <-time.After(15 * time.Second):
			t.Fatal("serve did not give up on unreachable storage")
		}
	})

	t.Run("ready once initialized", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		base := "http://" + ln.Addr().String()

		cfg := &config.Config{
			DatabaseURI:     "sqlite://" + t.TempDir() + "/aura.db",
			SessionDuration: time.Hour,
			OTPTTL:          10 * time.Minute,
		}
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- serve(ctx, ln, cfg, logger) }()

		require.Eventually(t, func() bool {
			return getStatus(t, base+"/healthz") == http.StatusOK
		}, 10*time.Second, 20*time.Millisecond)
		assert.Equal(t, http.StatusOK, getStatus(t, base+"/"))

		cancel()
		require.NoError(t, <-done)
	})
}
