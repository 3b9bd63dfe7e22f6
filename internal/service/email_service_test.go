package service

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendOTPEmailBody(t *testing.T) {
	mailer := &fakeMailer{}
	svc := NewEmailService(mailer, slog.New(slog.NewTextHandler(io.Discard, nil)), true)

	require.NoError(t, svc.SendOTPEmail(context.Background(), "a@x.com", "123456", 10*time.Minute))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "Your Aura OTP", mailer.sent[0].subject)
	assert.Contains(t, mailer.sent[0].body, "<strong>123456</strong>")
	assert.Contains(t, mailer.sent[0].body, "expires in 10 minutes")
}

func TestDisabledEmailService(t *testing.T) {
	svc := NewEmailService(nil, slog.New(slog.NewTextHandler(io.Discard, nil)), false)
	assert.False(t, svc.IsEnabled())
	assert.ErrorIs(t, svc.SendOTPEmail(context.Background(), "a@x.com", "123456", time.Minute), ErrMailNotConfigured)
}

// fakeSMTPServer accepts one unauthenticated session and returns the DATA payload.
func fakeSMTPServer(t *testing.T) (addr string, data <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	out := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		r := bufio.NewReader(conn)
		reply := func(s string) { _, _ = conn.Write([]byte(s + "\r\n")) }
		reply("220 localhost ESMTP")

		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			cmd := strings.ToUpper(strings.TrimSpace(line))
			switch {
			case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
				reply("250 localhost")
			case strings.HasPrefix(cmd, "MAIL FROM"), strings.HasPrefix(cmd, "RCPT TO"):
				reply("250 OK")
			case cmd == "DATA":
				reply("354 go ahead")
				var body strings.Builder
				for {
					l, err := r.ReadString('\n')
					if err != nil {
						return
					}
					if l == ".\r\n" {
						break
					}
					body.WriteString(l)
				}
				out <- body.String()
				reply("250 queued")
			case cmd == "QUIT":
				reply("221 bye")
				return
			default:
				reply("502 unsupported")
			}
		}
	}()

	return ln.Addr().String(), out
}

func TestSMTPMailerSend(t *testing.T) {
	addr, data := fakeSMTPServer(t)
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	mailer := NewSMTPMailer(host, port, "", "", "aura@example.com", "Aura")
	mailer.Timeout = 5 * time.Second

	err = mailer.Send(context.Background(), "user@example.com", "Your Aura OTP", "<p>hello</p>")
	require.NoError(t, err)

	select {
	case msg := <-data:
		assert.Contains(t, msg, "From: Aura <aura@example.com>\r\n")
		assert.Contains(t, msg, "To: user@example.com\r\n")
		assert.Contains(t, msg, "Subject: Your Aura OTP\r\n")
		assert.Contains(t, msg, "Content-Type: text/html")
		assert.Contains(t, msg, "<p>hello</p>")
	case <-time.After(5 * time.Second):
		t.Fatal("no message received")
	}
}

func TestSMTPMailerConnectFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().(*net.TCPAddr)
	ln.Close()

	mailer := NewSMTPMailer("127.0.0.1", addr.Port, "", "", "aura@example.com", "")
	mailer.Timeout = time.Second
	err = mailer.Send(context.Background(), "user@example.com", "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp connect")
}

func TestNewSESMailerRejectsMalformedKey(t *testing.T) {
	_, err := NewSESMailer(context.Background(), "us-east-1", "no-colon", "a@x.com", "Aura")
	assert.Error(t, err)
}
