package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TheRajesh1612/Aura-ChatBot/internal/models"
)

func newChatCmd(a *app) *cobra.Command {
	var continueID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat (type /exit to quit)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, err := a.requireProfile()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			chatID := continueID
			if chatID == "" {
				chatID = a.store.NewChat()
			} else {
				history, err := a.store.Messages(ctx, profile.Email, chatID)
				if err != nil {
					return err
				}
				if len(history) == 0 {
					return fmt.Errorf("no chat %s", chatID)
				}
				printMessages(out, history)
			}

			for {
				text, err := a.prompt.Line("you> ")
				if errors.Is(err, io.EOF) {
					fmt.Fprintln(out)
					return nil
				}
				if err != nil {
					return err
				}
				switch text {
				case "":
					continue
				case "/exit", "/quit":
					return nil
				}

				reply, err := a.api.Chat(ctx, text)
				if err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					// Any failed reply keeps the session going; nothing is saved
					fmt.Fprintln(out, "aura> Failed to fetch bot response.")
					continue
				}
				fmt.Fprintf(out, "aura> %s\n", reply.Text)

				if _, err := a.store.AppendExchange(ctx, profile.Email, chatID, text, reply.Text); err != nil {
					return err
				}
			}
		},
	}
	cmd.Flags().StringVarP(&continueID, "continue", "c", "", "continue an existing chat by id")
	return cmd
}

func printMessages(out io.Writer, messages []models.ChatMessage) {
	for _, m := range messages {
		who := "you"
		if m.Sender == models.SenderBot {
			who = "aura"
		}
		fmt.Fprintf(out, "%s> %s\n", who, strings.TrimRight(m.Text, "\n"))
	}
}
