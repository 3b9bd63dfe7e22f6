package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse locally saved chats",
	}
	cmd.AddCommand(newHistoryListCmd(a), newHistoryShowCmd(a), newHistoryDeleteCmd(a))
	return cmd
}

func newHistoryListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List chats, most recent first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile, err := a.requireProfile()
			if err != nil {
				return err
			}
			summaries, err := a.store.Summaries(cmd.Context(), profile.Email)
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				cmd.Println("No chats yet.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tDATE\tTITLE\tPREVIEW")
			for _, s := range summaries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ID, s.Date, s.Title, s.Preview)
			}
			return w.Flush()
		},
	}
}

func newHistoryShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <chat-id>",
		Short: "Print a chat transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := a.requireProfile()
			if err != nil {
				return err
			}
			messages, err := a.store.Messages(cmd.Context(), profile.Email, args[0])
			if err != nil {
				return err
			}
			if len(messages) == 0 {
				return fmt.Errorf("no chat %s", args[0])
			}
			printMessages(cmd.OutOrStdout(), messages)
			return nil
		},
	}
}

func newHistoryDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <chat-id>",
		Short: "Delete a chat and its transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := a.requireProfile()
			if err != nil {
				return err
			}
			if err := a.store.DeleteChat(cmd.Context(), profile.Email, args[0]); err != nil {
				return err
			}
			cmd.Println("Chat deleted.")
			return nil
		},
	}
}
