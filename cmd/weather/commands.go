package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/randalmurphal/agentgraph/pkg/agentgraph"
	"github.com/spf13/cobra"
)

func newAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>...",
		Short: "Ask a question on a thread and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			thread, err := threadID(cmd)
			if err != nil {
				return err
			}
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cmd, s)

			engine, store, err := newEngine(s, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			question := strings.Join(args, " ")
			final, err := engine.Run(cmd.Context(), thread,
				agentgraph.Messages(agentgraph.HumanMessage(question)))
			if err != nil {
				return err
			}

			last, ok := final.Last()
			if !ok {
				return fmt.Errorf("thread %s has no messages", thread)
			}
			logger.Info("final state", "content", last.Content)
			fmt.Fprintln(cmd.OutOrStdout(), last.Content)
			return nil
		},
	}
}

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Print the persisted conversation of a thread",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			thread, err := threadID(cmd)
			if err != nil {
				return err
			}
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}

			engine, store, err := newEngine(s, newLogger(cmd, s))
			if err != nil {
				return err
			}
			defer store.Close()

			state, found, err := engine.State(cmd.Context(), thread)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !found {
				fmt.Fprintf(out, "No history for thread %s.\n", thread)
				return nil
			}
			for _, m := range state.Messages {
				fmt.Fprintln(out, formatMessage(m))
			}
			return nil
		},
	}
}

func newThreadsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "threads",
		Short: "List threads with persisted state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}

			engine, store, err := newEngine(s, newLogger(cmd, s))
			if err != nil {
				return err
			}
			defer store.Close()

			infos, err := engine.Threads(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(infos) == 0 {
				fmt.Fprintln(out, "No threads found.")
				return nil
			}
			for _, info := range infos {
				updated := "-"
				if !info.UpdatedAt.IsZero() {
					updated = info.UpdatedAt.Local().Format(time.DateTime)
				}
				fmt.Fprintf(out, "%s\t%d bytes\t%s\n", info.ThreadID, info.Size, updated)
			}
			return nil
		},
	}
}

func newForgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forget",
		Short: "Delete the persisted state of a thread",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			thread, err := threadID(cmd)
			if err != nil {
				return err
			}
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}

			engine, store, err := newEngine(s, newLogger(cmd, s))
			if err != nil {
				return err
			}
			defer store.Close()

			if err := engine.Forget(cmd.Context(), thread); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Forgot thread %s.\n", thread)
			return nil
		},
	}
}

func formatMessage(m agentgraph.Message) string {
	var calls []string
	for _, c := range m.ToolCalls {
		calls = append(calls, fmt.Sprintf("%s(%v)", c.Name, c.Arguments))
	}
	switch {
	case len(calls) > 0 && m.Content != "":
		return fmt.Sprintf("%s: %s [%s]", m.Role, m.Content, strings.Join(calls, ", "))
	case len(calls) > 0:
		return fmt.Sprintf("%s: [%s]", m.Role, strings.Join(calls, ", "))
	default:
		return fmt.Sprintf("%s: %s", m.Role, m.Content)
	}
}
