package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"notification-hub/internal/model"
)

func newSubscribersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "subscribers <topic>",
		Short: "List the subscribers of a topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}
			reg, err := openRegistry(cmd.Context(), cfg, ctx.logger)
			if err != nil {
				return err
			}
			defer reg.Close()

			subs, err := reg.List(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(subs) == 0 {
				fmt.Fprintln(out, "No subscribers")
				return nil
			}
			fmt.Fprint(out, renderSubscribers(subs))
			return nil
		},
	}
}

func newTopicsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "topics",
		Short: "List topics that have subscribers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}
			reg, err := openRegistry(cmd.Context(), cfg, ctx.logger)
			if err != nil {
				return err
			}
			defer reg.Close()

			topics, err := reg.Topics(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(topics) == 0 {
				fmt.Fprintln(out, "No topics")
				return nil
			}
			for _, t := range topics {
				fmt.Fprintln(out, t)
			}
			return nil
		},
	}
}

func renderSubscribers(subs []model.Subscriber) string {
	rows := make([][]string, 0, len(subs))
	for _, s := range subs {
		rows = append(rows, []string{s.Name, s.URL})
	}
	return renderTable([]string{"Name", "URL"}, rows)
}
