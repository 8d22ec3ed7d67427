package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/hayan-web/health-auto-blog-sub000/infrastructure/logger"
	"github.com/hayan-web/health-auto-blog-sub000/internal/state"
)

func newBlacklistCommand(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blacklist",
		Short: "Manage the keyword blacklist",
	}
	cmd.AddCommand(
		newBlacklistAddCommand(env),
		newBlacklistListCommand(env),
		newBlacklistCheckCommand(env),
	)
	return cmd
}

func newBlacklistAddCommand(env *environment) *cobra.Command {
	var (
		days   int
		reason string
	)

	cmd := &cobra.Command{
		Use:   "add <keyword>",
		Short: "Blacklist a keyword for a number of KST days",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := env.deps(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer d.finish(cmd.Context())

			if days <= 0 {
				days = *d.cfg.Blacklist.DefaultDays
			}
			var until string
			err = d.mutate(cmd.Context(), func(doc *state.Document) error {
				until = doc.Blacklist.Add(args[0], days, reason, d.now)
				return nil
			})
			if err != nil {
				return err
			}

			d.log.Info("Keyword blacklisted",
				logger.String("keyword", args[0]),
				logger.String("until", until),
				logger.String("reason", reason),
			)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s blacklisted through %s\n", args[0], until)
			return err
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "days to block (default: blacklist.default_days)")
	cmd.Flags().StringVar(&reason, "reason", "", "reason recorded in the audit log")
	return cmd
}

func newBlacklistListCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List blacklisted keywords",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := env.deps(cmd.Context(), false)
			if err != nil {
				return err
			}
			doc, err := d.load()
			if err != nil {
				return err
			}

			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Keyword", "Until (KST)", "Active"})
			for _, e := range doc.Blacklist.List(d.now) {
				t.AppendRow(table.Row{e.Keyword, e.Until, e.Active})
			}
			t.Render()
			return nil
		},
	}
}

func newBlacklistCheckCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "check <keyword>",
		Short: "Report whether a keyword is blacklisted today",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := env.deps(cmd.Context(), false)
			if err != nil {
				return err
			}
			doc, err := d.load()
			if err != nil {
				return err
			}

			kw := args[0]
			if doc.Blacklist.IsBlacklisted(kw, d.now) {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s is blacklisted through %s\n", kw, doc.Blacklist.Entries[kw])
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s is not blacklisted\n", kw)
			return err
		},
	}
}
