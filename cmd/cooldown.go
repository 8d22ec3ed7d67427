package cmd

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/hayan-web/health-auto-blog-sub000/internal/cooldown"
	"github.com/hayan-web/health-auto-blog-sub000/internal/domain"
	"github.com/hayan-web/health-auto-blog-sub000/internal/state"
)

func newCooldownCommand(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cooldown",
		Short: "Inspect or apply entity cooldowns",
	}
	cmd.AddCommand(newCooldownListCommand(env), newCooldownApplyCommand(env))
	return cmd
}

func newCooldownListCommand(env *environment) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cooldowns",
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
			t.AppendHeader(table.Row{"Key", "Kind", "Topic", "ID", "Until (KST)", "Strikes", "Active"})
			for _, e := range doc.Cooldowns.Entries(d.now) {
				if !all && !e.Active {
					continue
				}
				t.AppendRow(table.Row{e.Raw, e.Key.Kind, e.Key.Topic, e.Key.ID, e.Until.In(domain.KST).Format(time.DateTime), e.Strikes, e.Active})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include expired entries")
	return cmd
}

func newCooldownApplyCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Apply the cooldown rules to every recorded entity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := env.deps(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer d.finish(cmd.Context())

			p := d.planner()
			var blocked []cooldown.Key
			err = d.mutate(cmd.Context(), func(doc *state.Document) error {
				blocked = p.Sweep(doc, d.now)
				return nil
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(blocked) == 0 {
				_, err = fmt.Fprintln(out, "No new cooldowns")
				return err
			}
			for _, key := range blocked {
				if _, err = fmt.Fprintln(out, key.String()); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
