package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/hayan-web/health-auto-blog-sub000/internal/budget"
)

func newBudgetCommand(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Inspect budget usage",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show today's usage against the ceilings",
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

			s := budget.NewGuard(d.cfg.Ceilings()).Status(doc.Budget, d.now)
			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Counter", "Period", "Used", "Limit"})
			t.AppendRow(table.Row{"posts (advisory)", s.Day, s.Posts, limit(float64(s.MaxPosts))})
			t.AppendRow(table.Row{"images", s.Day, s.Images, limit(float64(s.MaxImages))})
			t.AppendRow(table.Row{"spend usd (advisory)", s.Month, fmt.Sprintf("%.2f", s.SpendUSD), limit(s.MaxUSD)})
			t.AppendRow(table.Row{"posts (hard)", s.Day, s.HardPosts, limit(float64(s.MaxPosts))})
			t.AppendRow(table.Row{"spend usd (hard)", s.Month, fmt.Sprintf("%.2f", s.HardSpendUSD), limit(s.MaxUSD)})
			t.AppendRow(table.Row{"affiliate", s.Day, s.Affiliate, limit(float64(s.MaxAffiliate))})
			t.AppendFooter(table.Row{"can publish", "", s.Allowed, s.Reason})
			t.Render()
			return nil
		},
	})
	return cmd
}

func limit(v float64) string {
	if v <= 0 {
		return "unlimited"
	}
	return fmt.Sprintf("%g", v)
}
