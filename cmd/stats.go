package cmd

import (
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/hayan-web/health-auto-blog-sub000/internal/domain"
	"github.com/hayan-web/health-auto-blog-sub000/internal/state"
	"github.com/hayan-web/health-auto-blog-sub000/internal/stats"
)

func newStatsCommand(env *environment) *cobra.Command {
	var topic string

	cmd := &cobra.Command{
		Use:       "stats <namespace>",
		Short:     "Print one stats namespace",
		ValidArgs: namespaceNames(),
		Args:      cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, err := state.ParseNamespace(args[0])
			if err != nil {
				return err
			}

			d, err := env.deps(cmd.Context(), false)
			if err != nil {
				return err
			}
			doc, err := d.load()
			if err != nil {
				return err
			}

			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Topic", "ID", "Impressions", "Clicks", "CTR", "Score", "Updated (KST)"})

			if !ns.Scoped() {
				tbl, _ := doc.Flat(ns)
				appendRecords(t, "", tbl)
			} else {
				scoped, _ := doc.Scoped(ns)
				for _, tp := range scoped.Topics() {
					if topic == "" || tp == topic {
						appendRecords(t, tp, scoped[tp])
					}
				}
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&topic, "topic", "", "only this topic (topic-scoped namespaces)")
	return cmd
}

func appendRecords(t table.Writer, topic string, tbl stats.Table) {
	for _, id := range tbl.IDs() {
		r := tbl[id]
		updated := ""
		if r.LastUpdate > 0 {
			updated = time.Unix(r.LastUpdate, 0).In(domain.KST).Format(time.DateTime)
		}
		t.AppendRow(table.Row{topic, id, r.Impressions, r.Clicks, r.CTR(), r.Score, updated})
	}
}

func namespaceNames() []string {
	out := make([]string, 0, len(state.Namespaces()))
	for _, ns := range state.Namespaces() {
		out = append(out, string(ns))
	}
	return out
}
