package cmd

import (
	"io"
	"os"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/hayan-web/health-auto-blog-sub000/internal/cooldown"
	"github.com/hayan-web/health-auto-blog-sub000/internal/ingest"
	"github.com/hayan-web/health-auto-blog-sub000/internal/state"
)

// stdinSource names the cursor of logs piped on standard input.
const stdinSource = "stdin"

func newIngestCommand(env *environment) *cobra.Command {
	var (
		source string
		replay bool
	)

	cmd := &cobra.Command{
		Use:   "ingest <access.log|->",
		Short: "Replay tracking events into the ledger",
		Long: `Reads tab-separated lines "time<TAB>imp|click<TAB>query", updates the
ledger and scores, then applies the cooldown rules to the touched entities.
Use "-" to read standard input.

Each source keeps a cursor in the state file, so ingesting a growing log again
only applies the lines appended since the last run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := env.deps(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer d.finish(cmd.Context())

			var r io.Reader = cmd.InOrStdin()
			name := stdinSource
			if args[0] != "-" {
				f, oerr := os.Open(args[0])
				if oerr != nil {
					return oerr
				}
				defer f.Close()
				r = f
				if name, err = filepath.Abs(args[0]); err != nil {
					return err
				}
			}
			if source != "" {
				name = source
			}
			if replay {
				name = ""
			}

			in := ingest.New(d.signer(), cooldown.NewEngine(d.cfg.CooldownRules(), d.log), d.metrics, d.log)
			var sum ingest.Summary
			err = d.mutate(cmd.Context(), func(doc *state.Document) error {
				var rerr error
				sum, rerr = in.Run(cmd.Context(), name, r, doc, d.now)
				return rerr
			})
			if err != nil {
				return err
			}

			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"Lines", "Impressions", "Clicks", "Rejected", "Malformed", "Duplicates", "Newly Blocked"})
			t.AppendRow(table.Row{sum.Lines, sum.Impressions, sum.Clicks, sum.Rejected, sum.Malformed, sum.Duplicates, len(sum.Blocked)})
			t.Render()
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "cursor name (default: absolute log path, or stdin)")
	cmd.Flags().BoolVar(&replay, "replay", false, "ignore and do not update the cursor")
	return cmd
}
