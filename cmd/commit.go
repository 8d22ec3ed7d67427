package cmd

import (
	"github.com/spf13/cobra"

	"github.com/hayan-web/health-auto-blog-sub000/internal/planner"
	"github.com/hayan-web/health-auto-blog-sub000/internal/state"
)

func newCommitCommand(env *environment) *cobra.Command {
	var out planner.Outcome

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Record a published post",
		Long: `Records usage for the budget guards (post, images, spend), the affiliate
counter, and optionally impressions for every dimension the post used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := env.deps(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer d.finish(cmd.Context())

			p := d.planner()
			var receipt planner.Receipt
			err = d.mutate(cmd.Context(), func(doc *state.Document) error {
				var cerr error
				receipt, cerr = p.Commit(doc, out, d.now)
				return cerr
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), receipt)
		},
	}

	f := cmd.Flags()
	f.StringVar(&out.Topic, "topic", "", "topic of the post")
	f.StringVar(&out.ImageStyle, "image", "", "image style used")
	f.StringVar(&out.ThumbVariant, "thumb", "", "thumbnail variant used")
	f.StringVar(&out.Keyword, "keyword", "", "keyword used")
	f.StringVar(&out.Subtopic, "subtopic", "", "life sub-topic used")
	f.Int64Var(&out.Images, "images", 0, "number of images generated")
	f.Float64Var(&out.SpendUSD, "spend", 0, "generation cost in USD")
	f.BoolVar(&out.Affiliate, "affiliate", false, "post carries an affiliate block")
	f.Int64Var(&out.Impressions, "impressions", 0, "impressions to credit to the chosen entities")
	_ = cmd.MarkFlagRequired("topic")
	_ = cmd.MarkFlagRequired("image")
	_ = cmd.MarkFlagRequired("thumb")
	return cmd
}
