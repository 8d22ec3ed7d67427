package cmd

import (
	"github.com/spf13/cobra"

	"github.com/hayan-web/health-auto-blog-sub000/internal/planner"
)

func newPlanCommand(env *environment) *cobra.Command {
	var (
		topic    string
		keywords []string
		strategy string
		postID   string
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Choose the image style, thumbnail variant, keyword and sub-topic for the next post",
		Long: `Runs the hard and advisory budget guards, drops blacklisted keywords and
cooled-down candidates, then asks the selectors for a plan. The plan is printed
as JSON. The state file is not modified.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := planner.ParseStrategy(strategy)
			if err != nil {
				return err
			}

			d, err := env.deps(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer d.finish(cmd.Context())

			doc, err := d.load()
			if err != nil {
				return err
			}

			plan, err := d.planner().Plan(doc, planner.Request{
				Topic:    topic,
				Keywords: keywords,
				PostID:   postID,
				Strategy: s,
				Now:      d.now,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), plan)
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "", "topic (default: from the hourly schedule)")
	cmd.Flags().StringSliceVar(&keywords, "keyword", nil, "candidate keyword, repeatable")
	cmd.Flags().StringVar(&strategy, "strategy", string(planner.StrategyUCB), "ucb or blend")
	cmd.Flags().StringVar(&postID, "post-id", "", "post id for the tracking query (default: random)")
	return cmd
}
