package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/zfogg/brandcast/internal/cli/api"
	"github.com/zfogg/brandcast/internal/cli/output"
)

var planReq api.PlanRequest

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate content plans",
}

var planGenerateCmd = &cobra.Command{
	Use:   "generate <brand-id>",
	Short: "Draft calendar entries for a brand over a date range",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		req := planReq
		req.BrandID = args[0]

		output.PrintInfo("Generating plan from %s to %s...", req.From, req.To)
		entries, err := api.GeneratePlan(req)
		if err != nil {
			return err
		}
		output.PrintSuccess("Drafted %d entries", len(entries))

		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []string{e.ID, output.FormatTime(e.ScheduledAt), strings.Join(e.Platforms, ","), output.Truncate(e.Title, 40)})
		}
		return output.PrintList(entries, []string{"ID", "SCHEDULED", "PLATFORM", "TITLE"}, rows)
	},
}

func init() {
	f := planGenerateCmd.Flags()
	f.StringVar(&planReq.From, "from", "", "First day of the plan")
	f.StringVar(&planReq.To, "to", "", "Last day of the plan")
	f.StringSliceVarP(&planReq.Platforms, "platform", "p", nil, "Target platform (repeatable)")
	f.IntVar(&planReq.PostsPerWeek, "per-week", 0, "Posts per platform per week")
	f.StringVar(&planReq.Theme, "theme", "", "Campaign theme to steer the plan")
	_ = planGenerateCmd.MarkFlagRequired("from")
	_ = planGenerateCmd.MarkFlagRequired("to")
	_ = planGenerateCmd.MarkFlagRequired("platform")

	planCmd.AddCommand(planGenerateCmd)
}
