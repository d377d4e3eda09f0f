package cmd

import (
	"strconv"

	"github.com/spf13/cobra"
	"github.com/zfogg/brandcast/internal/cli/api"
	"github.com/zfogg/brandcast/internal/cli/output"
)

var jobFilter api.JobFilter

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect and retry publish jobs",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List publish jobs, most recently updated first",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		jobs, err := api.ListJobs(jobFilter)
		if err != nil {
			return err
		}
		if output.GetOutputFormat() == output.FormatJSON {
			return output.PrintJSON(jobs)
		}
		return printJobs(jobs)
	},
}

var jobsRetryCmd = &cobra.Command{
	Use:   "retry <job-id>",
	Short: "Requeue a failed or canceled job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		job, err := api.RetryJob(args[0])
		if err != nil {
			return err
		}
		output.PrintSuccess("Job %s is %s", job.ID, job.Status)
		return nil
	},
}

func init() {
	jobsListCmd.Flags().StringVar(&jobFilter.Status, "status", "", "Comma separated statuses")
	jobsListCmd.Flags().StringVar(&jobFilter.EntryID, "entry", "", "Only jobs for this entry")
	jobsListCmd.Flags().IntVar(&jobFilter.Limit, "limit", 0, "Maximum jobs to return")
	jobsListCmd.Flags().IntVar(&jobFilter.Offset, "offset", 0, "Jobs to skip")

	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsRetryCmd)
}

func printJobs(jobs []api.Job) error {
	rows := make([][]string, 0, len(jobs))
	for _, j := range jobs {
		detail := j.RemoteURL
		if j.LastError != "" {
			detail = output.Truncate(j.LastError, 60)
		}
		rows = append(rows, []string{
			j.ID,
			j.Platform,
			output.StatusColor(j.Status),
			strconv.Itoa(j.Attempts) + "/" + strconv.Itoa(j.MaxAttempts),
			output.FormatTime(j.NextAttemptAt),
			detail,
		})
	}
	return output.PrintList(jobs, []string{"ID", "PLATFORM", "STATUS", "ATTEMPTS", "NEXT ATTEMPT", "DETAIL"}, rows)
}
