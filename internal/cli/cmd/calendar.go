package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/zfogg/brandcast/internal/cli/api"
	"github.com/zfogg/brandcast/internal/cli/output"
)

var (
	entryFilter api.EntryFilter

	entryReq   api.EntryRequest
	entryBrand string
	entryMedia string
	entryAt    string

	scheduleAt string
)

var calendarCmd = &cobra.Command{
	Use:     "calendar",
	Aliases: []string{"cal"},
	Short:   "Manage the content calendar",
}

var calendarListCmd = &cobra.Command{
	Use:   "list",
	Short: "List calendar entries ordered by scheduled time",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		entries, err := api.ListEntries(entryFilter)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			label := e.Title
			if label == "" {
				label = e.Content
			}
			rows = append(rows, []string{
				e.ID,
				output.FormatTime(e.ScheduledAt),
				strings.Join(e.Platforms, ","),
				e.Kind,
				output.StatusColor(e.Status),
				output.Truncate(label, 48),
			})
		}
		return output.PrintList(entries, []string{"ID", "SCHEDULED", "PLATFORMS", "KIND", "STATUS", "CONTENT"}, rows)
	},
}

var calendarShowCmd = &cobra.Command{
	Use:   "show <entry-id>",
	Short: "Show an entry and its publish jobs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		entry, err := api.GetEntry(args[0])
		if err != nil {
			return err
		}
		return printEntry(entry)
	},
}

var calendarCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Draft a calendar entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		req := entryReq
		if entryBrand != "" {
			req.BrandProfileID = &entryBrand
		}
		if entryMedia != "" {
			req.MediaAssetID = &entryMedia
		}
		if entryAt != "" {
			at, err := parseWhen(entryAt)
			if err != nil {
				return err
			}
			req.ScheduledAt = &at
		}

		entry, err := api.CreateEntry(req)
		if err != nil {
			return err
		}
		output.PrintSuccess("Created entry %s", entry.ID)
		return printEntry(entry)
	},
}

var calendarDeleteCmd = &cobra.Command{
	Use:   "delete <entry-id>",
	Short: "Delete an entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		if err := api.DeleteEntry(args[0]); err != nil {
			return err
		}
		output.PrintSuccess("Entry deleted")
		return nil
	},
}

var calendarScheduleCmd = &cobra.Command{
	Use:   "schedule <entry-id>",
	Short: "Publish an entry at its scheduled time",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		var at *time.Time
		if scheduleAt != "" {
			t, err := parseWhen(scheduleAt)
			if err != nil {
				return err
			}
			at = &t
		}
		entry, err := api.ScheduleEntry(args[0], at)
		if err != nil {
			return err
		}
		output.PrintSuccess("Scheduled for %s", output.FormatTime(entry.ScheduledAt))
		return nil
	},
}

var calendarPublishCmd = &cobra.Command{
	Use:   "publish <entry-id>",
	Short: "Publish an entry now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		entry, err := api.PublishEntry(args[0])
		if err != nil {
			return err
		}
		output.PrintSuccess("Publishing to %s", strings.Join(entry.Platforms, ", "))
		output.PrintInfo("Follow progress with `brandcast jobs list --entry %s`", entry.ID)
		return nil
	},
}

var calendarCancelCmd = &cobra.Command{
	Use:   "cancel <entry-id>",
	Short: "Cancel pending publishes for an entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		entry, err := api.CancelEntry(args[0])
		if err != nil {
			return err
		}
		output.PrintSuccess("Entry is now %s", entry.Status)
		return nil
	},
}

func init() {
	lf := calendarListCmd.Flags()
	lf.StringVar(&entryFilter.From, "from", "", "Start date or RFC 3339 time")
	lf.StringVar(&entryFilter.To, "to", "", "End date (inclusive) or RFC 3339 time")
	lf.StringVar(&entryFilter.Platform, "platform", "", "Only entries targeting this platform")
	lf.StringVar(&entryFilter.Status, "status", "", "Comma separated statuses")
	lf.IntVar(&entryFilter.Limit, "limit", 0, "Maximum entries to return")
	lf.IntVar(&entryFilter.Offset, "offset", 0, "Entries to skip")

	cf := calendarCreateCmd.Flags()
	cf.StringSliceVarP(&entryReq.Platforms, "platform", "p", nil, "Target platform (repeatable)")
	cf.StringVar(&entryReq.Kind, "kind", "", "text, link, image or video (inferred when empty)")
	cf.StringVar(&entryReq.Title, "title", "", "Title, used by LinkedIn articles and link previews")
	cf.StringVarP(&entryReq.Content, "content", "c", "", "Post text")
	cf.StringVar(&entryReq.LinkURL, "link", "", "Link to share")
	cf.StringVar(&entryReq.MediaURL, "media-url", "", "Public image or video URL")
	cf.StringVar(&entryMedia, "media", "", "Uploaded media id")
	cf.StringVar(&entryBrand, "brand", "", "Brand profile id")
	cf.StringVar(&entryAt, "at", "", "Planned publish time")
	_ = calendarCreateCmd.MarkFlagRequired("platform")

	calendarScheduleCmd.Flags().StringVar(&scheduleAt, "at", "", "Publish time; defaults to the entry's planned time")

	calendarCmd.AddCommand(calendarListCmd)
	calendarCmd.AddCommand(calendarShowCmd)
	calendarCmd.AddCommand(calendarCreateCmd)
	calendarCmd.AddCommand(calendarDeleteCmd)
	calendarCmd.AddCommand(calendarScheduleCmd)
	calendarCmd.AddCommand(calendarPublishCmd)
	calendarCmd.AddCommand(calendarCancelCmd)
}

var whenLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseWhen reads an RFC 3339 time or a local date with optional minutes
func parseWhen(s string) (time.Time, error) {
	for _, layout := range whenLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time %q, use 2006-01-02 15:04 or RFC 3339", s)
}

func printEntry(e *api.Entry) error {
	brand := ""
	if e.BrandProfileID != nil {
		brand = *e.BrandProfileID
	}
	media := e.MediaURL
	if e.MediaAsset != nil {
		media = e.MediaAsset.URL
	}
	if err := output.Print(e, [][2]string{
		{"ID", e.ID},
		{"Status", output.StatusColor(e.Status)},
		{"Platforms", strings.Join(e.Platforms, ", ")},
		{"Kind", e.Kind},
		{"Scheduled", output.FormatTime(e.ScheduledAt)},
		{"Brand", brand},
		{"Source", e.Source},
		{"Title", e.Title},
		{"Content", e.Content},
		{"Link", e.LinkURL},
		{"Media", media},
	}); err != nil {
		return err
	}
	if len(e.Jobs) == 0 || output.GetOutputFormat() == output.FormatJSON {
		return nil
	}
	fmt.Fprintln(output.Writer)
	return printJobs(e.Jobs)
}
