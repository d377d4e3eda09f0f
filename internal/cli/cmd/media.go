package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zfogg/brandcast/internal/cli/api"
	"github.com/zfogg/brandcast/internal/cli/output"
)

var mediaCmd = &cobra.Command{
	Use:   "media",
	Short: "Manage uploaded images and videos",
}

var mediaUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload an image or video for use in entries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		output.PrintInfo("Uploading %s...", args[0])
		asset, err := api.UploadMedia(args[0])
		if err != nil {
			return err
		}
		output.PrintSuccess("Uploaded %s", asset.ID)
		return output.Print(asset, [][2]string{
			{"ID", asset.ID},
			{"URL", asset.URL},
			{"Type", asset.ContentType},
			{"Size", humanSize(asset.Size)},
		})
	},
}

var mediaListCmd = &cobra.Command{
	Use:   "list",
	Short: "List uploads, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		assets, err := api.ListMedia()
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(assets))
		for _, a := range assets {
			rows = append(rows, []string{a.ID, a.OriginalFilename, a.ContentType, humanSize(a.Size), output.FormatTime(&a.CreatedAt)})
		}
		return output.PrintList(assets, []string{"ID", "FILE", "TYPE", "SIZE", "UPLOADED"}, rows)
	},
}

var mediaDeleteCmd = &cobra.Command{
	Use:   "delete <media-id>",
	Short: "Delete an upload no scheduled entry uses",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		if err := api.DeleteMedia(args[0]); err != nil {
			return err
		}
		output.PrintSuccess("Media deleted")
		return nil
	},
}

func init() {
	mediaCmd.AddCommand(mediaUploadCmd)
	mediaCmd.AddCommand(mediaListCmd)
	mediaCmd.AddCommand(mediaDeleteCmd)
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGT"[exp])
}
