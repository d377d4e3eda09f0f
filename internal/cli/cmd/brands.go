package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/zfogg/brandcast/internal/cli/api"
	"github.com/zfogg/brandcast/internal/cli/output"
)

var brandReq api.BrandRequest

var brandsCmd = &cobra.Command{
	Use:   "brands",
	Short: "Manage brand profiles",
}

var brandsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List brand profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		brands, err := api.ListBrands()
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(brands))
		for _, b := range brands {
			rows = append(rows, []string{b.ID, b.Name, b.Industry, b.Tone, strings.Join(b.Hashtags, " ")})
		}
		return output.PrintList(brands, []string{"ID", "NAME", "INDUSTRY", "TONE", "HASHTAGS"}, rows)
	},
}

var brandsShowCmd = &cobra.Command{
	Use:   "show <brand-id>",
	Short: "Show a brand profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		brand, err := api.GetBrand(args[0])
		if err != nil {
			return err
		}
		return printBrand(brand)
	},
}

var brandsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a brand profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		brand, err := api.CreateBrand(brandReq)
		if err != nil {
			return err
		}
		output.PrintSuccess("Created brand %s", brand.ID)
		return printBrand(brand)
	},
}

var brandsDeleteCmd = &cobra.Command{
	Use:   "delete <brand-id>",
	Short: "Delete a brand profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		if err := api.DeleteBrand(args[0]); err != nil {
			return err
		}
		output.PrintSuccess("Brand deleted")
		return nil
	},
}

var brandsLogoCmd = &cobra.Command{
	Use:   "logo <brand-id> <image>",
	Short: "Upload a PNG, JPEG or WebP logo",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		brand, err := api.UploadBrandLogo(args[0], args[1])
		if err != nil {
			return err
		}
		output.PrintSuccess("Logo uploaded to %s", brand.LogoURL)
		return nil
	},
}

func init() {
	f := brandsCreateCmd.Flags()
	f.StringVar(&brandReq.Name, "name", "", "Brand name")
	f.StringVar(&brandReq.Industry, "industry", "", "Industry")
	f.StringVar(&brandReq.Description, "description", "", "What the brand does")
	f.StringVar(&brandReq.Audience, "audience", "", "Who the content is for")
	f.StringVar(&brandReq.Tone, "tone", "", "Voice, e.g. playful or formal")
	f.StringSliceVar(&brandReq.Keywords, "keyword", nil, "Keyword (repeatable)")
	f.StringSliceVar(&brandReq.Hashtags, "hashtag", nil, "Hashtag (repeatable)")
	f.StringSliceVar(&brandReq.Colors, "color", nil, "Hex color (repeatable)")
	f.StringVar(&brandReq.Website, "website", "", "Website URL")
	_ = brandsCreateCmd.MarkFlagRequired("name")

	brandsCmd.AddCommand(brandsListCmd)
	brandsCmd.AddCommand(brandsShowCmd)
	brandsCmd.AddCommand(brandsCreateCmd)
	brandsCmd.AddCommand(brandsDeleteCmd)
	brandsCmd.AddCommand(brandsLogoCmd)
}

func printBrand(b *api.Brand) error {
	return output.Print(b, [][2]string{
		{"ID", b.ID},
		{"Name", b.Name},
		{"Industry", b.Industry},
		{"Description", b.Description},
		{"Audience", b.Audience},
		{"Tone", b.Tone},
		{"Keywords", strings.Join(b.Keywords, ", ")},
		{"Hashtags", strings.Join(b.Hashtags, " ")},
		{"Colors", strings.Join(b.Colors, " ")},
		{"Website", b.Website},
		{"Logo", b.LogoURL},
	})
}
