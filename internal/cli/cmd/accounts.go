package cmd

import (
	"github.com/spf13/cobra"
	"github.com/zfogg/brandcast/internal/cli/api"
	"github.com/zfogg/brandcast/internal/cli/output"
)

var (
	accountsPlatform string
	connectReq       api.ConnectRequest
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage connected social accounts",
}

var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List connected accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		accounts, err := api.ListAccounts(accountsPlatform)
		if err != nil {
			return err
		}
		return printAccounts(accounts)
	},
}

var accountsFacebookCmd = &cobra.Command{
	Use:   "connect-facebook <user-access-token>",
	Short: "Connect every Facebook page and linked Instagram account you manage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		accounts, err := api.ConnectFacebook(args[0])
		if err != nil {
			return err
		}
		output.PrintSuccess("Connected %d accounts", len(accounts))
		return printAccounts(accounts)
	},
}

var accountsConnectCmd = &cobra.Command{
	Use:   "connect <twitter|linkedin>",
	Short: "Store a Twitter or LinkedIn OAuth 2.0 token set",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		account, err := api.ConnectOAuth2(args[0], connectReq)
		if err != nil {
			return err
		}
		output.PrintSuccess("Connected %s account %s", account.Platform, accountLabel(*account))
		return nil
	},
}

var accountsDefaultCmd = &cobra.Command{
	Use:   "default <account-id>",
	Short: "Publish to this account for its platform",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		account, err := api.SetDefaultAccount(args[0])
		if err != nil {
			return err
		}
		output.PrintSuccess("%s is now the default %s account", accountLabel(*account), account.Platform)
		return nil
	},
}

var accountsDisconnectCmd = &cobra.Command{
	Use:   "disconnect <account-id>",
	Short: "Remove a connected account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		if err := api.DisconnectAccount(args[0]); err != nil {
			return err
		}
		output.PrintSuccess("Account disconnected")
		return nil
	},
}

func init() {
	accountsListCmd.Flags().StringVar(&accountsPlatform, "platform", "", "Only show one platform")

	accountsConnectCmd.Flags().StringVar(&connectReq.AccessToken, "access-token", "", "OAuth 2.0 access token")
	accountsConnectCmd.Flags().StringVar(&connectReq.RefreshToken, "refresh-token", "", "OAuth 2.0 refresh token")
	accountsConnectCmd.Flags().IntVar(&connectReq.ExpiresIn, "expires-in", 0, "Seconds until the access token expires")
	accountsConnectCmd.Flags().StringSliceVar(&connectReq.Scopes, "scope", nil, "Granted scopes")
	accountsConnectCmd.Flags().StringVar(&connectReq.ExternalID, "external-id", "", "Platform user id or LinkedIn author URN")
	accountsConnectCmd.Flags().StringVar(&connectReq.Name, "name", "", "Display name for the account")
	_ = accountsConnectCmd.MarkFlagRequired("access-token")
	_ = accountsConnectCmd.MarkFlagRequired("external-id")

	accountsCmd.AddCommand(accountsListCmd)
	accountsCmd.AddCommand(accountsFacebookCmd)
	accountsCmd.AddCommand(accountsConnectCmd)
	accountsCmd.AddCommand(accountsDefaultCmd)
	accountsCmd.AddCommand(accountsDisconnectCmd)
}

func accountLabel(a api.Account) string {
	if a.Name != "" {
		return a.Name
	}
	return a.ExternalID
}

func printAccounts(accounts []api.Account) error {
	rows := make([][]string, 0, len(accounts))
	for _, a := range accounts {
		def := ""
		if a.IsDefault {
			def = "*"
		}
		rows = append(rows, []string{a.ID, a.Platform, accountLabel(a), output.StatusColor(a.Status), def, output.FormatTime(a.TokenExpiresAt)})
	}
	return output.PrintList(accounts, []string{"ID", "PLATFORM", "NAME", "STATUS", "DEFAULT", "TOKEN EXPIRES"}, rows)
}

