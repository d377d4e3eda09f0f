package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zfogg/brandcast/internal/cli/api"
	"github.com/zfogg/brandcast/internal/cli/client"
	"github.com/zfogg/brandcast/internal/cli/credentials"
	"github.com/zfogg/brandcast/internal/cli/logger"
	"github.com/zfogg/brandcast/internal/cli/output"
	"github.com/zfogg/brandcast/internal/cli/prompter"
)

var (
	loginEmail      string
	registerName    string
	registerCompany string
	registerTZ      string
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with email and password",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, password, err := promptCredentials()
		if err != nil {
			return err
		}

		client.Init()
		output.PrintInfo("Authenticating...")
		resp, err := api.Login(email, password)
		if err != nil {
			return err
		}
		return saveSession(resp)
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a Brandcast account",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, password, err := promptCredentials()
		if err != nil {
			return err
		}
		name := registerName
		if name == "" {
			if name, err = prompter.PromptString("Display name: "); err != nil {
				return err
			}
		}

		client.Init()
		resp, err := api.Register(api.RegisterRequest{
			Email:       email,
			Password:    password,
			DisplayName: name,
			Company:     registerCompany,
			Timezone:    registerTZ,
		})
		if err != nil {
			return err
		}
		return saveSession(resp)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := credentials.Delete(); err != nil {
			return err
		}
		client.ClearAuthToken()
		output.PrintSuccess("Logged out")
		return nil
	},
}

var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Show the logged in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireAuth(); err != nil {
			return err
		}
		user, err := api.GetCurrentUser()
		if err != nil {
			return err
		}
		return output.Print(user, [][2]string{
			{"ID", user.ID},
			{"Email", user.Email},
			{"Name", user.DisplayName},
			{"Company", user.Company},
			{"Timezone", user.Timezone},
			{"Failure emails", fmt.Sprintf("%t", user.NotifyOnFailure)},
		})
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	registerCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	registerCmd.Flags().StringVar(&registerName, "name", "", "Display name")
	registerCmd.Flags().StringVar(&registerCompany, "company", "", "Company name")
	registerCmd.Flags().StringVar(&registerTZ, "timezone", "", "IANA timezone, e.g. America/New_York")

	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(registerCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(meCmd)
}

func promptCredentials() (string, string, error) {
	email := loginEmail
	var err error
	if email == "" {
		if email, err = prompter.PromptString("Email: "); err != nil {
			return "", "", err
		}
	}
	if email == "" {
		return "", "", fmt.Errorf("email cannot be empty")
	}

	password, err := prompter.PromptPassword("Password: ")
	if err != nil {
		return "", "", err
	}
	if password == "" {
		return "", "", fmt.Errorf("password cannot be empty")
	}
	return email, password, nil
}

func saveSession(resp *api.AuthResponse) error {
	creds := &credentials.Credentials{
		AccessToken: resp.Token,
		ExpiresAt:   resp.ExpiresAt,
		UserID:      resp.User.ID,
		Email:       resp.User.Email,
		DisplayName: resp.User.DisplayName,
	}
	if err := credentials.Save(creds); err != nil {
		return fmt.Errorf("saving credentials: %w", err)
	}
	logger.Info("Logged in", "user_id", creds.UserID)
	output.PrintSuccess("Logged in as %s", creds.Email)
	return nil
}
