package api

import (
	json "github.com/json-iterator/go"
	"github.com/zfogg/brandcast/internal/cli/client"
	"github.com/zfogg/brandcast/internal/cli/logger"
)

// ListAccounts returns connected social accounts, optionally for one platform
func ListAccounts(platform string) ([]Account, error) {
	req := client.GetClient().R()
	if platform != "" {
		req.SetQueryParam("platform", platform)
	}
	resp, err := req.Get("/api/v1/accounts")

	var out accountsResponse
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return out.Accounts, nil
}

// ConnectFacebook exchanges a Facebook user token for page and Instagram accounts
func ConnectFacebook(accessToken string) ([]Account, error) {
	logger.Debug("Connecting Facebook")

	reqBody, err := json.Marshal(map[string]string{"access_token": accessToken})
	if err != nil {
		return nil, err
	}

	resp, err := client.GetClient().R().
		SetHeader("Content-Type", "application/json").
		SetBody(reqBody).
		Post("/api/v1/accounts/facebook")

	var out accountsResponse
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return out.Accounts, nil
}

// ConnectOAuth2 stores a Twitter or LinkedIn token set
func ConnectOAuth2(platform string, req ConnectRequest) (*Account, error) {
	logger.Debug("Connecting account", "platform", platform, "external_id", req.ExternalID)

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	resp, err := client.GetClient().R().
		SetHeader("Content-Type", "application/json").
		SetPathParam("platform", platform).
		SetBody(reqBody).
		Post("/api/v1/accounts/{platform}")

	var out accountResponse
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return &out.Account, nil
}

// SetDefaultAccount makes id the account used for its platform
func SetDefaultAccount(id string) (*Account, error) {
	resp, err := client.GetClient().R().
		SetPathParam("id", id).
		Put("/api/v1/accounts/{id}/default")

	var out accountResponse
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return &out.Account, nil
}

// DisconnectAccount removes a connected account
func DisconnectAccount(id string) error {
	resp, err := client.GetClient().R().
		SetPathParam("id", id).
		Delete("/api/v1/accounts/{id}")
	return CheckResponse(resp, err)
}
