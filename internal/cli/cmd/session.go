package cmd

import (
	"errors"

	"github.com/zfogg/brandcast/internal/cli/client"
	"github.com/zfogg/brandcast/internal/cli/credentials"
)

var errNotLoggedIn = errors.New("not logged in, run `brandcast auth login`")

// requireAuth loads saved credentials and attaches the token to the client
func requireAuth() (*credentials.Credentials, error) {
	creds, err := credentials.Load()
	if err != nil {
		return nil, err
	}
	if creds == nil {
		return nil, errNotLoggedIn
	}
	if !creds.IsValid() {
		return nil, errors.New("session expired, run `brandcast auth login`")
	}

	client.Init()
	client.SetAuthToken(creds.AccessToken)
	return creds, nil
}
