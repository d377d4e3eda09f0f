package api

import (
	json "github.com/json-iterator/go"
	"github.com/zfogg/brandcast/internal/cli/client"
	"github.com/zfogg/brandcast/internal/cli/logger"
)

// Login authenticates with email and password
func Login(email, password string) (*AuthResponse, error) {
	logger.Debug("Attempting login", "email", email)

	reqBody, err := json.Marshal(LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	resp, err := client.GetClient().R().
		SetHeader("Content-Type", "application/json").
		SetBody(reqBody).
		Post("/api/v1/auth/login")

	var out AuthResponse
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}

	logger.Debug("Login successful", "user_id", out.User.ID)
	return &out, nil
}

// Register creates an account and returns its first session
func Register(req RegisterRequest) (*AuthResponse, error) {
	logger.Debug("Registering", "email", req.Email)

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	resp, err := client.GetClient().R().
		SetHeader("Content-Type", "application/json").
		SetBody(reqBody).
		Post("/api/v1/auth/register")

	var out AuthResponse
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCurrentUser returns the authenticated user
func GetCurrentUser() (*User, error) {
	resp, err := client.GetClient().R().Get("/api/v1/auth/me")

	var out userResponse
	if err := decode(resp, err, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}
