package auth

import "github.com/zfogg/brandcast/internal/models"

// AuthServiceInterface defines the contract for authentication operations.
// This enables mocking for handler tests without requiring a real database.
type AuthServiceInterface interface {
	Register(req RegisterRequest) (*AuthResponse, error)
	Login(req LoginRequest) (*AuthResponse, error)
	FindUserByEmail(email string) (*models.User, error)
	ValidateToken(tokenString string) (*models.User, error)
}

// Ensure Service implements AuthServiceInterface
var _ AuthServiceInterface = (*Service)(nil)
