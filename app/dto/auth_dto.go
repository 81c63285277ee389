// Package dto contains Data Transfer Objects for API request and response structures
package dto

// SignupRequest represents the signup form data
type SignupRequest struct {
	FirstName       string  `json:"first_name" validate:"required,max=255"`
	LastName        string  `json:"last_name" validate:"required,max=255"`
	Email           string  `json:"email" validate:"required,email,max=255"`
	Mobile          *string `json:"mobile,omitempty" validate:"omitempty,min=7,max=20"`
	Country         *string `json:"country,omitempty" validate:"omitempty,max=64"`
	Password        string  `json:"password" validate:"required,min=8,password_strength"`
	ConfirmPassword string  `json:"confirm_password" validate:"required,eqfield=Password"`
}

// SignupResponse represents the response after successful signup
type SignupResponse struct {
	Message  string             `json:"message"`
	Customer AuthCustomerDTO    `json:"customer"`
	Session  CustomerSessionDTO `json:"session"`
}

// LoginRequest represents the request payload for user login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=100"`
}

// LoginResponse represents the successful login response
type LoginResponse struct {
	Message  string             `json:"message"`
	Customer AuthCustomerDTO    `json:"customer"`
	Session  CustomerSessionDTO `json:"session"`
}

// RefreshTokenRequest exchanges a refresh token for a fresh session
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthCustomerDTO represents customer data for authentication responses
type AuthCustomerDTO struct {
	ID              uint   `json:"id"`
	UUID            string `json:"uuid"`
	Email           string `json:"email"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	AccountType     string `json:"account_type"`
	ClinicID        *uint  `json:"clinic_id,omitempty"`
	IsActive        *bool  `json:"is_active"`
	IsEmailVerified *bool  `json:"is_email_verified"`
	CreatedAt       string `json:"created_at"`
}

// CustomerSessionDTO carries the issued tokens
type CustomerSessionDTO struct {
	SessionToken string  `json:"access_token"`
	RefreshToken *string `json:"refresh_token,omitempty"`
	TokenType    string  `json:"token_type"`
	ExpiresIn    int     `json:"expires_in"`
	CreatedAt    string  `json:"created_at"`
}

// Common error codes for authentication operations
const (
	ErrorUserNotFound      = "USER_NOT_FOUND"
	ErrorIncorrectPassword = "INCORRECT_PASSWORD"
	ErrorAccountInactive   = "ACCOUNT_INACTIVE"
	ErrorEmailTaken        = "EMAIL_ALREADY_EXISTS"
)
