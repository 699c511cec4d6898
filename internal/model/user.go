package model

import "time"

// Roles a user can hold.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a user in the database.
type User struct {
	ID                int64
	Email             string
	Username          string
	PasswordHash      *string
	Salt              *string
	DisplayName       *string
	Role              string
	IsActive          bool
	EmailVerified     *time.Time
	VerificationToken *string
	LastLogin         *time.Time
	LastFailedLogin   *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// HasPassword reports whether the account can sign in with a password.
// Accounts created by an external provider carry neither hash nor salt.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != "" && u.Salt != nil && *u.Salt != ""
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Identity returns the request identity snapshot for u.
func (u *User) Identity() *Identity {
	return &Identity{
		ID:            u.ID,
		Email:         u.Email,
		Username:      u.Username,
		DisplayName:   u.DisplayName,
		Role:          u.Role,
		IsActive:      u.IsActive,
		EmailVerified: u.EmailVerified != nil,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// Identity is the authenticated user as seen by request handlers.
// It never carries credential material.
type Identity struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	Username      string    `json:"userName"`
	DisplayName   *string   `json:"displayName,omitempty"`
	Role          string    `json:"role"`
	IsActive      bool      `json:"isActive"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// IsAdmin reports whether the identity holds the admin role.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// SignInRequest represents a sign-in request.
type SignInRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe *bool  `json:"rememberMe,omitempty"`
}

// Remember reports whether a long-lived session was requested. An omitted
// flag counts as true.
func (r SignInRequest) Remember() bool {
	return r.RememberMe == nil || *r.RememberMe
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Email           string `json:"email"`
	Username        string `json:"userName"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	FullName        string `json:"fullName,omitempty"`
}

// ChangePasswordRequest represents a password change by a signed-in user.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// PasswordResetRequest asks for a reset link to be sent to Email.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest completes a password reset.
type ResetPasswordRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// VerifyEmailRequest carries an email verification token.
type VerifyEmailRequest struct {
	Token string `json:"token"`
}

// SetRoleRequest changes a user's role.
type SetRoleRequest struct {
	Role string `json:"role"`
}

// AuthResponse is returned by sign-in and sign-up.
type AuthResponse struct {
	Success  bool      `json:"success"`
	User     *Identity `json:"user"`
	Redirect string    `json:"redirect"`
}

// SessionInfoResponse describes the caller's session state.
type SessionInfoResponse struct {
	User            *Identity  `json:"user"`
	IsAuthenticated bool       `json:"isAuthenticated"`
	ExpiresAt       *time.Time `json:"expiresAt,omitempty"`
}

// UserListResponse is a page of users for the admin surface.
type UserListResponse struct {
	Users  []*Identity `json:"users"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}
