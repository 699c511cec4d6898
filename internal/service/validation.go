package service

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	MinUsernameLength = 3
	MinFullNameLength = 3
	MinPasswordLength = 8
	MaxPasswordLength = 256
)

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return &ValidationError{Field: "email", Message: ErrEmailRequired.Error()}
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return &ValidationError{Field: "email", Message: "invalid email address"}
	}
	return nil
}

func validateNewPassword(field, password, confirm string) error {
	n := utf8.RuneCountInString(password)
	switch {
	case n < MinPasswordLength:
		return &ValidationError{Field: field, Message: "password must be at least 8 characters"}
	case n > MaxPasswordLength:
		return &ValidationError{Field: field, Message: "password must be at most 256 characters"}
	case password != confirm:
		return &ValidationError{Field: "confirmPassword", Message: "passwords do not match"}
	}
	return nil
}

func validateRegistration(email, username, fullName, password, confirm string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	if utf8.RuneCountInString(username) < MinUsernameLength {
		return &ValidationError{Field: FieldUsername, Message: "username must be at least 3 characters"}
	}
	if fullName != "" && utf8.RuneCountInString(fullName) < MinFullNameLength {
		return &ValidationError{Field: "fullName", Message: "full name must be at least 3 characters"}
	}
	return validateNewPassword("password", password, confirm)
}
