package domain

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
)

// ValidateEmail checks basic email shape.
func ValidateEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return NewValidationError("email", "required")
	}
	if !emailRe.MatchString(email) {
		return NewValidationError("email", "must be a valid email address")
	}
	return nil
}

// ValidatePhone checks a phone number: optional leading +, 7-15 digits.
func ValidatePhone(phone string) error {
	if strings.TrimSpace(phone) == "" {
		return NewValidationError("phone", "required")
	}
	if !phoneRe.MatchString(phone) {
		return NewValidationError("phone", "must be 7-15 digits, optional leading +")
	}
	return nil
}

// ValidatePassword enforces the password policy: at least 8 characters with
// at least one letter and one digit.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return NewValidationError("password", "must be at least 8 characters")
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return NewValidationError("password", "must contain a letter and a digit")
	}
	return nil
}

// ValidateRegistration checks every registration field before any network
// call is made.
func ValidateRegistration(username, email, phone, password string) error {
	if strings.TrimSpace(username) == "" {
		return NewValidationError("username", "required")
	}
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if err := ValidatePhone(phone); err != nil {
		return err
	}
	return ValidatePassword(password)
}
