package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// EmailRegex validates email format
	EmailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// HandleRegex validates display handle format
	HandleRegex = regexp.MustCompile(`^[a-z0-9]+$`)
)

// ValidateEmail validates email address
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if len(email) > 254 {
		return fmt.Errorf("email is too long (max 254 characters)")
	}
	if !EmailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidateName validates a first or last name
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if len(name) > 50 {
		return fmt.Errorf("name is too long (max 50 characters)")
	}
	return nil
}

// ValidateHandle validates a display handle
func ValidateHandle(handle string) error {
	if handle == "" {
		return fmt.Errorf("handle is required")
	}
	if len(handle) < 3 {
		return fmt.Errorf("handle must be at least 3 characters")
	}
	if len(handle) > 20 {
		return fmt.Errorf("handle is too long (max 20 characters)")
	}
	if !HandleRegex.MatchString(handle) {
		return fmt.Errorf("handle contains invalid characters (only lowercase letters and digits allowed)")
	}
	return nil
}

// ValidatePassword validates password
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password is required")
	}
	if len(password) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	if len(password) > 128 {
		return fmt.Errorf("password is too long (max 128 characters)")
	}
	return nil
}

// ValidateChannelName validates a channel name
func ValidateChannelName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("channel name is required")
	}
	if len(name) > 20 {
		return fmt.Errorf("channel name is too long (max 20 characters)")
	}
	return nil
}
