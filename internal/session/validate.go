package session

import (
	"errors"
	"regexp"
	"strings"
)

// ValidationError is a locally detected bad field. It never reaches the
// network; the server enforces the same rules, these checks exist to fail
// fast.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// ErrNoSession is returned when an authenticated operation runs without a
// stored token.
var ErrNoSession = errors.New("no active session")

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9]{3,20}$`)
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe    = regexp.MustCompile(`^[0-9]{10}$`)
)

const passwordSymbols = "!@#$%^&*"

// validateUserFields checks whichever fields are non-empty. Empty fields are
// skipped so partial updates can reuse the same checks; required-field
// enforcement is the caller's job.
func validateUserFields(username, password, email, phone string) error {
	if username != "" && !usernameRe.MatchString(username) {
		return &ValidationError{Field: "username", Reason: "username must be 3-20 alphanumeric characters"}
	}
	if password != "" && !validPassword(password) {
		return &ValidationError{
			Field:  "password",
			Reason: "password must be at least 8 characters long, with one uppercase letter, one number, and one special character",
		}
	}
	if email != "" && !emailRe.MatchString(email) {
		return &ValidationError{Field: "email", Reason: "invalid email format"}
	}
	if phone != "" && !phoneRe.MatchString(phone) {
		return &ValidationError{Field: "phone_number", Reason: "phone number must be a 10-digit number"}
	}
	return nil
}

// validPassword checks length >= 8, at least one uppercase letter, one digit,
// and one symbol from passwordSymbols, with no characters outside
// letters/digits/symbols. RE2 has no lookahead, so this is spelled out.
func validPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var upper, digit, symbol bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		default:
			return false
		}
	}
	return upper && digit && symbol
}
