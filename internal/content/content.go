package content

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const (
	MinPasswordLength = 6
	MaxUsernameLength = 32
	MaxMessageLength  = 4000
)

var (
	policy        = bluemonday.UGCPolicy()
	strictPolicy  = bluemonday.StrictPolicy()
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
	emailRegex    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	markdown = goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Strikethrough))
)

// Sanitize keeps the formatting subset of HTML a transcript may carry and
// drops scripts, handlers and unsafe URLs.
func Sanitize(html string) string {
	return policy.Sanitize(html)
}

// PlainText strips every tag, leaving the text content.
func PlainText(input string) string {
	return strictPolicy.Sanitize(input)
}

// Markdown renders a message body to sanitized HTML.
func Markdown(input string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(input), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return Sanitize(buf.String()), nil
}

// ValidateUsername checks if the username contains only allowed characters
// (alphanumeric, dot, dash, underscore) and is not empty.
func ValidateUsername(username string) error {
	if username == "" {
		return errors.New("username cannot be empty")
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return fmt.Errorf("username is longer than %d characters", MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return errors.New("username contains invalid characters (allowed: alphanumeric, dot, dash, underscore)")
	}
	return nil
}

func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return errors.New("email address is not valid")
	}
	return nil
}

func ValidatePassword(password string) error {
	if password == "" {
		return errors.New("password cannot be empty")
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// ValidateMessage rejects blank and oversized message bodies.
func ValidateMessage(body string) error {
	if strings.TrimSpace(body) == "" {
		return errors.New("message cannot be empty")
	}
	if utf8.RuneCountInString(body) > MaxMessageLength {
		return fmt.Errorf("message is longer than %d characters", MaxMessageLength)
	}
	return nil
}

// Field is a named form value for Required.
type Field struct {
	Name  string
	Value string
}

// Required reports every blank field in one error.
func Required(fields ...Field) error {
	var errs []error
	for _, f := range fields {
		if strings.TrimSpace(f.Value) == "" {
			errs = append(errs, fmt.Errorf("%s is required", f.Name))
		}
	}
	return errors.Join(errs...)
}

// ValidateSignup checks a registration form before it is submitted.
func ValidateSignup(username, email, password string) error {
	if err := Required(Field{"username", username}, Field{"email", email}, Field{"password", password}); err != nil {
		return err
	}
	return errors.Join(ValidateUsername(username), ValidateEmail(email), ValidatePassword(password))
}

// ValidateLogin checks a login form before it is submitted.
func ValidateLogin(email, password string) error {
	if err := Required(Field{"email", email}, Field{"password", password}); err != nil {
		return err
	}
	return ValidateEmail(email)
}
