package content

import (
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Plain text", "Hello World", "Hello World"},
		{"Formatting kept", "<p>Hello <strong>World</strong></p>", "<p>Hello <strong>World</strong></p>"},
		{"Script tag", "<script>alert('xss')</script>Hello", "Hello"},
		{"Event handler", `<p onclick="steal()">hi</p>`, "<p>hi</p>"},
		{"Javascript link", "<a href='javascript:alert(1)'>Click me</a>", "Click me"},
		{"Emoji", "I am 🤖", "I am 🤖"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.input); got != tt.expected {
				t.Errorf("Sanitize() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"Valid alphanumeric", "user123", false},
		{"Valid with dot", "user.name", false},
		{"Valid with dash", "user-name", false},
		{"Valid with underscore", "user_name", false},
		{"Invalid space", "user name", true},
		{"Invalid special char", "user@name", true},
		{"Invalid script", "<script>", true},
		{"Empty", "", true},
		{"Mixed case", "User.Name-123", false},
		{"Too long", strings.Repeat("a", MaxUsernameLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateUsername(tt.input); (err != nil) != tt.wantErr {
				t.Errorf("ValidateUsername() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"Valid", "alice@example.com", false},
		{"Subdomain", "a.b@mail.example.org", false},
		{"Missing at", "alice.example.com", true},
		{"Missing domain dot", "alice@example", true},
		{"Whitespace", "alice @example.com", true},
		{"Empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateEmail(tt.input); (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("secret"); err != nil {
		t.Errorf("ValidatePassword() unexpected error: %v", err)
	}
	if err := ValidatePassword("short"); err == nil {
		t.Error("ValidatePassword() accepted a 5 character password")
	}
	if err := ValidatePassword(""); err == nil {
		t.Error("ValidatePassword() accepted an empty password")
	}
}

func TestValidateMessage(t *testing.T) {
	if err := ValidateMessage("  \n\t "); err == nil {
		t.Error("ValidateMessage() accepted a blank body")
	}
	if err := ValidateMessage(strings.Repeat("x", MaxMessageLength+1)); err == nil {
		t.Error("ValidateMessage() accepted an oversized body")
	}
	if err := ValidateMessage("hello"); err != nil {
		t.Errorf("ValidateMessage() unexpected error: %v", err)
	}
}

func TestRequired(t *testing.T) {
	err := Required(Field{"email", " "}, Field{"password", "pw"}, Field{"username", ""})
	if err == nil {
		t.Fatal("Required() returned nil for blank fields")
	}
	want := "email is required\nusername is required"
	if err.Error() != want {
		t.Errorf("Required() = %q, want %q", err.Error(), want)
	}
	if err := Required(Field{"email", "a@b.c"}); err != nil {
		t.Errorf("Required() unexpected error: %v", err)
	}
}

func TestValidateSignupAndLogin(t *testing.T) {
	if err := ValidateSignup("alice", "alice@example.com", "secret1"); err != nil {
		t.Errorf("ValidateSignup() unexpected error: %v", err)
	}
	err := ValidateSignup("bad name", "nope", "123")
	if err == nil {
		t.Fatal("ValidateSignup() accepted an invalid form")
	}
	for _, part := range []string{"username", "email", "password"} {
		if !strings.Contains(err.Error(), part) {
			t.Errorf("ValidateSignup() error %q does not mention %s", err, part)
		}
	}

	if err := ValidateLogin("", ""); err == nil {
		t.Error("ValidateLogin() accepted empty fields")
	}
	if err := ValidateLogin("alice@example.com", "x"); err != nil {
		t.Errorf("ValidateLogin() unexpected error: %v", err)
	}
}

func TestMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains string
		absent   string
	}{
		{"Emphasis", "**bold** move", "<strong>bold</strong>", ""},
		{"Strikethrough", "~~gone~~", "<del>gone</del>", ""},
		{"Raw script dropped", "hi <script>alert(1)</script>", "hi", "<script>"},
		{"Javascript link dropped", "[x](javascript:alert(1))", "x", "javascript:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Markdown(tt.input)
			if err != nil {
				t.Fatalf("Markdown() error = %v", err)
			}
			if !strings.Contains(got, tt.contains) {
				t.Errorf("Markdown() = %q, want it to contain %q", got, tt.contains)
			}
			if tt.absent != "" && strings.Contains(got, tt.absent) {
				t.Errorf("Markdown() = %q, must not contain %q", got, tt.absent)
			}
		})
	}
}

func TestPlainText(t *testing.T) {
	if got := PlainText("<b>hi</b> there"); got != "hi there" {
		t.Errorf("PlainText() = %q, want %q", got, "hi there")
	}
}
