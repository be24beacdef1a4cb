package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizedEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  string
	}{
		{"standard email", "alice@example.com", "a****@*******.com"},
		{"single char user", "a@example.com", "a@*******.com"},
		{"subdomain", "bob@mail.example.com", "b**@****.*******.com"},
		{"missing at", "not-an-email", "[invalid-email]"},
		{"empty", "", "[invalid-email]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizedEmail(tt.email))
		})
	}
}

func TestSanitizeQueryString(t *testing.T) {
	tests := []struct {
		name     string
		rawQuery string
		want     bool
	}{
		{"password param", "password=hunter2", true},
		{"token param", "token=abc123", true},
		{"otp param", "otp=123456", true},
		{"mixed case", "Token=abc123", true},
		{"benign params", "status=resolved&priority=high", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeQueryString(tt.rawQuery))
		})
	}
}
