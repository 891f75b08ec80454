package auth

import (
	"errors"
	"fmt"
	"strings"
)

const (
	minPasswordLength = 12
	minSecretLength   = 32
)

// よくある弱いパスワード
var weakPasswordList = []string{
	"admin", "password", "123456", "secret", "admin123", "password123",
	"qwerty", "abc123", "letmein", "welcome", "changeme", "default", "root", "test",
}

var keyboardPatterns = []string{"qwertyuiop", "asdfghjkl", "zxcvbnm", "qwerty", "asdfgh", "zxcvb"}

// ValidateSecret rejects signing secrets that are short or trivially guessable.
func ValidateSecret(secret []byte) error {
	if len(secret) < minSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d bytes (got %d)", minSecretLength, len(secret))
	}
	if isRepeatedChar(string(secret)) {
		return errors.New("JWT_SECRET must not be a single repeated character")
	}
	return nil
}

// ValidateAdminCredentials checks the admin account at startup. It runs only
// when authentication is enabled.
func ValidateAdminCredentials(user, pass string) error {
	const prefix = "admin credentials validation failed: "
	switch {
	case strings.TrimSpace(user) == "":
		return errors.New(prefix + "ADMIN_USER must not be empty")
	case pass == "":
		return errors.New(prefix + "ADMIN_USER_PASSWORD must not be empty")
	case len(pass) < minPasswordLength:
		return fmt.Errorf(prefix+"ADMIN_USER_PASSWORD must be at least %d characters", minPasswordLength)
	case isRepeatedChar(pass) || isNumericSequence(pass):
		return errors.New(prefix + "ADMIN_USER_PASSWORD must not be a simple numeric pattern")
	case isKeyboardPattern(pass):
		return errors.New(prefix + "ADMIN_USER_PASSWORD must not be a keyboard pattern")
	}

	lower := strings.ToLower(pass)
	for _, weak := range weakPasswordList {
		// "admin1234567" のような派生も弾く
		if lower == weak || (strings.HasPrefix(lower, weak) && len(pass) < minPasswordLength+5) {
			return errors.New(prefix + "ADMIN_USER_PASSWORD must not be based on common weak passwords")
		}
	}
	return nil
}

func isRepeatedChar(s string) bool {
	if s == "" {
		return false
	}
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

// isNumericSequence matches ascending or descending digit runs, wrapping 9<->0.
func isNumericSequence(s string) bool {
	if len(s) < 2 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	asc, desc := true, true
	for i := 1; i < len(s); i++ {
		d := int(s[i]) - int(s[i-1])
		if d != 1 && d != -9 {
			asc = false
		}
		if d != -1 && d != 9 {
			desc = false
		}
	}
	return asc || desc
}

func isKeyboardPattern(pass string) bool {
	lower := strings.ToLower(pass)
	for _, p := range keyboardPatterns {
		if strings.Contains(lower, p) || strings.Contains(lower, reverse(p)) {
			return true
		}
	}
	return false
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}
