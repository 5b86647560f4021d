package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxQueryLength bounds a single agent query in runes.
const MaxQueryLength = 4000

var (
	// UsernameRegex matches usernames as issued by the agent API.
	UsernameRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
)

// ValidateSessionID validates a console session id (a UUID).
func ValidateSessionID(id string) error {
	if id == "" {
		return fmt.Errorf("session ID is required")
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid session ID format")
	}
	return nil
}

func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("username is required")
	}
	if len(username) > 50 {
		return fmt.Errorf("username is too long (max 50 characters)")
	}
	if !UsernameRegex.MatchString(username) {
		return fmt.Errorf("username contains invalid characters (only letters, numbers, ., _, - allowed)")
	}
	return nil
}

// ValidateQueryText checks the length of a non-blank query. Blank text is not
// an error here: the session drops it silently.
func ValidateQueryText(text string) error {
	if !utf8.ValidString(text) {
		return fmt.Errorf("query contains invalid characters")
	}
	return ValidateStringLength(strings.TrimSpace(text), 0, MaxQueryLength, "query")
}

// ValidateOneOf checks that value is one of allowed.
func ValidateOneOf(value string, allowed []string, fieldName string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("invalid %s (must be one of %s)", fieldName, strings.Join(allowed, ", "))
}

// ValidateURL validates URL format
func ValidateURL(urlStr string) error {
	if urlStr == "" {
		return fmt.Errorf("URL is required")
	}
	u, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme (must be http or https)")
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}

func ValidateStringLength(s string, min, max int, fieldName string) error {
	length := utf8.RuneCountInString(s)
	if length < min {
		return fmt.Errorf("%s must be at least %d characters", fieldName, min)
	}
	if length > max {
		return fmt.Errorf("%s is too long (max %d characters)", fieldName, max)
	}
	return nil
}
