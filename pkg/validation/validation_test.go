package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSessionID(t *testing.T) {
	assert.NoError(t, ValidateSessionID("3f1c2a0e-8b7d-4c5e-9f10-2a3b4c5d6e7f"))
	assert.Error(t, ValidateSessionID(""))
	assert.Error(t, ValidateSessionID("not-a-uuid"))
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		username string
		wantErr  bool
	}{
		{"alice", false},
		{"bob.smith", false},
		{"a", false},
		{"", true},
		{"   ", true},
		{"alice smith", true},
		{"alice;drop", true},
		{strings.Repeat("x", 51), true},
	}

	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateQueryText(t *testing.T) {
	assert.NoError(t, ValidateQueryText("List all documents"))
	assert.NoError(t, ValidateQueryText("   "))
	assert.NoError(t, ValidateQueryText(strings.Repeat("a", MaxQueryLength)))
	assert.Error(t, ValidateQueryText(strings.Repeat("a", MaxQueryLength+1)))
	assert.Error(t, ValidateQueryText(string([]byte{0xff, 0xfe})))
}

func TestValidateOneOf(t *testing.T) {
	views := []string{"chat", "documents"}
	assert.NoError(t, ValidateOneOf("chat", views, "view"))

	err := ValidateOneOf("settings", views, "view")
	assert.EqualError(t, err, "invalid view (must be one of chat, documents)")
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, ValidateURL("http://127.0.0.1:8000"))
	assert.NoError(t, ValidateURL("https://agent.example.com"))
	assert.Error(t, ValidateURL(""))
	assert.Error(t, ValidateURL("ftp://agent.example.com"))
	assert.Error(t, ValidateURL("http://"))
}

func TestValidateStringLength(t *testing.T) {
	assert.NoError(t, ValidateStringLength("héllo", 1, 5, "field"))
	assert.Error(t, ValidateStringLength("", 1, 5, "field"))
	assert.Error(t, ValidateStringLength("toolong", 1, 5, "field"))
}
