package idgen

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewIDIsValidUUID(t *testing.T) {
	id := NewID()
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("NewID() = %q, not a uuid: %v", id, err)
	}
}

func TestNewPublicTokenFormat(t *testing.T) {
	token := NewPublicToken()
	if !strings.HasPrefix(token, "pub_") {
		t.Fatalf("token %q missing pub_ prefix", token)
	}
	if len(token) < 20 {
		t.Fatalf("token %q too short", token)
	}
}

func TestNewPublicTokenUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		token := NewPublicToken()
		if seen[token] {
			t.Fatalf("duplicate token after %d draws", i)
		}
		seen[token] = true
	}
}
