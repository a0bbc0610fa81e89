package idgen

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/google/uuid"
)

// tokenBytes gives 144 bits of entropy, enough to make public tokens
// infeasible to enumerate.
const tokenBytes = 18

// NewID returns a unique id for any entity.
func NewID() string {
	return uuid.NewString()
}

// NewPublicToken returns an unguessable opaque token used for
// unauthenticated ride-status lookup.
func NewPublicToken() string {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; fall back to a
		// uuid rather than handing out a predictable token.
		return "pub_" + uuid.NewString()
	}
	return "pub_" + base64.RawURLEncoding.EncodeToString(buf)
}
