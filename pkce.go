package indieauth

import (
	"crypto/sha256"
	"encoding/base64"
	"hash"
	"strings"
)

// A ChallengeDeriver turns a PKCE code verifier into the code challenge sent
// with the authorization request.
type ChallengeDeriver interface {
	Method() string
	Challenge(verifier string) string
}

// S256 derives challenges using the "S256" method. Hash defaults to SHA-256
// and only needs setting to supply a different implementation of it.
type S256 struct {
	Hash func() hash.Hash
}

func (S256) Method() string {
	return "S256"
}

func (d S256) Challenge(verifier string) string {
	newHash := d.Hash
	if newHash == nil {
		newHash = sha256.New
	}

	h := newHash()
	h.Write([]byte(verifier))
	return base64URL(h.Sum(nil))
}

func base64URL(data []byte) string {
	s := base64.URLEncoding.EncodeToString(data)
	return strings.TrimRight(s, "=")
}
