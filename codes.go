package indieauth

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"io"
)

// CodeAlphabet is the set of unreserved characters that GenerateCode draws
// from.
const CodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"

const (
	stateLength    = 16
	verifierLength = 128
)

// GenerateCode returns a string of length symbols taken from CodeAlphabet,
// suitable for use as a state or PKCE code verifier.
func GenerateCode(length int) (string, error) {
	if length < 0 {
		return "", errors.New("code length must not be negative")
	}

	buf := make([]byte, 4*length)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", err
	}

	code := make([]byte, length)
	for i := range code {
		v := uint64(binary.BigEndian.Uint32(buf[4*i:]))
		code[i] = CodeAlphabet[v*uint64(len(CodeAlphabet))>>32]
	}

	return string(code), nil
}
