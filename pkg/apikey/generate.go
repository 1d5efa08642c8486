package apikey

import (
	"crypto/rand"
	"errors"
	"io"
)

// KeyLength is the length of a generated key.
const KeyLength = 20

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// maxUnbiased is the largest multiple of len(alphabet) that fits in a byte.
// Bytes at or above it are rejected so every character is equally likely.
const maxUnbiased = 256 - 256%len(alphabet)

// Generate returns a new KeyLength-character key drawn uniformly from
// [A-Za-z0-9] using crypto/rand.
func Generate() (string, error) {
	return generateFrom(rand.Reader)
}

func generateFrom(r io.Reader) (string, error) {
	out := make([]byte, 0, KeyLength)
	buf := make([]byte, KeyLength*2)
	for len(out) < KeyLength {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", errors.Join(ErrGenerate, err)
		}
		for _, b := range buf {
			if int(b) >= maxUnbiased {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == KeyLength {
				break
			}
		}
	}
	return string(out), nil
}
