// Package token mints the opaque review tokens that grant a customer access
// to their project. Rotating a project's token invalidates every previously
// issued review URL.
package token

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// URL-safe, no lookalike characters.
	alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	length   = 32
)

// New returns a fresh unguessable review token.
func New() (string, error) {
	t, err := gonanoid.Generate(alphabet, length)
	if err != nil {
		return "", fmt.Errorf("generate review token: %w", err)
	}
	return t, nil
}
