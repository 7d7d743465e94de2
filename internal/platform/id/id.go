// Package id provides utilities for generating URL-safe identifiers.
//
// Identifiers are generated using UUIDv4 bytes encoded as base32 (RFC 4648)
// with no padding. The resulting strings are 26 characters long, lowercase,
// and safe for use in URLs and file paths.
package id

import (
	"encoding/base32"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var encoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// ErrInvalidID indicates a string is not a well-formed identifier.
var ErrInvalidID = errors.New("invalid id")

// NewID returns a new random identifier.
func NewID() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return strings.ToLower(encoding.EncodeToString(u[:])), nil
}

// Validate reports whether value decodes to a 16-byte identifier.
func Validate(value string) error {
	decoded, err := encoding.DecodeString(strings.ToUpper(strings.TrimSpace(value)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	if len(decoded) != 16 {
		return fmt.Errorf("%w: decoded %d bytes", ErrInvalidID, len(decoded))
	}
	return nil
}
