// Package random provides cryptographic seed generation helpers.
//
// It uses crypto/rand to generate high-entropy seeds suitable for
// initializing pseudo-random number generators in deterministic systems.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
)

// SeedSource records where a roll seed came from.
type SeedSource string

const (
	// SeedSourceGenerated marks a seed drawn from crypto/rand.
	SeedSourceGenerated SeedSource = "generated"
	// SeedSourceProvided marks a seed supplied by the caller for replay.
	SeedSourceProvided SeedSource = "provided"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// ResolveSeed returns the provided seed when set, otherwise a fresh one from
// generate. A nil generate falls back to NewSeed.
func ResolveSeed(provided *int64, generate func() (int64, error)) (int64, SeedSource, error) {
	if provided != nil {
		return *provided, SeedSourceProvided, nil
	}
	if generate == nil {
		generate = NewSeed
	}
	seed, err := generate()
	if err != nil {
		return 0, "", fmt.Errorf("generate seed: %w", err)
	}
	return seed, SeedSourceGenerated, nil
}
