package random

import (
	"errors"
	"testing"
)

func TestNewSeedVaries(t *testing.T) {
	first, err := NewSeed()
	if err != nil {
		t.Fatalf("NewSeed returned error: %v", err)
	}
	second, err := NewSeed()
	if err != nil {
		t.Fatalf("NewSeed returned error: %v", err)
	}
	if first == second {
		t.Fatalf("expected distinct seeds, got %d twice", first)
	}
}

func TestResolveSeedDefaultsToGenerated(t *testing.T) {
	seed, source, err := ResolveSeed(nil, func() (int64, error) {
		return 123, nil
	})
	if err != nil {
		t.Fatalf("ResolveSeed returned error: %v", err)
	}
	if seed != 123 {
		t.Fatalf("seed = %d, want 123", seed)
	}
	if source != SeedSourceGenerated {
		t.Fatalf("seed source = %q, want %q", source, SeedSourceGenerated)
	}
}

func TestResolveSeedUsesProvidedSeed(t *testing.T) {
	provided := int64(77)
	seed, source, err := ResolveSeed(&provided, func() (int64, error) {
		t.Fatal("generator should not be called")
		return 0, nil
	})
	if err != nil {
		t.Fatalf("ResolveSeed returned error: %v", err)
	}
	if seed != 77 {
		t.Fatalf("seed = %d, want 77", seed)
	}
	if source != SeedSourceProvided {
		t.Fatalf("seed source = %q, want %q", source, SeedSourceProvided)
	}
}

func TestResolveSeedWrapsGeneratorError(t *testing.T) {
	boom := errors.New("no entropy")
	_, _, err := ResolveSeed(nil, func() (int64, error) {
		return 0, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("ResolveSeed error = %v, want %v", err, boom)
	}
}
