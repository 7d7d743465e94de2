package dice

import (
	"errors"
	"testing"

	"github.com/louisbranch/darkforge/internal/forge/entropy"
)

func script(t *testing.T, faces ...int) *entropy.Script {
	t.Helper()
	s, err := entropy.NewScript(faces...)
	if err != nil {
		t.Fatalf("NewScript: %v", err)
	}
	return s
}

func TestResolveClassifiesTiers(t *testing.T) {
	tests := []struct {
		name      string
		pool      int
		faces     []int
		tier      Tier
		kept      int
		crits     int
		zeroDice  bool
		remaining int
	}{
		{name: "two sixes critical", pool: 4, faces: []int{2, 6, 6, 3}, tier: TierCritical, kept: 6, crits: 2},
		{name: "three sixes critical", pool: 3, faces: []int{6, 6, 6}, tier: TierCritical, kept: 6, crits: 3},
		{name: "single six success", pool: 3, faces: []int{1, 6, 4}, tier: TierSuccess, kept: 6, crits: 1},
		{name: "five is partial", pool: 2, faces: []int{5, 2}, tier: TierPartialSuccess, kept: 5},
		{name: "four is partial", pool: 1, faces: []int{4}, tier: TierPartialSuccess, kept: 4},
		{name: "three fails", pool: 3, faces: []int{3, 1, 2}, tier: TierFailure, kept: 3},
		{name: "zero dice keeps lowest", pool: 0, faces: []int{5, 2}, tier: TierFailure, kept: 2, zeroDice: true},
		{name: "zero dice partial", pool: 0, faces: []int{4, 5}, tier: TierPartialSuccess, kept: 4, zeroDice: true},
		{name: "zero dice double six never critical", pool: 0, faces: []int{6, 6}, tier: TierSuccess, kept: 6, zeroDice: true},
		{name: "negative pool rolls two", pool: -2, faces: []int{6, 3, 6}, tier: TierFailure, kept: 3, zeroDice: true, remaining: 1},
		{name: "extra faces left alone", pool: 1, faces: []int{6, 6}, tier: TierSuccess, kept: 6, crits: 1, remaining: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := script(t, tt.faces...)
			outcome, err := Resolve(tt.pool, src)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if outcome.Tier != tt.tier {
				t.Fatalf("tier = %v, want %v", outcome.Tier, tt.tier)
			}
			if outcome.Kept != tt.kept {
				t.Fatalf("kept = %d, want %d", outcome.Kept, tt.kept)
			}
			if outcome.CriticalCount != tt.crits {
				t.Fatalf("critical count = %d, want %d", outcome.CriticalCount, tt.crits)
			}
			if outcome.ZeroDice != tt.zeroDice {
				t.Fatalf("zero dice = %v, want %v", outcome.ZeroDice, tt.zeroDice)
			}
			if outcome.Pool != tt.pool {
				t.Fatalf("pool = %d, want %d", outcome.Pool, tt.pool)
			}
			if src.Remaining() != tt.remaining {
				t.Fatalf("remaining = %d, want %d", src.Remaining(), tt.remaining)
			}
		})
	}
}

func TestResolveDrawsExactPoolSize(t *testing.T) {
	for pool := -3; pool <= 8; pool++ {
		want := pool
		if pool <= 0 {
			want = 2
		}
		rec := entropy.NewRecorder(entropy.NewUniform(int64(pool + 100)))
		outcome, err := Resolve(pool, rec)
		if err != nil {
			t.Fatalf("Resolve(%d): %v", pool, err)
		}
		if got := len(rec.Faces()); got != want {
			t.Fatalf("pool %d drew %d faces, want %d", pool, got, want)
		}
		if len(outcome.Faces) != want {
			t.Fatalf("pool %d recorded %d faces, want %d", pool, len(outcome.Faces), want)
		}
	}
}

func TestResolveNeverCriticalWithoutDice(t *testing.T) {
	src := entropy.NewUniform(5)
	for i := 0; i < 2000; i++ {
		outcome, err := Resolve(0, src)
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if outcome.Tier == TierCritical || outcome.CriticalCount != 0 {
			t.Fatalf("zero pool produced %+v", outcome)
		}
	}
}

func TestResolveExhaustedScript(t *testing.T) {
	_, err := Resolve(3, script(t, 6, 6))
	if !errors.Is(err, entropy.ErrExhaustedSequence) {
		t.Fatalf("error = %v, want %v", err, entropy.ErrExhaustedSequence)
	}
}

func TestResolverMaxPool(t *testing.T) {
	src := script(t, 1, 2, 3, 4, 5, 6, 6)
	_, err := Resolver{MaxPool: 6}.Resolve(7, src)
	if !errors.Is(err, ErrInvalidPoolSize) {
		t.Fatalf("error = %v, want %v", err, ErrInvalidPoolSize)
	}
	if src.Remaining() != 7 {
		t.Fatalf("remaining = %d, want no draws", src.Remaining())
	}

	outcome, err := Resolver{MaxPool: 6}.Resolve(6, src)
	if err != nil {
		t.Fatalf("Resolve at max: %v", err)
	}
	if outcome.Tier != TierSuccess {
		t.Fatalf("tier = %v, want %v", outcome.Tier, TierSuccess)
	}
}

func TestClassify(t *testing.T) {
	if _, err := Classify(nil, false); !errors.Is(err, ErrInvalidPoolSize) {
		t.Fatalf("empty faces error = %v, want %v", err, ErrInvalidPoolSize)
	}
	if _, err := Classify([]int{3, 7}, false); !errors.Is(err, ErrInvalidFace) {
		t.Fatalf("invalid face error = %v, want %v", err, ErrInvalidFace)
	}

	faces := []int{6, 2, 6}
	outcome, err := Classify(faces, false)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	faces[0] = 1
	if outcome.Faces[0] != 6 {
		t.Fatal("expected outcome faces to be copied")
	}
	if outcome.Tier != TierCritical {
		t.Fatalf("tier = %v, want %v", outcome.Tier, TierCritical)
	}
}

func TestTierOrderAndParse(t *testing.T) {
	if !(TierFailure < TierPartialSuccess && TierPartialSuccess < TierSuccess && TierSuccess < TierCritical) {
		t.Fatal("tiers out of order")
	}
	for _, tier := range Tiers {
		parsed, err := ParseTier(" " + tier.String() + " ")
		if err != nil {
			t.Fatalf("ParseTier(%q): %v", tier, err)
		}
		if parsed != tier {
			t.Fatalf("ParseTier(%q) = %v", tier, parsed)
		}
	}
	if _, err := ParseTier("triumph"); err == nil {
		t.Fatal("expected unknown tier error")
	}

	var tier Tier
	if err := tier.UnmarshalText([]byte("CRITICAL")); err != nil || tier != TierCritical {
		t.Fatalf("UnmarshalText = %v, %v", tier, err)
	}
}

func TestExplainOutcome(t *testing.T) {
	result, err := Explain(0, script(t, 5, 2))
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if result.RulesVersion != RulesVersion().RulesVersion {
		t.Fatalf("rules version = %q", result.RulesVersion)
	}

	codes := []string{"ROLL_POOL", "SELECT_KEPT_DIE", "COUNT_CRITICALS", "CLASSIFY_TIER"}
	if len(result.Steps) != len(codes) {
		t.Fatalf("steps = %d, want %d", len(result.Steps), len(codes))
	}
	for i, code := range codes {
		if result.Steps[i].Code != code {
			t.Fatalf("step %d = %q, want %q", i, result.Steps[i].Code, code)
		}
	}
	if keep := result.Steps[1].Data["keep"]; keep != "lowest" {
		t.Fatalf("keep = %v, want lowest", keep)
	}
	if label := result.Steps[3].Data["tier_label"]; label != "failure" {
		t.Fatalf("tier label = %v, want failure", label)
	}
}

func TestRulesVersionMetadata(t *testing.T) {
	meta := RulesVersion()
	if meta.RulesVersion == "" || meta.DiceModel != "Nd6" {
		t.Fatalf("unexpected metadata %+v", meta)
	}
	if len(meta.Tiers) != len(Tiers) {
		t.Fatalf("tiers = %v", meta.Tiers)
	}
}
