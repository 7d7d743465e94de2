package dice

// RulesMetadata describes the action roll rules this package implements.
type RulesMetadata struct {
	System       string
	Module       string
	RulesVersion string
	DiceModel    string
	KeepRule     string
	CritRule     string
	ZeroDiceRule string
	Tiers        []Tier
}

// RulesVersion returns the static metadata for the action roll.
func RulesVersion() RulesMetadata {
	return RulesMetadata{
		System:       "Forged in the Dark",
		Module:       "Action roll",
		RulesVersion: "1.0.0",
		DiceModel:    "Nd6",
		KeepRule:     "keep the highest die; 6 succeeds, 4-5 partially succeeds, 1-3 fails",
		CritRule:     "two or more sixes is a critical",
		ZeroDiceRule: "zero or negative pools roll 2d6 and keep the lowest; never critical",
		Tiers:        append([]Tier(nil), Tiers...),
	}
}
