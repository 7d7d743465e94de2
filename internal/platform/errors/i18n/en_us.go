package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeEntropyExhaustedSequence    = "ENTROPY_EXHAUSTED_SEQUENCE"
	CodeEntropyInvalidFace          = "ENTROPY_INVALID_FACE"
	CodeDiceInvalidPoolSize         = "DICE_INVALID_POOL_SIZE"
	CodeDiceInvalidFace             = "DICE_INVALID_FACE"
	CodeClockInvalidAdvance         = "CLOCK_INVALID_ADVANCE"
	CodeClockAlreadyComplete        = "CLOCK_ALREADY_COMPLETE"
	CodeClockInvalidSegments        = "CLOCK_INVALID_SEGMENTS"
	CodeClockInvalidState           = "CLOCK_INVALID_STATE"
	CodeLedgerCharacterRetired      = "LEDGER_CHARACTER_RETIRED"
	CodeLedgerInvalidHarmTransition = "LEDGER_INVALID_HARM_TRANSITION"
	CodeLedgerDuplicateTrauma       = "LEDGER_DUPLICATE_TRAUMA"
	CodeLedgerUnknownTrauma         = "LEDGER_UNKNOWN_TRAUMA"
	CodeLedgerTraumaRequired        = "LEDGER_TRAUMA_REQUIRED"
	CodeLedgerNoTraumaAvailable     = "LEDGER_NO_TRAUMA_AVAILABLE"
	CodeLedgerInvalidDelta          = "LEDGER_INVALID_DELTA"
	CodeLedgerInvalidConfig         = "LEDGER_INVALID_CONFIG"
	CodeRulesInvalidPosition        = "RULES_INVALID_POSITION"
	CodeRulesInvalidEffect          = "RULES_INVALID_EFFECT"
	CodeRulesInvalidTable           = "RULES_INVALID_TABLE"
	CodeRulesMissingEntry           = "RULES_MISSING_ENTRY"
	CodeNotFound                    = "NOT_FOUND"
)

var enUSMessages = map[Code]string{
	// Entropy errors
	CodeEntropyExhaustedSequence: "The scripted dice sequence has no faces left",
	CodeEntropyInvalidFace:       "Die face {{.Face}} must be between 1 and 6",

	// Dice errors
	CodeDiceInvalidPoolSize: "Dice pool {{.Pool}} exceeds the maximum of {{.Max}}",
	CodeDiceInvalidFace:     "Die face {{.Face}} must be between 1 and 6",

	// Clock errors
	CodeClockInvalidAdvance:  "Clocks advance by a positive number of segments",
	CodeClockAlreadyComplete: "Clock {{.Clock}} is already complete",
	CodeClockInvalidSegments: "Clocks need at least one segment",
	CodeClockInvalidState:    "Clock fill {{.Filled}} is outside 0..{{.Segments}}",

	// Ledger errors
	CodeLedgerCharacterRetired:      "The character has retired and can no longer take stress or harm",
	CodeLedgerInvalidHarmTransition: "Harm cannot move from {{.From}} to {{.To}} without justification",
	CodeLedgerDuplicateTrauma:       "The character already has the {{.Trauma}} trauma",
	CodeLedgerUnknownTrauma:         "{{.Trauma}} is not a trauma in this ruleset",
	CodeLedgerTraumaRequired:        "Choose a trauma for the stress overflow",
	CodeLedgerNoTraumaAvailable:     "No trauma conditions remain to assign",
	CodeLedgerInvalidDelta:          "The ledger change is not valid",
	CodeLedgerInvalidConfig:         "The ledger configuration is not valid",

	// Ruleset errors
	CodeRulesInvalidPosition: "Unknown position {{.Position}}",
	CodeRulesInvalidEffect:   "Unknown effect {{.Effect}}",
	CodeRulesInvalidTable:    "The ruleset consequence table is not valid",
	CodeRulesMissingEntry:    "The ruleset has no consequence for this roll",

	// Storage errors
	CodeNotFound: "The requested resource was not found",
}
