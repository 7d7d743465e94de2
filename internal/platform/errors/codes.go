// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Entropy errors
	CodeEntropyExhaustedSequence Code = "ENTROPY_EXHAUSTED_SEQUENCE"
	CodeEntropyInvalidFace       Code = "ENTROPY_INVALID_FACE"

	// Dice/mechanics errors
	CodeDiceInvalidPoolSize Code = "DICE_INVALID_POOL_SIZE"
	CodeDiceInvalidFace     Code = "DICE_INVALID_FACE"

	// Clock errors
	CodeClockInvalidAdvance  Code = "CLOCK_INVALID_ADVANCE"
	CodeClockAlreadyComplete Code = "CLOCK_ALREADY_COMPLETE"
	CodeClockInvalidSegments Code = "CLOCK_INVALID_SEGMENTS"
	CodeClockInvalidState    Code = "CLOCK_INVALID_STATE"

	// Ledger errors
	CodeLedgerCharacterRetired      Code = "LEDGER_CHARACTER_RETIRED"
	CodeLedgerInvalidHarmTransition Code = "LEDGER_INVALID_HARM_TRANSITION"
	CodeLedgerDuplicateTrauma       Code = "LEDGER_DUPLICATE_TRAUMA"
	CodeLedgerUnknownTrauma         Code = "LEDGER_UNKNOWN_TRAUMA"
	CodeLedgerTraumaRequired        Code = "LEDGER_TRAUMA_REQUIRED"
	CodeLedgerNoTraumaAvailable     Code = "LEDGER_NO_TRAUMA_AVAILABLE"
	CodeLedgerInvalidDelta          Code = "LEDGER_INVALID_DELTA"
	CodeLedgerInvalidConfig         Code = "LEDGER_INVALID_CONFIG"

	// Ruleset errors
	CodeRulesInvalidPosition Code = "RULES_INVALID_POSITION"
	CodeRulesInvalidEffect   Code = "RULES_INVALID_EFFECT"
	CodeRulesInvalidTable    Code = "RULES_INVALID_TABLE"
	CodeRulesMissingEntry    Code = "RULES_MISSING_ENTRY"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeEntropyInvalidFace,
		CodeDiceInvalidPoolSize,
		CodeDiceInvalidFace,
		CodeClockInvalidAdvance,
		CodeClockInvalidSegments,
		CodeClockInvalidState,
		CodeLedgerInvalidHarmTransition,
		CodeLedgerUnknownTrauma,
		CodeLedgerTraumaRequired,
		CodeLedgerInvalidDelta,
		CodeLedgerInvalidConfig,
		CodeRulesInvalidPosition,
		CodeRulesInvalidEffect,
		CodeRulesInvalidTable:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeClockAlreadyComplete,
		CodeLedgerCharacterRetired,
		CodeLedgerNoTraumaAvailable:
		return codes.FailedPrecondition

	// AlreadyExists - set membership constraint
	case CodeLedgerDuplicateTrauma:
		return codes.AlreadyExists

	// ResourceExhausted - scripted entropy ran dry
	case CodeEntropyExhaustedSequence:
		return codes.ResourceExhausted

	// NotFound - resource doesn't exist
	case CodeNotFound,
		CodeRulesMissingEntry:
		return codes.NotFound

	default:
		return codes.Internal
	}
}
