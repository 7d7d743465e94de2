package cmd

import (
	"errors"
	"fmt"
	"testing"

	apperrors "github.com/louisbranch/darkforge/internal/platform/errors"
)

func TestErrorMessage(t *testing.T) {
	coded := fmt.Errorf("history: %w", apperrors.New(apperrors.CodeNotFound, "record not found"))
	if got := ErrorMessage(coded, "en-US"); got != "The requested resource was not found (NOT_FOUND)" {
		t.Fatalf("ErrorMessage = %q", got)
	}
	if got := ErrorMessage(errors.New("3 of 4 scenarios failed"), ""); got != "3 of 4 scenarios failed" {
		t.Fatalf("ErrorMessage = %q", got)
	}
	if got := ErrorMessage(nil, ""); got != "" {
		t.Fatalf("ErrorMessage(nil) = %q", got)
	}
}

func TestReportError(t *testing.T) {
	err := fmt.Errorf("roll: %w", apperrors.WithMetadata(apperrors.CodeRulesInvalidPosition, "unknown position",
		map[string]string{"Position": "sideways"}))
	report := ReportError(err, "en-US")
	if report.Code != "RULES_INVALID_POSITION" || report.Status != "InvalidArgument" {
		t.Fatalf("report = %+v", report)
	}
	if report.Message != "Unknown position sideways" {
		t.Fatalf("message = %q", report.Message)
	}
	if report.Metadata["Position"] != "sideways" || report.Detail != err.Error() {
		t.Fatalf("report = %+v", report)
	}

	plain := ReportError(errors.New("boom"), "")
	if plain.Code != "UNKNOWN" || plain.Status != "Unknown" || plain.Message != "boom" {
		t.Fatalf("plain report = %+v", plain)
	}
}
