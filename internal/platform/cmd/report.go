package cmd

import (
	"fmt"

	"google.golang.org/genproto/googleapis/rpc/errdetails"

	apperrors "github.com/louisbranch/darkforge/internal/platform/errors"
)

// ErrorMessage renders a command failure for the terminal. Coded errors
// use the locale's catalog message followed by the code.
func ErrorMessage(err error, locale string) string {
	if err == nil {
		return ""
	}
	code := apperrors.CodeOf(err)
	if code == apperrors.CodeUnknown {
		return err.Error()
	}
	return fmt.Sprintf("%s (%s)", apperrors.Localize(err, locale), code)
}

// ErrorReport is the machine-readable form of a command failure.
type ErrorReport struct {
	Code     string            `json:"code"`
	Status   string            `json:"status"`
	Message  string            `json:"message"`
	Detail   string            `json:"detail"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ReportError describes err in the shape a gRPC host would return it.
func ReportError(err error, locale string) ErrorReport {
	st := apperrors.Status(err, locale)
	report := ErrorReport{
		Code:    string(apperrors.CodeOf(err)),
		Status:  st.Code().String(),
		Message: apperrors.Localize(err, locale),
		Detail:  err.Error(),
	}
	for _, detail := range st.Details() {
		switch d := detail.(type) {
		case *errdetails.ErrorInfo:
			report.Metadata = d.GetMetadata()
		case *errdetails.LocalizedMessage:
			report.Message = d.GetMessage()
		}
	}
	return report
}
