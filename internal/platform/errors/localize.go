package errors

import (
	stderrors "errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/louisbranch/darkforge/internal/platform/errors/i18n"
)

// Localize returns the user-facing message for err in locale. Errors
// without a code, or whose metadata cannot fill the template, fall back to
// err.Error().
func Localize(err error, locale string) string {
	if err == nil {
		return ""
	}
	var domainErr *Error
	if !stderrors.As(err, &domainErr) {
		return err.Error()
	}
	msg, ok := i18n.GetCatalog(locale).Lookup(string(domainErr.Code), domainErr.Metadata)
	if !ok {
		return err.Error()
	}
	return msg
}

// Status converts err to a gRPC status carrying its code, metadata and
// localized message. Errors without a code map to codes.Unknown.
func Status(err error, locale string) *status.Status {
	if err == nil {
		return status.New(codes.OK, "")
	}
	var domainErr *Error
	if !stderrors.As(err, &domainErr) {
		return status.New(codes.Unknown, err.Error())
	}
	catalog := i18n.GetCatalog(locale)
	st, _ := status.FromError(domainErr.ToGRPCStatus(catalog.Locale(), Localize(err, locale)))
	return st
}
