package errors

import (
	stderrors "errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
)

// UserMessage returns a user-friendly error message
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return formatUserError(appErr)
	}
	return err.Error()
}

func formatUserError(appErr *AppError) string {
	switch appErr.Type {
	case ErrorTypeValidation:
		return formatValidationError(appErr)
	case ErrorTypeNetwork:
		return formatNetworkError(appErr)
	case ErrorTypeAPI:
		return formatAPIError(appErr)
	case ErrorTypeConfig:
		return formatConfigError(appErr)
	default:
		return appErr.Message
	}
}

func formatValidationError(appErr *AppError) string {
	if field, ok := appErr.Context["field"]; ok {
		return fmt.Sprintf("Invalid %s: %s", field, appErr.Message)
	}
	return appErr.Message
}

func formatNetworkError(appErr *AppError) string {
	if url, ok := appErr.Context["url"]; ok {
		return fmt.Sprintf("Network error accessing %s: %s", url, appErr.Message)
	}
	return appErr.Message
}

func formatAPIError(appErr *AppError) string {
	status, hasStatus := appErr.Context["status"]
	url, hasURL := appErr.Context["url"]
	switch {
	case hasStatus && hasURL:
		return fmt.Sprintf("API error %v from %s: %s", status, url, appErr.Message)
	case hasStatus:
		return fmt.Sprintf("API error %v: %s", status, appErr.Message)
	default:
		return appErr.Message
	}
}

func formatConfigError(appErr *AppError) string {
	if field, ok := appErr.Context["field"]; ok {
		return fmt.Sprintf("Configuration error (%s): %s", field, appErr.Message)
	}
	return appErr.Message
}

// Present logs err on logger at error level, with any context as fields.
// At debug level the full DebugInfo breakdown follows.
func Present(logger zerolog.Logger, err error) {
	if err == nil {
		return
	}

	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		logger.Error().Err(err).Msg(UserMessage(err))
		logger.Debug().Interface("details", DebugInfo(err)).Msg("error details")
		return
	}

	event := logger.Error().Str("type", string(appErr.Type))
	keys := make([]string, 0, len(appErr.Context))
	for key := range appErr.Context {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		event = event.Interface(key, appErr.Context[key])
	}
	if appErr.Cause != nil {
		event = event.AnErr("cause", appErr.Cause)
	}
	event.Msg(formatUserError(appErr))
	logger.Debug().Interface("details", DebugInfo(err)).Msg("error details")
}

// DebugInfo returns detailed error information for debugging
func DebugInfo(err error) map[string]interface{} {
	info := map[string]interface{}{
		"error":   err.Error(),
		"type":    "unknown",
		"context": map[string]interface{}{},
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		info["type"] = string(appErr.Type)
		info["message"] = appErr.Message
		info["context"] = appErr.Context

		if appErr.Cause != nil {
			info["cause"] = appErr.Cause.Error()
		}
	}

	return info
}
