package services

import (
	"errors"
)

// messageOf returns the client-facing message of an AppError.
func messageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
