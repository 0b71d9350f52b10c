// errors/common_errors.go
package errors

import "errors"

var (
	ErrDatabaseOperation = errors.New("database operation failed")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidPagination = errors.New("invalid pagination parameters")
	ErrInvalidTimeRange  = errors.New("invalid time range")
)
