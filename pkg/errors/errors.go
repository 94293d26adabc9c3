package errors

import "errors"

var (
	ErrStorageUnavailable = errors.New("queue storage unavailable")
	ErrMatchUnavailable   = errors.New("matching temporarily unavailable")

	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidRequest = errors.New("invalid request")
)
