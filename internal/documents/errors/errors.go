package errors

import "errors"

var (
	ErrNotFound = errors.New("document not found")

	ErrReservedField = errors.New("document uses a reserved field name")
)
