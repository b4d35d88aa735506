package errors

import "net/http"

var ErrInvalidLimit = &Exception{
	Kind:       KindValidation,
	Field:      "limit",
	Message:    "limit must be positive",
	StatusCode: http.StatusBadRequest,
}
