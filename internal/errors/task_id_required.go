package errors

import "net/http"

var ErrTaskIDRequired = &Exception{
	Kind:       KindValidation,
	Field:      "id",
	Message:    "task id is required",
	StatusCode: http.StatusBadRequest,
}

var ErrIdentityRequired = &Exception{
	Kind:       KindPermission,
	Message:    "authenticated user id is required",
	StatusCode: http.StatusUnauthorized,
}
