package errors

import "net/http"

var ErrOptimisticLock = &Exception{
	Kind:       KindConflict,
	Message:    "optimistic locking conflict",
	StatusCode: http.StatusConflict,
}
