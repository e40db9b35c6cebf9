package dto

import (
	"net/http"
	"strings"
)

// General error codes used by the HTTP layer itself
const (
	ErrCodeInternal   = "INTERNAL_ERROR"
	ErrCodeBadRequest = "BAD_REQUEST"
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeNotFound   = "NOT_FOUND"
)

// errorCodeHTTPStatus maps domain error codes to HTTP status codes.
// Codes absent here fall through to the prefix heuristics below.
var errorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,
	ErrCodeValidation: http.StatusBadRequest,

	"NOT_FOUND":            http.StatusNotFound,
	"ALREADY_EXISTS":       http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,
	"INVALID_STATE":        http.StatusUnprocessableEntity,

	"INSUFFICIENT_STOCK":                   http.StatusUnprocessableEntity,
	"NEGATIVE_STOCK":                       http.StatusUnprocessableEntity,
	"COUNTING_PROCESS_ALREADY_COMPLETED":   http.StatusConflict,
	"BIN_LOCATION_MISMATCH":                http.StatusUnprocessableEntity,
	"JOB_NOT_SCHEDULABLE":                  http.StatusUnprocessableEntity,
	"UNKNOWN_PROFILE":                      http.StatusUnprocessableEntity,
	"STOCKING_REQUEST_NOT_FULLY_STOCKABLE": http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status for a domain error code.
// INVALID_* codes are client mistakes (400), UNKNOWN_* codes name
// unresolvable references (422); anything else is treated as internal.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "INVALID_") {
		return http.StatusBadRequest
	}
	if strings.HasPrefix(code, "UNKNOWN_") {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
