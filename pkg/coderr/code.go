// Copyright 2023 CobaltStor Project Authors. Licensed under Apache-2.0.

package coderr

import "net/http"

type Code int

const (
	Ok Code = iota
	InvalidParams
	BadRequest
	NotFound
	TooManyRequests
	Internal

	// PrintHelpUsage tells the caller to print the command usage and exit.
	PrintHelpUsage
)

// ToHTTPCode converts the Code to a http status code.
func (c Code) ToHTTPCode() int {
	switch c {
	case Ok:
		return http.StatusOK
	case InvalidParams, BadRequest:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case TooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
